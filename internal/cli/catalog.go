package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/cqlsem/internal/catalog"
	"github.com/roach88/cqlsem/internal/compiler"
	"github.com/roach88/cqlsem/internal/schema"
)

// CatalogOptions holds flags for the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	DBPath string
}

// CatalogTable is one listed table.
type CatalogTable struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Columns []CatalogColumn `json:"columns"`
}

// CatalogColumn is one listed column.
type CatalogColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Role string `json:"role"`
}

// ImportResult reports a catalog import.
type ImportResult struct {
	Imported []CatalogTable `json:"imported"`
}

// DropResult reports removed tables.
type DropResult struct {
	Dropped []string `json:"dropped"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the persistent table catalog",
		Long: `Manage a SQLite table catalog.

A catalog lets analyze run without recompiling CUE sources. Import a
schema directory once, then pass --db to analyze.`,
	}
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to catalog database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newCatalogImportCommand(opts))
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogDropCommand(opts))
	return cmd
}

func newCatalogImportCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <schema-dir>",
		Short: "Compile a schema directory into the catalog",
		Long: `Compile the CUE tables in a schema directory and store them in the catalog.

Tables are replaced by keyspace and name. A table whose definition did not
change keeps its id.

Examples:
  cqlsem catalog import ./schema --db catalog.db
  cqlsem catalog import ./schema --db catalog.db --keyspace shop`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(cmd.Context(), opts, args[0], cmd)
		},
	}
}

func newCatalogListCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [table...]",
		Short: "List catalog tables",
		Long: `List the tables in the catalog, or only the named ones.

Names without a keyspace use --keyspace.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(cmd.Context(), opts, args, cmd)
		},
	}
}

func newCatalogDropCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>...",
		Short: "Remove tables from the catalog",
		Long: `Remove tables from the catalog. Names without a keyspace use --keyspace.

Examples:
  cqlsem catalog drop users --db catalog.db
  cqlsem catalog drop shop.orders shop.items --db catalog.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogDrop(cmd.Context(), opts, args, cmd)
		},
	}
}

func runCatalogImport(ctx context.Context, opts *CatalogOptions, schemaDir string, cmd *cobra.Command) error {
	ctx = contextOrBackground(ctx)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	tables, err := compileSchemaDir(schemaDir, opts.Keyspace)
	if err != nil {
		_ = formatter.Error(commandErrorCode(err), err.Error(), nil)
		return err
	}

	store, err := catalog.Open(opts.DBPath)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open catalog", err)
	}
	defer store.Close()

	result := ImportResult{Imported: make([]CatalogTable, 0, len(tables))}
	for _, t := range tables {
		id, err := store.PutTable(ctx, t)
		if err != nil {
			_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "import catalog", err)
		}
		logger.Debug().Str("table", t.Name.String()).Str("id", id).Msg("table stored")
		result.Imported = append(result.Imported, describeTable(t))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d table(s) into %s\n", len(result.Imported), opts.DBPath)
	for _, t := range result.Imported {
		fmt.Fprintf(formatter.Writer, "  %s\n", t.Name)
	}
	return nil
}

func runCatalogList(ctx context.Context, opts *CatalogOptions, names []string, cmd *cobra.Command) error {
	ctx = contextOrBackground(ctx)
	formatter := newFormatter(opts.RootOptions, cmd)

	store, err := openExistingCatalog(opts.DBPath)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeNotFound, err.Error(), nil)
		return err
	}
	defer store.Close()

	tables, err := selectTables(ctx, store, names, opts.Keyspace)
	if err != nil {
		_ = formatter.Error(catalogErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "list catalog", err)
	}

	listed := make([]CatalogTable, 0, len(tables))
	for _, t := range tables {
		listed = append(listed, describeTable(t))
	}

	if opts.Format == "json" {
		return formatter.Success(listed)
	}
	if len(listed) == 0 {
		fmt.Fprintln(formatter.Writer, "No tables in catalog.")
		return nil
	}
	for _, t := range listed {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = fmt.Sprintf("%s %s %s", c.Name, c.Type, c.Role)
		}
		fmt.Fprintf(formatter.Writer, "%s (%s)\n", t.Name, t.ID)
		fmt.Fprintf(formatter.Writer, "  %s\n", strings.Join(cols, ", "))
	}
	return nil
}

func runCatalogDrop(ctx context.Context, opts *CatalogOptions, names []string, cmd *cobra.Command) error {
	ctx = contextOrBackground(ctx)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	store, err := openExistingCatalog(opts.DBPath)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeNotFound, err.Error(), nil)
		return err
	}
	defer store.Close()

	dropped := make([]string, 0, len(names))
	for _, raw := range names {
		name, err := schema.ParseTableName(raw, opts.Keyspace)
		if err != nil {
			_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "drop table", err)
		}
		if err := store.DeleteTable(ctx, name); err != nil {
			_ = formatter.Error(catalogErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "drop table", err)
		}
		logger.Debug().Str("table", name.String()).Msg("table dropped")
		dropped = append(dropped, name.String())
	}

	if opts.Format == "json" {
		return formatter.Success(DropResult{Dropped: dropped})
	}
	fmt.Fprintf(formatter.Writer, "✓ Dropped %d table(s) from %s\n", len(dropped), opts.DBPath)
	for _, name := range dropped {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}

// selectTables returns every table when names is empty, otherwise the
// named tables in argument order.
func selectTables(ctx context.Context, store *catalog.Store, names []string, keyspace string) ([]*schema.TableDesc, error) {
	if len(names) == 0 {
		return store.ListTables(ctx)
	}
	tables := make([]*schema.TableDesc, 0, len(names))
	for _, raw := range names {
		name, err := schema.ParseTableName(raw, keyspace)
		if err != nil {
			return nil, err
		}
		t, err := store.GetTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func describeTable(t *schema.TableDesc) CatalogTable {
	out := CatalogTable{ID: t.ID, Name: t.Name.String(), Columns: make([]CatalogColumn, len(t.Columns))}
	for i := range t.Columns {
		c := &t.Columns[i]
		out.Columns[i] = CatalogColumn{Name: c.Name, Type: c.Type.String(), Role: c.Role()}
	}
	return out
}

// compileSchemaDir compiles every table in dir. Any load or validation
// error is a command error.
func compileSchemaDir(dir, keyspace string) ([]*schema.TableDesc, error) {
	loaded, errs := compiler.LoadDir(dir, keyspace, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("load schema %s", dir), errors.Join(errs...))
	}
	return loaded.Tables, nil
}

// openExistingCatalog opens path without creating it.
func openExistingCatalog(path string) (*catalog.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("catalog not found: %s", path), err)
	}
	store, err := catalog.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open catalog", err)
	}
	return store, nil
}

// loadCatalog returns the catalog analysis runs against: a snapshot of the
// database at dbPath when set, otherwise the tables compiled from
// schemaDir.
func loadCatalog(ctx context.Context, logger zerolog.Logger, keyspace, schemaDir, dbPath string) (*catalog.Memory, error) {
	if dbPath != "" {
		store, err := openExistingCatalog(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		snap, err := store.Snapshot(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read catalog", err)
		}
		logger.Debug().Str("db", dbPath).Int("tables", snap.Len()).Msg("catalog snapshot loaded")
		return snap, nil
	}

	tables, err := compileSchemaDir(schemaDir, keyspace)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("schema", schemaDir).Int("tables", len(tables)).Msg("schema compiled")
	return catalog.NewMemory(tables...), nil
}

// commandErrorCode picks the load code reported for err.
func commandErrorCode(err error) string {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return compiler.ErrCodeGeneric
}

// catalogErrorCode maps a missing table to the not-found code.
func catalogErrorCode(err error) string {
	if errors.Is(err, catalog.ErrNotFound) {
		return compiler.ErrCodeNotFound
	}
	return compiler.ErrCodeGeneric
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
