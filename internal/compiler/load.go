package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cqlsem/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes, shared by every command that reads schema directories.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoTables    = "E008" // No table definitions
)

// LoadResult contains the tables compiled from a schema directory.
type LoadResult struct {
	Tables    []*schema.TableDesc
	FileCount int
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads every table under `table:` in the CUE package at dir.
// Tables without a keyspace get defaultKeyspace.
func LoadDir(dir, defaultKeyspace string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result, errs := compileTables(value, defaultKeyspace, mode)
	if result != nil {
		result.FileCount = len(cueFiles)
	}
	return result, errs
}

// LoadSource compiles tables from CUE source text. filename is used in
// error positions only.
func LoadSource(src, filename, defaultKeyspace string) (*LoadResult, []error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}
	result, errs := compileTables(value, defaultKeyspace, LoadModeCollectAll)
	if result != nil {
		result.FileCount = 1
	}
	return result, errs
}

func compileTables(value cue.Value, defaultKeyspace string, mode LoadMode) (*LoadResult, []error) {
	var errs []error
	result := &LoadResult{}

	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoTables, Message: "no tables found in schema"}}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating tables: %v", err)}}
	}

	for iter.Next() {
		label := iter.Label()
		def, err := CompileTable(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "table."+label))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		tbl, verrs := ToTable(def, defaultKeyspace)
		if len(verrs) > 0 {
			if mode == LoadModeFailFast {
				return result, append(errs, verrs[0])
			}
			for _, verr := range verrs {
				errs = append(errs, verr)
			}
			continue
		}
		result.Tables = append(result.Tables, tbl)
	}

	if len(result.Tables) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoTables, Message: "no tables found in schema"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
