package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	testSchemaDir    = "testdata/schema"
	testStatements   = "testdata/statements.yaml"
	testScenariosDir = "testdata/scenarios"
)

// testOptions returns the root flag defaults, which PersistentPreRunE
// never sees when a subcommand is executed on its own.
func testOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Keyspace: "app", SystemReadOnly: true}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
