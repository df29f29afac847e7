package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Testdata(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/wide.yaml")
	require.NoError(t, err)

	assert.Equal(t, "wide_table", s.Name)
	assert.Equal(t, "app", s.Keyspace)
	assert.Equal(t, filepath.Join("testdata", "schema"), s.Schema)
	assert.Equal(t, "testdata/scenarios/wide.yaml", s.Path())
	require.Len(t, s.Cases, 8)
	assert.Equal(t, "full key update", s.Cases[0].Name)
	assert.Equal(t, []string{"h1 = 1", "h2 = '2'", "r1 = 3"}, s.Cases[0].Expect.Key)
	assert.NotNil(t, s.Cases[0].Expect.Filter, "explicit empty list is kept")
	assert.Nil(t, s.Cases[1].Expect.Key)
	assert.Equal(t, "MISSING_KEY_CONDITION", s.Cases[1].Expect.Error)
	require.NotNil(t, s.Cases[3].Expect.StaticOnly)
	assert.True(t, *s.Cases[3].Expect.StaticOnly)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: a\ndescription: b\nschema: s\ncase: []\n",
			wantErr: "field case not found",
		},
		{
			name:    "missing name",
			yaml:    "description: b\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n",
			wantErr: "Scenario.Name",
		},
		{
			name:    "no cases",
			yaml:    "name: a\ndescription: b\nschema: s\ncases: []\n",
			wantErr: "Scenario.Cases",
		},
		{
			name:    "unnamed case",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - statement: {select: t}\n",
			wantErr: "Cases[0].Name",
		},
		{
			name:    "missing statement",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - name: c\n",
			wantErr: "statement is required",
		},
		{
			name:    "duplicate case",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n  - name: c\n    statement: {select: t}\n",
			wantErr: "duplicate case name",
		},
		{
			name:    "unknown code",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n    expect: {error: NOPE}\n",
			wantErr: "unknown error code",
		},
		{
			name:    "error with kind",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n    expect: {error: INVALID_TTL, kind: point}\n",
			wantErr: "excluded_with",
		},
		{
			name:    "bad kind",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n    expect: {kind: range}\n",
			wantErr: "oneof",
		},
		{
			name:    "message without error",
			yaml:    "name: a\ndescription: b\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n    expect: {message: x}\n",
			wantErr: "excluded_without",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_AbsoluteSchemaKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere")
	content := "name: a\ndescription: b\nschema: " + abs + "\ncases:\n  - name: c\n    statement: {select: t}\n"
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, s.Schema)
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios_Sorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		content := "name: " + name + "\ndescription: d\nschema: s\ncases:\n  - name: c\n    statement: {select: t}\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a.yml", scenarios[0].Name)
	assert.Equal(t, "b.yaml", scenarios[1].Name)
}
