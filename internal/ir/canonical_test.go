package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", Null{}, "null"},
		{"nil", nil, "null"},
		{"string", String("hello"), `"hello"`},
		{"int", Int(-42), "-42"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool", Bool(true), "true"},
		{"empty list", List{}, "[]"},
		{"list", List{Int(1), String("a"), Null{}}, `[1,"a",null]`},
		{"empty object", Object{}, "{}"},
		{"sorted keys", Object{"zebra": Int(1), "alpha": Int(2)}, `{"alpha":2,"zebra":1}`},
		{"nested", Object{"b": Object{"y": Int(1), "x": Int(2)}, "a": List{}}, `{"a":[],"b":{"x":2,"y":1}}`},
		{"no html escape", String("a<b>&c"), `"a<b>&c"`},
		{"quote and backslash", String(`say "hi" \o/`), `"say \"hi\" \\o/"`},
		{"control char", String("tab\there"), `"tab\there"`},
		{"go map", map[string]any{"k": "v", "n": 1}, `{"k":"v","n":1}`},
		{"go slice", []any{"x", true}, `["x",true]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	for _, v := range []any{3.14, float32(1.5), []any{1, 2.5}} {
		_, err := MarshalCanonical(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "float")
	}
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 is a surrogate pair starting 0xD83D, which sorts before 0xFFFD
	// in UTF-16 even though its UTF-8 encoding sorts after.
	obj := Object{"\uFFFD": Int(1), "\U0001F600": Int(2)}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFFFD\":1}", string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(String("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	got, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))

	// A literal backslash followed by "u2028" is text, not an escape.
	got, err = MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}
