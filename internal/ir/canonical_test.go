package ir

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"null", Null{}, "null"},
		{"nil", nil, "null"},
		{"string", String("hello"), `"hello"`},
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"float", Float(1.5), "1.5"},
		{"integral float", Float(2), "2"},
		{"bool", Bool(true), "true"},
		{"empty list", List{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"go int64", int64(9), "9"},
		{"go float", 0.25, "0.25"},
		{"go strings", []string{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	got, err := MarshalCanonical(Object{
		"zebra": Int(1),
		"apple": Object{"y": Int(2), "x": Int(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":{"x":3,"y":2},"zebra":1}`, string(got))
}

func TestMarshalCanonicalMapStringAny(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"b":    []any{1, "two", nil},
		"a":    map[string]any{"z": true},
		"time": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"z":true},"b":[1,"two",null],"time":"2024-01-02T03:04:05Z"}`, string(got))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Float(math.NaN()))
	assert.Error(t, err)
	_, err = MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestMarshalCanonicalRejectsUnknownType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(String("<b>a & b</b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<b>a & b</b>"`, string(got))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent composes to U+00E9.
	got, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(got))
}

func TestMarshalCanonicalU2028U2029NotEscaped(t *testing.T) {
	got, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"literal text", `seq \u2028`, `"seq \\u2028"`},
		{"mixed", "literal \\u2029 and actual \u2029", "\"literal \\\\u2029 and actual \u2029\""},
		{"double backslash", `\\u2028`, `"\\\\u2028"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	obj := Object{"k": List{Int(1), Float(0.1), String("x")}}
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
