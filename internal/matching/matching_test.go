package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"strings equal", "active", "active", true},
		{"strings differ", "active", "inactive", false},
		{"yaml int vs json int64", 42, int64(42), true},
		{"yaml int vs json float", 42, float64(42), true},
		{"number vs string", 42, "42", false},
		{"bool", true, true, true},
		{"bool differs", true, false, false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, "x", false},
		{
			"nested maps",
			map[string]any{"a": 1, "b": []any{"x", 2}},
			map[string]any{"a": int64(1), "b": []any{"x", float64(2)}},
			true,
		},
		{
			"map missing key",
			map[string]any{"a": 1, "b": 2},
			map[string]any{"a": 1, "c": 2},
			false,
		},
		{"list length differs", []any{1, 2}, []any{1}, false},
		{"list vs map", []any{}, map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.expected, tt.actual))
		})
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "3", Stringify(int64(3)))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "3", Stringify(float64(3)))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "null", Stringify(nil))
	assert.Equal(t, `["a",1]`, Stringify([]any{"a", int64(1)}))
	assert.Equal(t, `{"a":1,"b":2}`, Stringify(map[string]any{"b": int64(2), "a": int64(1)}))
}

func TestPatterns(t *testing.T) {
	assert.True(t, IsPattern("/^abc$/"))
	assert.False(t, IsPattern("/"))
	assert.False(t, IsPattern("abc"))
	assert.False(t, IsPattern(42))
	assert.Equal(t, "^abc$", PatternBody("/^abc$/"))
	assert.Equal(t, "abc", PatternBody("abc"))

	ok, err := MatchPattern(`\d+`, "id 1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MatchPattern(`^\d+$`, "id 1234")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = MatchPattern(`(`, "x")
	assert.Error(t, err)
}
