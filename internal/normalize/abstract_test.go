// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbstractFromIndex(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty object", `{}`, ""},
		{"null", `null`, ""},
		{"empty input", ``, ""},
		{"not an object", `["a", "b"]`, ""},
		{"positions not iterable", `{"a": 3}`, ""},
		{"positions not integers", `{"a": ["x"]}`, ""},
		{"two words", `{"a": [0], "b": [1]}`, "a b"},
		{"gap is omitted", `{"x": [0, 2]}`, "x x"},
		{"unsorted positions", `{"mat": [5], "the": [4, 0], "cat": [1], "sat": [2], "on": [3]}`, "the cat sat on the mat"},
		{"negative positions ignored", `{"a": [-1, 0], "b": [1]}`, "a b"},
		{"only negative positions", `{"a": [-3]}`, ""},
		{"empty position list", `{"a": [], "b": [0]}`, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AbstractFromIndex(json.RawMessage(tt.raw)))
		})
	}
}

func TestAbstractFromMap_CollisionIsDeterministic(t *testing.T) {
	index := map[string][]int{"alpha": {0}, "beta": {0}, "end": {1}}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "beta end", AbstractFromMap(index))
	}
}

func TestAbstractFromMap_LargePosition(t *testing.T) {
	got := AbstractFromMap(map[string][]int{"first": {0}, "last": {1 << 30}})
	assert.Equal(t, "first last", got)
}
