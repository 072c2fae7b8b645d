// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps provider-specific bibliographic JSON into
// canonical records. Every optional upstream field is treated as absent
// until proven present; shapes that cannot be mapped fail with
// ErrUnknownShape instead of producing a half-filled record.
package normalize

import (
	"encoding/json"
	"sort"
	"strings"
)

// AbstractFromIndex rebuilds plain text from an inverted index (word to
// zero-based positions). Positions may have gaps; skipped positions
// produce no placeholder. Malformed input yields "".
func AbstractFromIndex(raw json.RawMessage) string {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return ""
	}

	index := make(map[string][]int, len(entries))
	for word, rawPositions := range entries {
		var positions []int
		if err := json.Unmarshal(rawPositions, &positions); err != nil {
			return ""
		}
		index[word] = positions
	}
	return AbstractFromMap(index)
}

// AbstractFromMap is AbstractFromIndex for an already decoded index.
// When two words claim the same position the lexically greater word wins,
// so output does not depend on map iteration order.
func AbstractFromMap(index map[string][]int) string {
	maxPos := -1
	for _, positions := range index {
		for _, p := range positions {
			if p > maxPos {
				maxPos = p
			}
		}
	}
	if maxPos < 0 {
		return ""
	}

	words := make([]string, 0, len(index))
	for w := range index {
		words = append(words, w)
	}
	sort.Strings(words)

	// Sparse table: a dense slice of maxPos+1 slots is wasteful when an
	// index carries a stray huge position.
	slots := make(map[int]string)
	for _, w := range words {
		for _, p := range index[w] {
			if p < 0 || p > maxPos {
				continue
			}
			slots[p] = w
		}
	}

	positions := make([]int, 0, len(slots))
	for p, w := range slots {
		if w != "" {
			positions = append(positions, p)
		}
	}
	sort.Ints(positions)

	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = slots[p]
	}
	return strings.Join(out, " ")
}
