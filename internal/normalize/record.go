// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/research-intel/pkg/types"
)

var (
	// ErrUnknownShape reports provider JSON that cannot be mapped to a record.
	ErrUnknownShape = errors.New("unknown record shape")

	// ErrUntitled reports a record with an empty or placeholder title.
	ErrUntitled = errors.New("record has no title")
)

// maxConcepts is the number of concepts kept per record.
const maxConcepts = 5

var placeholderTitles = map[string]bool{
	"":                     true,
	"untitled":             true,
	"no title":             true,
	"[no title available]": true,
	"n/a":                  true,
}

// Func maps one raw provider work into a record.
type Func func(raw json.RawMessage) (types.Record, error)

// Batch applies fn to every raw work, dropping works that fail to map and
// later works whose id repeats an earlier one. The number of dropped
// works is returned alongside the records.
func Batch(fn Func, raws []json.RawMessage) ([]types.Record, int) {
	seen := make(map[string]bool, len(raws))
	records := make([]types.Record, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		r, err := fn(raw)
		if err != nil || seen[r.ID] {
			dropped++
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
	}
	return records, dropped
}

func isPlaceholderTitle(title string) bool {
	return placeholderTitles[strings.ToLower(strings.TrimSpace(title))]
}

// lastSegment returns the final path segment of an identifier URL
// ("https://openalex.org/W123" becomes "W123").
func lastSegment(id string) string {
	id = strings.TrimRight(strings.TrimSpace(id), "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func bareDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func shapeError(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrUnknownShape, err)
}
