// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/pkg/types"
)

// QueryFile is the on-disk representation of a search query and its results.
// A saved search can be reloaded later, and single records picked from it
// for classification or gap analysis, without re-querying APIs.
type QueryFile struct {
	Query   QueryParams    `yaml:"query"`
	Results []types.Record `yaml:"results"`
	Summary QuerySummary   `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Text           string `yaml:"text"`
	Limit          int    `yaml:"limit,omitempty"`
	YearFrom       int    `yaml:"year_from,omitempty"`
	YearTo         int    `yaml:"year_to,omitempty"`
	OpenAccessOnly bool   `yaml:"open_access_only,omitempty"`
	MinCitations   int    `yaml:"min_citations,omitempty"`
	Sort           string `yaml:"sort,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	BackendErrors     []string  `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves query parameters and results to a YAML file.
func WriteQueryFile(path string, q Query, out Output) error {
	qf := QueryFile{
		Query: QueryParams{
			Text:           q.Text,
			Limit:          q.Limit,
			YearFrom:       q.YearFrom,
			YearTo:         q.YearTo,
			OpenAccessOnly: q.OpenAccessOnly,
			MinCitations:   q.MinCitations,
			Sort:           q.Sort,
		},
		Results: out.Records,
		Summary: QuerySummary{
			Total:             len(out.Records),
			DuplicatesRemoved: out.DupsRemoved,
			BackendErrors:     out.BackendErrors,
			Timestamp:         time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToQuery converts stored QueryParams back into a Query.
func (p QueryParams) ToQuery() Query {
	return Query{
		Text:           p.Text,
		Limit:          p.Limit,
		YearFrom:       p.YearFrom,
		YearTo:         p.YearTo,
		OpenAccessOnly: p.OpenAccessOnly,
		MinCitations:   p.MinCitations,
		Sort:           p.Sort,
	}
}

// Record returns the result at 1-based index n.
func (qf *QueryFile) Record(n int) (types.Record, error) {
	if n < 1 || n > len(qf.Results) {
		return types.Record{}, fmt.Errorf("index %d out of range: file has %d results", n, len(qf.Results))
	}
	return qf.Results[n-1], nil
}
