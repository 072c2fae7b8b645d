// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-intel pipeline:
// normalized records, classification output, the cluster tree, layout
// positions, and research gap reports.
package types

import "strings"

// Author is one entry of a record's ordered author list.
type Author struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// Concept is a weighted topic tag attached to a record by the search provider.
type Concept struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

// Record is a normalized paper. ID is unique within one fetch batch and
// records with empty titles never leave the normalization step.
type Record struct {
	// ID is an opaque stable identity (e.g. "W2741809807").
	ID string `json:"id" yaml:"id"`

	Title string `json:"title" yaml:"title"`

	// Abstract is plain text and may be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	Authors []Author `json:"authors" yaml:"authors"`

	// Year is 0 when unknown.
	Year int `json:"year" yaml:"year"`

	CitationCount int `json:"citation_count" yaml:"citation_count"`

	Concepts []Concept `json:"concepts" yaml:"concepts"`

	DOI   string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Source identifies which backend produced the record (e.g. "openalex").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	OpenAccess bool `json:"open_access,omitempty" yaml:"open_access,omitempty"`
}

// FirstAuthor returns the name of the first listed author, or "".
func (r Record) FirstAuthor() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Authors[0].Name)
}

// AuthorNames returns author names in source order.
func (r Record) AuthorNames() []string {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// ConceptNames returns the names of the first n concepts (all when n <= 0).
func (r Record) ConceptNames(n int) []string {
	concepts := r.Concepts
	if n > 0 && len(concepts) > n {
		concepts = concepts[:n]
	}
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names = append(names, c.Name)
	}
	return names
}
