// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic APIs and returns normalized,
// deduplicated records. Backends are fanned out concurrently; a failing
// backend is reported but never aborts the others.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/pkg/types"
)

// defaultLimit is the result cap when a query sets none.
const defaultLimit = 50

// Backend searches a single bibliographic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, q Query) ([]types.Record, error)
}

// Query holds the search text and filters.
type Query struct {
	Text           string
	Limit          int
	YearFrom       int
	YearTo         int
	OpenAccessOnly bool
	MinCitations   int
	Sort           string
}

// NewQuery returns a query for text carrying the filters in cfg.
func NewQuery(text string, cfg types.SearchConfig) Query {
	return Query{
		Text:           strings.TrimSpace(text),
		Limit:          cfg.MaxResults,
		YearFrom:       cfg.YearFrom,
		YearTo:         cfg.YearTo,
		OpenAccessOnly: cfg.OpenAccessOnly,
		MinCitations:   cfg.MinCitations,
		Sort:           cfg.Sort,
	}
}

// IsEmpty reports whether the query has no searchable text.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

func (q Query) limit() int {
	if q.Limit > 0 {
		return q.Limit
	}
	return defaultLimit
}

// Matches reports whether r passes the query's filters. Records of
// unknown year pass year bounds.
func (q Query) Matches(r types.Record) bool {
	if q.YearFrom > 0 && r.Year > 0 && r.Year < q.YearFrom {
		return false
	}
	if q.YearTo > 0 && r.Year > 0 && r.Year > q.YearTo {
		return false
	}
	if q.OpenAccessOnly && !r.OpenAccess {
		return false
	}
	return r.CitationCount >= q.MinCitations
}

// Output holds federated results and what was lost along the way.
type Output struct {
	Records       []types.Record `json:"records"`
	DupsRemoved   int            `json:"duplicates_removed"`
	BackendErrors []string       `json:"backend_errors,omitempty"`
}

// Federation fans a query out to several backends and merges the results.
// It satisfies Backend itself.
type Federation struct {
	backends []Backend
	metrics  *metrics.Metrics
	log      logging.Logger
}

// NewFederation returns a Federation over backends.
func NewFederation(backends []Backend, m *metrics.Metrics, log logging.Logger) *Federation {
	return &Federation{backends: backends, metrics: m, log: logging.OrNop(log).Named("search")}
}

// Name returns the joined backend names.
func (f *Federation) Name() string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.Name()
	}
	return strings.Join(names, "+")
}

// Search returns the merged records, failing only when every backend
// failed.
func (f *Federation) Search(ctx context.Context, q Query) ([]types.Record, error) {
	out, err := f.Run(ctx, q)
	return out.Records, err
}

// Run fans the query out to all backends concurrently, deduplicates by
// DOI and normalized title, applies the filters, and caps the result at
// the query limit. Results keep backend order, then API order.
func (f *Federation) Run(ctx context.Context, q Query) (Output, error) {
	if q.IsEmpty() {
		return Output{}, types.ErrEmptyQuery
	}
	if len(f.backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		records []types.Record
		err     error
	}
	results := make([]backendResult, len(f.backends))

	var wg sync.WaitGroup
	for i, b := range f.backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := b.Search(ctx, q)
			f.metrics.ObserveSearch(b.Name(), err)
			results[i] = backendResult{records: recs, err: err}
		}()
	}
	wg.Wait()

	var all []types.Record
	var out Output
	var errs []error
	for i, br := range results {
		name := f.backends[i].Name()
		if br.err != nil {
			out.BackendErrors = append(out.BackendErrors, fmt.Sprintf("%s: %v", name, br.err))
			errs = append(errs, fmt.Errorf("%s: %w", name, br.err))
			f.log.Warn("backend failed", logging.String("backend", name), logging.String("query", q.Text), logging.Err(br.err))
			continue
		}
		all = append(all, br.records...)
	}
	if len(errs) == len(f.backends) {
		return out, errors.Join(errs...)
	}

	deduped, removed := Dedup(all)
	out.DupsRemoved = removed
	out.Records = make([]types.Record, 0, len(deduped))
	for _, r := range deduped {
		if !q.Matches(r) {
			continue
		}
		out.Records = append(out.Records, r)
		if len(out.Records) == q.limit() {
			break
		}
	}
	return out, nil
}

// Dedup merges records that share a DOI or normalized title, keeping the
// first occurrence and filling its empty fields from later ones. It
// returns the merged records and how many were folded away.
func Dedup(records []types.Record) ([]types.Record, int) {
	seen := make(map[string]int) // dedup key to index in deduped
	deduped := make([]types.Record, 0, len(records))
	removed := 0

	for _, r := range records {
		keys := dedupKeys(r)
		idx, dup := -1, false
		for _, k := range keys {
			if i, ok := seen[k]; ok {
				idx, dup = i, true
				break
			}
		}
		if dup {
			mergeInto(&deduped[idx], r)
			removed++
		} else {
			idx = len(deduped)
			deduped = append(deduped, r)
		}
		for _, k := range dedupKeys(deduped[idx]) {
			seen[k] = idx
		}
	}
	return deduped, removed
}

func dedupKeys(r types.Record) []string {
	var keys []string
	if r.DOI != "" {
		keys = append(keys, "doi:"+strings.ToLower(r.DOI))
	}
	if t := NormalizeTitle(r.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	if len(keys) == 0 && r.ID != "" {
		keys = append(keys, "id:"+r.ID)
	}
	return keys
}

// mergeInto fills empty fields of dst from src and keeps the higher
// citation count.
func mergeInto(dst *types.Record, src types.Record) {
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if len(dst.Concepts) == 0 {
		dst.Concepts = src.Concepts
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	dst.OpenAccess = dst.OpenAccess || src.OpenAccess
	dst.CitationCount = max(dst.CitationCount, src.CitationCount)
	if src.Source != "" && !strings.Contains(dst.Source, src.Source) {
		dst.Source = strings.TrimPrefix(dst.Source+","+src.Source, ",")
	}
}

// NormalizeTitle lowercases title, turns every run of characters other
// than letters and digits into one space, and trims the result.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range out.Records {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6d  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.AuthorNames()), year, r.CitationCount, r.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Records))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
	for _, e := range out.BackendErrors {
		fmt.Fprintf(w, "warning: %s\n", e)
	}
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Records)
}

// FormatYAML writes records as a YAML list to w.
func FormatYAML(out Output, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(out.Records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
