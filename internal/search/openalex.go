// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/research-intel/internal/httputil"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/normalize"
	"github.com/pdiddy/research-intel/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexPerPage is the page size requested from OpenAlex; maxPages
// bounds pagination for one query.
const (
	openAlexPerPage = 25
	maxPages        = 8
)

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client    *http.Client
	UserAgent string
	// Email is sent as mailto parameter for polite pool access.
	Email   string
	Limiter *httputil.Limiter
	Log     logging.Logger
}

// NewOpenAlex returns a backend configured from cfg, rate limited to
// cfg.RequestsPerSecond.
func NewOpenAlex(cfg types.SearchConfig, log logging.Logger) *OpenAlexBackend {
	return &OpenAlexBackend{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Email:     cfg.Email,
		Limiter:   httputil.PerSecond(cfg.RequestsPerSecond),
		Log:       logging.OrNop(log).Named("openalex"),
	}
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search pages through OpenAlex results until the query limit is met or
// the result set is exhausted. Works that cannot be normalized are
// dropped.
func (b *OpenAlexBackend) Search(ctx context.Context, q Query) ([]types.Record, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	log := logging.OrNop(b.Log)
	limit := q.limit()

	var records []types.Record
	seen := make(map[string]bool)
	for page := 1; page <= maxPages && len(records) < limit; page++ {
		perPage := min(openAlexPerPage, limit-len(records))
		oar, err := b.fetch(ctx, q, page, perPage)
		if err != nil {
			if page > 1 {
				log.Warn("pagination stopped", logging.Int("page", page), logging.Err(err))
				break
			}
			return nil, err
		}

		batch, dropped := normalize.Batch(normalize.FromOpenAlex, oar.Results)
		if dropped > 0 {
			log.Debug("dropped works", logging.Int("count", dropped), logging.Int("page", page))
		}
		for _, r := range batch {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			records = append(records, r)
		}
		if len(oar.Results) < perPage || page*perPage >= oar.Meta.Count {
			break
		}
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (b *OpenAlexBackend) fetch(ctx context.Context, q Query, page, perPage int) (openAlexResponse, error) {
	params := url.Values{
		"search":   {q.Text},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}
	if f := openAlexFilter(q); f != "" {
		params.Set("filter", f)
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return openAlexResponse{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := b.Limiter.Do(ctx, client, req, 0)
	if err != nil {
		return openAlexResponse{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return openAlexResponse{}, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return openAlexResponse{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar, nil
}

// Get fetches one work by OpenAlex id ("W2741809807" or its
// https://openalex.org/ URL) or by DOI. An unknown id yields
// types.ErrPaperNotFound.
func (b *OpenAlexBackend) Get(ctx context.Context, id string) (types.Record, error) {
	path := openAlexWorkPath(id)
	if path == "" {
		return types.Record{}, fmt.Errorf("%w: empty work id", types.ErrInvalidRecord)
	}
	target := openAlexSearchBase + "/" + path
	if b.Email != "" {
		target += "?" + url.Values{"mailto": {b.Email}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.Record{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := b.Limiter.Do(ctx, client, req, 0)
	if err != nil {
		return types.Record{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return types.Record{}, fmt.Errorf("%w: %s", types.ErrPaperNotFound, id)
	default:
		return types.Record{}, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Record{}, fmt.Errorf("parsing OpenAlex work: %w", err)
	}
	r, err := normalize.FromOpenAlex(raw)
	if err != nil {
		return types.Record{}, fmt.Errorf("work %s: %w", id, err)
	}
	return r, nil
}

// openAlexWorkPath maps an id to the path segment after /works/. DOIs,
// bare or as resolver URLs, use the doi: namespace.
func openAlexWorkPath(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "https://openalex.org/")
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		if rest, ok := strings.CutPrefix(id, p); ok {
			return "doi:" + rest
		}
	}
	if strings.HasPrefix(id, "10.") {
		return "doi:" + id
	}
	return id
}

// openAlexFilter builds the filter parameter for the query's year range,
// open-access and citation constraints.
func openAlexFilter(q Query) string {
	var filters []string
	switch {
	case q.YearFrom > 0 && q.YearTo > 0:
		filters = append(filters, fmt.Sprintf("publication_year:%d-%d", q.YearFrom, q.YearTo))
	case q.YearFrom > 0:
		filters = append(filters, fmt.Sprintf("publication_year:>%d", q.YearFrom-1))
	case q.YearTo > 0:
		filters = append(filters, fmt.Sprintf("publication_year:<%d", q.YearTo+1))
	}
	if q.OpenAccessOnly {
		filters = append(filters, "is_oa:true")
	}
	if q.MinCitations > 0 {
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", q.MinCitations-1))
	}
	return strings.Join(filters, ",")
}

// OpenAlex API JSON envelope. Works stay raw for the normalizer.
type openAlexResponse struct {
	Meta    openAlexMeta      `json:"meta"`
	Results []json.RawMessage `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}
