// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/research-intel/internal/httputil"
	"github.com/pdiddy/research-intel/internal/logging"
	"github.com/pdiddy/research-intel/internal/normalize"
	"github.com/pdiddy/research-intel/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields   = "title,abstract,authors,authors.affiliations,externalIds,year,citationCount,venue,url,isOpenAccess,fieldsOfStudy"
	semanticMaxLimit = 100
)

// SemanticScholarBackend queries the Semantic Scholar API.
type SemanticScholarBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
	Limiter   *httputil.Limiter
	Log       logging.Logger
}

// NewSemanticScholar returns a backend configured from cfg.
func NewSemanticScholar(cfg types.SearchConfig, log logging.Logger) *SemanticScholarBackend {
	return &SemanticScholarBackend{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		APIKey:    cfg.SemanticScholarAPIKey,
		Limiter:   httputil.PerSecond(1),
		Log:       logging.OrNop(log).Named("semantic_scholar"),
	}
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns normalized records.
func (b *SemanticScholarBackend) Search(ctx context.Context, q Query) ([]types.Record, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":  {q.Text},
		"limit":  {strconv.Itoa(min(q.limit(), semanticMaxLimit))},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(q.YearFrom, q.YearTo); yr != "" {
		params.Set("year", yr)
	}
	if q.OpenAccessOnly {
		params.Set("openAccessPdf", "")
	}
	if q.MinCitations > 0 {
		params.Set("minCitationCount", strconv.Itoa(q.MinCitations))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := b.Limiter.Do(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	records, dropped := normalize.Batch(normalize.FromSemanticScholar, sr.Data)
	if dropped > 0 {
		logging.OrNop(b.Log).Debug("dropped papers", logging.Int("count", dropped))
	}
	return records, nil
}

// buildYearRange returns a Semantic Scholar year filter string (e.g. "2020-2023").
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON envelope.
type semanticResponse struct {
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Data   []json.RawMessage `json:"data"`
}
