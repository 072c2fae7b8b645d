// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleSemanticJSON = `{
  "total": 2,
  "offset": 0,
  "data": [
    {
      "paperId": "649def34f8be52c8b66281af98ae884c09aef38b",
      "title": "Attention Is All You Need",
      "abstract": "The dominant sequence transduction models...",
      "year": 2017,
      "citationCount": 100000,
      "venue": "NeurIPS",
      "isOpenAccess": true,
      "authors": [{"name": "Ashish Vaswani", "affiliations": ["Google"]}],
      "externalIds": {"DOI": "10.5555/3295222.3295349", "ArXiv": "1706.03762"},
      "fieldsOfStudy": ["Computer Science"]
    },
    {
      "paperId": "",
      "title": "Missing id"
    }
  ]
}`

func withSemanticBase(t *testing.T, url string) {
	t.Helper()
	old := semanticAPIBase
	semanticAPIBase = url
	t.Cleanup(func() { semanticAPIBase = old })
}

func TestSemanticSearchRequestParams(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"total": 0, "data": []}`)
	}))
	defer ts.Close()
	withSemanticBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client(), APIKey: "secret"}
	q := Query{Text: "graph neural networks", Limit: 500, YearFrom: 2020, YearTo: 2022, OpenAccessOnly: true, MinCitations: 3}
	if _, err := b.Search(context.Background(), q); err != nil {
		t.Fatalf("Search: %v", err)
	}

	params := got.URL.Query()
	if params.Get("query") != "graph neural networks" {
		t.Errorf("query = %q", params.Get("query"))
	}
	if params.Get("limit") != "100" {
		t.Errorf("limit = %q, want capped at 100", params.Get("limit"))
	}
	if params.Get("year") != "2020-2022" {
		t.Errorf("year = %q", params.Get("year"))
	}
	if !params.Has("openAccessPdf") {
		t.Error("openAccessPdf flag missing")
	}
	if params.Get("minCitationCount") != "3" {
		t.Errorf("minCitationCount = %q", params.Get("minCitationCount"))
	}
	if !strings.Contains(params.Get("fields"), "citationCount") {
		t.Errorf("fields = %q", params.Get("fields"))
	}
	if got.Header.Get("x-api-key") != "secret" {
		t.Errorf("x-api-key = %q", got.Header.Get("x-api-key"))
	}
}

func TestSemanticSearchNoAPIKeyHeader(t *testing.T) {
	var hasKey bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey = r.Header["X-Api-Key"]
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer ts.Close()
	withSemanticBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Text: "x"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hasKey {
		t.Error("x-api-key header sent without a key")
	}
}

func TestSemanticSearchNormalizes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleSemanticJSON)
	}))
	defer ts.Close()
	withSemanticBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Text: "attention"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (paper without id dropped)", len(results))
	}
	r := results[0]
	if r.Source != "semantic_scholar" || r.DOI != "10.5555/3295222.3295349" || r.Venue != "NeurIPS" {
		t.Errorf("record = %+v", r)
	}
	if len(r.Authors) != 1 || r.Authors[0].Affiliation != "Google" {
		t.Errorf("Authors = %+v", r.Authors)
	}
}

func TestSemanticSearchHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()
	withSemanticBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	_, err := b.Search(context.Background(), Query{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v, want HTTP 403", err)
	}
}

func TestSemanticSearchMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[`)
	}))
	defer ts.Close()
	withSemanticBase(t, ts.URL)

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Text: "x"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestSemanticSearchEmptyQuery(t *testing.T) {
	b := &SemanticScholarBackend{}
	if _, err := b.Search(context.Background(), Query{Text: " "}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestBuildYearRange(t *testing.T) {
	tests := []struct {
		from, to int
		want     string
	}{
		{2020, 2023, "2020-2023"},
		{2020, 0, "2020-"},
		{0, 2023, "-2023"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := buildYearRange(tt.from, tt.to); got != tt.want {
			t.Errorf("buildYearRange(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSemanticScholarBackendName(t *testing.T) {
	if got := (&SemanticScholarBackend{}).Name(); got != "semantic_scholar" {
		t.Errorf("Name() = %q", got)
	}
}
