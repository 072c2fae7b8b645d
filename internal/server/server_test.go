// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-intel/internal/classify"
	"github.com/pdiddy/research-intel/internal/explore"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/internal/summarize"
	"github.com/pdiddy/research-intel/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fakes ---

type fakeExplorer struct {
	gotQuery string
	gotOpts  explore.Options
	err      error
}

func (f *fakeExplorer) Explore(_ context.Context, query string, opts explore.Options) (types.ExploreResult, error) {
	f.gotQuery, f.gotOpts = query, opts
	if f.err != nil {
		return types.ExploreResult{}, f.err
	}
	if strings.TrimSpace(query) == "" {
		return types.ExploreResult{}, types.ErrEmptyQuery
	}
	return types.ExploreResult{
		Query:  query,
		Papers: []types.ClassifiedRecord{{Record: types.Record{ID: "W1", Title: "Solar grids"}}},
	}, nil
}

type fakeGaps struct {
	err error
}

func (f *fakeGaps) Analyze(_ context.Context, base types.Record) (types.GapReport, error) {
	if f.err != nil {
		return types.GapReport{}, f.err
	}
	return types.GapReport{
		BasePaper:          base,
		TotalRelatedPapers: 3,
		Gaps:               []types.ResearchGap{{ID: "g1", Title: "Open question"}},
	}, nil
}

type fakeArchive struct {
	saved []types.GapReport
	err   error
}

func (f *fakeArchive) Save(_ context.Context, r types.GapReport) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, r)
	return "rep-1", nil
}

// --- helpers ---

func testServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(false)
	}
	return New(types.ServerConfig{}, deps)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// --- health / metrics ---

func TestHealthz(t *testing.T) {
	s := testServer(t, Deps{Explorer: &fakeExplorer{}})
	w := do(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["explore"])
	assert.Equal(t, false, body["gaps"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := testServer(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	m := metrics.New(false)
	s := testServer(t, Deps{Metrics: m})

	do(t, s, http.MethodGet, "/healthz", nil)
	do(t, s, http.MethodGet, "/healthz", nil)
	do(t, s, http.MethodGet, "/nope", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/healthz", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))

	w := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

// --- explore ---

func TestExplore(t *testing.T) {
	fe := &fakeExplorer{}
	s := testServer(t, Deps{Explorer: fe})

	w := do(t, s, http.MethodPost, "/api/v1/explore", ExploreRequest{Query: "solar", Limit: 5, Branches: []string{"EEE", " "}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[types.ExploreResult](t, w)
	assert.Equal(t, "solar", res.Query)
	assert.Len(t, res.Papers, 1)
	assert.Equal(t, 5, fe.gotOpts.Limit)
	require.Len(t, fe.gotOpts.Branches, 1)
	assert.Equal(t, "EEE", fe.gotOpts.Branches[0].Name)
}

func TestExplore_Errors(t *testing.T) {
	tests := []struct {
		name     string
		explorer *fakeExplorer
		body     any
		want     int
	}{
		{"malformed body", &fakeExplorer{}, "{not json", http.StatusBadRequest},
		{"empty query", &fakeExplorer{}, ExploreRequest{Query: "  "}, http.StatusBadRequest},
		{"no branches", &fakeExplorer{err: types.ErrNoBranches}, ExploreRequest{Query: "x"}, http.StatusBadRequest},
		{"timeout", &fakeExplorer{err: context.DeadlineExceeded}, ExploreRequest{Query: "x"}, http.StatusGatewayTimeout},
		{"internal", &fakeExplorer{err: errors.New("disk on fire")}, ExploreRequest{Query: "x"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, Deps{Explorer: tt.explorer})
			w := do(t, s, http.MethodPost, "/api/v1/explore", tt.body)
			assert.Equal(t, tt.want, w.Code)

			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, http.StatusText(tt.want), resp.Code)
			assert.NotEmpty(t, resp.RequestID)
			assert.NotContains(t, resp.Message, "disk on fire")
		})
	}
}

func TestExplore_NotConfigured(t *testing.T) {
	s := testServer(t, Deps{})
	w := do(t, s, http.MethodPost, "/api/v1/explore", ExploreRequest{Query: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- classify ---

func TestClassify_UsesRealClassifier(t *testing.T) {
	gen := llm.Always("fake", llm.Reply{Text: `{"branch":"eee","subcluster":"Smart Grids","confidence":0.9,"reasoning":"grid"}`})
	c := classify.New(gen, types.ClassifierConfig{MaxRetries: 1})
	s := testServer(t, Deps{Classifier: c, Branches: classify.BranchesFromNames([]string{"CSE", "EEE"})})

	w := do(t, s, http.MethodPost, "/api/v1/classify", ClassifyRequest{
		Paper: types.Record{ID: "W7", Title: "Battery scheduling for grids"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ClassifyResponse](t, w)
	assert.Equal(t, "W7", resp.PaperID)
	assert.Equal(t, "EEE", resp.Classification.Branch)
	assert.Equal(t, "Smart Grids", resp.Classification.Subcluster)
}

func TestClassify_FallbackWhenGeneratorDown(t *testing.T) {
	c := classify.New(nil, types.ClassifierConfig{MaxRetries: 1})
	s := testServer(t, Deps{Classifier: c})

	w := do(t, s, http.MethodPost, "/api/v1/classify", ClassifyRequest{
		Paper:    types.Record{ID: "W8", Title: "renewable energy grid battery"},
		Branches: []string{"CSE", "EEE"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ClassifyResponse](t, w)
	assert.Equal(t, "EEE", resp.Classification.Branch)
	assert.Equal(t, classify.FallbackSubcluster, resp.Classification.Subcluster)
	assert.True(t, resp.Classification.Fallback)
}

func TestClassify_NoBranches(t *testing.T) {
	c := classify.New(nil, types.ClassifierConfig{})
	s := testServer(t, Deps{Classifier: c})

	w := do(t, s, http.MethodPost, "/api/v1/classify", ClassifyRequest{Paper: types.Record{ID: "W1", Title: "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- gaps ---

func TestGaps_SavesWhenAsked(t *testing.T) {
	arch := &fakeArchive{}
	s := testServer(t, Deps{Gaps: &fakeGaps{}, Archive: arch})

	w := do(t, s, http.MethodPost, "/api/v1/gaps", GapsRequest{Paper: types.Record{ID: "W1", Title: "Base"}, Save: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[GapsResponse](t, w)
	assert.Equal(t, "rep-1", resp.ReportID)
	assert.Equal(t, 3, resp.Report.TotalRelatedPapers)
	assert.Len(t, arch.saved, 1)
}

func TestGaps_ArchiveFailureStillReturnsReport(t *testing.T) {
	arch := &fakeArchive{err: errors.New("locked")}
	s := testServer(t, Deps{Gaps: &fakeGaps{}, Archive: arch})

	w := do(t, s, http.MethodPost, "/api/v1/gaps", GapsRequest{Paper: types.Record{ID: "W1", Title: "Base"}, Save: true})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[GapsResponse](t, w)
	assert.Empty(t, resp.ReportID)
	assert.Len(t, resp.Report.Gaps, 1)
}

func TestGaps_WithoutSaveSkipsArchive(t *testing.T) {
	arch := &fakeArchive{}
	s := testServer(t, Deps{Gaps: &fakeGaps{}, Archive: arch})

	w := do(t, s, http.MethodPost, "/api/v1/gaps", GapsRequest{Paper: types.Record{ID: "W1", Title: "Base"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, arch.saved)
}

func TestGaps_InvalidRecord(t *testing.T) {
	s := testServer(t, Deps{Gaps: &fakeGaps{err: types.ErrInvalidRecord}})
	w := do(t, s, http.MethodPost, "/api/v1/gaps", GapsRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- abstract ---

func TestAbstract(t *testing.T) {
	s := testServer(t, Deps{})
	w := do(t, s, http.MethodPost, "/api/v1/abstract", AbstractRequest{
		InvertedIndex: json.RawMessage(`{"Deep": [0], "learning": [1], "works": [3]}`),
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[AbstractResponse](t, w)
	assert.Equal(t, "Deep learning works", resp.Abstract)
}

func TestAbstract_EmptyIndex(t *testing.T) {
	s := testServer(t, Deps{})
	w := do(t, s, http.MethodPost, "/api/v1/abstract", AbstractRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[AbstractResponse](t, w).Abstract)
}

func TestAbstract_MalformedIndex(t *testing.T) {
	s := testServer(t, Deps{})
	for _, body := range []string{
		`{"inverted_index": {"a": "x"}}`,
		`{"inverted_index": [1, 2]}`,
		`{"inverted_index": "Deep"}`,
		`{"inverted_index": {"a": [0], "b": [-1.5]}}`,
	} {
		w := do(t, s, http.MethodPost, "/api/v1/abstract", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.Empty(t, decode[AbstractResponse](t, w).Abstract, body)
	}
}

func TestAbstract_UndecodableBody(t *testing.T) {
	s := testServer(t, Deps{})
	w := do(t, s, http.MethodPost, "/api/v1/abstract", `{"inverted_index":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- summarize ---

func TestSummarize_Single(t *testing.T) {
	gen := llm.Always("mock", llm.Reply{Text: "Summary: Grids get smarter."})
	s := testServer(t, Deps{Summarizer: summarize.New(gen, types.SummaryConfig{})})

	w := do(t, s, http.MethodPost, "/api/v1/summarize", SummarizeRequest{
		Paper: &types.Record{ID: "W1", Title: "Smart grids"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[SummarizeResponse](t, w)
	require.Len(t, resp.Summaries, 1)
	assert.Equal(t, "Grids get smarter.", resp.Summaries[0].Text)
	assert.Equal(t, types.SummaryGenerated, resp.Summaries[0].Method)
}

func TestSummarize_BatchFallsBackWithoutGenerator(t *testing.T) {
	s := testServer(t, Deps{Summarizer: summarize.New(nil, types.SummaryConfig{})})

	w := do(t, s, http.MethodPost, "/api/v1/summarize", SummarizeRequest{Papers: []types.Record{
		{ID: "W1", Title: "A", Abstract: "The first abstract sentence is long enough."},
		{ID: "W2", Title: "B"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[SummarizeResponse](t, w)
	require.Len(t, resp.Summaries, 2)
	assert.Equal(t, "W1", resp.Summaries[0].PaperID)
	assert.Equal(t, "The first abstract sentence is long enough.", resp.Summaries[0].Text)
	assert.Equal(t, types.SummaryExtractive, resp.Summaries[1].Method)
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		body any
		want int
	}{
		{"not configured", Deps{}, SummarizeRequest{Paper: &types.Record{Title: "A"}}, http.StatusServiceUnavailable},
		{"no paper", Deps{Summarizer: summarize.New(nil, types.SummaryConfig{})}, SummarizeRequest{}, http.StatusBadRequest},
		{"untitled paper", Deps{Summarizer: summarize.New(nil, types.SummaryConfig{})}, SummarizeRequest{Paper: &types.Record{ID: "W1"}}, http.StatusBadRequest},
		{"too many", Deps{Summarizer: summarize.New(nil, types.SummaryConfig{})}, SummarizeRequest{Papers: make([]types.Record, maxSummaryBatch+1)}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, testServer(t, tt.deps), http.MethodPost, "/api/v1/summarize", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

// --- papers ---

type fakePapers struct {
	gotID string
}

func (f *fakePapers) Get(_ context.Context, id string) (types.Record, error) {
	f.gotID = id
	switch id {
	case "W404":
		return types.Record{}, types.ErrPaperNotFound
	case "Wboom":
		return types.Record{}, errors.New("upstream exploded")
	}
	return types.Record{ID: id, Title: "Found"}, nil
}

func TestPaper(t *testing.T) {
	papers := &fakePapers{}
	s := testServer(t, Deps{Papers: papers})

	w := do(t, s, http.MethodGet, "/api/v1/papers/doi:10.1234/abc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "doi:10.1234/abc", papers.gotID)
	assert.Equal(t, "Found", decode[types.Record](t, w).Title)
}

func TestPaper_Errors(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		path string
		want int
	}{
		{"not configured", Deps{}, "/api/v1/papers/W1", http.StatusServiceUnavailable},
		{"missing id", Deps{Papers: &fakePapers{}}, "/api/v1/papers/", http.StatusBadRequest},
		{"unknown", Deps{Papers: &fakePapers{}}, "/api/v1/papers/W404", http.StatusNotFound},
		{"upstream failure", Deps{Papers: &fakePapers{}}, "/api/v1/papers/Wboom", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, testServer(t, tt.deps), http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

// --- statusFor ---

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrEmptyQuery, http.StatusBadRequest},
		{types.ErrNoBranches, http.StatusBadRequest},
		{types.ErrInvalidRecord, http.StatusBadRequest},
		{types.ErrPaperNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, 499},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
