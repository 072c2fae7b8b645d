// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-intel/internal/cache"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/metrics"
	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

// fakeSearch answers queries from a table keyed by query text.
type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]types.Record
	errs    map[string]error
	block   bool
	queries []search.Query
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(ctx context.Context, q search.Query) ([]types.Record, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[q.Text]; ok {
		return nil, err
	}
	return f.results[q.Text], nil
}

func (f *fakeSearch) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, q := range f.queries {
		out = append(out, q.Text)
	}
	return out
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func basePaper() types.Record {
	return types.Record{
		ID:      "W0",
		Title:   "Graph Neural Networks for Traffic Forecasting",
		Authors: []types.Author{{Name: "Ada Lovelace"}},
		Venue:   "NeurIPS",
		Year:    2021,
	}
}

func relatedSet() *fakeSearch {
	return &fakeSearch{
		results: map[string][]types.Record{
			"graph neural networks": {
				{ID: "R1", Title: "Spatio-temporal graph networks for traffic", Year: 2022, CitationCount: 300, Abstract: "traffic forecasting with graphs"},
				{ID: "W0", Title: "Graph Neural Networks for Traffic Forecasting", Year: 2021},
				{ID: "R2", Title: "Diffusion convolution for traffic", Year: 2018, CitationCount: 900},
			},
			"Ada Lovelace": {
				{ID: "R3", Title: "Spatio-Temporal Graph Networks for Traffic!", Year: 2022},
				{ID: "R4", Title: "Uncertainty in demand prediction", Year: 2020, Abstract: "uncertainty quantification"},
			},
			"NeurIPS": {
				{ID: "R5", Title: "Federated learning on edge devices", Year: 2023},
			},
			"Uncertainty-aware traffic forecasting": {
				{ID: "V1", Title: "Probabilistic traffic forecasting", Year: 2023},
			},
			"Transfer across cities": {
				{ID: "V2", Title: "Old transfer work", Year: 2015},
			},
		},
		errs: map[string]error{
			"Edge deployment of graph models": errors.New("503"),
		},
	}
}

const gapsReply = `Sure, here are the gaps:
[
 {"title": "Transfer across cities", "description": "Models rarely transfer between road networks.", "justification": "Few papers test transfer.", "confidence": 0.7, "category": "Application"},
 {"title": "Uncertainty-aware traffic forecasting", "description": "Point forecasts dominate traffic work.", "justification": "R4 hints at it.", "confidence": "0.9", "category": "methodology"},
 {"title": "Edge deployment of graph models", "description": "Inference cost on edge devices is unstudied.", "justification": "Only R5 touches edge.", "confidence": 0.4},
 {"title": "", "description": "dropped"}
]`

func TestAnalyze_FullPipeline(t *testing.T) {
	s := relatedSet()
	gen := llm.NewScripted("mock",
		llm.Reply{Text: `["uncertainty quantification", "cross-city transfer", "Uncertainty Quantification"]`},
		llm.Reply{Text: gapsReply},
	)
	m := metrics.New(false)
	p := New(s, gen, types.GapConfig{}, WithMetrics(m), WithClock(func() time.Time { return fixedNow }))

	report, err := p.Analyze(context.Background(), basePaper())
	require.NoError(t, err)

	assert.Equal(t, []string{"graph neural networks", "Ada Lovelace", "NeurIPS"}, report.Queries)
	assert.Empty(t, report.QueryErrors)
	// R3 repeats R1's normalized title and W0 is the base paper.
	assert.Equal(t, 4, report.TotalRelatedPapers)
	assert.Equal(t, []string{"uncertainty quantification", "cross-city transfer"}, report.FutureDirections)
	assert.Equal(t, fixedNow, report.AnalysisDate)

	require.Len(t, report.Gaps, 3)
	assert.Equal(t, "Uncertainty-aware traffic forecasting", report.Gaps[0].Title)
	assert.Equal(t, "Transfer across cities", report.Gaps[1].Title)
	assert.Equal(t, "Edge deployment of graph models", report.Gaps[2].Title)
	assert.Equal(t, 0.9, report.Gaps[0].Confidence)
	assert.Equal(t, "application", report.Gaps[1].Category)
	assert.Equal(t, "general", report.Gaps[2].Category)

	covered := report.Gaps[0]
	assert.True(t, covered.IsValidated)
	require.Len(t, covered.ExistingWork, 1)
	assert.Equal(t, "V1", covered.ExistingWork[0].ID)
	assert.True(t, covered.Covered())

	open := report.Gaps[1]
	assert.True(t, open.IsValidated)
	assert.Empty(t, open.ExistingWork)

	unchecked := report.Gaps[2]
	assert.False(t, unchecked.IsValidated)

	for _, g := range report.Gaps {
		_, err := uuid.Parse(g.ID)
		assert.NoError(t, err, "gap id %q", g.ID)
		assert.LessOrEqual(t, len(g.RelatedPaperIDs), 3)
		assert.NotContains(t, g.RelatedPaperIDs, "W0")
	}
	assert.Contains(t, report.Gaps[0].RelatedPaperIDs, "R1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GapValidations.WithLabelValues("covered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GapValidations.WithLabelValues("open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GapValidations.WithLabelValues("unchecked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GapAnalyses.WithLabelValues("ok")))

	reqs := gen.Requests()
	require.Len(t, reqs, 2)
	synth := reqs[1].Messages[len(reqs[1].Messages)-1].Content
	assert.Contains(t, synth, "Related papers found: 4")
	assert.Contains(t, synth, "- cross-city transfer")
}

func TestAnalyze_NoRelatedPapers(t *testing.T) {
	s := &fakeSearch{errs: map[string]error{"deep learning": errors.New("connection refused")}}
	gen := llm.Always("mock", llm.Reply{Text: "[]"})
	base := types.Record{ID: "X1", Title: "Deep Learning for X"}

	report, err := New(s, gen, types.GapConfig{}).Analyze(context.Background(), base)
	require.NoError(t, err)

	assert.Equal(t, base, report.BasePaper)
	assert.NotNil(t, report.Gaps)
	assert.Empty(t, report.Gaps)
	assert.Zero(t, report.TotalRelatedPapers)
	assert.Equal(t, []string{"deep learning"}, report.Queries)
	require.Len(t, report.QueryErrors, 1)
	assert.Contains(t, report.QueryErrors[0], "connection refused")
	assert.False(t, report.AnalysisDate.IsZero())
	assert.Zero(t, gen.Calls(), "later stages are skipped")
}

func TestAnalyze_InvalidRecord(t *testing.T) {
	s := &fakeSearch{}
	_, err := New(s, nil, types.GapConfig{}).Analyze(context.Background(), types.Record{ID: "X", Title: "On the"})
	assert.ErrorIs(t, err, types.ErrInvalidRecord)
	assert.Empty(t, s.texts(), "no I/O before the contract check")
}

func TestAnalyze_GeneratorDownUsesGenericGap(t *testing.T) {
	s := relatedSet()
	gen := llm.Always("mock", llm.Reply{Err: errors.New("quota exceeded")})

	report, err := New(s, gen, types.GapConfig{}).Analyze(context.Background(), basePaper())
	require.NoError(t, err)

	assert.Empty(t, report.FutureDirections)
	require.Len(t, report.Gaps, 1)
	g := report.Gaps[0]
	assert.Equal(t, 0.5, g.Confidence)
	assert.Equal(t, "general", g.Category)
	assert.Contains(t, g.Title, "Graph Neural Networks")
	assert.Contains(t, s.texts(), g.Title, "generic gap is still validated")
}

func TestAnalyze_SentenceFallback(t *testing.T) {
	s := relatedSet()
	gen := llm.NewScripted("mock",
		llm.Reply{Text: "Future work:\n1. Better benchmarks for traffic data\n- Transfer across cities\n"},
		llm.Reply{Text: "One gap is that nobody studies long-horizon forecasting well. Short. Another is the lack of multi-modal sensor fusion in graph models!"},
	)

	report, err := New(s, gen, types.GapConfig{}).Analyze(context.Background(), basePaper())
	require.NoError(t, err)

	assert.Equal(t, []string{"Better benchmarks for traffic data", "Transfer across cities"}, report.FutureDirections)
	require.Len(t, report.Gaps, 2)
	for _, g := range report.Gaps {
		assert.Equal(t, 0.6, g.Confidence)
		assert.Equal(t, "general", g.Category)
	}
	assert.Equal(t, "One gap is that nobody studies long-horizon forecasting well.", report.Gaps[0].Description)
}

func TestAnalyze_CapsGapsAtFive(t *testing.T) {
	var items []string
	for i := 0; i < 7; i++ {
		items = append(items, `{"title": "Gap `+string(rune('A'+i))+`", "confidence": 0.`+string(rune('1'+i))+`}`)
	}
	gen := llm.NewScripted("mock", llm.Reply{Text: "[]"}, llm.Reply{Text: "[" + strings.Join(items, ",") + "]"})

	report, err := New(relatedSet(), gen, types.GapConfig{}).Analyze(context.Background(), basePaper())
	require.NoError(t, err)
	require.Len(t, report.Gaps, 5)
	assert.Equal(t, "Gap G", report.Gaps[0].Title)
	for i := 1; i < len(report.Gaps); i++ {
		assert.GreaterOrEqual(t, report.Gaps[i-1].Confidence, report.Gaps[i].Confidence)
	}
}

func TestAnalyze_MinTitleSimilarity(t *testing.T) {
	s := relatedSet()
	s.results["Uncertainty-aware traffic forecasting"] = []types.Record{
		{ID: "V1", Title: "Probabilistic traffic forecasting", Year: 2023},
		{ID: "V3", Title: "Uncertainty aware traffic forecasting at scale", Year: 2024},
	}
	gen := llm.NewScripted("mock", llm.Reply{Text: "[]"}, llm.Reply{Text: gapsReply})
	p := New(s, gen, types.GapConfig{MinTitleSimilarity: 0.5})

	report, err := p.Analyze(context.Background(), basePaper())
	require.NoError(t, err)
	require.Len(t, report.Gaps[0].ExistingWork, 1)
	assert.Equal(t, "V3", report.Gaps[0].ExistingWork[0].ID)
}

func TestAnalyze_Timeout(t *testing.T) {
	s := &fakeSearch{block: true}
	m := metrics.New(false)
	p := New(s, nil, types.GapConfig{Timeout: 20 * time.Millisecond}, WithMetrics(m))

	report, err := p.Analyze(context.Background(), basePaper())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, report.TotalRelatedPapers)
	assert.Empty(t, report.Queries, "partial report is discarded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GapAnalyses.WithLabelValues("error")))
}

func TestAnalyze_Cache(t *testing.T) {
	s := relatedSet()
	gen := llm.Always("mock", llm.Reply{Text: gapsReply})
	c := cache.NewMemory("test:", time.Hour)
	m := metrics.New(false)
	p := New(s, gen, types.GapConfig{}, WithCache(c, time.Hour), WithMetrics(m))

	first, err := p.Analyze(context.Background(), basePaper())
	require.NoError(t, err)
	searches := len(s.texts())

	second, err := p.Analyze(context.Background(), basePaper())
	require.NoError(t, err)
	assert.Equal(t, searches, len(s.texts()), "cached report needs no searches")
	assert.Equal(t, first.Gaps[0].ID, second.Gaps[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("gaps", "hit")))
}

func TestSummary(t *testing.T) {
	r := types.GapReport{
		BasePaper:          types.Record{Title: "P"},
		TotalRelatedPapers: 4,
		FutureDirections:   []string{"a"},
		Gaps: []types.ResearchGap{
			{IsValidated: true, ExistingWork: []types.Record{{ID: "x"}}},
			{IsValidated: true},
		},
	}
	assert.Equal(t, "P: 4 related papers, 1 directions, 2 gaps (1 with recent coverage)", Summary(r))
}
