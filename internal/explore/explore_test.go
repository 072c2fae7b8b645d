// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-intel/internal/classify"
	"github.com/pdiddy/research-intel/internal/cluster"
	"github.com/pdiddy/research-intel/internal/layout"
	"github.com/pdiddy/research-intel/internal/llm"
	"github.com/pdiddy/research-intel/internal/search"
	"github.com/pdiddy/research-intel/pkg/types"
)

type stubSearch struct {
	records []types.Record
	err     error
	block   bool
	last    search.Query
	calls   int
}

func (s *stubSearch) Name() string { return "stub" }

func (s *stubSearch) Search(ctx context.Context, q search.Query) ([]types.Record, error) {
	s.calls++
	s.last = q
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.records, s.err
}

func energyRecords() []types.Record {
	return []types.Record{
		{ID: "W1", Title: "Grid battery storage", Abstract: "renewable energy grid battery", CitationCount: 120},
		{ID: "W2", Title: "Solar forecasting", Abstract: "renewable solar energy"},
		{ID: "W3", Title: "Compiler optimisation", Abstract: "software compiler"},
	}
}

func newService(s search.Backend, gen llm.Generator, cfg types.ExploreConfig) *Service {
	branches := classify.BranchesFromNames([]string{"CSE", "EEE"})
	c := classify.New(gen, types.ClassifierConfig{MaxRetries: 1, Concurrency: 2})
	l := layout.New(types.LayoutConfig{}, layout.WithSeed(1))
	return New(s, c, l, branches, types.SearchConfig{MaxResults: 30}, cfg, nil)
}

func TestExplore_EndToEnd(t *testing.T) {
	s := &stubSearch{records: energyRecords()}
	gen := llm.Always("mock", llm.Reply{Text: `{"branch": "EEE", "subcluster": "Energy Storage", "confidence": 0.8}`})
	svc := newService(s, gen, types.ExploreConfig{})

	res, err := svc.Explore(context.Background(), "  renewable   energy ", Options{})
	require.NoError(t, err)

	assert.Equal(t, "renewable energy", res.Query)
	assert.Equal(t, "renewable energy", s.last.Text)
	assert.Equal(t, 30, s.last.Limit)
	require.Len(t, res.Papers, 3)
	assert.Empty(t, res.Warnings)
	require.NoError(t, cluster.Validate(res.Tree))

	roots := cluster.RootsOf(res.Tree)
	require.Len(t, roots, 1)
	assert.Equal(t, "renewable energy", roots[0].Label)
	assert.Len(t, cluster.Leaves(res.Tree), 3)
	assert.Len(t, res.Positions, 3)
	for _, p := range res.Positions {
		assert.Equal(t, "Energy Storage", p.ClusterLabel)
	}
}

func TestExplore_FallbackWarning(t *testing.T) {
	s := &stubSearch{records: energyRecords()}
	svc := newService(s, nil, types.ExploreConfig{})

	res, err := svc.Explore(context.Background(), "energy", Options{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, s.last.Limit)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "3 of 3 papers")

	byID := map[string]types.ClassificationResult{}
	for _, p := range res.Papers {
		byID[p.Record.ID] = p.Classification
	}
	assert.Equal(t, "EEE", byID["W1"].Branch)
	assert.Equal(t, classify.FallbackSubcluster, byID["W1"].Subcluster)
	assert.Equal(t, "CSE", byID["W3"].Branch)
}

func TestExplore_SearchFailureYieldsEmptyResult(t *testing.T) {
	s := &stubSearch{err: errors.New("openalex: HTTP 503")}
	svc := newService(s, nil, types.ExploreConfig{})

	res, err := svc.Explore(context.Background(), "energy", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Papers)
	assert.Empty(t, res.Tree.Nodes)
	assert.NotNil(t, res.Positions)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "HTTP 503")
}

func TestExplore_ContractErrors(t *testing.T) {
	s := &stubSearch{}
	svc := newService(s, nil, types.ExploreConfig{})

	_, err := svc.Explore(context.Background(), " \t ", Options{})
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	empty := New(s, classify.New(nil, types.ClassifierConfig{}), layout.New(types.LayoutConfig{}), nil, types.SearchConfig{}, types.ExploreConfig{}, nil)
	_, err = empty.Explore(context.Background(), "energy", Options{})
	assert.ErrorIs(t, err, types.ErrNoBranches)

	assert.Zero(t, s.calls, "contract errors are raised before search")
}

func TestExplore_BranchOverride(t *testing.T) {
	s := &stubSearch{records: energyRecords()[:1]}
	svc := newService(s, nil, types.ExploreConfig{})

	res, err := svc.Explore(context.Background(), "energy", Options{Branches: classify.BranchesFromNames([]string{"MECH"})})
	require.NoError(t, err)
	assert.Equal(t, "MECH", res.Papers[0].Classification.Branch)
}

func TestExplore_Timeout(t *testing.T) {
	s := &stubSearch{block: true}
	svc := newService(s, nil, types.ExploreConfig{Timeout: 20 * time.Millisecond})

	_, err := svc.Explore(context.Background(), "energy", Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
