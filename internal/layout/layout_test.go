// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-intel/internal/cluster"
	"github.com/pdiddy/research-intel/pkg/types"
)

func classified(id, title, abstract, sub string, cites int) types.ClassifiedRecord {
	return types.ClassifiedRecord{
		Record: types.Record{ID: id, Title: title, Abstract: abstract, CitationCount: cites},
		Classification: types.ClassificationResult{
			Branch: "EEE", Subcluster: sub, Confidence: 0.8,
		},
	}
}

func sampleTree() types.ClusterTree {
	return cluster.Build("solar battery", []types.ClassifiedRecord{
		classified("W1", "Solar battery storage", "solar battery systems", "Storage", 900),
		classified("W2", "Solar forecasting", "", "Renewable Energy", 50),
		classified("W3", "Bridge corrosion", "concrete", "Storage", 0),
		classified("W4", "Battery chemistry", "lithium battery", "Renewable Energy", 3000),
		classified("W5", "Wind turbines", "", "Wind", 10),
	})
}

func TestLayout_OnePositionPerPaper(t *testing.T) {
	e := New(types.LayoutConfig{Width: 1000, Height: 800, Margin: 40}, WithSeed(1))
	pos := e.Layout(sampleTree(), "solar battery")
	require.Len(t, pos, 5)

	ids := map[string]bool{}
	for _, p := range pos {
		ids[p.PaperID] = true
		assert.Equal(t, types.LevelLeaf, p.Level)
		assert.NotEmpty(t, p.ClusterLabel)
	}
	assert.Len(t, ids, 5)
}

func TestLayout_DistanceOrderedByRelevance(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		e := New(types.LayoutConfig{Width: 1000, Height: 800, Margin: 40}, WithSeed(seed))
		pos := e.Layout(sampleTree(), "solar battery")
		cx, cy := e.Center()

		sort.Slice(pos, func(i, j int) bool { return pos[i].Relevance > pos[j].Relevance })
		for i := 1; i < len(pos); i++ {
			assert.LessOrEqual(t,
				Distance(pos[i-1], cx, cy), Distance(pos[i], cx, cy)+1e-9,
				"seed %d: %s should be no farther than %s", seed, pos[i-1].PaperID, pos[i].PaperID)
		}
		for _, p := range pos {
			assert.InDelta(t, e.MaxRadius()*(1-p.Relevance), Distance(p, cx, cy), 1e-6)
		}
	}
}

func TestLayout_WithinBounds(t *testing.T) {
	cfgs := []types.LayoutConfig{
		{Width: 1000, Height: 800, Margin: 40},
		{Width: 200, Height: 100, Margin: 0},
		{Width: 50, Height: 50, Margin: 100},
	}
	for _, cfg := range cfgs {
		t.Run(fmt.Sprintf("%vx%v", cfg.Width, cfg.Height), func(t *testing.T) {
			e := New(cfg, WithSeed(3))
			for _, p := range e.Layout(sampleTree(), "") {
				assert.GreaterOrEqual(t, p.X, 0.0)
				assert.LessOrEqual(t, p.X, cfg.Width)
				assert.GreaterOrEqual(t, p.Y, 0.0)
				assert.LessOrEqual(t, p.Y, cfg.Height)
			}
		})
	}
}

func TestLayout_SeedReproducible(t *testing.T) {
	a := New(types.LayoutConfig{Seed: 42}).Layout(sampleTree(), "solar")
	b := New(types.LayoutConfig{Seed: 42}).Layout(sampleTree(), "solar")
	assert.Equal(t, a, b)

	c := New(types.LayoutConfig{}, WithSeed(43)).Layout(sampleTree(), "solar")
	assert.NotEqual(t, a, c)
}

func TestLayout_ClusterLabelIsSubcluster(t *testing.T) {
	pos := New(types.LayoutConfig{}, WithSeed(5)).Layout(sampleTree(), "solar")
	byID := map[string]string{}
	for _, p := range pos {
		byID[p.PaperID] = p.ClusterLabel
	}
	assert.Equal(t, "Storage", byID["W1"])
	assert.Equal(t, "Storage", byID["W3"])
	assert.Equal(t, "Renewable Energy", byID["W4"])
	assert.Equal(t, "Wind", byID["W5"])
}

func TestLayout_EmptyTree(t *testing.T) {
	pos := New(types.LayoutConfig{}).Layout(cluster.Build("q", nil), "q")
	assert.NotNil(t, pos)
	assert.Empty(t, pos)
}

func TestNew_Defaults(t *testing.T) {
	e := New(types.LayoutConfig{})
	x, y := e.Center()
	assert.Equal(t, 500.0, x)
	assert.Equal(t, 400.0, y)
	assert.Equal(t, 400.0, e.MaxRadius())

	tight := New(types.LayoutConfig{Width: 10, Height: 10, Margin: 50})
	assert.Zero(t, tight.MaxRadius())
}

func TestHeatFor(t *testing.T) {
	tests := []struct {
		rel  float64
		want types.HeatLevel
	}{
		{1, types.HeatHot},
		{0.8, types.HeatHot},
		{0.79, types.HeatWarm},
		{0.6, types.HeatWarm},
		{0.4, types.HeatMild},
		{0.2, types.HeatCool},
		{0.19, types.HeatCold},
		{0, types.HeatCold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeatFor(tt.rel), "relevance %v", tt.rel)
	}
}

func TestSize(t *testing.T) {
	assert.Equal(t, 4.0, Size(0, 0))
	assert.Equal(t, 14.0, Size(1, 0))
	assert.Equal(t, 9.0, Size(0.5, 0))
	assert.Equal(t, 5.0, Size(0, 200))
	assert.Equal(t, 10.0, Size(0, 10_000), "citation term is capped")

	assert.Less(t, Size(0.3, 100), Size(0.4, 100))
	assert.Less(t, Size(0.3, 100), Size(0.3, 400))
}
