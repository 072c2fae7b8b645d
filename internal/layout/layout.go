// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout places every paper of a cluster tree on a 2-D canvas.
// Distance from the canvas centre falls as relevance to the query rises;
// each subcluster owns an angular sector, and papers are scattered
// within their sector at random. Only the radial ordering is stable
// across runs unless a seed is fixed.
package layout

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/pdiddy/research-intel/internal/cluster"
	"github.com/pdiddy/research-intel/internal/relevance"
	"github.com/pdiddy/research-intel/pkg/types"
)

// Heat bucket lower bounds.
const (
	hotAt  = 0.8
	warmAt = 0.6
	mildAt = 0.4
	coolAt = 0.2
)

// Size formula terms.
const (
	baseSize        = 4.0
	relevanceScale  = 10.0
	citationDivisor = 200.0
	maxCitationSize = 6.0
)

// spread is the share of a sector a paper may stray from its centre;
// jitter is the additional per-paper angular noise in radians.
const (
	spread = 0.4
	jitter = 0.02
)

// Engine computes paper positions. It is safe for concurrent use.
type Engine struct {
	width, height, margin float64

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed fixes the random source so positions are reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand injects a random source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// New returns an Engine for the canvas in cfg. Zero dimensions take the
// defaults from types.DefaultConfig; a non-zero cfg.Seed fixes the source.
func New(cfg types.LayoutConfig, opts ...Option) *Engine {
	def := types.DefaultConfig().Layout
	e := &Engine{
		width:  positiveOr(cfg.Width, def.Width),
		height: positiveOr(cfg.Height, def.Height),
		margin: max(cfg.Margin, 0),
	}
	if cfg.Seed != 0 {
		WithSeed(uint64(cfg.Seed))(e)
	}
	for _, o := range opts {
		o(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// Center returns the canvas centre.
func (e *Engine) Center() (x, y float64) {
	return e.width / 2, e.height / 2
}

// MaxRadius is the distance of a zero-relevance paper from the centre.
func (e *Engine) MaxRadius() float64 {
	return max(min(e.width, e.height)/2-e.margin, 0)
}

// Layout returns one position per paper attached to the leaves of tree,
// scored against query. Leaves are visited in tree order.
func (e *Engine) Layout(tree types.ClusterTree, query string) []types.PaperPosition {
	leaves := cluster.Leaves(tree)
	out := make([]types.PaperPosition, 0, len(leaves))
	if len(leaves) == 0 {
		return out
	}

	// One sector per distinct parent of a leaf.
	sectorOf := make(map[string]int)
	for _, l := range leaves {
		if _, ok := sectorOf[l.ParentID]; !ok {
			sectorOf[l.ParentID] = len(sectorOf)
		}
	}
	width := 2 * math.Pi / float64(len(sectorOf))
	cx, cy := e.Center()
	maxR := e.MaxRadius()

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, l := range leaves {
		label := l.Label
		if parent, ok := cluster.FindByID(tree, l.ParentID); ok {
			label = parent.Label
		}
		centre := (float64(sectorOf[l.ParentID]) + 0.5) * width
		for _, p := range l.Papers {
			rel := relevance.Score(p, query)
			dist := maxR * (1 - rel)
			theta := centre + (e.rng.Float64()*2-1)*spread*width + (e.rng.Float64()*2-1)*jitter

			out = append(out, types.PaperPosition{
				PaperID:      p.ID,
				X:            clamp(cx+dist*math.Cos(theta), 0, e.width),
				Y:            clamp(cy+dist*math.Sin(theta), 0, e.height),
				Relevance:    rel,
				Heat:         HeatFor(rel),
				Size:         Size(rel, p.CitationCount),
				ClusterLabel: label,
				Level:        l.Level,
			})
		}
	}
	return out
}

// HeatFor maps relevance to its fixed bucket.
func HeatFor(rel float64) types.HeatLevel {
	switch {
	case rel >= hotAt:
		return types.HeatHot
	case rel >= warmAt:
		return types.HeatWarm
	case rel >= mildAt:
		return types.HeatMild
	case rel >= coolAt:
		return types.HeatCool
	default:
		return types.HeatCold
	}
}

// Size returns the node size for a paper: monotonic in relevance and
// citations, with the citation term capped.
func Size(rel float64, citations int) float64 {
	c := 0.0
	if citations > 0 {
		c = min(float64(citations)/citationDivisor, maxCitationSize)
	}
	return baseSize + rel*relevanceScale + c
}

// Distance returns how far p sits from the centre of a canvas whose
// centre is (cx, cy).
func Distance(p types.PaperPosition, cx, cy float64) float64 {
	return math.Hypot(p.X-cx, p.Y-cy)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func positiveOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
