// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores normalized records against a free-text query.
package relevance

import (
	"sort"
	"strings"

	"github.com/pdiddy/research-intel/pkg/types"
)

// Field weights and the citation boost cap.
const (
	titleWeight    = 0.4
	abstractWeight = 0.3
	conceptWeight  = 0.3

	citationScale = 1000.0
	maxBoost      = 0.2

	// Neutral is the score of an empty query before the citation boost.
	Neutral = 0.5
)

// Score returns how well r matches query, in [0,1]. Each whitespace token
// contributes its title, abstract, and concept matches; the per-token mean
// is clamped and then boosted by citation count. An empty query scores
// Neutral plus the boost.
func Score(r types.Record, query string) float64 {
	return clamp(Match(r, query) + CitationBoost(r.CitationCount))
}

// Match is Score without the citation boost.
func Match(r types.Record, query string) float64 {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return Neutral
	}

	title := strings.ToLower(r.Title)
	abstract := strings.ToLower(r.Abstract)
	concepts := make([]string, len(r.Concepts))
	for i, c := range r.Concepts {
		concepts[i] = strings.ToLower(c.Name)
	}

	var sum float64
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			sum += titleWeight
		}
		if strings.Contains(abstract, tok) {
			sum += abstractWeight
		}
		for _, c := range concepts {
			if strings.Contains(c, tok) {
				sum += conceptWeight
				break
			}
		}
	}
	return clamp(sum / float64(len(tokens)))
}

// CitationBoost returns min(citations/1000, 0.2).
func CitationBoost(citations int) float64 {
	if citations <= 0 {
		return 0
	}
	return min(float64(citations)/citationScale, maxBoost)
}

// Rank returns records ordered by descending score against query. Ties
// keep input order.
func Rank(records []types.Record, query string) []types.Record {
	type scored struct {
		r     types.Record
		score float64
	}
	all := make([]scored, len(records))
	for i, r := range records {
		all[i] = scored{r: r, score: Score(r, query)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	out := make([]types.Record, len(all))
	for i, s := range all {
		out[i] = s.r
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
