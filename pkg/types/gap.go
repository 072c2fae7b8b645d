// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResearchGap is a candidate under-explored direction. A candidate starts
// with IsValidated=false; validation either confirms it was checked
// (IsValidated=true, with ExistingWork when recent coverage was found) or
// leaves it unchecked when the validation query failed.
type ResearchGap struct {
	ID              string   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description" yaml:"description"`
	Justification   string   `json:"justification" yaml:"justification"`
	RelatedPaperIDs []string `json:"related_paper_ids" yaml:"related_paper_ids"`
	Confidence      float64  `json:"confidence" yaml:"confidence"`
	Category        string   `json:"category" yaml:"category"`
	IsValidated     bool     `json:"is_validated" yaml:"is_validated"`
	ExistingWork    []Record `json:"existing_work,omitempty" yaml:"existing_work,omitempty"`
}

// Covered reports whether validation found recent existing work.
func (g ResearchGap) Covered() bool {
	return g.IsValidated && len(g.ExistingWork) > 0
}

// GapReport is the result of one research gap analysis.
type GapReport struct {
	BasePaper          Record        `json:"base_paper" yaml:"base_paper"`
	Gaps               []ResearchGap `json:"gaps" yaml:"gaps"`
	TotalRelatedPapers int           `json:"total_related_papers" yaml:"total_related_papers"`
	FutureDirections   []string      `json:"future_directions" yaml:"future_directions"`
	Queries            []string      `json:"queries" yaml:"queries"`
	QueryErrors        []string      `json:"query_errors,omitempty" yaml:"query_errors,omitempty"`
	AnalysisDate       time.Time     `json:"analysis_date" yaml:"analysis_date"`
}
