// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Summary methods.
const (
	SummaryGenerated  = "generated"
	SummaryExtractive = "extractive"
)

// Summary is a short plain-text digest of one paper. Method is
// SummaryGenerated when an AI generator wrote it and SummaryExtractive when
// it was cut from the abstract.
type Summary struct {
	PaperID string `json:"paper_id" yaml:"paper_id"`
	Title   string `json:"title" yaml:"title"`
	Text    string `json:"text" yaml:"text"`
	Method  string `json:"method" yaml:"method"`
}
