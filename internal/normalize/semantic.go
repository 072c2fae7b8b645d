// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/research-intel/pkg/types"
)

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	CitationCount int                 `json:"citationCount"`
	Venue         string              `json:"venue"`
	URL           string              `json:"url"`
	IsOpenAccess  bool                `json:"isOpenAccess"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
	FieldsOfStudy []string            `json:"fieldsOfStudy"`
}

type semanticAuthor struct {
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// FromSemanticScholar maps one Semantic Scholar paper into a record.
// Fields of study become concepts with a neutral score since the API
// does not weight them.
func FromSemanticScholar(raw json.RawMessage) (types.Record, error) {
	var p semanticPaper
	if err := json.Unmarshal(raw, &p); err != nil {
		return types.Record{}, shapeError("semantic_scholar", err)
	}
	if p.PaperID == "" {
		return types.Record{}, shapeError("semantic_scholar", fmt.Errorf("missing paperId"))
	}
	title := strings.TrimSpace(p.Title)
	if isPlaceholderTitle(title) {
		return types.Record{}, fmt.Errorf("semantic_scholar %s: %w", p.PaperID, ErrUntitled)
	}

	r := types.Record{
		ID:            p.PaperID,
		Title:         title,
		Abstract:      p.Abstract,
		Year:          max(p.Year, 0),
		CitationCount: max(p.CitationCount, 0),
		DOI:           bareDOI(p.ExternalIDs.DOI),
		URL:           p.URL,
		Venue:         p.Venue,
		Source:        "semantic_scholar",
		OpenAccess:    p.IsOpenAccess,
	}
	for _, a := range p.Authors {
		if a.Name == "" {
			continue
		}
		author := types.Author{Name: a.Name}
		if len(a.Affiliations) > 0 {
			author.Affiliation = a.Affiliations[0]
		}
		r.Authors = append(r.Authors, author)
	}
	for _, f := range p.FieldsOfStudy {
		if len(r.Concepts) == maxConcepts {
			break
		}
		r.Concepts = append(r.Concepts, types.Concept{Name: f, Score: 0.5})
	}
	return r, nil
}
