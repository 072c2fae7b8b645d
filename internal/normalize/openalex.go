// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/research-intel/pkg/types"
)

// OpenAlex work JSON. Only fields the record needs are declared.
type openAlexWork struct {
	ID                    string               `json:"id"`
	DisplayName           string               `json:"display_name"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	Concepts              []openAlexConcept    `json:"concepts"`
	AbstractInvertedIndex json.RawMessage      `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	OpenAccess            *openAlexOpenAccess  `json:"open_access"`
}

type openAlexAuthorship struct {
	Author       openAlexAuthor        `json:"author"`
	Institutions []openAlexInstitution `json:"institutions"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

type openAlexLocation struct {
	LandingPageURL string          `json:"landing_page_url"`
	Source         *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

// FromOpenAlex maps one OpenAlex work into a record. The id is the last
// segment of the work URL and at most five concepts are kept.
func FromOpenAlex(raw json.RawMessage) (types.Record, error) {
	var w openAlexWork
	if err := json.Unmarshal(raw, &w); err != nil {
		return types.Record{}, shapeError("openalex", err)
	}
	id := lastSegment(w.ID)
	if id == "" {
		return types.Record{}, shapeError("openalex", fmt.Errorf("missing id"))
	}

	title := strings.TrimSpace(w.DisplayName)
	if title == "" {
		title = strings.TrimSpace(w.Title)
	}
	if isPlaceholderTitle(title) {
		return types.Record{}, fmt.Errorf("openalex %s: %w", id, ErrUntitled)
	}

	r := types.Record{
		ID:            id,
		Title:         title,
		Abstract:      AbstractFromIndex(w.AbstractInvertedIndex),
		Year:          max(w.PublicationYear, 0),
		CitationCount: max(w.CitedByCount, 0),
		DOI:           bareDOI(w.DOI),
		Source:        "openalex",
	}

	for _, a := range w.Authorships {
		name := strings.TrimSpace(a.Author.DisplayName)
		if name == "" {
			continue
		}
		author := types.Author{Name: name}
		if len(a.Institutions) > 0 {
			author.Affiliation = a.Institutions[0].DisplayName
		}
		r.Authors = append(r.Authors, author)
	}

	for _, c := range w.Concepts {
		if len(r.Concepts) == maxConcepts {
			break
		}
		if c.DisplayName == "" {
			continue
		}
		r.Concepts = append(r.Concepts, types.Concept{Name: c.DisplayName, Score: clamp01(c.Score)})
	}

	if loc := w.PrimaryLocation; loc != nil {
		r.URL = loc.LandingPageURL
		if loc.Source != nil {
			r.Venue = loc.Source.DisplayName
		}
	}
	if r.URL == "" && r.DOI != "" {
		r.URL = "https://doi.org/" + r.DOI
	}
	if r.URL == "" {
		r.URL = w.ID
	}
	if w.OpenAccess != nil {
		r.OpenAccess = w.OpenAccess.IsOA
	}

	return r, nil
}
