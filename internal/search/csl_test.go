// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/pkg/types"
)

func TestToCSLItemJournalArticle(t *testing.T) {
	r := types.Record{
		ID:       "W1",
		Title:    "Attention Is All You Need",
		Authors:  []types.Author{{Name: "Ashish Vaswani"}, {Name: "Plato"}},
		Abstract: "We propose.",
		Year:     2017,
		DOI:      "10.5555/3295222.3295349",
		URL:      "https://example.org/p",
		Venue:    "NeurIPS",
	}

	item := toCSLItem(r)

	if item.Type != "article-journal" {
		t.Errorf("Type = %q", item.Type)
	}
	if item.ContainerTitle != "NeurIPS" || item.DOI != r.DOI || item.URL != r.URL {
		t.Errorf("item = %+v", item)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0].Family != "Vaswani" || item.Author[0].Given != "Ashish" {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
	if item.Author[1].Literal != "Plato" {
		t.Errorf("Author[1] = %+v", item.Author[1])
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2017 {
		t.Errorf("Issued = %+v", item.Issued)
	}
}

func TestToCSLItemWithoutVenueOrYear(t *testing.T) {
	item := toCSLItem(types.Record{ID: "W2", Title: "Preprint"})
	if item.Type != "article" {
		t.Errorf("Type = %q, want article", item.Type)
	}
	if item.Issued != nil {
		t.Errorf("Issued = %+v, want nil", item.Issued)
	}
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatCSL(sampleOutput(), &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: W1", "family: Vaswani", "date-parts:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var items []CSLItem
	if err := yaml.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Ashish Vaswani", CSLName{Given: "Ashish", Family: "Vaswani"}},
		{"Jean Paul Sartre", CSLName{Given: "Jean Paul", Family: "Sartre"}},
		{"Plato", CSLName{Literal: "Plato"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		if got := parseAuthorName(tt.in); got != tt.want {
			t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
