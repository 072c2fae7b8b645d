// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	maxAbstractChars = 1000
	maxConcepts      = 5
	maxAuthors       = 5
)

const systemPrompt = "You are an expert research librarian who classifies academic papers into a fixed departmental taxonomy. Respond with a single JSON object and nothing else."

var classifyPromptTmpl = template.Must(template.New("classify").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Classify the following paper into exactly one of the allowed branches.

Title: {{.Title}}
Abstract: {{if .Abstract}}{{.Abstract}}{{else}}(not available){{end}}
Concepts: {{if .Concepts}}{{join .Concepts ", "}}{{else}}(none){{end}}
Year: {{if .Year}}{{.Year}}{{else}}unknown{{end}}
Authors: {{if .Authors}}{{join .Authors ", "}}{{else}}unknown{{end}}

Allowed branches:
{{range .Branches}}- {{.Name}}{{if .Subclusters}} (known subclusters: {{join .Subclusters ", "}}){{end}}
{{end}}
Pick the branch that best fits. For subcluster, reuse a known subcluster when one fits, otherwise name a new specific research area (2 to 100 characters).

Respond with JSON only:
{"branch": "<one allowed branch>", "subcluster": "<research area>", "confidence": <0.0 to 1.0>, "reasoning": "<one sentence>"}
`))

type promptBranch struct {
	Name        string
	Subclusters []string
}

type promptData struct {
	Title    string
	Abstract string
	Concepts []string
	Year     int
	Authors  []string
	Branches []promptBranch
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// renderPrompt builds the user prompt for one record.
func renderPrompt(r types.Record, branches []types.Branch) (string, error) {
	authors := r.AuthorNames()
	if len(authors) > maxAuthors {
		authors = authors[:maxAuthors]
	}
	data := promptData{
		Title:    r.Title,
		Abstract: truncateRunes(strings.TrimSpace(r.Abstract), maxAbstractChars),
		Concepts: r.ConceptNames(maxConcepts),
		Year:     r.Year,
		Authors:  authors,
	}
	for _, b := range branches {
		data.Branches = append(data.Branches, promptBranch{Name: b.Name, Subclusters: subclustersFor(b)})
	}

	var buf bytes.Buffer
	if err := classifyPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
