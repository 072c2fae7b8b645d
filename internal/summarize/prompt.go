// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/research-intel/pkg/types"
)

const maxAbstractRunes = 3000

const systemPrompt = "You are a research assistant summarizing academic papers. Answer with the summary text only."

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Summarize this research paper concisely.

Title: {{.Title}}
Abstract: {{if .Abstract}}{{.Abstract}}{{else}}No abstract available{{end}}

Write 3 to 4 sentences covering the research problem, the methodology, the key findings and their significance.
`))

func renderPrompt(r types.Record) (string, error) {
	abstract := []rune(r.Abstract)
	if len(abstract) > maxAbstractRunes {
		abstract = abstract[:maxAbstractRunes]
	}
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct{ Title, Abstract string }{r.Title, string(abstract)})
	return buf.String(), err
}
