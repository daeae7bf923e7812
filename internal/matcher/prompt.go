package matcher

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/internal/query"
	"github.com/hyperjump/ausdata/pkg/utils"
)

// promptDescriptionLength bounds each candidate description in the prompt.
const promptDescriptionLength = 120

var matchPromptTmpl = template.Must(template.New("match").Parse(`You help people find Australian open government datasets.
Pick the datasets below that are relevant to the user's request.

Reply with one line per relevant dataset, most relevant first, in exactly this form:
<id> | <relevance score between 0 and 1> | <short reason>

Use only ids from the list. Do not add any other text. If nothing is relevant, reply with NONE.

Datasets (id | title | topic | description):
{{range .Candidates}}{{.ID}} | {{.Title}} | {{.Topic}} | {{.Description}}
{{end}}
User request: {{.Query}}
`))

type promptCandidate struct {
	ID          string
	Title       string
	Topic       string
	Description string
}

// renderPrompt builds the relevance prompt for q over candidates. Fields are
// flattened to a single line so the per-candidate layout stays intact.
func renderPrompt(q query.Query, candidates []models.Dataset) (string, error) {
	data := struct {
		Query      string
		Candidates []promptCandidate
	}{Query: q.String()}
	for _, ds := range candidates {
		data.Candidates = append(data.Candidates, promptCandidate{
			ID:          oneLine(ds.ID),
			Title:       oneLine(ds.Title),
			Topic:       oneLine(ds.Topic),
			Description: utils.Truncate(oneLine(ds.Description), promptDescriptionLength),
		})
	}
	var buf bytes.Buffer
	if err := matchPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.Join(strings.Fields(s), " ")
}
