package rendering

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/jonathan/job-extractor/internal/types"
)

// Separator joins postings in a batch block.
const Separator = "\n---\n"

//go:embed posting.tmpl
var postingTemplate string

var posting = template.Must(template.New("posting").Parse(postingTemplate))

// postingData is the template view of one extraction, with blank items removed.
type postingData struct {
	Title            string
	Responsibilities []string
	Requirements     []string
	Description      string
}

// Render serializes ex. Failed or nil extractions and extractions with no content
// render as the empty string.
func Render(ex *types.JobPostingExtraction) (string, error) {
	if ex.Failed() {
		return "", nil
	}
	data := postingData{
		Title:            strings.TrimSpace(ex.Title),
		Responsibilities: items(ex.Responsibilities),
		Requirements:     items(ex.Requirements),
		Description:      strings.TrimSpace(ex.Description),
	}

	var sb strings.Builder
	if err := posting.Execute(&sb, data); err != nil {
		return "", &RenderError{URL: ex.URL, Cause: err}
	}
	return sb.String(), nil
}

// RenderExtraction is Render for callers that cannot act on an error; a template
// failure renders as nothing, like a failed extraction.
func RenderExtraction(ex *types.JobPostingExtraction) string {
	out, err := Render(ex)
	if err != nil {
		return ""
	}
	return out
}

// RenderBatch renders every extraction that produced text, in order, joined by
// Separator.
func RenderBatch(extractions []*types.JobPostingExtraction) string {
	blocks := make([]string, 0, len(extractions))
	for _, ex := range extractions {
		if block := RenderExtraction(ex); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, Separator)
}

func items(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if item = strings.Join(strings.Fields(item), " "); item != "" {
			out = append(out, item)
		}
	}
	return out
}
