package llm

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// maxStructureInput bounds how much posting text is sent to the model.
const maxStructureInput = 12000

// JobPostingFields is the model's view of a posting.
type JobPostingFields struct {
	Title            string   `json:"title"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Description      string   `json:"description"`
}

// StructureJobPosting asks the model to split text into title, responsibilities,
// requirements and description. Blank list items are dropped.
func StructureJobPosting(ctx context.Context, client Client, text string) (*JobPostingFields, error) {
	if client == nil {
		return nil, &APICallError{Message: "no LLM client configured"}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ParseError{Message: "empty input text"}
	}
	if utf8.RuneCountInString(text) > maxStructureInput {
		text = string([]rune(text)[:maxStructureInput])
	}

	prompt := BuildExtractionPrompt(JobPostingSchema(), text)
	response, err := client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, &APICallError{Message: "failed to structure job posting", Cause: err}
	}

	var fields JobPostingFields
	if err := json.Unmarshal([]byte(CleanJSONBlock(response)), &fields); err != nil {
		return nil, &ParseError{Message: "failed to parse job posting JSON", Response: response, Cause: err}
	}

	fields.Title = strings.TrimSpace(fields.Title)
	fields.Description = strings.TrimSpace(fields.Description)
	fields.Responsibilities = compact(fields.Responsibilities)
	fields.Requirements = compact(fields.Requirements)
	return &fields, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
