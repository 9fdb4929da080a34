package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-extractor/internal/prompts"
)

// ExtractionSchema describes the JSON object a prompt asks the model to return.
type ExtractionSchema struct {
	Name        string
	Description string
	Fields      []SchemaField
}

// SchemaField is one key of the expected output.
type SchemaField struct {
	Name        string
	Type        string // JSON type hint, e.g. "string" or "[\"string\"]"
	Description string
	Required    bool
}

// BuildExtractionPrompt renders schema and the input text into a single prompt.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\nReturn ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		fmt.Fprintf(&sb, "  %q: %s", field.Name, typeHint)
		if field.Required {
			sb.WriteString(" (required)")
		}
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Use an empty string or empty list when the text has no such content.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation.\n\n")
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// JobPostingSchema asks for the four fields of an extraction.
func JobPostingSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "JobPosting",
		Description: prompts.MustGet(prompts.ExtractionFile, "structure-job-posting"),
		Fields: []SchemaField{
			{Name: "title", Description: "Job title as written in the posting", Required: true},
			{Name: "responsibilities", Type: `["string"]`, Description: "Each duty or activity, one item per entry", Required: true},
			{Name: "requirements", Type: `["string"]`, Description: "Each requirement, qualification or skill, one item per entry", Required: true},
			{Name: "description", Description: "Short summary paragraph about the role or company"},
		},
	}
}
