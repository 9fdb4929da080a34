package firecrawl

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/parsing"
	"github.com/jonathan/job-extractor/internal/prompts"
	"github.com/jonathan/job-extractor/internal/schemas"
	"github.com/jonathan/job-extractor/internal/types"
	"github.com/jonathan/job-extractor/internal/validation"
)

type scrapeRequest struct {
	URL             string           `json:"url"`
	Formats         []string         `json:"formats"`
	OnlyMainContent bool             `json:"onlyMainContent"`
	IncludeTags     []string         `json:"includeTags,omitempty"`
	ExcludeTags     []string         `json:"excludeTags,omitempty"`
	WaitFor         int64            `json:"waitFor,omitempty"`
	Timeout         int64            `json:"timeout,omitempty"`
	JSONOptions     *jsonOptions     `json:"jsonOptions,omitempty"`
	Actions         []map[string]any `json:"actions,omitempty"`
}

type jsonOptions struct {
	Schema map[string]any `json:"schema"`
	Prompt string         `json:"prompt"`
}

type scrapeResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Data    scrapeData `json:"data"`
}

type scrapeData struct {
	Markdown string          `json:"markdown"`
	JSON     json.RawMessage `json:"json,omitempty"`
	Metadata struct {
		Title      string `json:"title"`
		SourceURL  string `json:"sourceURL"`
		StatusCode int    `json:"statusCode"`
	} `json:"metadata"`
}

// structuredPosting is the shape requested through jsonOptions.schema.
type structuredPosting struct {
	Title            string   `json:"title"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Description      string   `json:"description"`
}

func (c *Client) buildRequest(url string) scrapeRequest {
	platform := fetch.DetectPlatform(url)
	profile := fetch.Profile(platform)

	return scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "json"},
		OnlyMainContent: c.opts.OnlyMainContent,
		IncludeTags:     c.opts.IncludeTags,
		ExcludeTags:     c.opts.ExcludeTags,
		WaitFor:         c.opts.WaitFor.Milliseconds(),
		Timeout:         c.opts.Timeout.Milliseconds(),
		JSONOptions: &jsonOptions{
			Schema: schemas.JobPostingSchema(),
			Prompt: extractPrompt(profile),
		},
		Actions: profile.Actions,
	}
}

func extractPrompt(profile fetch.PlatformProfile) string {
	if profile.Name == fetch.PlatformGeneric || profile.ExtractPrompt == "" {
		return prompts.MustGet(prompts.ExtractionFile, "primary-extract")
	}
	return prompts.Format(prompts.MustGet(prompts.ExtractionFile, "primary-extract-platform"), map[string]string{
		"Platform": string(profile.Name),
		"Hint":     strings.TrimSpace(profile.ExtractPrompt),
	})
}

// mapResponse turns scrape data into an extraction. Markdown sections are the baseline;
// schema-valid JSON fields override them when present.
func (c *Client) mapResponse(url string, data *scrapeData) *types.JobPostingExtraction {
	sections := parsing.ExtractSections(data.Markdown)
	ex := &types.JobPostingExtraction{
		URL:              url,
		Title:            parsing.CleanTitle(data.Metadata.Title),
		Responsibilities: nonNil(sections.Responsibilities),
		Requirements:     nonNil(sections.Requirements),
		Description:      sections.Description,
		FullText:         data.Markdown,
		ScrapingMethod:   types.MethodPrimary,
		Platform:         string(fetch.DetectPlatform(url)),
	}

	if structured := c.decodeStructured(url, data.JSON); structured != nil {
		if t := strings.TrimSpace(structured.Title); t != "" {
			ex.Title = t
		}
		if d := strings.TrimSpace(structured.Description); d != "" {
			ex.Description = d
		}
		if items := trimItems(structured.Responsibilities); len(items) > 0 {
			ex.Responsibilities = items
		}
		if items := trimItems(structured.Requirements); len(items) > 0 {
			ex.Requirements = items
		}
	}

	if ex.Title == "" {
		ex.Title = parsing.TitleFromText(data.Markdown)
	}
	validation.Apply(ex)
	return ex
}

// decodeStructured returns nil for absent or unusable JSON; the markdown result stands.
func (c *Client) decodeStructured(url string, raw json.RawMessage) *structuredPosting {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := schemas.ValidateJobPosting(raw); err != nil {
		c.logger.Warn("ignoring structured data that does not match schema", zap.String("url", url), zap.Error(err))
		return nil
	}
	var sp structuredPosting
	if err := json.Unmarshal(raw, &sp); err != nil {
		c.logger.Warn("ignoring undecodable structured data", zap.String("url", url), zap.Error(err))
		return nil
	}
	return &sp
}

func trimItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
