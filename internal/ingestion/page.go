package ingestion

import (
	"encoding/json"
	"html"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/parsing"
)

// Strategy names the heuristic that produced a page's content.
type Strategy string

// Strategies, in the order they are tried.
const (
	StrategyJSONLD      Strategy = "json-ld"
	StrategyPlatform    Strategy = "platform-selectors"
	StrategyHeadings    Strategy = "section-headings"
	StrategyReadability Strategy = "readability"
	StrategyBody        Strategy = "body"
)

const (
	// maxSectionSiblings bounds how far past a section heading content is collected.
	maxSectionSiblings  = 25
	minSelectorText     = 100
	minSectionText      = 50
	minSiblingText      = 10
	minReadabilityText  = 200
	headingCandidates   = "h1, h2, h3, h4, h5, h6, b, strong, .title, .heading, [class*='title'], [class*='heading']"
	sectionContentTags  = "ul ol p div span li section article"
	sectionStopHeadings = "h1 h2 h3 h4 h5 h6"
)

// Page is the result of parsing one HTML document.
type Page struct {
	Title    string
	Strategy Strategy
	Markdown string
	Sections parsing.Sections
}

// ParsePage runs the content strategies in order and parses the first fragment that
// yields content. It fails only when html cannot be tokenized at all.
func ParsePage(rawHTML, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	posting := findJobPosting(doc)
	titles := titleCandidates(doc, posting)

	fragment, strategy := selectContent(doc, rawHTML, pageURL, posting)
	markdown := toMarkdown(fragment)

	page := &Page{
		Strategy: strategy,
		Markdown: markdown,
		Sections: parsing.ExtractSections(markdown),
	}
	for _, candidate := range append(titles, parsing.TitleFromText(markdown)) {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			page.Title = candidate
			break
		}
	}
	return page, nil
}

func selectContent(doc *goquery.Document, rawHTML, pageURL string, posting *jobPosting) (string, Strategy) {
	if posting != nil {
		if fragment := posting.fragment(); fragment != "" {
			return fragment, StrategyJSONLD
		}
	}

	platform := fetch.DetectPlatform(pageURL)
	fetch.RemoveNoise(doc, fetch.PlatformNoiseSelectors(platform)...)

	if platform != fetch.PlatformGeneric {
		for _, selector := range fetch.Profile(platform).ContentSelectors {
			sel := doc.Find(selector).First()
			if sel.Length() > 0 && len(textOf(sel)) > minSelectorText {
				if fragment, err := goquery.OuterHtml(sel); err == nil {
					return fragment, StrategyPlatform
				}
			}
		}
	}

	if fragment := relevantSections(doc); fragment != "" {
		return fragment, StrategyHeadings
	}

	if fragment := readableContent(rawHTML, pageURL); fragment != "" {
		return fragment, StrategyReadability
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	fragment, _ := body.Html()
	return fragment, StrategyBody
}

// relevantSections collects each heading that looks like a job section together with
// the content elements that follow it, up to the next heading.
func relevantSections(doc *goquery.Document) string {
	var sb strings.Builder
	contentTags := strings.Fields(sectionContentTags)
	stopTags := strings.Fields(sectionStopHeadings)

	doc.Find(headingCandidates).Each(func(_ int, heading *goquery.Selection) {
		title := textOf(heading)
		if len(title) <= 3 || !parsing.IsSectionTitle(title) {
			return
		}

		var section strings.Builder
		textLen := 0
		next := heading.Next()
		for count := 0; next.Length() > 0 && count < maxSectionSiblings; count++ {
			tag := goquery.NodeName(next)
			if contains(stopTags, tag) {
				break
			}
			if contains(contentTags, tag) {
				if text := textOf(next); len(text) > minSiblingText {
					if outer, err := goquery.OuterHtml(next); err == nil {
						section.WriteString(outer)
						textLen += len(text)
					}
				}
			}
			next = next.Next()
		}

		if textLen > minSectionText {
			sb.WriteString("<h3>")
			sb.WriteString(html.EscapeString(title))
			sb.WriteString("</h3>")
			sb.WriteString(section.String())
		}
	})
	return sb.String()
}

func readableContent(rawHTML, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), u)
	if err != nil {
		return ""
	}
	content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil || len(textOf(content.Selection)) < minReadabilityText {
		return ""
	}
	return article.Content
}

func titleCandidates(doc *goquery.Document, posting *jobPosting) []string {
	var titles []string
	if posting != nil {
		titles = append(titles, posting.Title)
	}
	titles = append(titles, textOf(doc.Find("h1").First()))
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		titles = append(titles, parsing.CleanTitle(og))
	}
	titles = append(titles, parsing.CleanTitle(doc.Find("title").First().Text()))
	return titles
}

func toMarkdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(fragment)
	if err != nil {
		doc, derr := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if derr != nil {
			return ""
		}
		return fetch.CleanWhitespace(doc.Text())
	}
	return strings.TrimSpace(out)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// jobPosting is the subset of a schema.org JobPosting we read.
type jobPosting struct {
	Title            string
	Description      string
	Responsibilities string
	Qualifications   string
	Skills           string
}

// fragment renders the posting as HTML so it flows through the same markdown parser.
func (p *jobPosting) fragment() string {
	if strings.TrimSpace(p.Description) == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(decodeEntities(p.Description))
	for _, extra := range []struct{ heading, body string }{
		{"Responsibilities", p.Responsibilities},
		{"Qualifications", p.Qualifications},
		{"Skills", p.Skills},
	} {
		if strings.TrimSpace(extra.body) == "" {
			continue
		}
		sb.WriteString("<h3>" + extra.heading + "</h3>")
		sb.WriteString(decodeEntities(extra.body))
	}
	return sb.String()
}

// decodeEntities unescapes descriptions published as entity-encoded HTML.
func decodeEntities(s string) string {
	if strings.Contains(s, "&lt;") {
		return html.UnescapeString(s)
	}
	return s
}

// findJobPosting returns the first JobPosting in the page's JSON-LD blocks.
func findJobPosting(doc *goquery.Document) *jobPosting {
	var found *jobPosting
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &raw); err != nil {
			return true
		}
		if obj := findPostingNode(raw); obj != nil {
			found = &jobPosting{
				Title:            stringField(obj, "title"),
				Description:      stringField(obj, "description"),
				Responsibilities: stringField(obj, "responsibilities"),
				Qualifications:   stringField(obj, "qualifications"),
				Skills:           stringField(obj, "skills"),
			}
			if found.Title == "" {
				found.Title = stringField(obj, "name")
			}
			return false
		}
		return true
	})
	return found
}

// findPostingNode searches objects, arrays and @graph containers.
func findPostingNode(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if obj := findPostingNode(item); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if isJobPostingType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findPostingNode(graph)
		}
	}
	return nil
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

// stringField reads a text property; lists of strings become an HTML list.
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		var sb strings.Builder
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				sb.WriteString("<li>" + html.EscapeString(strings.TrimSpace(s)) + "</li>")
			}
		}
		if sb.Len() == 0 {
			return ""
		}
		return "<ul>" + sb.String() + "</ul>"
	}
	return ""
}
