package parsing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFallbackDescription bounds the description taken verbatim when no section headings are found.
const MaxFallbackDescription = 2000

// Sections is the job content split out of a markdown document.
type Sections struct {
	Description      string
	Responsibilities []string
	Requirements     []string
}

// Empty reports whether nothing at all was extracted.
func (s Sections) Empty() bool {
	return s.Description == "" && len(s.Responsibilities) == 0 && len(s.Requirements) == 0
}

var (
	bulletPattern   = regexp.MustCompile(`^\s*(?:[•\-\*·▪◦–]|\d+[.)])\s+`)
	headingPattern  = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	boldLinePattern = regexp.MustCompile(`^\s*(?:\*\*|__)(.+?)(?:\*\*|__)\s*:?\s*$`)
	linkPattern     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	emphasisPattern = regexp.MustCompile(`\*\*|__`)
)

// ExtractSections walks markdown line by line. A heading-like line switches the current
// section; bullet items and plain lines are collected into it. Text before the first
// recognized heading, and text under benefits or company headings, becomes the description.
// When no responsibility or requirement section is found the description is the first
// MaxFallbackDescription characters of the cleaned text.
func ExtractSections(markdown string) Sections {
	var (
		out         Sections
		current     = SectionNone
		description []string
		cleaned     []string
		found       bool
	)

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isRule(line) {
			continue
		}

		if heading, ok := headingText(line); ok {
			if kind := ClassifyHeading(heading); kind != SectionNone {
				cleaned = append(cleaned, heading)
				current = kind
				found = found || kind != SectionOther
				continue
			}
			// Unrecognized headings stay in the current section as text.
			line = heading
		}

		item := cleanLine(line)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)

		switch current {
		case SectionResponsibilities:
			out.Responsibilities = append(out.Responsibilities, item)
		case SectionRequirements:
			out.Requirements = append(out.Requirements, item)
		default:
			description = append(description, item)
		}
	}

	if !found {
		out.Description = Truncate(strings.Join(cleaned, "\n"), MaxFallbackDescription)
		return out
	}
	out.Description = strings.Join(description, "\n")
	return out
}

// headingText returns the text of a line that could be a heading.
// Markdown headings and bold-only lines always qualify; short plain lines only when
// they classify as a section.
func headingText(line string) (string, bool) {
	if headingPattern.MatchString(line) {
		return cleanLine(headingPattern.ReplaceAllString(line, "")), true
	}
	if m := boldLinePattern.FindStringSubmatch(line); m != nil {
		return strings.TrimSuffix(strings.TrimSpace(m[1]), ":"), true
	}
	if bulletPattern.MatchString(line) {
		return "", false
	}
	text := cleanLine(line)
	if utf8.RuneCountInString(text) > 60 || len(strings.Fields(text)) > 6 {
		return "", false
	}
	trimmed := strings.TrimSuffix(text, ":")
	if ClassifyHeading(trimmed) == SectionNone {
		return "", false
	}
	if strings.HasSuffix(text, ":") || onlyHeadingWords(trimmed) {
		return trimmed, true
	}
	return "", false
}

// headingFillers may appear in a plain-text heading next to section keywords.
var headingFillers = map[string]bool{
	"e": true, "and": true, "&": true, "/": true, "de": true, "do": true, "da": true, "the": true,
	"principais": true, "desejaveis": true, "obrigatorios": true, "tecnicas": true, "tecnicos": true,
	"minimos": true, "main": true, "key": true, "required": true, "preferred": true, "basic": true,
	"your": true, "our": true, "suas": true, "seus": true,
}

// onlyHeadingWords reports whether every word of text is a section keyword or a filler,
// so "Responsabilidades e atribuições" qualifies and "Experiência com Go" does not.
func onlyHeadingWords(text string) bool {
	for _, word := range strings.Fields(Fold(text)) {
		word = strings.Trim(word, ",.;")
		if headingFillers[word] {
			continue
		}
		if !isKeywordWord(word) {
			return false
		}
	}
	return true
}

func isKeywordWord(word string) bool {
	for _, list := range [][]string{responsibilityKeywords, requirementKeywords, otherKeywords} {
		for _, kw := range list {
			for _, w := range strings.Fields(kw) {
				if w == word {
					return true
				}
			}
		}
	}
	return false
}

func isRule(line string) bool {
	stripped := strings.Trim(line, "-*_ ")
	return stripped == "" && len(line) >= 3
}

// cleanLine strips bullets, emphasis markers and link targets.
func cleanLine(line string) string {
	line = bulletPattern.ReplaceAllString(line, "")
	line = linkPattern.ReplaceAllString(line, "$1")
	line = emphasisPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// Truncate cuts s to at most n runes without splitting a character.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
