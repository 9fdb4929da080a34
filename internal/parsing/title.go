package parsing

import (
	"strings"
	"unicode/utf8"
)

const (
	titleScanLines = 10
	minTitleLength = 10
	maxTitleLength = 200
)

// TitleFromText guesses a job title from the first lines of plain or markdown text.
// It returns the first of the top lines that is between 10 and 200 characters long and
// does not end like a sentence.
func TitleFromText(text string) string {
	scanned := 0
	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(headingPattern.ReplaceAllString(strings.TrimSpace(raw), ""))
		if line == "" {
			continue
		}
		scanned++
		if scanned > titleScanLines {
			break
		}
		n := utf8.RuneCountInString(line)
		if n < minTitleLength || n > maxTitleLength {
			continue
		}
		if strings.ContainsAny(line[len(line)-1:], ".!?:;,") {
			continue
		}
		return line
	}
	return ""
}

// CleanTitle collapses whitespace and drops a trailing " | Site" style suffix.
func CleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	for _, sep := range []string{" | ", " – ", " — "} {
		if i := strings.LastIndex(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}
