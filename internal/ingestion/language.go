package ingestion

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// minLanguageSample is the shortest text worth classifying.
const minLanguageSample = 40

type languageDetector struct {
	detector lingua.LanguageDetector
}

func newLanguageDetector() *languageDetector {
	return &languageDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Portuguese, lingua.English, lingua.Spanish).
			Build(),
	}
}

// Detect returns the ISO 639-1 code of text, or "" when it is too short or ambiguous.
func (d *languageDetector) Detect(text string) string {
	if d == nil || utf8.RuneCountInString(strings.TrimSpace(text)) < minLanguageSample {
		return ""
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
