// Package parsing turns job-posting text into title, responsibilities, requirements and description.
package parsing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fuzzyThreshold is the minimum Levenshtein similarity for a fuzzy heading match.
const fuzzyThreshold = 0.7

// Section keyword lists, Portuguese and English. Stored unaccented; compare against Fold output.
var (
	responsibilityKeywords = []string{
		"responsabilidades", "atribuicoes", "atividades", "funcoes",
		"o que voce fara", "suas atividades", "sera responsavel", "desafios",
		"responsibilities", "duties", "activities", "tasks", "what you will do",
		"what you'll do", "day to day",
	}

	requirementKeywords = []string{
		"requisitos", "qualificacoes", "competencias", "experiencia",
		"voce precisa ter", "pre-requisitos", "formacao", "conhecimentos", "habilidades",
		"o que esperamos", "o que buscamos", "perfil",
		"requirements", "qualifications", "skills", "experience",
		"what we're looking for", "what we are looking for", "who you are", "you have",
	}

	otherKeywords = []string{
		"beneficios", "sobre a empresa", "sobre nos", "localizacao", "salario", "oferecemos",
		"benefits", "about us", "about the company", "location", "salary", "perks", "we offer",
		"diferenciais", "nice to have", "bonus points", "local de trabalho", "como se candidatar",
		"etapas do processo", "how to apply", "hiring process", "work location",
	}

	// sectionTitles are headings that usually introduce job content in the fallback parser.
	sectionTitles = []string{
		"atribuicoes", "responsabilidades", "atividades", "requisitos", "qualificacoes",
		"perfil", "o que esperamos", "o que buscamos", "descricao da vaga", "descricao",
		"principais atividades", "escopo", "funcao", "cargo", "posicao", "oportunidade",
		"missao", "desafios", "competencias", "habilidades", "conhecimentos",
		"experiencia", "formacao", "sobre a vaga", "sobre o cargo", "job description",
		"responsibility", "requirement", "qualification", "activities", "profile",
		"what we expect", "what we are looking for", "description",
		"main activities", "scope", "role", "position", "opportunity", "mission",
		"challenges", "skills", "knowledge", "experience", "education",
		"about the role", "about the position",
	}

	// jobKeywords signal that a block of text is a job posting at all.
	jobKeywords = []string{
		"vaga", "emprego", "cargo", "requisitos", "responsabilidades", "experiencia",
		"job", "position", "role", "requirements", "responsibilities", "experience",
	}
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases s, strips diacritics and collapses whitespace so "Atribuições" matches "atribuicoes".
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// SectionKind classifies a heading.
type SectionKind int

const (
	// SectionNone is not a recognized heading
	SectionNone SectionKind = iota
	// SectionResponsibilities introduces duties
	SectionResponsibilities
	// SectionRequirements introduces qualifications
	SectionRequirements
	// SectionOther introduces benefits, company info and similar
	SectionOther
)

// ClassifyHeading returns the section a heading introduces.
func ClassifyHeading(heading string) SectionKind {
	folded := Fold(heading)
	switch {
	case folded == "":
		return SectionNone
	case containsAny(folded, otherKeywords) && !containsAny(folded, responsibilityKeywords):
		return SectionOther
	case containsAny(folded, responsibilityKeywords):
		return SectionResponsibilities
	case containsAny(folded, requirementKeywords):
		return SectionRequirements
	default:
		return SectionNone
	}
}

// IsSectionTitle reports whether text looks like a job-content heading.
// It accepts substring matches both ways and near-misses by edit distance.
func IsSectionTitle(text string) bool {
	folded := Fold(text)
	if folded == "" || len(folded) > 80 {
		return false
	}
	for _, title := range sectionTitles {
		if strings.Contains(folded, title) {
			return true
		}
		if len(folded) >= 4 && strings.Contains(title, folded) {
			return true
		}
		if Similarity(folded, title) > fuzzyThreshold {
			return true
		}
	}
	return false
}

// CountJobKeywords counts distinct job keywords present in text.
func CountJobKeywords(text string) int {
	folded := Fold(text)
	n := 0
	for _, kw := range jobKeywords {
		if strings.Contains(folded, kw) {
			n++
		}
	}
	return n
}

// Similarity is 1 - distance/len(longer) over runes; 1.0 for two empty strings.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1.0
	}
	return float64(longer-levenshtein(ra, rb)) / float64(longer)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
