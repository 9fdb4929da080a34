package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"markdown heading", "# Engenheiro de Dados Sênior\n\nSobre a vaga", "Engenheiro de Dados Sênior"},
		{"skips short lines", "Menu\nLogin\nAnalista de Suporte N2\n", "Analista de Suporte N2"},
		{"skips sentences", "We are hiring a great person.\nProduct Designer (Remote)", "Product Designer (Remote)"},
		{"skips labels", "Requisitos:\n- Go", ""},
		{"only top ten lines", "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nBackend Developer", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromText(tt.text))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Desenvolvedor Go", CleanTitle("  Desenvolvedor   Go | Gupy "))
	assert.Equal(t, "Data Engineer", CleanTitle("Data Engineer – Acme"))
	assert.Equal(t, "Front-end Dev - React", CleanTitle("Front-end Dev - React"))
}
