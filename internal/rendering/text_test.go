package rendering

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-extractor/internal/types"
)

func TestRenderExtraction_Full(t *testing.T) {
	ex := &types.JobPostingExtraction{
		Title:            "Desenvolvedor Full Stack",
		Responsibilities: []string{"Desenvolver aplicações web", "Participar do planejamento"},
		Requirements:     []string{"JavaScript, React, Node.js"},
		Description:      "Buscamos um desenvolvedor full stack.",
	}

	want := "TÍTULO: Desenvolvedor Full Stack\n\n" +
		"RESPONSABILIDADES:\n• Desenvolver aplicações web\n• Participar do planejamento\n\n" +
		"REQUISITOS:\n• JavaScript, React, Node.js\n\n" +
		"DESCRIÇÃO:\nBuscamos um desenvolvedor full stack."
	assert.Equal(t, want, RenderExtraction(ex))
}

func TestRenderExtraction_TitleAndResponsibilities(t *testing.T) {
	ex := &types.JobPostingExtraction{Title: "Dev", Responsibilities: []string{"Code", "Review"}}

	out := RenderExtraction(ex)
	lines := strings.Split(out, "\n")

	assert.Contains(t, lines, "TÍTULO: Dev")
	assert.Contains(t, lines, "RESPONSABILIDADES:")
	assert.Contains(t, lines, "• Code")
	assert.Contains(t, lines, "• Review")
	assert.NotContains(t, out, "REQUISITOS:")
	assert.NotContains(t, out, "DESCRIÇÃO:")
}

func TestRenderExtraction_OmitsEmptySections(t *testing.T) {
	tests := []struct {
		name string
		ex   *types.JobPostingExtraction
		want string
	}{
		{"requirements only", &types.JobPostingExtraction{Requirements: []string{"Go"}}, "REQUISITOS:\n• Go"},
		{"description only", &types.JobPostingExtraction{Description: "  Texto  "}, "DESCRIÇÃO:\nTexto"},
		{"blank items dropped", &types.JobPostingExtraction{Title: "X", Responsibilities: []string{" ", "a\n b"}}, "TÍTULO: X\n\nRESPONSABILIDADES:\n• a b"},
		{"nothing", &types.JobPostingExtraction{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderExtraction(tt.ex))
		})
	}
}

func TestRender_FailedEmitsNothing(t *testing.T) {
	failed := types.NewFailedExtraction("https://example.com", errors.New("boom"))
	failed.Title = "Should not appear"

	out, err := Render(failed)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, RenderExtraction(nil))
}

func TestRenderBatch(t *testing.T) {
	batch := []*types.JobPostingExtraction{
		{Title: "A", Requirements: []string{"Go"}},
		types.NewFailedExtraction("https://x.test/2", errors.New("down")),
		nil,
		{Title: "B"},
	}

	assert.Equal(t, "TÍTULO: A\n\nREQUISITOS:\n• Go\n---\nTÍTULO: B", RenderBatch(batch))
	assert.Empty(t, RenderBatch(nil))
}
