package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	prompts          []string
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier)
}

func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.GenerateJSONFunc(ctx, prompt, tier)
}

func (m *MockClient) Close() error { return nil }

func TestStructureJobPosting_Success(t *testing.T) {
	mock := &MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, tier ModelTier) (string, error) {
			assert.Equal(t, TierStandard, tier)
			return "```json\n" + `{"title": " Desenvolvedor Go ", "responsibilities": ["Criar APIs", " "],
				"requirements": ["Go", "SQL"], "description": "Time de plataforma"}` + "\n```", nil
		},
	}

	fields, err := StructureJobPosting(context.Background(), mock, "Desenvolvedor Go\nRequisitos: Go, SQL")
	require.NoError(t, err)
	assert.Equal(t, "Desenvolvedor Go", fields.Title)
	assert.Equal(t, []string{"Criar APIs"}, fields.Responsibilities)
	assert.Equal(t, []string{"Go", "SQL"}, fields.Requirements)
	assert.Equal(t, "Time de plataforma", fields.Description)

	require.Len(t, mock.prompts, 1)
	assert.Contains(t, mock.prompts[0], `"responsibilities"`)
	assert.Contains(t, mock.prompts[0], "Requisitos: Go, SQL")
}

func TestStructureJobPosting_APIError(t *testing.T) {
	mock := &MockClient{
		GenerateJSONFunc: func(context.Context, string, ModelTier) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	_, err := StructureJobPosting(context.Background(), mock, "text")
	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestStructureJobPosting_BadJSON(t *testing.T) {
	mock := &MockClient{
		GenerateJSONFunc: func(context.Context, string, ModelTier) (string, error) {
			return "I could not find a job posting.", nil
		},
	}

	_, err := StructureJobPosting(context.Background(), mock, "text")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "I could not find a job posting.", parseErr.Response)
}

func TestStructureJobPosting_InvalidInput(t *testing.T) {
	_, err := StructureJobPosting(context.Background(), nil, "text")
	assert.Error(t, err)

	_, err = StructureJobPosting(context.Background(), &MockClient{}, "   ")
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt(JobPostingSchema(), "INPUT")

	assert.Contains(t, prompt, "VERBATIM")
	assert.Contains(t, prompt, `"title": "string" (required)`)
	assert.Contains(t, prompt, `"requirements": ["string"] (required)`)
	assert.Contains(t, prompt, "\"\"\"\nINPUT\n\"\"\"")
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
