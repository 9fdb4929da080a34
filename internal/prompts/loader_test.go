package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ExtractionPrompts(t *testing.T) {
	ClearCache()

	prompt, err := Get(ExtractionFile, "structure-job-posting")
	require.NoError(t, err)
	assert.Contains(t, prompt, "VERBATIM")

	prompt, err = Get(ExtractionFile, "primary-extract")
	require.NoError(t, err)
	assert.Contains(t, prompt, "job title")
}

func TestGet_Errors(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")

	_, err = Get(ExtractionFile, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() { MustGet("nonexistent.json", "x") })
	assert.NotPanics(t, func() { assert.NotEmpty(t, MustGet(ExtractionFile, "primary-extract")) })
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{"substitutes", "A {{.Platform}} page. {{.Hint}}", map[string]string{"Platform": "gupy", "Hint": "Wait."}, "A gupy page. Wait."},
		{"no placeholders", "plain", map[string]string{"Key": "Value"}, "plain"},
		{"missing data keeps placeholder", "Hello {{.Name}}", map[string]string{}, "Hello {{.Name}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestList_Sorted(t *testing.T) {
	ClearCache()

	keys, err := List(ExtractionFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary-extract", "primary-extract-platform", "structure-job-posting"}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	first, err := Get(ExtractionFile, "primary-extract")
	require.NoError(t, err)
	second, err := Get(ExtractionFile, "primary-extract")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
