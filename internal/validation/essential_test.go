package validation

import (
	"testing"

	"github.com/jonathan/job-extractor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestHasEssentialInfo(t *testing.T) {
	tests := []struct {
		name string
		ex   *types.JobPostingExtraction
		want bool
	}{
		{
			name: "nil extraction",
			ex:   nil,
			want: false,
		},
		{
			name: "empty title with responsibilities",
			ex:   &types.JobPostingExtraction{Title: "", Responsibilities: []string{"Code"}},
			want: false,
		},
		{
			name: "blank title with requirements",
			ex:   &types.JobPostingExtraction{Title: "   \t", Requirements: []string{"Go"}},
			want: false,
		},
		{
			name: "title without lists",
			ex:   &types.JobPostingExtraction{Title: "X", Responsibilities: []string{}, Requirements: []string{}},
			want: false,
		},
		{
			name: "title with one responsibility",
			ex:   &types.JobPostingExtraction{Title: "X", Responsibilities: []string{"a"}, Requirements: []string{}},
			want: true,
		},
		{
			name: "title with one requirement",
			ex:   &types.JobPostingExtraction{Title: "X", Requirements: []string{"a"}},
			want: true,
		},
		{
			name: "title with both",
			ex:   &types.JobPostingExtraction{Title: "Dev", Responsibilities: []string{"a"}, Requirements: []string{"b"}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasEssentialInfo(tt.ex))
			// Deterministic on repeated calls
			assert.Equal(t, tt.want, HasEssentialInfo(tt.ex))
		})
	}
}

func TestHasEssentialInfo_DoesNotMutate(t *testing.T) {
	ex := &types.JobPostingExtraction{Title: "Dev", Responsibilities: []string{"a"}}
	HasEssentialInfo(ex)
	assert.False(t, ex.HasEssentialInfo)
}

func TestMissing(t *testing.T) {
	assert.Equal(t,
		[]string{FieldTitle, FieldResponsibilities, FieldRequirements},
		Missing(&types.JobPostingExtraction{}))
	assert.Equal(t,
		[]string{FieldTitle},
		Missing(&types.JobPostingExtraction{Requirements: []string{"Go"}}))
	assert.Empty(t, Missing(&types.JobPostingExtraction{Title: "Dev", Requirements: []string{"Go"}}))
	assert.Len(t, Missing(nil), 3)
}

func TestApply(t *testing.T) {
	ex := Apply(&types.JobPostingExtraction{Title: "Dev", Requirements: []string{"Go"}})
	assert.True(t, ex.HasEssentialInfo)

	ex = Apply(&types.JobPostingExtraction{Title: "Dev"})
	assert.False(t, ex.HasEssentialInfo)

	assert.Nil(t, Apply(nil))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(&types.JobPostingExtraction{Title: "Dev", Requirements: []string{"Go"}}))

	err := Check(&types.JobPostingExtraction{URL: "https://x.test/job", Title: "Dev"})
	var incomplete *IncompleteError
	if assert.ErrorAs(t, err, &incomplete) {
		assert.Equal(t, []string{FieldResponsibilities, FieldRequirements}, incomplete.Missing)
		assert.Equal(t, "incomplete extraction for https://x.test/job: missing responsibilities, requirements", err.Error())
	}

	err = Check(nil)
	assert.EqualError(t, err, "incomplete extraction: missing title, responsibilities, requirements")
}
