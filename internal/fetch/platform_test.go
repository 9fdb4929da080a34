package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://empresa.gupy.io/jobs/123", PlatformGupy},
		{"https://www.linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://br.indeed.com/viewjob?jk=abc", PlatformIndeed},
		{"https://www.catho.com.br/vagas/dev/1", PlatformCatho},
		{"https://company.wd5.myworkdayjobs.com/en-US/External", PlatformWorkday},
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", PlatformGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/company/job-id", PlatformLever},
		{"https://www.infojobs.com.br/vaga-de-dev", Platform("infojobs")},
		{"https://www.vagas.com.br/vagas/v1", Platform("vagas")},
		{"https://99jobs.com/empresa/jobs/1", Platform("99jobs")},
		{"https://example.com/jobs", PlatformGeneric},
		{"https://notgupy.io.example.com/jobs", PlatformGeneric},
		{"not a url", PlatformGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformContentSelectors_PlatformFirst(t *testing.T) {
	selectors := PlatformContentSelectors(PlatformGreenhouse)
	require.NotEmpty(t, selectors)
	assert.Equal(t, ".job__description.body", selectors[0])
	assert.Contains(t, selectors, ".job-description")
}

func TestPlatformContentSelectors_Generic(t *testing.T) {
	assert.Equal(t, JobPostingSelectors(), PlatformContentSelectors(PlatformGeneric))
}

func TestPlatformNoiseSelectors(t *testing.T) {
	common := PlatformNoiseSelectors(PlatformGeneric)
	assert.Contains(t, common, "form")
	assert.Contains(t, common, ".eeo-statement")

	lever := PlatformNoiseSelectors(PlatformLever)
	assert.Contains(t, lever, "form")
	assert.Contains(t, lever, ".posting-apply")
}

func TestProfile_Actions(t *testing.T) {
	gupy := Profile(PlatformGupy)
	require.NotEmpty(t, gupy.Actions)
	assert.Equal(t, "wait", gupy.Actions[0]["type"])
	assert.NotEmpty(t, gupy.ExtractPrompt)

	assert.Empty(t, Profile(PlatformGeneric).Actions)
}

func TestRequiresJavaScript(t *testing.T) {
	assert.True(t, RequiresJavaScript("https://empresa.gupy.io/jobs/1"))
	assert.True(t, RequiresJavaScript("https://www.glassdoor.com/job/1"))
	assert.True(t, RequiresJavaScript("https://jobs.smartrecruiters.com/x/1"))
	assert.False(t, RequiresJavaScript("https://example.com/careers/1"))
	assert.False(t, RequiresJavaScript("https://www.catho.com.br/vagas/1"))
	assert.True(t, RequiresJavaScript("::bad::"))
}

func TestParseCatalog_RejectsIncompleteEntries(t *testing.T) {
	_, err := parseCatalog([]byte("platforms:\n  - name: x\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte("platforms: ["))
	assert.Error(t, err)
}

func TestPlatforms_ReturnsCopy(t *testing.T) {
	all := Platforms()
	require.NotEmpty(t, all)
	all[0].Name = "mutated"
	assert.NotEqual(t, Platform("mutated"), Platforms()[0].Name)
}
