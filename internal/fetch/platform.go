// Package fetch - platform.go provides platform detection and platform-specific selectors.
package fetch

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Platform represents a known job board platform.
type Platform string

// Catalog names referenced from code. The full list lives in platforms.yaml.
const (
	PlatformGupy       Platform = "gupy"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformIndeed     Platform = "indeed"
	PlatformCatho      Platform = "catho"
	PlatformWorkday    Platform = "workday"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	// PlatformGeneric is any site not in the catalog
	PlatformGeneric Platform = "generic"
)

// PlatformProfile describes how to handle one job board.
type PlatformProfile struct {
	Name             Platform         `yaml:"name"`
	Domains          []string         `yaml:"domains"`
	RequiresJS       bool             `yaml:"requires_js"`
	ContentSelectors []string         `yaml:"content_selectors"`
	NoiseSelectors   []string         `yaml:"noise_selectors"`
	Actions          []map[string]any `yaml:"actions"`
	ExtractPrompt    string           `yaml:"extract_prompt"`
}

type catalog struct {
	Common struct {
		NoiseSelectors []string `yaml:"noise_selectors"`
	} `yaml:"common"`
	Platforms []PlatformProfile `yaml:"platforms"`
}

//go:embed platforms.yaml
var platformsYAML []byte

var (
	catalogOnce sync.Once
	loaded      *catalog
)

func platformCatalog() *catalog {
	catalogOnce.Do(func() {
		c, err := parseCatalog(platformsYAML)
		if err != nil {
			panic(fmt.Sprintf("failed to load platform catalog: %v", err))
		}
		loaded = c
	})
	return loaded
}

func parseCatalog(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse platform catalog: %w", err)
	}
	for i, p := range c.Platforms {
		if p.Name == "" || len(p.Domains) == 0 {
			return nil, fmt.Errorf("platform entry %d is missing name or domains", i)
		}
	}
	return &c, nil
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	host := Host(urlStr)
	if host == "" {
		return PlatformGeneric
	}
	for _, p := range platformCatalog().Platforms {
		for _, domain := range p.Domains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return p.Name
			}
		}
	}
	return PlatformGeneric
}

// Profile returns the catalog entry for platform, or a generic profile.
func Profile(platform Platform) PlatformProfile {
	for _, p := range platformCatalog().Platforms {
		if p.Name == platform {
			return p
		}
	}
	return PlatformProfile{Name: PlatformGeneric}
}

// Platforms lists every catalog entry.
func Platforms() []PlatformProfile {
	return append([]PlatformProfile(nil), platformCatalog().Platforms...)
}

// PlatformContentSelectors returns the platform's selectors followed by the generic ones.
func PlatformContentSelectors(platform Platform) []string {
	selectors := append([]string(nil), Profile(platform).ContentSelectors...)
	return append(selectors, JobPostingSelectors()...)
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	noise := append([]string(nil), platformCatalog().Common.NoiseSelectors...)
	return append(noise, Profile(platform).NoiseSelectors...)
}

// RequiresJavaScript reports whether urlStr belongs to a board that renders client-side.
// Unparseable URLs are assumed to require it.
func RequiresJavaScript(urlStr string) bool {
	if _, err := ValidateURL(urlStr); err != nil {
		return true
	}
	return Profile(DetectPlatform(urlStr)).RequiresJS
}
