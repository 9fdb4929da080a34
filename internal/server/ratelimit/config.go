package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig sets the limit for one route.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends with "/"
	Method string        // HTTP method
	Limit  int           // requests per window; 0 means unlimited
	Window time.Duration // refill window
	Burst  int           // bucket capacity; defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket survives cleanup.
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the limits used when no configuration is given.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: ExtractionEndpoints(60, 10),
	}
}

// ExtractionEndpoints limits single and batch extraction per minute. Batch
// requests fan out to several scrapes, so they get the smaller budget.
func ExtractionEndpoints(extractPerMinute, batchPerMinute int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/extract", Method: http.MethodPost, Limit: extractPerMinute, Window: time.Minute, Burst: max(extractPerMinute/6, 1)},
		{Path: "/extract/batch", Method: http.MethodPost, Limit: batchPerMinute, Window: time.Minute, Burst: max(batchPerMinute/5, 1)},
	}
}

// IPSet turns a list of client addresses into a lookup set, skipping blanks.
func IPSet(ips []string) map[string]bool {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
