package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables a developer machine might export; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range secretEnv {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.firecrawl.dev", cfg.Firecrawl.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Firecrawl.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Fallback.Timeout)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 100, cfg.Cache.MaxEntries)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrency)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.LLM.Enabled)
	assert.False(t, cfg.Auth.Enabled())
	assert.Empty(t, cfg.Firecrawl.APIKey)
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOB_EXTRACTOR_FIRECRAWL_TIMEOUT", "45s")
	t.Setenv("JOB_EXTRACTOR_BATCH_DEFAULT_CONCURRENCY", "4")
	t.Setenv("JOB_EXTRACTOR_SERVER_ADDR", ":9090")
	t.Setenv("JOB_EXTRACTOR_LOGGING_DEVELOPMENT", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Firecrawl.Timeout)
	assert.Equal(t, 4, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Logging.Development)
}

func TestLoad_ConventionalSecretNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIRECRAWL_API_KEY", "fc-test")
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("JWT_SECRET", "shh")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fc-test", cfg.Firecrawl.APIKey)
	assert.Equal(t, "postgres://localhost/jobs", cfg.DB.URL)
	assert.True(t, cfg.Auth.Enabled())
}

func TestLoad_PrefixedSecretWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOB_EXTRACTOR_FIRECRAWL_API_KEY", "prefixed")
	t.Setenv("FIRECRAWL_API_KEY", "plain")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Firecrawl.APIKey)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "config.yaml", `
cache:
  backend: redis
  redis_url: redis://localhost:6379/0
  ttl: 2m
batch:
  default_concurrency: 2
  max_concurrency: 4
ratelimit:
  whitelist: ["10.0.0.1"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrency)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.RateLimit.Whitelist)
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "config.json", `{"fallback": {"host_rate": 0.5, "disabled": false}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Fallback.HostRate, 1e-9)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "config.yaml", "server:\n  addr: \":7000\"\n")
	t.Setenv("JOB_EXTRACTOR_SERVER_ADDR", ":7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	path := writeConfig(t, "broken.yaml", "cache: [unterminated")
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown cache backend",
			env:     map[string]string{"JOB_EXTRACTOR_CACHE_BACKEND": "memcached"},
			wantErr: "Backend",
		},
		{
			name:    "redis without url",
			env:     map[string]string{"JOB_EXTRACTOR_CACHE_BACKEND": "redis"},
			wantErr: "cache.redis_url",
		},
		{
			name: "default concurrency above max",
			env: map[string]string{
				"JOB_EXTRACTOR_BATCH_DEFAULT_CONCURRENCY": "6",
				"JOB_EXTRACTOR_BATCH_MAX_CONCURRENCY":     "5",
			},
			wantErr: "exceeds batch.max_concurrency",
		},
		{
			name:    "zero concurrency",
			env:     map[string]string{"JOB_EXTRACTOR_BATCH_MAX_CONCURRENCY": "0"},
			wantErr: "MaxConcurrency",
		},
		{
			name:    "llm without key",
			env:     map[string]string{"JOB_EXTRACTOR_LLM_ENABLED": "true"},
			wantErr: "llm.api_key",
		},
		{
			name:    "no extraction path",
			env:     map[string]string{"JOB_EXTRACTOR_FALLBACK_DISABLED": "true"},
			wantErr: "no extraction path",
		},
		{
			name:    "bad base url",
			env:     map[string]string{"JOB_EXTRACTOR_FIRECRAWL_BASE_URL": "not a url"},
			wantErr: "BaseURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_LLMEnabledWithKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("JOB_EXTRACTOR_LLM_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
}
