package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/job/1",
		"http://example.com",
		"  https://example.com/job  ",
		"HTTPS://Example.com/Job",
	}
	for _, raw := range valid {
		t.Run("valid "+raw, func(t *testing.T) {
			_, err := ValidateURL(raw)
			assert.NoError(t, err)
		})
	}

	invalid := []string{
		"",
		"   ",
		"not-a-url",
		"ftp://example.com/file",
		"https://",
		"/relative/path",
		"mailto:jobs@example.com",
	}
	for _, raw := range invalid {
		t.Run("invalid "+raw, func(t *testing.T) {
			_, err := ValidateURL(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  HTTPS://Example.COM/Jobs/Dev?id=1  ", "https://example.com/Jobs/Dev?id=1"},
		{"https://example.com:443/job", "https://example.com/job"},
		{"http://example.com:80/job", "http://example.com/job"},
		{"http://example.com:8080/job", "http://example.com:8080/job"},
		{"https://example.com/job#apply", "https://example.com/job"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	_, err := NormalizeURL("not-a-url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestHost(t *testing.T) {
	assert.Equal(t, "example.com", Host("https://Example.com:8443/x"))
	assert.Equal(t, "", Host("::bad::"))
}

func TestHostLimiter_NilNeverBlocks(t *testing.T) {
	var l *HostLimiter
	assert.NoError(t, l.Wait(context.Background(), "example.com"))
	assert.Nil(t, NewHostLimiter(0, 1))
}

func TestHostLimiter_ThrottlesPerHost(t *testing.T) {
	l := NewHostLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "a.test"))
	// Second request to the same host must wait ~1s and so hits the deadline.
	assert.Error(t, l.Wait(ctx, "a.test"))
	// A different host has its own bucket.
	assert.NoError(t, l.Wait(context.Background(), "b.test"))
}
