package fetch

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per host so the fallback path never floods a job board.
type HostLimiter struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	hosts map[string]*rate.Limiter
}

// NewHostLimiter allows perSecond requests per host with the given burst.
// A non-positive rate returns nil, which disables throttling.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until host may be requested or ctx is done. A nil limiter never blocks.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil {
		return nil
	}
	return l.limiterFor(host).Wait(ctx)
}

func (l *HostLimiter) limiterFor(host string) *rate.Limiter {
	key := strings.ToLower(host)

	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.hosts[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.hosts[key] = lim
	}
	return lim
}
