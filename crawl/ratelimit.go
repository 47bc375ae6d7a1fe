package crawl

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/harvest"
	"golang.org/x/time/rate"
)

var _ harvest.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter paces image downloads per host. Every host gets its own
// token bucket with a burst of 1, so CDN hosts do not slow down the dealer
// host and vice versa. Hosts registered with WithHostInterval (the dealer
// site, typically) are spaced like page requests instead of using the
// default rate.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	hosts    map[string]time.Duration
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithHostInterval spaces requests to host at least d apart, overriding
// the default rate for that host. d <= 0 leaves the host unpaced.
func WithHostInterval(host string, d time.Duration) LimiterOption {
	return func(l *DomainLimiter) {
		l.hosts[strings.ToLower(host)] = max(d, 0)
	}
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// per host. rps <= 0 disables pacing for hosts without an override.
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	l := &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      max(rps, 0),
		hosts:    make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the minimum spacing between requests to host.
// Zero means the host is not paced.
func (d *DomainLimiter) Interval(host string) time.Duration {
	if interval, ok := d.hosts[strings.ToLower(host)]; ok {
		return interval
	}
	if d.rps == 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / d.rps)
}

func (d *DomainLimiter) limitFor(host string) rate.Limit {
	if interval, ok := d.hosts[host]; ok {
		if interval == 0 {
			return rate.Inf
		}
		return rate.Every(interval)
	}
	if d.rps == 0 {
		return rate.Inf
	}
	return rate.Limit(d.rps)
}

// Wait blocks until the bucket for host admits a request. Host names are
// compared case-insensitively. Returns an error if ctx ends first.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	host = strings.ToLower(host)

	d.mu.Lock()
	limiter, ok := d.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(d.limitFor(host), 1)
		d.limiters[host] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
