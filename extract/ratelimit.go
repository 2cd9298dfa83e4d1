package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/prodex"
	"golang.org/x/time/rate"
)

var _ prodex.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter paces page loads with one token bucket per shop. Shops are
// keyed case-insensitively and "www." is ignored, so both spellings of a
// host share a bucket.
type DomainLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewDomainLimiter allows rps loads per second per shop with the given
// burst. A burst below 1 is raised to 1.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	return &DomainLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until domain may be loaded again or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.bucket(domain).Wait(ctx)
}

func (d *DomainLimiter) bucket(domain string) *rate.Limiter {
	key := strings.TrimPrefix(strings.ToLower(domain), "www.")

	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buckets[key]
	if !ok {
		b = rate.NewLimiter(d.limit, d.burst)
		d.buckets[key] = b
	}
	return b
}
