package mock

import (
	"context"

	"github.com/fwojciec/prodex"
)

var _ prodex.PageLoader = (*PageLoader)(nil)

// PageLoader is a mock implementation of prodex.PageLoader.
type PageLoader struct {
	LoadFn func(ctx context.Context, url string, opts prodex.LoadOptions) (*prodex.PageData, error)
}

func (l *PageLoader) Load(ctx context.Context, url string, opts prodex.LoadOptions) (*prodex.PageData, error) {
	return l.LoadFn(ctx, url, opts)
}

var _ prodex.SessionPool = (*SessionPool)(nil)

// SessionPool is a mock implementation of prodex.SessionPool.
type SessionPool struct {
	AcquireFn func(ctx context.Context) (prodex.PageLoader, error)
	ReleaseFn func(session prodex.PageLoader)
}

func (p *SessionPool) Acquire(ctx context.Context) (prodex.PageLoader, error) {
	return p.AcquireFn(ctx)
}

func (p *SessionPool) Release(session prodex.PageLoader) {
	p.ReleaseFn(session)
}

var _ prodex.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of prodex.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
