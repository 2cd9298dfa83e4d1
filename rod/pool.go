package rod

import (
	"context"
	"time"

	"github.com/fwojciec/prodex"
	"github.com/go-rod/rod"
)

var _ prodex.SessionPool = (*Pool)(nil)

// Pool keeps a fixed number of tabs open and lends them out as sessions.
// Tabs that belong to a recycled browser are replaced on their next use.
type Pool struct {
	manager *BrowserManager
	tabs    rod.Pool[session]
	timeout time.Duration
}

// NewPool returns a pool of up to size concurrent sessions.
func NewPool(manager *BrowserManager, size int, opts ...LoaderOption) *Pool {
	if size < 1 {
		size = 1
	}
	l := NewLoader(manager, opts...)
	return &Pool{
		manager: manager,
		tabs:    rod.NewPool[session](size),
		timeout: l.timeout,
	}
}

// session is one pooled tab.
type session struct {
	pool       *Pool
	page       *rod.Page
	generation int64
}

// Load renders url in the session's tab.
func (s *session) Load(ctx context.Context, url string, opts prodex.LoadOptions) (*prodex.PageData, error) {
	defer s.pool.manager.PageDone()
	return capture(ctx, s.page, url, opts, s.pool.timeout)
}

// Acquire blocks until a tab is free.
func (p *Pool) Acquire(ctx context.Context) (prodex.PageLoader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := p.tabs.Get(p.open)
	if err != nil {
		// Return the slot so a later Acquire can retry.
		p.tabs.Put(nil)
		return nil, err
	}
	if s.generation != p.manager.Generation() {
		_ = s.page.Close()
		fresh, err := p.open()
		if err != nil {
			p.tabs.Put(nil)
			return nil, err
		}
		s = fresh
	}
	return s, nil
}

// Release returns a session to the pool. Sessions from other pools are
// ignored.
func (p *Pool) Release(loader prodex.PageLoader) {
	s, ok := loader.(*session)
	if !ok || s.pool != p {
		return
	}
	// Park the tab on a blank page so it stops running the last site's
	// scripts.
	if err := s.page.Timeout(5 * time.Second).Navigate("about:blank"); err != nil {
		_ = s.page.Close()
		p.tabs.Put(nil)
		return
	}
	p.tabs.Put(s)
}

// Close closes every idle tab. Sessions still checked out are closed by
// the browser when the manager shuts down.
func (p *Pool) Close() error {
	p.tabs.Cleanup(func(s *session) {
		_ = s.page.Close()
	})
	return nil
}

func (p *Pool) open() (*session, error) {
	browser, generation := p.manager.Browser()
	page, err := openTab(browser)
	if err != nil {
		return nil, err
	}
	return &session{pool: p, page: page, generation: generation}, nil
}
