// Package rod loads product pages in headless Chrome, capturing the
// rendered markup together with the JSON the page fetched while loading.
package rod

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/prodex"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultLoadTimeout bounds a page load when LoadOptions.Timeout is zero.
const DefaultLoadTimeout = 30 * time.Second

// maxJSONResponses caps how many network JSON bodies one load keeps.
const maxJSONResponses = 50

var _ prodex.PageLoader = (*Loader)(nil)

// imagesJS lists the rendered page's image sources.
const imagesJS = `() => Array.from(document.images)
	.map(img => img.currentSrc || img.src || img.getAttribute('data-src') || '')
	.filter(src => src && !src.startsWith('data:'))`

// Loader opens a fresh tab per load. Use Pool to reuse tabs.
type Loader struct {
	manager *BrowserManager
	timeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout sets the default load timeout.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// NewLoader returns a Loader backed by manager.
func NewLoader(manager *BrowserManager, opts ...LoaderOption) *Loader {
	l := &Loader{manager: manager, timeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load renders url in a new tab and closes the tab afterwards.
func (l *Loader) Load(ctx context.Context, url string, opts prodex.LoadOptions) (*prodex.PageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, _ := l.manager.Browser()
	page, err := openTab(browser)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = page.Close()
		l.manager.PageDone()
	}()
	return capture(ctx, page, url, opts, l.timeout)
}

// openTab creates a tab with the automation fingerprint masked. A tab
// whose stealth script fails to install is still usable.
func openTab(browser *rod.Browser) (*rod.Page, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, prodex.Errorf(prodex.EUNAVAILABLE, "opening tab: %s", err)
	}
	_, _ = page.EvalOnNewDocument(stealth.JS)
	return page, nil
}

// responseLog collects what the Network domain reports during a load.
type responseLog struct {
	mu       sync.Mutex
	status   int
	document bool
	json     []jsonResponse
}

type jsonResponse struct {
	id  proto.NetworkRequestID
	url string
}

func (r *responseLog) observe(e *proto.NetworkResponseReceived) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Type {
	case proto.NetworkResourceTypeDocument:
		// Frames load documents too; the main document arrives first.
		if !r.document {
			r.status = e.Response.Status
			r.document = true
		}
	case proto.NetworkResourceTypeXHR, proto.NetworkResourceTypeFetch:
		if isJSON(e.Response.MIMEType) && len(r.json) < maxJSONResponses {
			r.json = append(r.json, jsonResponse{id: e.RequestID, url: e.Response.URL})
		}
	}
}

func (r *responseLog) snapshot() (int, []jsonResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, append([]jsonResponse(nil), r.json...)
}

func isJSON(mime string) bool {
	mime = strings.ToLower(mime)
	return strings.Contains(mime, "json")
}

// capture navigates page to url and reads back the rendered state. A load
// event that never fires still yields whatever markup rendered, with
// Loaded false.
func capture(ctx context.Context, page *rod.Page, url string, opts prodex.LoadOptions, timeout time.Duration) (*prodex.PageData, error) {
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(ctx)

	if err := (proto.NetworkEnable{}).Call(p); err != nil {
		return nil, loadError(ctx, "enabling network events", err)
	}

	rec := &responseLog{}
	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) {
		rec.observe(e)
	})
	go wait()

	if err := p.Navigate(url); err != nil {
		return nil, loadError(ctx, "navigating", err)
	}

	loaded := p.WaitLoad() == nil
	if loaded && opts.Dwell > 0 {
		select {
		case <-ctx.Done():
			loaded = false
		case <-time.After(opts.Dwell):
		}
	}

	// Reads after a timeout must not inherit the expired context.
	read := page.Context(context.WithoutCancel(ctx)).Timeout(5 * time.Second)

	html, err := read.HTML()
	if err != nil {
		return nil, loadError(ctx, "reading markup", err)
	}

	status, responses := rec.snapshot()
	data := &prodex.PageData{
		URL:           url,
		HTML:          html,
		JSONResponses: make(map[string]string, len(responses)),
		ImageURLs:     renderedImages(read),
		StatusCode:    status,
		Loaded:        loaded,
	}
	for _, r := range responses {
		body, err := proto.NetworkGetResponseBody{RequestID: r.id}.Call(read)
		if err != nil || body.Base64Encoded || strings.TrimSpace(body.Body) == "" {
			continue
		}
		data.JSONResponses[r.url] = body.Body
	}
	return data, nil
}

func renderedImages(p *rod.Page) []string {
	res, err := p.Eval(imagesJS)
	if err != nil {
		return []string{}
	}
	seen := make(map[string]bool)
	images := []string{}
	for _, v := range res.Value.Arr() {
		src := v.Str()
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		images = append(images, src)
	}
	return images
}

func loadError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return prodex.Errorf(prodex.EUNAVAILABLE, "%s: load timed out", op)
	}
	return prodex.Errorf(prodex.EUNAVAILABLE, "%s: %s", op, err)
}
