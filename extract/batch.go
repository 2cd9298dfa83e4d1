package extract

import (
	"context"
	"sync"

	"github.com/fwojciec/prodex"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a batch is given no positive limit.
const DefaultConcurrency = 4

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressEvent reports progress during a batch.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     string
}

// ProgressFunc is a callback for reporting batch progress. Calls are
// serialized.
type ProgressFunc func(event ProgressEvent)

// Batch extracts many URLs under a concurrency limit.
type Batch struct {
	Extractor prodex.ProductExtractor
	Progress  ProgressFunc
}

// ExtractBatch extracts every URL with cfg. The result at index i always
// belongs to urls[i], whatever order the extractions finish in.
func (b *Batch) ExtractBatch(ctx context.Context, cfg *prodex.MultiStrategyConfig, urls []string, concurrency int) []*prodex.ExtractionResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]*prodex.ExtractionResult, len(urls))

	var mu sync.Mutex
	completed := 0
	report := func(event ProgressEvent) {
		if b.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if event.Type == ProgressCompleted || event.Type == ProgressFailed {
			completed++
		}
		event.Completed = completed
		event.Total = len(urls)
		b.Progress(event)
	}

	report(ProgressEvent{Type: ProgressStarted})

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, u := range urls {
		g.Go(func() error {
			var r *prodex.ExtractionResult
			if err := ctx.Err(); err != nil {
				r = prodex.Failed("", u, "canceled: %v", err)
			} else {
				r = b.Extractor.ExtractURL(ctx, cfg, u)
			}
			if r == nil {
				r = prodex.Failed("", u, "extractor returned no result")
			}
			r.URL = u
			results[i] = r

			if r.Success {
				report(ProgressEvent{Type: ProgressCompleted, URL: u})
			} else {
				report(ProgressEvent{Type: ProgressFailed, URL: u, Error: r.Error})
			}
			return nil
		})
	}
	_ = g.Wait()

	report(ProgressEvent{Type: ProgressFinished})
	return results
}
