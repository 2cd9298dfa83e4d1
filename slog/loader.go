package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/prodex"
)

var _ prodex.PageLoader = (*LoggingPageLoader)(nil)

// LoggingPageLoader wraps a PageLoader with logging.
type LoggingPageLoader struct {
	next   prodex.PageLoader
	logger *slog.Logger
}

// NewLoggingPageLoader creates a new LoggingPageLoader.
func NewLoggingPageLoader(next prodex.PageLoader, logger *slog.Logger) *LoggingPageLoader {
	return &LoggingPageLoader{next: next, logger: logger}
}

// Load logs the URL being loaded and delegates to the wrapped loader.
func (l *LoggingPageLoader) Load(ctx context.Context, url string, opts prodex.LoadOptions) (data *prodex.PageData, err error) {
	defer func(begin time.Time) {
		var bytes, status, responses, images int
		if data != nil {
			bytes = len(data.HTML)
			status = data.StatusCode
			responses = len(data.JSONResponses)
			images = len(data.ImageURLs)
		}
		l.logger.Info("load",
			"url", url,
			"status", status,
			"bytes", bytes,
			"json", responses,
			"images", images,
			"dwell", opts.Dwell,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Load(ctx, url, opts)
}

var _ prodex.SessionPool = (*LoggingSessionPool)(nil)

// LoggingSessionPool wraps a SessionPool, logging how long acquisition
// waited and wrapping each session in a LoggingPageLoader.
type LoggingSessionPool struct {
	next   prodex.SessionPool
	logger *slog.Logger
}

// NewLoggingSessionPool creates a new LoggingSessionPool.
func NewLoggingSessionPool(next prodex.SessionPool, logger *slog.Logger) *LoggingSessionPool {
	return &LoggingSessionPool{next: next, logger: logger}
}

func (p *LoggingSessionPool) Acquire(ctx context.Context) (prodex.PageLoader, error) {
	begin := time.Now()
	session, err := p.next.Acquire(ctx)
	p.logger.Debug("acquire session",
		"wait", time.Since(begin),
		"err", err,
	)
	if err != nil {
		return nil, err
	}
	return &pooledSession{LoggingPageLoader: NewLoggingPageLoader(session, p.logger), inner: session}, nil
}

// Release hands the unwrapped session back to the wrapped pool.
func (p *LoggingSessionPool) Release(session prodex.PageLoader) {
	if s, ok := session.(*pooledSession); ok {
		session = s.inner
	}
	p.next.Release(session)
}

type pooledSession struct {
	*LoggingPageLoader
	inner prodex.PageLoader
}
