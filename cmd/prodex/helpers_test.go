package main_test

import (
	"bytes"
	"context"

	"github.com/fwojciec/prodex"
	main "github.com/fwojciec/prodex/cmd/prodex"
)

// learner is a test double for main.Learner.
type learner struct {
	LearnFn     func(ctx context.Context, discoveryURL, verificationURL string) (*prodex.MultiStrategyConfig, error)
	LearnSiteFn func(ctx context.Context, siteURL string) (*prodex.MultiStrategyConfig, error)
}

func (l *learner) Learn(ctx context.Context, discoveryURL, verificationURL string) (*prodex.MultiStrategyConfig, error) {
	return l.LearnFn(ctx, discoveryURL, verificationURL)
}

func (l *learner) LearnSite(ctx context.Context, siteURL string) (*prodex.MultiStrategyConfig, error) {
	return l.LearnSiteFn(ctx, siteURL)
}

// resultWriter is a test double for main.ResultWriter.
type resultWriter struct {
	WriteResultFn func(ctx context.Context, r *prodex.ExtractionResult) (string, error)
}

func (w *resultWriter) WriteResult(ctx context.Context, r *prodex.ExtractionResult) (string, error) {
	return w.WriteResultFn(ctx, r)
}

func newDeps() (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
	}, stdout, stderr
}

func verifiedConfig(domain string) *prodex.MultiStrategyConfig {
	return &prodex.MultiStrategyConfig{
		Domain:   domain,
		Verified: true,
		Contributions: []prodex.StrategyContribution{
			{
				Strategy: prodex.StrategyStructuredMarkup,
				Fields:   prodex.NewFieldSet(prodex.FieldName, prodex.FieldPrice),
				Score:    85,
			},
			{
				Strategy: prodex.StrategyMetaTags,
				Fields:   prodex.NewFieldSet(prodex.FieldDescription),
				Score:    40,
			},
		},
		FieldSources: map[prodex.Field]prodex.StrategyTag{
			prodex.FieldName:        prodex.StrategyStructuredMarkup,
			prodex.FieldPrice:       prodex.StrategyStructuredMarkup,
			prodex.FieldDescription: prodex.StrategyMetaTags,
		},
	}
}
