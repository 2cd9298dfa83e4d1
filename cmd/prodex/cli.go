package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/prodex"
)

// Learner learns and stores domain configs.
type Learner interface {
	Learn(ctx context.Context, discoveryURL, verificationURL string) (*prodex.MultiStrategyConfig, error)
	LearnSite(ctx context.Context, siteURL string) (*prodex.MultiStrategyConfig, error)
}

// ResultWriter persists one extraction result and returns where it went.
type ResultWriter interface {
	WriteResult(ctx context.Context, r *prodex.ExtractionResult) (string, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Configs   prodex.ConfigStore
	Samples   prodex.SampleSource
	Learner   Learner
	Extractor prodex.ProductExtractor
	Results   ResultWriter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool   `short:"v" help:"Log debug detail to stderr"`
	Oracle  string `enum:"gemini,anthropic" default:"gemini" help:"Oracle backend (gemini or anthropic)"`

	Learn   LearnCmd   `cmd:"" help:"Learn which strategies extract a shop's products"`
	Extract ExtractCmd `cmd:"" help:"Extract products from URLs"`
	Show    ShowCmd    `cmd:"" help:"Show the stored config for a domain"`
	List    ListCmd    `cmd:"" help:"List domains with stored configs"`
	Forget  ForgetCmd  `cmd:"" help:"Delete the stored config for a domain"`
	Samples SamplesCmd `cmd:"" help:"List product URLs found in a shop's sitemaps"`
}

// LearnCmd is the "learn" subcommand.
type LearnCmd struct {
	URL             string `arg:"" help:"Product URL, or shop URL to sample from its sitemaps"`
	VerificationURL string `arg:"" optional:"" help:"Second product URL on the same shop"`
	OracleLimit     int    `default:"3" help:"Maximum oracle calls for the run (0 for no limit)"`
	Static          bool   `help:"Load pages over plain HTTP instead of a browser"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URLs        []string `arg:"" name:"url" help:"Product URLs"`
	Out         string   `short:"o" type:"path" help:"Write one JSON file per product under this directory"`
	Concurrency int      `short:"c" default:"4" help:"Concurrent extraction limit"`
	Static      bool     `help:"Load pages over plain HTTP instead of a browser"`
	OracleLimit int      `default:"10" help:"Maximum live oracle calls for the run (0 for no limit)"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	Domain string `arg:"" help:"Shop domain or any URL on it"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Verified bool `help:"Only list verified configs"`
	Limit    int  `short:"n" help:"Maximum number of configs to list"`
}

// ForgetCmd is the "forget" subcommand.
type ForgetCmd struct {
	Domain string `arg:"" help:"Shop domain or any URL on it"`
	Force  bool   `help:"Confirm deletion"`
}

// SamplesCmd is the "samples" subcommand.
type SamplesCmd struct {
	URL   string `arg:"" help:"Shop URL"`
	Limit int    `short:"n" default:"10" help:"Maximum number of URLs"`
}
