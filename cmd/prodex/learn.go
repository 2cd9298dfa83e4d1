package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/prodex"
)

// Run executes the learn command.
func (c *LearnCmd) Run(deps *Dependencies) error {
	usage := prodex.NewOracleUsage(c.OracleLimit)
	ctx := prodex.WithOracleUsage(deps.Ctx, usage)

	var (
		cfg *prodex.MultiStrategyConfig
		err error
	)
	if c.VerificationURL != "" {
		cfg, err = deps.Learner.Learn(ctx, c.URL, c.VerificationURL)
	} else {
		cfg, err = deps.Learner.LearnSite(ctx, c.URL)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prodex.ErrorMessage(err))
		return err
	}

	printConfig(deps, cfg)
	in, out := usage.Tokens()
	fmt.Fprintf(deps.Stdout, "oracle: %d call(s), %d input / %d output tokens\n", usage.Calls(), in, out)

	if !cfg.Verified {
		fmt.Fprintln(deps.Stderr, "error: strategies could not be verified on a second product; nothing stored")
		return prodex.Errorf(prodex.EINVALID, "config for %s not verified", cfg.Domain)
	}
	fmt.Fprintf(deps.Stdout, "Stored config for %s\n", cfg.Domain)
	return nil
}

// printConfig writes a human-readable summary of cfg.
func printConfig(deps *Dependencies, cfg *prodex.MultiStrategyConfig) {
	w := deps.Stdout
	fmt.Fprintf(w, "domain:     %s\n", cfg.Domain)
	fmt.Fprintf(w, "verified:   %t\n", cfg.Verified)
	if cfg.Dwell > 0 {
		fmt.Fprintf(w, "dwell:      %s\n", cfg.Dwell)
	}
	if cfg.DiscoveryURL != "" {
		fmt.Fprintf(w, "discovery:  %s\n", cfg.DiscoveryURL)
	}
	if cfg.VerificationURL != "" {
		fmt.Fprintf(w, "verified on: %s\n", cfg.VerificationURL)
	}

	tags := cfg.ActiveStrategies()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	fmt.Fprintf(w, "strategies: %s\n", strings.Join(names, ", "))

	for _, f := range prodex.TrackedFields {
		if tag, ok := cfg.FieldSources[f]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", f, tag)
		}
	}
	if n := len(cfg.SiteImages); n > 0 {
		fmt.Fprintf(w, "site images: %d excluded\n", n)
	}
}
