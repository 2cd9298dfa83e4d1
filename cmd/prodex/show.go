package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/prodex"
)

// domainArg accepts either a bare domain or a URL on it.
func domainArg(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "://") {
		return prodex.DomainOf(s)
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(strings.ToLower(s), "www.")
}

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	domain := domainArg(c.Domain)
	cfg, err := deps.Configs.FindConfig(deps.Ctx, domain)
	if err != nil {
		if prodex.ErrorCode(err) == prodex.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: no config for %s. Use 'prodex learn' to create one.\n", domain)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", prodex.ErrorMessage(err))
		}
		return err
	}
	printConfig(deps, cfg)
	return nil
}

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := prodex.ConfigFilter{Limit: c.Limit}
	if c.Verified {
		verified := true
		filter.Verified = &verified
	}
	cfgs, err := deps.Configs.FindConfigs(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prodex.ErrorMessage(err))
		return err
	}

	if len(cfgs) == 0 {
		fmt.Fprintln(deps.Stdout, "No configs found. Use 'prodex learn' to create one.")
		return nil
	}

	for _, cfg := range cfgs {
		tags := cfg.ActiveStrategies()
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = string(t)
		}
		status := "unverified"
		if cfg.Verified {
			status = "verified"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", cfg.Domain, status, strings.Join(names, ","))
	}
	return nil
}
