package main

import (
	"fmt"

	"github.com/fwojciec/prodex"
)

// Run executes the samples command.
func (c *SamplesCmd) Run(deps *Dependencies) error {
	urls, err := deps.Samples.ProductURLs(deps.Ctx, c.URL, prodex.ProductURLFilter(), c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prodex.ErrorMessage(err))
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "No product URLs found in the site's sitemaps.")
		return nil
	}
	for _, u := range urls {
		fmt.Fprintln(deps.Stdout, u)
	}
	return nil
}
