package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/bloom"
	"github.com/fwojciec/prodex/extract"
)

// Run executes the extract command. URLs are grouped by domain so each
// domain's stored config is read once; output keeps the input order.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	urls := uniqueURLs(c.URLs)
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no URLs given")
		return prodex.Errorf(prodex.EINVALID, "no URLs given")
	}

	ctx := prodex.WithOracleUsage(deps.Ctx, prodex.NewOracleUsage(c.OracleLimit))

	var domains []string
	byDomain := make(map[string][]int)
	for i, u := range urls {
		d := prodex.DomainOf(u)
		if _, ok := byDomain[d]; !ok {
			domains = append(domains, d)
		}
		byDomain[d] = append(byDomain[d], i)
	}

	batch := &extract.Batch{
		Extractor: deps.Extractor,
		Progress: func(e extract.ProgressEvent) {
			if e.Type == extract.ProgressFailed {
				fmt.Fprintf(deps.Stderr, "failed: %s: %s\n", e.URL, e.Error)
			}
		},
	}
	results := make([]*prodex.ExtractionResult, len(urls))
	for _, d := range domains {
		cfg := extract.LoadConfig(ctx, deps.Configs, d, deps.Logger)
		if cfg == nil {
			fmt.Fprintf(deps.Stderr, "note: no config for %s, running every strategy. Use 'prodex learn' first for faster extraction.\n", d)
		}
		idx := byDomain[d]
		group := make([]string, len(idx))
		for j, i := range idx {
			group[j] = urls[i]
		}
		for j, r := range batch.ExtractBatch(ctx, cfg, group, c.Concurrency) {
			results[idx[j]] = r
		}
	}

	succeeded := 0
	enc := json.NewEncoder(deps.Stdout)
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		if deps.Results != nil {
			path, err := deps.Results.WriteResult(ctx, r)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: writing %s: %s\n", r.URL, err)
				return err
			}
			fmt.Fprintln(deps.Stdout, path)
			continue
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	fmt.Fprintf(deps.Stderr, "extracted %d/%d products\n", succeeded, len(results))
	if succeeded == 0 {
		return prodex.Errorf(prodex.ENOTFOUND, "no products extracted")
	}
	return nil
}

// uniqueURLs drops repeats of the same product URL, keeping first
// occurrences.
func uniqueURLs(urls []string) []string {
	seen := bloom.NewFilter(uint(len(urls)), 0.0001)
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen.Seen(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}
