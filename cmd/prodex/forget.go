package main

import (
	"fmt"

	"github.com/fwojciec/prodex"
)

// Run executes the forget command.
func (c *ForgetCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return prodex.Errorf(prodex.EINVALID, "use --force to confirm deletion")
	}

	domain := domainArg(c.Domain)
	if err := deps.Configs.DeleteConfig(deps.Ctx, domain); err != nil {
		if prodex.ErrorCode(err) == prodex.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: no config for %s. Use 'prodex list' to see stored domains.\n", domain)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", prodex.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted config for %s\n", domain)
	return nil
}
