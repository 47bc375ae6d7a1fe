package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	checks, err := c.check(deps.Stdin)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	// With --json the report moves to stderr so stdout can feed run --request.
	report := deps.Stdout
	if c.JSON {
		report = deps.Stderr
	}

	invalid := 0
	for _, ch := range checks {
		switch {
		case ch.Duplicate:
			fmt.Fprintf(report, "dup   %s\n", ch.URL)
		case ch.Err != nil:
			invalid++
			fmt.Fprintf(report, "bad   %s: %s\n", ch.URL, harvest.ErrorMessage(ch.Err))
		default:
			fmt.Fprintf(report, "ok    %s\n", ch.URL)
		}
	}

	urls := harvest.ValidURLs(checks)
	fmt.Fprintf(report, "%d valid, %d invalid, %d duplicate\n", len(urls), invalid, len(checks)-len(urls)-invalid)

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(harvest.BatchRequest{URLs: urls}); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return harvest.Errorf(harvest.EINVALID, "%d invalid URLs", invalid)
	}
	return nil
}
