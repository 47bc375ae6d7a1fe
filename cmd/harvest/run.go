package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/harvest"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	base, err := c.loadRequest(deps.Stdin)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	checks, err := c.check(deps.Stdin, base.URLs...)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	for _, ch := range checks {
		if ch.Err != nil {
			fmt.Fprintf(deps.Stderr, "skip %s: %s\n", ch.URL, harvest.ErrorMessage(ch.Err))
		}
	}
	urls := harvest.ValidURLs(checks)
	if len(urls) == 0 {
		err := harvest.Errorf(harvest.EINVALID, "no valid URLs to harvest")
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	req := c.timing(deps.Tier)
	req.URLs = urls

	progress := func(p harvest.BatchProgress) {
		if p.Listing.Failed() {
			fmt.Fprintf(deps.Stderr, "  [%d/%d] fail %s: %s\n", p.Completed, p.Total, p.URL, p.Listing.Error)
			return
		}
		fmt.Fprintf(deps.Stderr, "  [%d/%d] ok   %s %s\n", p.Completed, p.Total, p.Listing.RegistrationNumber, p.Listing.Price.Label)
	}

	result, runErr := deps.Harvester.Run(deps.Ctx, req, progress)
	if result == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(runErr))
		return runErr
	}

	if runErr == nil && deps.Bundles != nil {
		if err := c.writeBundles(deps, result); err != nil {
			fmt.Fprintf(deps.Stderr, "error writing bundles: %s\n", harvest.ErrorMessage(err))
			return err
		}
	}

	var statuses []harvest.ManuscriptStatus
	if runErr == nil && deps.Archive != nil {
		var err error
		if statuses, err = manuscriptStatuses(deps, result); err != nil {
			fmt.Fprintf(deps.Stderr, "error comparing with archive: %s\n", harvest.ErrorMessage(err))
			return err
		}
		if err := deps.Archive.SaveBatch(deps.Ctx, result); err != nil {
			fmt.Fprintf(deps.Stderr, "error archiving batch: %s\n", harvest.ErrorMessage(err))
			return err
		}
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(deps, result, statuses)
	}

	if runErr != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(runErr))
		return runErr
	}
	if result.Summary.Succeeded == 0 {
		return harvest.Errorf(harvest.EFETCH, "no listings harvested")
	}
	return nil
}

// writeBundles saves every successful listing and commits them together.
// A listing that cannot be saved is reported and skipped.
func (c *RunCmd) writeBundles(deps *Dependencies, result *harvest.BatchResult) error {
	saved := 0
	for _, l := range result.Succeeded() {
		if _, err := deps.Bundles.Save(deps.Ctx, l); err != nil {
			if harvest.ErrorCode(err) == harvest.ECANCELED {
				_ = deps.Bundles.Abort()
				return err
			}
			fmt.Fprintf(deps.Stderr, "  skip bundle %s: %s\n", l.RegistrationNumber, harvest.ErrorMessage(err))
			continue
		}
		saved++
	}
	if err := deps.Bundles.Commit(); err != nil {
		_ = deps.Bundles.Abort()
		return err
	}
	if saved > 0 && deps.OutputPath != "" {
		fmt.Fprintf(deps.Stderr, "Wrote %d bundles to %s\n", saved, deps.OutputPath)
	}
	return nil
}

// manuscriptStatuses compares every successful record with the archive.
// It must run before the batch itself is archived.
func manuscriptStatuses(deps *Dependencies, result *harvest.BatchResult) ([]harvest.ManuscriptStatus, error) {
	statuses := make([]harvest.ManuscriptStatus, len(result.Records))
	for i, l := range result.Records {
		if l.Failed() {
			continue
		}
		status, err := deps.Archive.ManuscriptStatus(deps.Ctx, l)
		if err != nil {
			return nil, err
		}
		statuses[i] = status
	}
	return statuses, nil
}

// printResult writes one line per record. statuses may be nil.
func printResult(deps *Dependencies, result *harvest.BatchResult, statuses []harvest.ManuscriptStatus) {
	for i, l := range result.Records {
		if l.Failed() {
			fmt.Fprintf(deps.Stdout, "FAIL  %s  %s\n", l.SourceURL, l.Error)
			continue
		}
		line := fmt.Sprintf("OK    %s  %s  %s  %s", l.RegistrationNumber, l.Price.Label, l.ModelYear, l.DisplayName)
		if i < len(statuses) && statuses[i] != "" {
			line += "  (" + string(statuses[i]) + ")"
		}
		fmt.Fprintln(deps.Stdout, line)
	}
	s := result.Summary
	fmt.Fprintf(deps.Stdout, "%d listings: %d succeeded, %d failed (%s)\n",
		s.Total, s.Succeeded, s.Failed, s.ExecutionTime.Round(10*time.Millisecond))
	if result.ID != "" {
		fmt.Fprintf(deps.Stdout, "Batch %s\n", result.ID)
	}
}
