package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if c.Batch != "" {
		return c.showBatch(deps)
	}

	batches, err := deps.Archive.FindBatches(deps.Ctx, harvest.BatchFilter{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(batches) == 0 {
		fmt.Fprintln(deps.Stdout, "No batches found. Use 'harvest run' to create one.")
		return nil
	}

	for _, b := range batches {
		fmt.Fprintf(deps.Stdout, "%s  %s  %d/%d ok  %s\n",
			b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"),
			b.Summary.Succeeded, b.Summary.Total, b.Summary.ExecutionTime)
	}
	return nil
}

func (c *HistoryCmd) showBatch(deps *Dependencies) error {
	batches, err := deps.Archive.FindBatches(deps.Ctx, harvest.BatchFilter{ID: &c.Batch})
	if err == nil && len(batches) == 0 {
		err = harvest.Errorf(harvest.ENOTFOUND, "batch not found: %s", c.Batch)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	listings, err := deps.Archive.FindListings(deps.Ctx, harvest.ListingFilter{
		BatchID:       &c.Batch,
		IncludeFailed: c.Failed,
		Limit:         c.Limit,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	for _, l := range listings {
		if l.Failed() {
			fmt.Fprintf(deps.Stdout, "FAIL  %s  %s\n", l.SourceURL, l.Error)
			continue
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %d images\n", l.RegistrationNumber, l.Price.Label, l.DisplayName, len(l.Images))
	}
	return nil
}
