package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Harvester = (*Harvester)(nil)

// Harvester is a mock implementation of harvest.Harvester.
type Harvester struct {
	RunFn func(ctx context.Context, req harvest.BatchRequest, progress harvest.BatchProgressFunc) (*harvest.BatchResult, error)
}

func (h *Harvester) Run(ctx context.Context, req harvest.BatchRequest, progress harvest.BatchProgressFunc) (*harvest.BatchResult, error) {
	return h.RunFn(ctx, req, progress)
}
