package engine

import (
	"context"
	"fmt"

	"github.com/warrantd/warrant/internal/model"
)

// Sweep marks every active activation whose token has expired as expired,
// stamping the transition time. Records are flagged, never deleted. The
// whole pass is one durable write, and a second pass with no intervening
// activity transitions nothing.
func (e *Engine) Sweep(ctx context.Context) (*model.SweepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	n, err := e.store.MarkExpired(ctx, now, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("sweep activations: %w", err)
	}

	res := &model.SweepResult{
		Result:  model.Result{Success: true, Message: fmt.Sprintf("marked %d expired tokens", n)},
		Expired: n,
	}
	e.record("sweep", res)
	e.logger.Info("expiry sweep complete", "expired", n)
	return res, nil
}
