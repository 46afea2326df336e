package yield

import (
	"context"
	"fmt"

	"github.com/tdex-network/tdex-yield/internal/core/domain"
)

type guardKey struct{}

// enter acquires the controller guard. Operations are serialized; an
// operation started from within another one, detected through the marker
// carried by ctx, is rejected instead of waiting for a guard it already
// holds. Adapters calling back into the controller must propagate the ctx
// they were given. A call that drops it waits at most guardTimeout and fails
// with ErrControllerBusy, so the operation it blocks is rolled back instead
// of hanging.
func (c *Controller) enter(
	ctx context.Context,
) (context.Context, func(), error) {
	if v, ok := ctx.Value(guardKey{}).(*Controller); ok && v == c {
		return nil, nil, domain.ErrReentrantCall
	}

	acquireCtx, cancel := context.WithTimeout(ctx, c.guardTimeout)
	defer cancel()
	if err := c.guard.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf(
			"%w: guard not acquired within %s", domain.ErrControllerBusy, c.guardTimeout,
		)
	}
	return context.WithValue(ctx, guardKey{}, c), func() { c.guard.Release(1) }, nil
}
