package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// PositionRepository is the abstraction for any kind of database intended to
// persist the Position ledger.
type PositionRepository interface {
	// GetPosition returns the position of the given owner. An empty position is
	// returned if nothing was ever recorded.
	GetPosition(ctx context.Context, owner common.Address) (*Position, error)
	// UpdatePosition updates the position of the given owner. The closure
	// function let's commit multiple changes in a transactional way.
	UpdatePosition(
		ctx context.Context,
		owner common.Address,
		updateFn func(p *Position) (*Position, error),
	) error
}
