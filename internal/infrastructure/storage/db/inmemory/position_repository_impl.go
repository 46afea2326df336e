package inmemory

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
)

type PositionRepositoryImpl struct {
	store *store
}

// NewPositionRepositoryImpl returns a new empty PositionRepositoryImpl
func NewPositionRepositoryImpl(store *store) domain.PositionRepository {
	return &PositionRepositoryImpl{store}
}

func (r *PositionRepositoryImpl) GetPosition(
	_ context.Context, owner common.Address,
) (*domain.Position, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	return r.getPosition(owner), nil
}

func (r *PositionRepositoryImpl) UpdatePosition(
	_ context.Context,
	owner common.Address,
	updateFn func(p *domain.Position) (*domain.Position, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	updatedPosition, err := updateFn(r.getPosition(owner))
	if err != nil {
		return err
	}

	r.store.positions[owner] = *updatedPosition
	return nil
}

func (r *PositionRepositoryImpl) getPosition(owner common.Address) *domain.Position {
	position, ok := r.store.positions[owner]
	if !ok {
		return domain.NewPosition(owner)
	}
	return &position
}
