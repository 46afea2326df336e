package dbbadger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type positionRepositoryImpl struct {
	store *badgerhold.Store
	txs   *repoManager
}

func (r *positionRepositoryImpl) GetPosition(
	ctx context.Context, owner common.Address,
) (*domain.Position, error) {
	position, err := r.getPosition(ctx, owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return domain.NewPosition(owner), nil
	}
	return position, nil
}

func (r *positionRepositoryImpl) UpdatePosition(
	ctx context.Context,
	owner common.Address,
	updateFn func(p *domain.Position) (*domain.Position, error),
) error {
	position, err := r.GetPosition(ctx, owner)
	if err != nil {
		return err
	}

	updatedPosition, err := updateFn(position)
	if err != nil {
		return err
	}

	return r.upsertPosition(ctx, owner, updatedPosition)
}

func (r *positionRepositoryImpl) getPosition(
	ctx context.Context, owner common.Address,
) (*domain.Position, error) {
	var position domain.Position
	var err error
	if tx := r.txs.txFromContext(ctx); tx != nil {
		err = r.store.TxGet(tx, owner.Hex(), &position)
	} else {
		err = r.store.Get(owner.Hex(), &position)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &position, nil
}

func (r *positionRepositoryImpl) upsertPosition(
	ctx context.Context, owner common.Address, position *domain.Position,
) error {
	if tx := r.txs.txFromContext(ctx); tx != nil {
		return r.store.TxUpsert(tx, owner.Hex(), position)
	}
	return r.store.Upsert(owner.Hex(), position)
}
