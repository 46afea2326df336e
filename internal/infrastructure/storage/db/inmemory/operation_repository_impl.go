package inmemory

import (
	"context"
	"fmt"

	"github.com/tdex-network/tdex-yield/internal/core/domain"
)

type OperationRepositoryImpl struct {
	store *store
}

// NewOperationRepositoryImpl returns a new empty OperationRepositoryImpl
func NewOperationRepositoryImpl(store *store) domain.OperationRepository {
	return &OperationRepositoryImpl{store}
}

func (r *OperationRepositoryImpl) AddOperation(
	_ context.Context, op *domain.Operation,
) error {
	if op == nil {
		return fmt.Errorf("missing operation")
	}

	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	for _, o := range r.store.operations {
		if o.ID == op.ID {
			return fmt.Errorf("operation with id %s already exists", op.ID)
		}
	}

	// Operations are kept sorted from the most recent.
	i := 0
	for i < len(r.store.operations) &&
		r.store.operations[i].Timestamp > op.Timestamp {
		i++
	}
	r.store.operations = append(r.store.operations, domain.Operation{})
	copy(r.store.operations[i+1:], r.store.operations[i:])
	r.store.operations[i] = *op
	return nil
}

func (r *OperationRepositoryImpl) GetOperation(
	_ context.Context, id string,
) (*domain.Operation, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	for _, o := range r.store.operations {
		if o.ID == id {
			op := o
			return &op, nil
		}
	}
	return nil, domain.ErrOperationNotFound
}

func (r *OperationRepositoryImpl) ListOperations(
	_ context.Context, page *domain.Page,
) ([]domain.Operation, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	ops := r.store.operations
	if page != nil {
		from := page.Offset()
		if from >= len(ops) {
			return []domain.Operation{}, nil
		}
		to := from + page.Size
		if to > len(ops) {
			to = len(ops)
		}
		ops = ops[from:to]
	}

	result := make([]domain.Operation, len(ops))
	copy(result, ops)
	return result, nil
}
