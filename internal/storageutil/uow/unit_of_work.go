package uow

import (
	"context"
	"fmt"
)

// Transactional begins a transaction
type Transactional interface {
	Begin() (Tx, error)
}

// Tx represents an all-or-nothing transaction, by committing or rolling back
// a set of read/write operations. Rolling back a committed transaction must
// be a no-op.
type Tx interface {
	Commit() error
	Rollback() error
}

// ContextProvider returns the key under which the transaction of a
// Transactional is stored in the context passed to the unit of work function.
// Transactionals without it are keyed by themselves.
type ContextProvider interface {
	ContextKey() interface{}
}

// UnitOfWork allows to run multiple transactions as one
type UnitOfWork struct {
	repositories []Transactional
}

// NewUnitOfWork returns a new UnitOfWork with the given Transaction interfaces
func NewUnitOfWork(repositories ...Transactional) *UnitOfWork {
	return &UnitOfWork{repositories}
}

// Run executes the given function over a fresh set of transactions, one per
// repository. The context given to fn carries every transaction under the
// repository context key, so that repositories can pick theirs up.
// Run makes sure that all the transactions are either all committed or all
// rolled back if any error occurs, fn panics or a commit fails.
func (u *UnitOfWork) Run(
	ctx context.Context, fn func(ctx context.Context) error,
) (err error) {
	txs := make([]Tx, 0, len(u.repositories))

	defer func() {
		if err == nil {
			return
		}
		for i := len(txs) - 1; i >= 0; i-- {
			if rbErr := txs[i].Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %s)", err, rbErr)
			}
		}
	}()

	defer func() {
		if err != nil {
			return
		}
		for _, tx := range txs {
			if cmErr := tx.Commit(); cmErr != nil {
				err = cmErr
				return
			}
		}
	}()

	defer func() {
		// panicking returns an error that causes txs rollback
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recovered: %v", rec)
		}
	}()

	keys := make(map[interface{}]struct{})
	for _, r := range u.repositories {
		key := contextKey(r)
		// make sure that the same context providers share the same transaction
		if _, ok := keys[key]; ok {
			continue
		}

		tx, err := r.Begin()
		if err != nil {
			return err
		}
		keys[key] = struct{}{}
		txs = append(txs, tx)
		ctx = context.WithValue(ctx, key, tx)
	}

	return fn(ctx)
}

// TxFromContext returns the transaction the unit of work stored for the given
// repository, if any.
func TxFromContext(ctx context.Context, repository interface{}) (Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(contextKey(repository)).(Tx)
	return tx, ok
}

func contextKey(r interface{}) interface{} {
	if cp, ok := r.(ContextProvider); ok {
		return cp.ContextKey()
	}
	return r
}
