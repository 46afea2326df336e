package dbbadger

import (
	"context"
	"fmt"
	"time"

	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// operationRecord wraps an operation with the insertion sequence used to
// sort operations sharing the same timestamp.
type operationRecord struct {
	ID        string
	Timestamp int64
	Seq       int64
	Operation domain.Operation
}

type operationRepositoryImpl struct {
	store *badgerhold.Store
	txs   *repoManager
}

func (r *operationRepositoryImpl) AddOperation(
	ctx context.Context, op *domain.Operation,
) error {
	if op == nil {
		return fmt.Errorf("missing operation")
	}

	record := &operationRecord{
		ID:        op.ID,
		Timestamp: op.Timestamp,
		Seq:       time.Now().UnixNano(),
		Operation: *op,
	}

	var err error
	if tx := r.txs.txFromContext(ctx); tx != nil {
		err = r.store.TxInsert(tx, op.ID, record)
	} else {
		err = r.store.Insert(op.ID, record)
	}
	if err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("operation with id %s already exists", op.ID)
		}
		return err
	}
	return nil
}

func (r *operationRepositoryImpl) GetOperation(
	ctx context.Context, id string,
) (*domain.Operation, error) {
	var record operationRecord
	var err error
	if tx := r.txs.txFromContext(ctx); tx != nil {
		err = r.store.TxGet(tx, id, &record)
	} else {
		err = r.store.Get(id, &record)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrOperationNotFound
		}
		return nil, err
	}
	return &record.Operation, nil
}

func (r *operationRepositoryImpl) ListOperations(
	ctx context.Context, page *domain.Page,
) ([]domain.Operation, error) {
	query := (&badgerhold.Query{}).SortBy("Timestamp", "Seq").Reverse()
	if page != nil {
		query = query.Skip(page.Offset()).Limit(page.Size)
	}

	var records []operationRecord
	var err error
	if tx := r.txs.txFromContext(ctx); tx != nil {
		err = r.store.TxFind(tx, &records, query)
	} else {
		err = r.store.Find(&records, query)
	}
	if err != nil {
		return nil, err
	}

	ops := make([]domain.Operation, 0, len(records))
	for _, record := range records {
		ops = append(ops, record.Operation)
	}
	return ops, nil
}
