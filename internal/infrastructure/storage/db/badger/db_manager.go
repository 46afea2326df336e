package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/storageutil/uow"
	"github.com/timshannon/badgerhold/v4"
)

type txKey struct{}

type repoManager struct {
	store *badgerhold.Store

	positionRepository  domain.PositionRepository
	operationRepository domain.OperationRepository
}

// NewRepoManager opens (or creates if not exists) the badger store under
// baseDbDir. An empty baseDbDir opens an in-memory store.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "db")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	r := &repoManager{store: store}
	r.positionRepository = &positionRepositoryImpl{store, r}
	r.operationRepository = &operationRepositoryImpl{store, r}
	return r, nil
}

func (r *repoManager) PositionRepository() domain.PositionRepository {
	return r.positionRepository
}

func (r *repoManager) OperationRepository() domain.OperationRepository {
	return r.operationRepository
}

// Begin implements uow.Transactional.
func (r *repoManager) Begin() (uow.Tx, error) {
	return &badgerTx{r.store.Badger().NewTransaction(true)}, nil
}

// ContextKey implements uow.ContextProvider.
func (r *repoManager) ContextKey() interface{} {
	return txKey{}
}

func (r *repoManager) Close() {
	if err := r.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close db")
	}
}

// txFromContext returns the badger transaction the unit of work opened, if
// any.
func (r *repoManager) txFromContext(ctx context.Context) *badger.Txn {
	tx, ok := uow.TxFromContext(ctx, r)
	if !ok {
		return nil
	}
	if btx, ok := tx.(*badgerTx); ok {
		return btx.txn
	}
	return nil
}

type badgerTx struct {
	txn *badger.Txn
}

func (t *badgerTx) Commit() error {
	return t.txn.Commit()
}

// Rollback discards the transaction. Discarding a committed transaction is a
// no-op.
func (t *badgerTx) Rollback() error {
	t.txn.Discard()
	return nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}
