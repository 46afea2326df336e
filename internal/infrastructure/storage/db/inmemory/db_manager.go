package inmemory

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/storageutil/uow"
)

type store struct {
	locker     *sync.RWMutex
	positions  map[common.Address]domain.Position
	operations []domain.Operation
}

func (s *store) snapshot() *store {
	s.locker.RLock()
	defer s.locker.RUnlock()

	positions := make(map[common.Address]domain.Position, len(s.positions))
	for k, v := range s.positions {
		positions[k] = v
	}
	operations := make([]domain.Operation, len(s.operations))
	copy(operations, s.operations)

	return &store{positions: positions, operations: operations}
}

func (s *store) restore(snapshot *store) {
	s.locker.Lock()
	defer s.locker.Unlock()

	s.positions = snapshot.positions
	s.operations = snapshot.operations
}

type RepoManager struct {
	store *store

	positionRepository  domain.PositionRepository
	operationRepository domain.OperationRepository
}

func NewRepoManager() ports.RepoManager {
	s := &store{
		locker:    &sync.RWMutex{},
		positions: make(map[common.Address]domain.Position),
	}

	return &RepoManager{
		store:               s,
		positionRepository:  NewPositionRepositoryImpl(s),
		operationRepository: NewOperationRepositoryImpl(s),
	}
}

func (d *RepoManager) PositionRepository() domain.PositionRepository {
	return d.positionRepository
}

func (d *RepoManager) OperationRepository() domain.OperationRepository {
	return d.operationRepository
}

// Begin implements uow.Transactional. Rolling back restores the state at the
// time the transaction began.
func (d *RepoManager) Begin() (uow.Tx, error) {
	return &tx{store: d.store, snapshot: d.store.snapshot()}, nil
}

func (d *RepoManager) Close() {}

type tx struct {
	store    *store
	snapshot *store
}

func (t *tx) Commit() error {
	t.snapshot = nil
	return nil
}

func (t *tx) Rollback() error {
	if t.snapshot == nil {
		return nil
	}
	t.store.restore(t.snapshot)
	t.snapshot = nil
	return nil
}
