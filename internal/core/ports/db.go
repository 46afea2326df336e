package ports

import (
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/storageutil/uow"
)

// RepoManager gives access to the repositories and lets their writes join a
// unit of work.
type RepoManager interface {
	uow.Transactional

	PositionRepository() domain.PositionRepository
	OperationRepository() domain.OperationRepository

	Close()
}
