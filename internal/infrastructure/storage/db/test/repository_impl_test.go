package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/storageutil/uow"
)

func TestPositionRepositoryImplementations(t *testing.T) {
	for _, repo := range createRepoManagers(t) {
		repo := repo
		t.Run(repo.Name, func(t *testing.T) {
			ctx := context.Background()
			positionRepository := repo.Manager.PositionRepository()
			owner := randomAddress()

			position, err := positionRepository.GetPosition(ctx, owner)
			require.NoError(t, err)
			require.False(t, position.IsOpen())
			require.Equal(t, owner, position.Owner)

			amount := randomAmount()
			err = positionRepository.UpdatePosition(
				ctx, owner, func(p *domain.Position) (*domain.Position, error) {
					p.ApplyDeposit(amount, uint256.NewInt(50), 10)
					return p, nil
				},
			)
			require.NoError(t, err)

			position, err = positionRepository.GetPosition(ctx, owner)
			require.NoError(t, err)
			require.True(t, position.IsOpen())
			require.True(t, amount.Eq(&position.Principal))
			require.Equal(t, uint64(50), position.Receipt.Uint64())
			require.Equal(t, int64(10), position.OpenedAt)

			err = positionRepository.UpdatePosition(
				ctx, owner, func(p *domain.Position) (*domain.Position, error) {
					return nil, errors.New("boom")
				},
			)
			require.EqualError(t, err, "boom")

			position, err = positionRepository.GetPosition(ctx, owner)
			require.NoError(t, err)
			require.True(t, amount.Eq(&position.Principal))
		})
	}
}

func TestOperationRepositoryImplementations(t *testing.T) {
	for _, repo := range createRepoManagers(t) {
		repo := repo
		t.Run(repo.Name, func(t *testing.T) {
			ctx := context.Background()
			operationRepository := repo.Manager.OperationRepository()
			ops := makeRandomOperations(20, 1000)

			allOps, err := operationRepository.ListOperations(ctx, nil)
			require.NoError(t, err)
			require.Empty(t, allOps)

			for i := range ops {
				require.NoError(t, operationRepository.AddOperation(ctx, &ops[i]))
			}
			require.Error(t, operationRepository.AddOperation(ctx, &ops[0]))

			op, err := operationRepository.GetOperation(ctx, ops[3].ID)
			require.NoError(t, err)
			require.Equal(t, ops[3], *op)

			_, err = operationRepository.GetOperation(ctx, "unknown")
			require.ErrorIs(t, err, domain.ErrOperationNotFound)

			allOps, err = operationRepository.ListOperations(ctx, nil)
			require.NoError(t, err)
			require.Len(t, allOps, 20)
			require.Equal(t, ops[19].ID, allOps[0].ID)
			require.Equal(t, ops[0].ID, allOps[19].ID)

			// Paging through 4 pages of 5 items must match the non-paginated
			// list item per item.
			allPagedOps := make([]domain.Operation, 0)
			for i := 1; i <= 4; i++ {
				page := domain.NewPage(i, 5)
				pagedOps, err := operationRepository.ListOperations(ctx, &page)
				require.NoError(t, err)
				require.Len(t, pagedOps, 5)
				allPagedOps = append(allPagedOps, pagedOps...)
			}
			require.Equal(t, allOps, allPagedOps)

			page := domain.NewPage(5, 5)
			pagedOps, err := operationRepository.ListOperations(ctx, &page)
			require.NoError(t, err)
			require.Empty(t, pagedOps)
		})
	}
}

func TestOperationsWithSameTimestamp(t *testing.T) {
	for _, repo := range createRepoManagers(t) {
		repo := repo
		t.Run(repo.Name, func(t *testing.T) {
			ctx := context.Background()
			operationRepository := repo.Manager.OperationRepository()

			first := domain.NewOperation(domain.OperationDeposit, randomAddress(), 1)
			second := domain.NewOperation(domain.OperationHarvest, randomAddress(), 1)
			require.NoError(t, operationRepository.AddOperation(ctx, first))
			require.NoError(t, operationRepository.AddOperation(ctx, second))

			ops, err := operationRepository.ListOperations(ctx, nil)
			require.NoError(t, err)
			require.Len(t, ops, 2)
			require.Equal(t, second.ID, ops[0].ID)
		})
	}
}

func TestUnitOfWork(t *testing.T) {
	for _, repo := range createRepoManagers(t) {
		repo := repo
		t.Run(repo.Name, func(t *testing.T) {
			manager := repo.Manager
			owner := randomAddress()
			ops := makeRandomOperations(2, 1)

			write := func(op *domain.Operation, fail bool) error {
				return uow.NewUnitOfWork(manager).Run(
					context.Background(),
					func(ctx context.Context) error {
						if err := manager.OperationRepository().AddOperation(ctx, op); err != nil {
							return err
						}
						if err := manager.PositionRepository().UpdatePosition(
							ctx, owner,
							func(p *domain.Position) (*domain.Position, error) {
								p.ApplyDeposit(uint256.NewInt(10), uint256.NewInt(1), op.Timestamp)
								return p, nil
							},
						); err != nil {
							return err
						}
						if fail {
							return errors.New("boom")
						}
						return nil
					},
				)
			}

			require.NoError(t, write(&ops[0], false))
			require.EqualError(t, write(&ops[1], true), "boom")

			ctx := context.Background()
			allOps, err := manager.OperationRepository().ListOperations(ctx, nil)
			require.NoError(t, err)
			require.Len(t, allOps, 1)
			require.Equal(t, ops[0].ID, allOps[0].ID)

			position, err := manager.PositionRepository().GetPosition(ctx, owner)
			require.NoError(t, err)
			require.Equal(t, uint64(10), position.Principal.Uint64())
			require.Equal(t, 1, position.Deposits)
		})
	}
}
