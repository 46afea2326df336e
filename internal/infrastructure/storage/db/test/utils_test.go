package db_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	dbbadger "github.com/tdex-network/tdex-yield/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/storage/db/inmemory"
)

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	badgerInMemory, err := dbbadger.NewRepoManager("", logger)
	require.NoError(t, err)
	badgerOnDisk, err := dbbadger.NewRepoManager(t.TempDir(), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		badgerInMemory.Close()
		badgerOnDisk.Close()
	})

	return []repoManager{
		{"inmemory", inmemory.NewRepoManager()},
		{"badger_inmemory", badgerInMemory},
		{"badger", badgerOnDisk},
	}
}

func makeRandomOperations(num int, timestamp int64) []domain.Operation {
	ops := make([]domain.Operation, 0, num)
	for i := 0; i < num; i++ {
		op := domain.NewOperation(
			domain.OperationHarvest, randomAddress(), timestamp+int64(i),
		)
		op.RewardClaimed = *randomAmount()
		op.Compounded = *randomAmount()
		ops = append(ops, *op)
	}
	return ops
}

func randomAddress() common.Address {
	b := make([]byte, common.AddressLength)
	//nolint
	rand.Read(b)
	return common.BytesToAddress(b)
}

func randomAmount() *uint256.Int {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)
	n, _ := rand.Int(rand.Reader, max)
	v, _ := uint256.FromBig(n)
	return v
}
