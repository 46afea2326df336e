package spotoracle_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/exchange/amm"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/ledger"
	spotoracle "github.com/tdex-network/tdex-yield/internal/infrastructure/oracle/spot"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

func TestSpotOracle(t *testing.T) {
	ctx := context.Background()
	genesis := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	l := ledger.New(genesis)
	comp, _ := ledger.NewToken(l, common.HexToAddress("0xc00e94Cb662C3520282E6f5717214004A7f26888"), "COMP", 18)
	dai, _ := ledger.NewToken(l, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), "DAI", 18)
	pool := common.HexToAddress("0x00000000000000000000000000000000000000c1")

	router, err := amm.NewRouter(l, common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"), amm.DefaultFee)
	require.NoError(t, err)
	require.NoError(t, router.AddPool(pool, comp, dai))

	oracle, err := spotoracle.NewSpotOracle(router, l)
	require.NoError(t, err)

	// Empty pool.
	_, err = oracle.Price(ctx, comp.Address(), dai.Address())
	require.ErrorIs(t, err, domain.ErrInsufficientLiquidity)

	compReserve, _ := mathutil.ParseUnits("1000", 18)
	daiReserve, _ := mathutil.ParseUnits("400000", 18)
	require.NoError(t, comp.Mint(pool, compReserve))
	require.NoError(t, dai.Mint(pool, daiReserve))

	quote, err := oracle.Price(ctx, comp.Address(), dai.Address())
	require.NoError(t, err)
	require.True(t, quote.Price.Equal(decimal.NewFromInt(400)))
	require.Equal(t, genesis, quote.Timestamp)
	require.Equal(t, "spot", quote.Source)

	_, err = oracle.Price(ctx, comp.Address(), common.HexToAddress("0x01"))
	require.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = spotoracle.NewSpotOracle(nil, l)
	require.Error(t, err)
}
