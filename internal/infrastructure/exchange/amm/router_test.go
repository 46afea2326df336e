package amm_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/exchange/amm"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

var (
	genesis    = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	routerAddr = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	compWeth   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	wethDai    = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	trader     = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

type testRouter struct {
	ledger *ledger.Ledger
	router *amm.Router
	comp   *ledger.Token
	weth   *ledger.Token
	dai    *ledger.Token
}

func units(t *testing.T, s string) *uint256.Int {
	v, err := mathutil.ParseUnits(s, 18)
	require.NoError(t, err)
	return v
}

func newTestRouter(t *testing.T) *testRouter {
	l := ledger.New(genesis)
	comp, _ := ledger.NewToken(l, common.HexToAddress("0xc00e94Cb662C3520282E6f5717214004A7f26888"), "COMP", 18)
	weth, _ := ledger.NewToken(l, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), "WETH", 18)
	dai, _ := ledger.NewToken(l, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), "DAI", 18)

	router, err := amm.NewRouter(l, routerAddr, amm.DefaultFee)
	require.NoError(t, err)
	require.NoError(t, router.AddPool(compWeth, comp, weth))
	require.NoError(t, router.AddPool(wethDai, weth, dai))
	require.ErrorIs(t, router.AddPool(compWeth, weth, comp), amm.ErrPoolAlreadyExists)

	require.NoError(t, comp.Mint(compWeth, units(t, "50000")))
	require.NoError(t, weth.Mint(compWeth, units(t, "10000")))
	require.NoError(t, weth.Mint(wethDai, units(t, "10000")))
	require.NoError(t, dai.Mint(wethDai, units(t, "20000000")))

	require.NoError(t, comp.Mint(trader, units(t, "1000")))
	return &testRouter{l, router, comp, weth, dai}
}

func (r *testRouter) path() []common.Address {
	return []common.Address{r.comp.Address(), r.weth.Address(), r.dai.Address()}
}

func TestSwapExactInput(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t)

	quote, err := r.router.QuoteExactInput(ctx, units(t, "100"), r.path())
	require.NoError(t, err)
	require.Equal(t, "39602661489102487091399", quote.Dec())

	require.NoError(t, r.comp.Approve(ctx, trader, routerAddr, ledger.MaxAllowance))
	out, err := r.router.SwapExactInput(ctx, ports.SwapRequest{
		Trader:       trader,
		AmountIn:     units(t, "100"),
		Path:         r.path(),
		MinAmountOut: quote,
		Deadline:     r.ledger.Now().Add(time.Minute),
	})
	require.NoError(t, err)
	require.True(t, out.Eq(quote))

	daiBalance, _ := r.dai.BalanceOf(ctx, trader)
	require.True(t, daiBalance.Eq(quote))
	compBalance, _ := r.comp.BalanceOf(ctx, trader)
	require.Equal(t, units(t, "900").Dec(), compBalance.Dec())

	// Intermediate asset never sticks to the trader nor to the router.
	wethBalance, _ := r.weth.BalanceOf(ctx, trader)
	require.True(t, wethBalance.IsZero())
	wethBalance, _ = r.weth.BalanceOf(ctx, routerAddr)
	require.True(t, wethBalance.IsZero())

	reserveComp, reserveWeth, err := r.router.Reserves(ctx, r.comp.Address(), r.weth.Address())
	require.NoError(t, err)
	require.Equal(t, units(t, "50100").Dec(), reserveComp.Dec())
	require.Equal(t, "9980099681235616181335", reserveWeth.Dec())
}

func TestFailingSwap(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  func(r *testRouter) ports.SwapRequest
		err  error
	}{
		{
			"expired",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: units(t, "1"), Path: r.path(),
					Deadline: r.ledger.Now().Add(-time.Second),
				}
			},
			domain.ErrExpired,
		},
		{
			"slippage",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: units(t, "100"), Path: r.path(),
					MinAmountOut: units(t, "40000"),
					Deadline:     r.ledger.Now().Add(time.Minute),
				}
			},
			domain.ErrSlippageExceeded,
		},
		{
			"short path",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: units(t, "1"),
					Path:     []common.Address{r.comp.Address()},
					Deadline: r.ledger.Now().Add(time.Minute),
				}
			},
			domain.ErrInvalidPath,
		},
		{
			"missing pool",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: units(t, "1"),
					Path:     []common.Address{r.comp.Address(), r.dai.Address()},
					Deadline: r.ledger.Now().Add(time.Minute),
				}
			},
			domain.ErrInvalidPath,
		},
		{
			"loop",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: units(t, "1"),
					Path: []common.Address{
						r.comp.Address(), r.weth.Address(), r.comp.Address(),
					},
					Deadline: r.ledger.Now().Add(time.Minute),
				}
			},
			domain.ErrInvalidPath,
		},
		{
			"zero amount",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: uint256.NewInt(0), Path: r.path(),
					Deadline: r.ledger.Now().Add(time.Minute),
				}
			},
			domain.ErrInvalidAmount,
		},
		{
			"missing allowance",
			func(r *testRouter) ports.SwapRequest {
				return ports.SwapRequest{
					Trader: trader, AmountIn: units(t, "1"), Path: r.path(),
					Deadline: r.ledger.Now().Add(time.Minute),
				}
			},
			domain.ErrInsufficientAllowance,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t)
			if tt.name != "missing allowance" {
				require.NoError(t, r.comp.Approve(ctx, trader, routerAddr, ledger.MaxAllowance))
			}

			_, err := r.router.SwapExactInput(ctx, tt.req(r))
			require.ErrorIs(t, err, tt.err)

			compBalance, _ := r.comp.BalanceOf(ctx, trader)
			require.Equal(t, units(t, "1000").Dec(), compBalance.Dec())
			daiBalance, _ := r.dai.BalanceOf(ctx, trader)
			require.True(t, daiBalance.IsZero())
		})
	}
}

func TestSpotPrice(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t)

	price, err := r.router.SpotPrice(ctx, r.path())
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(400)), price.String())

	_, err = r.router.SpotPrice(ctx, []common.Address{r.comp.Address(), r.dai.Address()})
	require.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestFindPath(t *testing.T) {
	r := newTestRouter(t)

	path, err := r.router.FindPath(r.comp.Address(), r.dai.Address())
	require.NoError(t, err)
	require.Equal(t, r.path(), path)

	path, err = r.router.FindPath(r.dai.Address(), r.weth.Address())
	require.NoError(t, err)
	require.Equal(t, []common.Address{r.dai.Address(), r.weth.Address()}, path)

	_, err = r.router.FindPath(r.dai.Address(), r.dai.Address())
	require.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = r.router.FindPath(r.dai.Address(), routerAddr)
	require.ErrorIs(t, err, domain.ErrInvalidPath)
}
