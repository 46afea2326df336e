package yield_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-yield/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-yield/internal/core/application/yield"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/devnet"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
	"github.com/tdex-network/tdex-yield/pkg/stats"
)

var (
	genesis  = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	owner    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	self     = devnet.ControllerAddress
)

type testEnv struct {
	net         *devnet.Devnet
	controller  *yield.Controller
	repoManager ports.RepoManager
	registry    *prometheus.Registry
}

type option func(cfg *yield.Config)

func newTestEnv(t *testing.T, opts ...option) *testEnv {
	net, err := devnet.New(devnet.Config{
		Genesis:       genesis,
		SupplyRate:    decimal.NewFromFloat(0.05),
		RewardSpeed:   decimal.NewFromFloat(0.0001),
		RewardReserve: decimal.NewFromInt(1000),
		Owner:         owner,
		OwnerFunds:    decimal.NewFromInt(10000),
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics, err := stats.NewControllerMetrics(registry)
	require.NoError(t, err)

	repoManager := inmemory.NewRepoManager()
	cfg := yield.Config{
		Address:     self,
		Owner:       owner,
		Underlying:  net.DAI,
		Market:      net.Market,
		Exchange:    net.Router,
		Oracle:      net.Oracle,
		Clock:       net.Ledger,
		RepoManager: repoManager,
		Ledger:      net.Ledger,
		Metrics:     metrics,
		SwapPath: []common.Address{
			devnet.COMPAddress, devnet.WETHAddress, devnet.DAIAddress,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	controller, err := yield.NewController(cfg)
	require.NoError(t, err)

	return &testEnv{net, controller, cfg.RepoManager, registry}
}

func (e *testEnv) balance(t *testing.T, token *ledger.Token, account common.Address) *uint256.Int {
	b, err := token.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return b
}

func (e *testEnv) approve(t *testing.T, amount string) {
	err := e.net.Approve(
		context.Background(), owner, self, "DAI", decimal.RequireFromString(amount),
	)
	require.NoError(t, err)
}

func (e *testEnv) deposit(t *testing.T, amount string) *domain.Operation {
	e.approve(t, amount)
	op, err := e.controller.Deposit(context.Background(), owner, units(t, amount))
	require.NoError(t, err)
	return op
}

func (e *testEnv) operations(t *testing.T) []domain.Operation {
	ops, err := e.controller.ListOperations(context.Background(), nil)
	require.NoError(t, err)
	return ops
}

func units(t *testing.T, whole string) *uint256.Int {
	v, err := mathutil.ParseUnits(whole, 18)
	require.NoError(t, err)
	return v
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	require.Equal(t, "10000000000000000000000", e.balance(t, e.net.DAI, owner).Dec())

	op := e.deposit(t, "1000")
	require.True(t, op.IsDeposit())
	require.Equal(t, "5000000000000", op.ReceiptMinted.Dec())
	require.Equal(t, "9000000000000000000000", e.balance(t, e.net.DAI, owner).Dec())
	require.True(t, e.balance(t, e.net.DAI, self).IsZero())
	receiptAfterDeposit := e.balance(t, e.net.CDAI, self)
	require.Equal(t, "5000000000000", receiptAfterDeposit.Dec())

	e.net.Advance(24 * time.Hour)

	op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
	require.NoError(t, err)
	require.False(t, op.Noop)
	require.Equal(t, "8640000000000000000", op.RewardClaimed.Dec())
	require.Equal(t, op.RewardClaimed, op.RewardSwapped)
	require.False(t, op.Compounded.IsZero())
	require.True(t, op.SwapOutput.Cmp(&op.MinAmountOut) >= 0)
	require.True(t, e.balance(t, e.net.COMP, self).IsZero())
	require.True(t, e.balance(t, e.net.DAI, self).IsZero())
	receiptAfterHarvest := e.balance(t, e.net.CDAI, self)
	require.True(t, receiptAfterHarvest.Gt(receiptAfterDeposit))

	e.net.Advance(24 * time.Hour)

	op, err = e.controller.Withdraw(ctx, owner)
	require.NoError(t, err)
	require.True(t, op.IsWithdraw())
	require.Equal(t, receiptAfterHarvest, &op.ReceiptBurned)
	require.Equal(t, "1000000000000000000000", op.Principal.Dec())
	require.False(t, op.RealizedYield.IsZero())

	require.True(t, e.balance(t, e.net.DAI, self).IsZero())
	require.True(t, e.balance(t, e.net.CDAI, self).IsZero())
	require.True(t, e.balance(t, e.net.COMP, self).IsZero())

	final := e.balance(t, e.net.DAI, owner)
	expected := new(uint256.Int).Add(units(t, "9000"), &op.UnderlyingOut)
	require.Equal(t, expected, final)
	require.True(t, final.Gt(units(t, "10000")))

	ops := e.operations(t)
	require.Len(t, ops, 3)
	require.True(t, ops[0].IsWithdraw())
	require.True(t, ops[1].IsHarvest())
	require.True(t, ops[2].IsDeposit())

	position, err := e.controller.Position(ctx)
	require.NoError(t, err)
	require.True(t, position.Receipt.IsZero())
	require.True(t, position.Principal.IsZero())
	require.True(t, position.EstimatedValue.IsZero())
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		e.deposit(t, "500")

		position, err := e.controller.Position(ctx)
		require.NoError(t, err)
		require.Equal(t, "1500000000000000000000", position.Principal.Dec())
		require.Equal(t, "7500000000000", position.Receipt.Dec())
		require.Equal(t, "1500000000000000000000", position.EstimatedValue.Dec())
		require.True(t, position.Yield.IsZero())
		require.Equal(t, 2, position.Deposits)
		require.Equal(t, genesis.Unix(), position.OpenedAt)

		allowance, err := e.net.DAI.Allowance(ctx, self, devnet.CDAIAddress)
		require.NoError(t, err)
		require.True(t, allowance.IsZero())
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name        string
			caller      common.Address
			amount      *uint256.Int
			approve     string
			pause       bool
			expectedErr []error
		}{
			{
				name:        "unauthorized caller",
				caller:      stranger,
				amount:      units(t, "1"),
				approve:     "1",
				expectedErr: []error{domain.ErrUnauthorized},
			},
			{
				name:        "zero amount",
				caller:      owner,
				amount:      uint256.NewInt(0),
				approve:     "1",
				expectedErr: []error{domain.ErrInvalidAmount},
			},
			{
				name:        "nil amount",
				caller:      owner,
				approve:     "1",
				expectedErr: []error{domain.ErrInvalidAmount},
			},
			{
				name:    "missing allowance",
				caller:  owner,
				amount:  units(t, "1000"),
				approve: "999",
				expectedErr: []error{
					domain.ErrTransferFailed, domain.ErrInsufficientAllowance,
				},
			},
			{
				name:    "insufficient balance",
				caller:  owner,
				amount:  units(t, "10001"),
				approve: "-1",
				expectedErr: []error{
					domain.ErrTransferFailed, domain.ErrInsufficientBalance,
				},
			},
			{
				name:        "paused market",
				caller:      owner,
				amount:      units(t, "1000"),
				approve:     "1000",
				pause:       true,
				expectedErr: []error{domain.ErrMarketRejected},
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				e := newTestEnv(t)
				e.approve(t, tt.approve)
				if tt.pause {
					require.NoError(t, e.net.SetPaused(true))
				}

				op, err := e.controller.Deposit(ctx, tt.caller, tt.amount)
				require.Nil(t, op)
				for _, expected := range tt.expectedErr {
					require.ErrorIs(t, err, expected)
				}

				require.Equal(t, units(t, "10000"), e.balance(t, e.net.DAI, owner))
				require.True(t, e.balance(t, e.net.DAI, self).IsZero())
				require.True(t, e.balance(t, e.net.CDAI, self).IsZero())
				require.Empty(t, e.operations(t))

				position, err := e.controller.Position(ctx)
				require.NoError(t, err)
				require.True(t, position.Principal.IsZero())
			})
		}
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthorized", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")

		_, err := e.controller.Withdraw(ctx, stranger)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
		require.Equal(t, "5000000000000", e.balance(t, e.net.CDAI, self).Dec())
	})

	t.Run("empty position", func(t *testing.T) {
		e := newTestEnv(t)

		_, err := e.controller.Withdraw(ctx, owner)
		require.ErrorIs(t, err, domain.ErrEmptyPosition)
		require.Empty(t, e.operations(t))
	})

	t.Run("without yield", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")

		op, err := e.controller.Withdraw(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, "1000000000000000000000", op.UnderlyingOut.Dec())
		require.True(t, op.RealizedYield.IsZero())
		require.Equal(t, units(t, "10000"), e.balance(t, e.net.DAI, owner))

		_, err = e.controller.Withdraw(ctx, owner)
		require.ErrorIs(t, err, domain.ErrEmptyPosition)
	})

	t.Run("with interest", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		e.net.Advance(365 * 24 * time.Hour)

		position, err := e.controller.Position(ctx)
		require.NoError(t, err)
		require.False(t, position.Yield.IsZero())

		op, err := e.controller.Withdraw(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, position.EstimatedValue, &op.UnderlyingOut)
		require.True(t, op.UnderlyingOut.Gt(units(t, "1049")))
		require.True(t, e.balance(t, e.net.DAI, self).IsZero())
		require.True(t, e.balance(t, e.net.CDAI, self).IsZero())
	})
}

func TestStrayUnderlying(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	faucet := func() {
		_, err := e.net.Faucet(self, "DAI", decimal.NewFromInt(5))
		require.NoError(t, err)
	}

	faucet()
	op := e.deposit(t, "1000")
	require.Equal(t, "1000000000000000000000", op.UnderlyingIn.Dec())
	require.True(t, e.balance(t, e.net.DAI, self).IsZero())
	// 1005 DAI at the initial exchange rate.
	require.Equal(t, "5025000000000", e.balance(t, e.net.CDAI, self).Dec())

	// Nothing accrued yet, only the stray underlying is reinvested.
	faucet()
	op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
	require.NoError(t, err)
	require.False(t, op.Noop)
	require.True(t, op.RewardClaimed.IsZero())
	require.True(t, op.SwapOutput.IsZero())
	require.Equal(t, units(t, "5"), &op.Compounded)
	require.True(t, e.balance(t, e.net.DAI, self).IsZero())

	e.net.Advance(24 * time.Hour)
	faucet()
	op, err = e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
	require.NoError(t, err)
	require.Equal(t, "8640000000000000000", op.RewardClaimed.Dec())
	expected := new(uint256.Int).Add(&op.SwapOutput, units(t, "5"))
	require.Equal(t, expected, &op.Compounded)
	require.True(t, e.balance(t, e.net.DAI, self).IsZero())
	require.True(t, e.balance(t, e.net.COMP, self).IsZero())

	faucet()
	op, err = e.controller.Withdraw(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000", op.Principal.Dec())
	require.True(t, e.balance(t, e.net.DAI, self).IsZero())
	require.True(t, e.balance(t, e.net.CDAI, self).IsZero())
	expected = new(uint256.Int).Add(units(t, "9000"), &op.UnderlyingOut)
	require.Equal(t, expected, e.balance(t, e.net.DAI, owner))
}

func TestLedgerReset(t *testing.T) {
	ctx := context.Background()
	previous := newTestEnv(t)
	previous.deposit(t, "1000")

	// A fresh environment keeping the position ledger, as after a restart
	// with a persistent store.
	e := newTestEnv(t, func(cfg *yield.Config) {
		cfg.RepoManager = previous.repoManager
	})

	position, err := e.controller.Position(ctx)
	require.NoError(t, err)
	require.True(t, position.Receipt.IsZero())
	require.True(t, position.Principal.IsZero())
	require.Zero(t, position.Deposits)

	e.deposit(t, "1000")
	position, err = e.controller.Position(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000", position.Principal.Dec())
	require.Equal(t, "5000000000000", position.Receipt.Dec())
	require.Equal(t, 1, position.Deposits)

	e.net.Advance(365 * 24 * time.Hour)
	op, err := e.controller.Withdraw(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000", op.Principal.Dec())
	require.False(t, op.RealizedYield.IsZero())
	expected := new(uint256.Int).Sub(&op.UnderlyingOut, units(t, "1000"))
	require.Equal(t, expected, &op.RealizedYield)
}

func TestHarvest(t *testing.T) {
	ctx := context.Background()

	t.Run("no reward is a noop", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		receipt := e.balance(t, e.net.CDAI, self)

		op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.NoError(t, err)
		require.True(t, op.Noop)
		require.True(t, op.Compounded.IsZero())
		require.Equal(t, receipt, e.balance(t, e.net.CDAI, self))
		require.Len(t, e.operations(t), 2)
	})

	t.Run("twice in a row", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		e.net.Advance(time.Hour)

		op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.NoError(t, err)
		require.False(t, op.Noop)
		receipt := e.balance(t, e.net.CDAI, self)

		op, err = e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.NoError(t, err)
		require.True(t, op.Noop)
		require.Equal(t, receipt, e.balance(t, e.net.CDAI, self))

		position, err := e.controller.Position(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, position.Harvests)
		require.Equal(t, "360000000000000000", position.TotalRewardClaimed.Dec())
	})

	t.Run("empty reward reserve", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		// 10,000,000s at 0.0001 COMP/s exceed the 1000 COMP reserve.
		e.net.Advance(10000001 * time.Second)

		op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.NoError(t, err)
		require.True(t, op.Noop)
	})

	t.Run("caller floor", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		e.net.Advance(24 * time.Hour)

		quote, err := e.net.Router.QuoteExactInput(
			ctx, units(t, "8.64"), e.controller.Info().SwapPath,
		)
		require.NoError(t, err)

		tooHigh := new(uint256.Int).AddUint64(quote, 1)
		_, err = e.controller.Harvest(ctx, stranger, yield.HarvestOptions{
			MinAmountOut: tooHigh,
		})
		require.ErrorIs(t, err, domain.ErrSlippageExceeded)
		require.True(t, e.balance(t, e.net.COMP, self).IsZero())
		require.Len(t, e.operations(t), 1)

		accrued, err := e.net.Market.AccruedRewards(self)
		require.NoError(t, err)
		require.Equal(t, "8640000000000000000", accrued.Dec())

		op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{
			MinAmountOut: quote,
		})
		require.NoError(t, err)
		require.Equal(t, quote, &op.MinAmountOut)
		require.Equal(t, quote, &op.SwapOutput)
	})

	t.Run("expired deadline", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		e.net.Advance(24 * time.Hour)

		_, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{
			Deadline: genesis,
		})
		require.ErrorIs(t, err, domain.ErrExpired)
		require.True(t, e.balance(t, e.net.COMP, self).IsZero())
	})

	t.Run("oracle floor", func(t *testing.T) {
		// The oracle values COMP well above what the pools pay for it.
		e := newTestEnv(t, func(cfg *yield.Config) {
			cfg.Oracle = fixedOracle{decimal.NewFromInt(1000)}
		})
		e.deposit(t, "1000")
		e.net.Advance(24 * time.Hour)

		_, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.ErrorIs(t, err, domain.ErrSlippageExceeded)
		require.True(t, e.balance(t, e.net.COMP, self).IsZero())
		require.Equal(t, "5000000000000", e.balance(t, e.net.CDAI, self).Dec())
	})

	t.Run("stale price", func(t *testing.T) {
		e := newTestEnv(t, func(cfg *yield.Config) {
			cfg.Oracle = staleOracle{}
		})
		e.deposit(t, "1000")
		e.net.Advance(24 * time.Hour)

		_, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.ErrorIs(t, err, domain.ErrStalePrice)
		require.True(t, e.balance(t, e.net.COMP, self).IsZero())

		position, err := e.controller.Position(ctx)
		require.NoError(t, err)
		require.Zero(t, position.Harvests)
	})

	t.Run("paused market", func(t *testing.T) {
		e := newTestEnv(t)
		e.deposit(t, "1000")
		e.net.Advance(24 * time.Hour)
		require.NoError(t, e.net.SetPaused(true))

		_, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.ErrorIs(t, err, domain.ErrMarketRejected)
		require.True(t, e.balance(t, e.net.COMP, self).IsZero())
		require.True(t, e.balance(t, e.net.DAI, self).IsZero())

		require.NoError(t, e.net.SetPaused(false))
		op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
		require.NoError(t, err)
		require.False(t, op.Noop)
	})
}

func TestConcurrentOperations(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.deposit(t, "1000")
	e.net.Advance(24 * time.Hour)

	const n = 8
	ops := make(chan *domain.Operation, n)
	errs := make(chan error, n)
	wg := &sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
			if err != nil {
				errs <- err
				return
			}
			ops <- op
		}()
	}
	wg.Wait()
	close(ops)
	close(errs)

	require.Empty(t, errs)
	compounded := 0
	for op := range ops {
		if !op.Noop {
			compounded++
		}
	}
	require.Equal(t, 1, compounded)
	require.Len(t, e.operations(t), n+1)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.deposit(t, "1000")

	_, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
	require.NoError(t, err)
	// The allowance was consumed by the first deposit.
	_, err = e.controller.Deposit(ctx, owner, units(t, "1"))
	require.Error(t, err)

	count, err := testutil.GatherAndCount(e.registry, "yield_controller_operations_total")
	require.NoError(t, err)
	// deposit/success, harvest/noop, withdraw/failure
	require.Equal(t, 3, count)
}

func TestPublishOperations(t *testing.T) {
	ctx := context.Background()
	ps := &chanPubSub{messages: make(chan string, 1)}
	e := newTestEnv(t, func(cfg *yield.Config) {
		cfg.PubSub = pubsub.NewService(ps)
	})

	op := e.deposit(t, "1000")

	select {
	case msg := <-ps.messages:
		require.Contains(t, msg, op.ID)
		require.Contains(t, msg, `"underlying_in":"1000000000000000000000"`)
	case <-time.After(5 * time.Second):
		t.Fatal("operation not published")
	}

	ps.fail = true
	_, err := e.controller.Harvest(ctx, stranger, yield.HarvestOptions{})
	require.NoError(t, err)
}

func TestInfo(t *testing.T) {
	e := newTestEnv(t)

	info := e.controller.Info()
	require.Equal(t, devnet.DAIAddress, e.controller.UnderlyingAsset())
	require.Equal(t, owner, info.Owner)
	require.Equal(t, self, info.Address)
	require.Equal(t, "DAI", info.Underlying.Symbol)
	require.Equal(t, "cDAI", info.Receipt.Symbol)
	require.Equal(t, uint8(8), info.Receipt.Decimals)
	require.Equal(t, "COMP", info.Reward.Symbol)
	require.Equal(t, devnet.CDAIAddress, info.Market)
	require.Equal(t, devnet.RouterAddress, info.Exchange)
	require.Len(t, info.SwapPath, 3)
	require.True(t, info.Slippage.Equal(yield.DefaultSlippage))
	require.Equal(t, yield.DefaultSwapDeadline, info.SwapDeadline)
}

func TestOperationHistory(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	deposit := e.deposit(t, "100")
	e.net.Advance(time.Minute)
	e.deposit(t, "200")

	page := domain.NewPage(1, 1)
	ops, err := e.controller.ListOperations(ctx, &page)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "200000000000000000000", ops[0].UnderlyingIn.Dec())

	op, err := e.controller.GetOperation(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, genesis.Unix(), op.Timestamp)
	require.Equal(t, owner, op.Caller)

	_, err = e.controller.GetOperation(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrOperationNotFound)
}

type fixedOracle struct {
	price decimal.Decimal
}

func (o fixedOracle) Price(
	_ context.Context, _, _ common.Address,
) (*ports.PriceQuote, error) {
	return &ports.PriceQuote{Price: o.price, Timestamp: genesis, Source: "fixed"}, nil
}

type staleOracle struct{}

func (staleOracle) Price(
	_ context.Context, _, _ common.Address,
) (*ports.PriceQuote, error) {
	return nil, domain.ErrStalePrice
}

type chanPubSub struct {
	messages chan string
	fail     bool
}

func (p *chanPubSub) Subscribe(_, _, _ string) (string, error) { return "", nil }
func (p *chanPubSub) Unsubscribe(_, _ string) error            { return nil }
func (p *chanPubSub) ListSubscriptionsForTopic(_ string) []ports.Subscription {
	return nil
}
func (p *chanPubSub) Close() error { return nil }

func (p *chanPubSub) Publish(_ string, message string) error {
	if p.fail {
		return errors.New("endpoint unreachable")
	}
	p.messages <- message
	return nil
}
