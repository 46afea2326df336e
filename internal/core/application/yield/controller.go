// Package yield implements the single-strategy yield controller: it supplies
// the owner's underlying asset to a lending market, compounds the market
// rewards back into the position and pays everything out on withdraw.
package yield

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/storageutil/uow"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
	"github.com/tdex-network/tdex-yield/pkg/stats"
	"golang.org/x/sync/semaphore"
)

var (
	// DefaultSlippage is the fraction of the oracle estimate a harvest swap
	// is allowed to lose.
	DefaultSlippage = decimal.NewFromFloat(0.05)
	// DefaultSwapDeadline is how long a harvest swap stays valid.
	DefaultSwapDeadline = 5 * time.Minute
	// DefaultGuardTimeout is how long an operation waits for the one in
	// progress to complete.
	DefaultGuardTimeout = 30 * time.Second
)

// Config holds the identities the controller is bound to. They are
// validated once at construction.
type Config struct {
	// Address is the account the controller holds funds with.
	Address common.Address
	// Owner is the only account allowed to deposit and withdraw.
	Owner common.Address

	Underlying ports.Asset
	Market     ports.LendingMarket
	Exchange   ports.Exchange
	Oracle     ports.PriceOracle
	Clock      ports.Clock

	RepoManager ports.RepoManager
	// Ledger makes the balances of the environment join the unit of work of
	// every operation, if defined.
	Ledger uow.Transactional

	PubSub  *pubsub.Service
	Metrics *stats.ControllerMetrics

	// SwapPath is the route used to convert the reward into the underlying.
	// Defaults to the direct pair.
	SwapPath []common.Address
	// Slippage bounds the harvest swap floor below the oracle estimate.
	// Defaults to DefaultSlippage if nil; zero requires the full estimate.
	Slippage     *decimal.Decimal
	SwapDeadline time.Duration
	GuardTimeout time.Duration
}

func (c *Config) validate() error {
	if c.Address == (common.Address{}) {
		return fmt.Errorf("missing controller address")
	}
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("missing owner address")
	}
	if c.Owner == c.Address {
		return fmt.Errorf("owner must not be the controller itself")
	}
	if c.Underlying == nil {
		return fmt.Errorf("missing underlying asset")
	}
	if c.Market == nil {
		return fmt.Errorf("missing lending market")
	}
	if c.Exchange == nil {
		return fmt.Errorf("missing exchange")
	}
	if c.Oracle == nil {
		return fmt.Errorf("missing price oracle")
	}
	if c.Clock == nil {
		return fmt.Errorf("missing clock")
	}
	if c.RepoManager == nil {
		return fmt.Errorf("missing repo manager")
	}
	if c.Market.Underlying() != c.Underlying.Address() {
		return fmt.Errorf(
			"market underlying %s does not match asset %s",
			c.Market.Underlying(), c.Underlying.Address(),
		)
	}
	if c.Market.Receipt() == nil || c.Market.RewardAsset() == nil {
		return fmt.Errorf("market must expose receipt and reward assets")
	}

	reward := c.Market.RewardAsset().Address()
	if reward == c.Underlying.Address() {
		return fmt.Errorf("reward asset must differ from underlying")
	}
	if len(c.SwapPath) <= 0 {
		c.SwapPath = []common.Address{reward, c.Underlying.Address()}
	}
	if err := validatePath(c.SwapPath, reward, c.Underlying.Address()); err != nil {
		return err
	}

	if c.Slippage == nil {
		slippage := DefaultSlippage
		c.Slippage = &slippage
	}
	if c.Slippage.IsNegative() || c.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("slippage must be in range [0, 1)")
	}
	if c.SwapDeadline <= 0 {
		c.SwapDeadline = DefaultSwapDeadline
	}
	if c.GuardTimeout <= 0 {
		c.GuardTimeout = DefaultGuardTimeout
	}
	return nil
}

func validatePath(path []common.Address, from, to common.Address) error {
	if len(path) < 2 {
		return fmt.Errorf("%w: too short", domain.ErrInvalidPath)
	}
	if path[0] != from {
		return fmt.Errorf("%w: must start with reward asset", domain.ErrInvalidPath)
	}
	if path[len(path)-1] != to {
		return fmt.Errorf("%w: must end with underlying asset", domain.ErrInvalidPath)
	}
	seen := make(map[common.Address]struct{}, len(path))
	for _, asset := range path {
		if _, ok := seen[asset]; ok {
			return fmt.Errorf("%w: %s repeated", domain.ErrInvalidPath, asset)
		}
		seen[asset] = struct{}{}
	}
	return nil
}

// Controller orchestrates deposit, withdraw and harvest. Operations are
// mutually exclusive and each runs as a single unit of work: either every
// balance and ledger change applies, or none does.
type Controller struct {
	address    common.Address
	owner      common.Address
	underlying ports.Asset
	receipt    ports.Asset
	reward     ports.Asset
	market     ports.LendingMarket
	exchange   ports.Exchange
	oracle     ports.PriceOracle
	clock      ports.Clock

	repoManager ports.RepoManager
	unitOfWork  *uow.UnitOfWork
	pubsub      *pubsub.Service
	metrics     *stats.ControllerMetrics

	swapPath     []common.Address
	slippage     decimal.Decimal
	swapDeadline time.Duration

	guard        *semaphore.Weighted
	guardTimeout time.Duration
}

func NewController(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	metrics := cfg.Metrics
	if metrics == nil {
		m, err := stats.NewControllerMetrics(nil)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	transactionals := []uow.Transactional{cfg.RepoManager}
	if cfg.Ledger != nil {
		transactionals = append(transactionals, cfg.Ledger)
	}

	path := make([]common.Address, len(cfg.SwapPath))
	copy(path, cfg.SwapPath)

	return &Controller{
		address:      cfg.Address,
		owner:        cfg.Owner,
		underlying:   cfg.Underlying,
		receipt:      cfg.Market.Receipt(),
		reward:       cfg.Market.RewardAsset(),
		market:       cfg.Market,
		exchange:     cfg.Exchange,
		oracle:       cfg.Oracle,
		clock:        cfg.Clock,
		repoManager:  cfg.RepoManager,
		unitOfWork:   uow.NewUnitOfWork(transactionals...),
		pubsub:       cfg.PubSub,
		metrics:      metrics,
		swapPath:     path,
		slippage:     *cfg.Slippage,
		swapDeadline: cfg.SwapDeadline,
		guard:        semaphore.NewWeighted(1),
		guardTimeout: cfg.GuardTimeout,
	}, nil
}

// UnderlyingAsset returns the address of the asset deposits are made in.
func (c *Controller) UnderlyingAsset() common.Address {
	return c.underlying.Address()
}

// Info returns the static configuration of the controller.
func (c *Controller) Info() Info {
	path := make([]common.Address, len(c.swapPath))
	copy(path, c.swapPath)

	return Info{
		Address:      c.address,
		Owner:        c.owner,
		Underlying:   assetInfo(c.underlying),
		Receipt:      assetInfo(c.receipt),
		Reward:       assetInfo(c.reward),
		Market:       c.market.Address(),
		Exchange:     c.exchange.Address(),
		SwapPath:     path,
		Slippage:     c.slippage,
		SwapDeadline: c.swapDeadline,
	}
}

// Position returns the live view of the position. Amounts are read from the
// balances the controller holds, the ledger only adds bookkeeping.
func (c *Controller) Position(ctx context.Context) (*PositionInfo, error) {
	ctx, release, err := c.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	position, err := c.repoManager.PositionRepository().GetPosition(ctx, c.owner)
	if err != nil {
		return nil, err
	}
	receipt, err := c.receipt.BalanceOf(ctx, c.address)
	if err != nil {
		return nil, err
	}
	rate, err := c.market.ExchangeRate(ctx)
	if err != nil {
		return nil, err
	}
	value, err := mathutil.MulDiv(receipt, rate, mathutil.Wad)
	if err != nil {
		return nil, err
	}
	if position.Reconcile(receipt, c.clock.Now().Unix()) {
		log.WithField("receipt", receipt.Dec()).Debug(
			"position bookkeeping out of sync with receipt balance",
		)
	}

	return &PositionInfo{
		Owner:              c.owner,
		Receipt:            receipt,
		ExchangeRate:       rate,
		EstimatedValue:     value,
		Principal:          position.Principal.Clone(),
		Yield:              position.Yield(value),
		TotalRewardClaimed: position.TotalRewardClaimed.Clone(),
		TotalCompounded:    position.TotalCompounded.Clone(),
		Deposits:           position.Deposits,
		Harvests:           position.Harvests,
		OpenedAt:           position.OpenedAt,
		LastHarvestAt:      position.LastHarvestAt,
	}, nil
}

// ListOperations returns the audit trail, most recent first.
func (c *Controller) ListOperations(
	ctx context.Context, page *domain.Page,
) ([]domain.Operation, error) {
	return c.repoManager.OperationRepository().ListOperations(ctx, page)
}

// GetOperation returns the operation with the given id.
func (c *Controller) GetOperation(
	ctx context.Context, id string,
) (*domain.Operation, error) {
	return c.repoManager.OperationRepository().GetOperation(ctx, id)
}

// run executes fn as a unit of work, records the operation it returns and
// notifies it once committed.
func (c *Controller) run(
	ctx context.Context, opType domain.OperationType, caller common.Address,
	fn func(ctx context.Context, op *domain.Operation) error,
) (*domain.Operation, error) {
	start := time.Now()

	ctx, release, err := c.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var op *domain.Operation
	err = c.unitOfWork.Run(ctx, func(ctx context.Context) error {
		op = domain.NewOperation(opType, caller, c.clock.Now().Unix())
		if err := fn(ctx, op); err != nil {
			return err
		}
		return c.repoManager.OperationRepository().AddOperation(ctx, op)
	})

	outcome := stats.OutcomeSuccess
	if err != nil {
		outcome = stats.OutcomeFailure
	} else if op.Noop {
		outcome = stats.OutcomeNoop
	}
	c.metrics.ObserveOperation(opType.String(), outcome, start)

	if err != nil {
		log.WithError(err).Warnf("%s failed", opType)
		return nil, err
	}

	c.updateGauges(ctx, op)
	c.publish(*op)
	return op, nil
}

func (c *Controller) updateGauges(ctx context.Context, op *domain.Operation) {
	if receipt, err := c.receipt.BalanceOf(ctx, c.address); err == nil {
		f, _ := mathutil.ToDecimal(receipt, c.receipt.Decimals()).Float64()
		c.metrics.SetReceiptBalance(f)
	}
	if op.IsHarvest() {
		f, _ := mathutil.ToDecimal(&op.Compounded, c.underlying.Decimals()).Float64()
		c.metrics.SetLastCompounded(f)
	}
}

func (c *Controller) publish(op domain.Operation) {
	if c.pubsub == nil {
		return
	}
	go func() {
		if err := c.pubsub.PublishOperationEvent(op); err != nil {
			log.WithError(err).Warnf("failed to publish %s event", op.Type)
		}
	}()
}

// checkBalance returns ErrPostconditionViolated unless the controller holds
// exactly the expected amount of asset.
func (c *Controller) checkBalance(
	ctx context.Context, asset ports.Asset, expected *uint256.Int, step string,
) error {
	balance, err := asset.BalanceOf(ctx, c.address)
	if err != nil {
		return err
	}
	if !balance.Eq(expected) {
		return fmt.Errorf(
			"%w: %s: expected %s balance %s, got %s",
			domain.ErrPostconditionViolated, step, asset.Symbol(),
			expected.Dec(), balance.Dec(),
		)
	}
	return nil
}

// checkAllowance returns ErrPostconditionViolated if spender can still move
// any of the controller funds.
func (c *Controller) checkAllowance(
	ctx context.Context, asset ports.Asset, spender common.Address, step string,
) error {
	allowance, err := asset.Allowance(ctx, c.address, spender)
	if err != nil {
		return err
	}
	if !allowance.IsZero() {
		return fmt.Errorf(
			"%w: %s: %s allowance left to %s",
			domain.ErrPostconditionViolated, step, allowance.Dec(), spender,
		)
	}
	return nil
}

func (c *Controller) balanceOf(
	ctx context.Context, asset ports.Asset,
) (*uint256.Int, error) {
	return asset.BalanceOf(ctx, c.address)
}

func assetInfo(a ports.Asset) AssetInfo {
	return AssetInfo{a.Address(), a.Symbol(), a.Decimals()}
}
