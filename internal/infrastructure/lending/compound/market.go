// Package compound simulates a Compound-style lending market on top of the
// in-process ledger: suppliers receive a receipt token redeemable at an
// exchange rate that grows with time, and accrue a reward token at a fixed
// speed shared pro-rata among them.
package compound

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

const (
	slotPaused           = "paused"
	slotAccrualTimestamp = "accrualTimestamp"
	slotRewardIndex      = "rewardIndex"
	slotHolderIndex      = "holderIndex:"
	slotHolderAccrued    = "holderAccrued:"
)

// Config holds the parameters of a market.
type Config struct {
	Ledger     *ledger.Ledger
	Address    common.Address
	Underlying *ledger.Token
	Receipt    *ledger.Token
	Reward     *ledger.Token
	// InitialExchangeRate is the underlying mantissa returned for one receipt
	// mantissa, scaled by 1e18, while the market is empty.
	InitialExchangeRate *uint256.Int
	// SupplyRatePerSecond is the interest earned by the market cash each
	// second, scaled by 1e18.
	SupplyRatePerSecond *uint256.Int
	// RewardSpeed is the reward mantissa distributed each second among all
	// receipt holders.
	RewardSpeed *uint256.Int
}

func (c Config) validate() error {
	if c.Ledger == nil {
		return fmt.Errorf("missing ledger")
	}
	if c.Address == (common.Address{}) {
		return fmt.Errorf("missing market address")
	}
	if c.Underlying == nil {
		return fmt.Errorf("missing underlying token")
	}
	if c.Receipt == nil {
		return fmt.Errorf("missing receipt token")
	}
	if c.Reward == nil {
		return fmt.Errorf("missing reward token")
	}
	if c.InitialExchangeRate == nil || c.InitialExchangeRate.IsZero() {
		return fmt.Errorf("initial exchange rate must be greater than zero")
	}
	return nil
}

// Market implements ports.LendingMarket. All of its state lives in ledger
// slots, so that it's rolled back together with balances.
type Market struct {
	ledger      *ledger.Ledger
	address     common.Address
	underlying  *ledger.Token
	receipt     *ledger.Token
	reward      *ledger.Token
	initialRate *uint256.Int
	supplyRate  *uint256.Int
	rewardSpeed *uint256.Int
}

// NewMarket returns a new market accruing from the current ledger time.
func NewMarket(cfg Config) (*Market, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	supplyRate := cfg.SupplyRatePerSecond
	if supplyRate == nil {
		supplyRate = uint256.NewInt(0)
	}
	rewardSpeed := cfg.RewardSpeed
	if rewardSpeed == nil {
		rewardSpeed = uint256.NewInt(0)
	}

	m := &Market{
		ledger:      cfg.Ledger,
		address:     cfg.Address,
		underlying:  cfg.Underlying,
		receipt:     cfg.Receipt,
		reward:      cfg.Reward,
		initialRate: cfg.InitialExchangeRate.Clone(),
		supplyRate:  supplyRate.Clone(),
		rewardSpeed: rewardSpeed.Clone(),
	}
	m.store(slotAccrualTimestamp, uint256.NewInt(uint64(m.ledger.Now().Unix())))
	return m, nil
}

func (m *Market) Address() common.Address {
	return m.address
}

func (m *Market) Underlying() common.Address {
	return m.underlying.Address()
}

func (m *Market) Receipt() ports.Asset {
	return m.receipt
}

func (m *Market) RewardAsset() ports.Asset {
	return m.reward
}

// IsPaused returns whether supplying is currently rejected.
func (m *Market) IsPaused() bool {
	return !m.load(slotPaused).IsZero()
}

// SetPaused pauses or resumes supplying.
func (m *Market) SetPaused(paused bool) {
	v := uint256.NewInt(0)
	if paused {
		v.SetOne()
	}
	m.store(slotPaused, v)
	log.Debugf("market %s paused: %t", m.receipt.Symbol(), paused)
}

func (m *Market) Supply(
	ctx context.Context, supplier common.Address, amount *uint256.Int,
) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	if m.IsPaused() {
		return nil, fmt.Errorf("%w: market is paused", domain.ErrMarketRejected)
	}

	if err := m.accrue(); err != nil {
		return nil, err
	}
	if err := m.distribute(supplier); err != nil {
		return nil, err
	}

	rate, err := m.exchangeRate()
	if err != nil {
		return nil, err
	}
	minted, err := mathutil.MulDiv(amount, mathutil.Wad, rate)
	if err != nil {
		return nil, err
	}
	if minted.IsZero() {
		return nil, fmt.Errorf(
			"%w: amount too low to mint any %s", domain.ErrMarketRejected,
			m.receipt.Symbol(),
		)
	}

	if err := m.underlying.TransferFrom(
		ctx, m.address, supplier, m.address, amount,
	); err != nil {
		return nil, err
	}
	if err := m.receipt.Mint(supplier, minted); err != nil {
		return nil, err
	}
	return minted, nil
}

func (m *Market) Redeem(
	ctx context.Context, redeemer common.Address, receiptAmount *uint256.Int,
) (*uint256.Int, error) {
	if receiptAmount == nil || receiptAmount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	if err := m.accrue(); err != nil {
		return nil, err
	}
	if err := m.distribute(redeemer); err != nil {
		return nil, err
	}

	rate, err := m.exchangeRate()
	if err != nil {
		return nil, err
	}
	amount, err := mathutil.MulDiv(receiptAmount, rate, mathutil.Wad)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, fmt.Errorf(
			"%w: amount too low to redeem any %s", domain.ErrMarketRejected,
			m.underlying.Symbol(),
		)
	}
	cash, _ := m.underlying.BalanceOf(ctx, m.address)
	if cash.Lt(amount) {
		return nil, domain.ErrInsufficientLiquidity
	}

	if err := m.receipt.Burn(redeemer, receiptAmount); err != nil {
		return nil, err
	}
	if err := m.underlying.Transfer(ctx, m.address, redeemer, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// ClaimRewards transfers the rewards accrued by holder. Nothing is transferred
// if the market reward reserve can't cover them, the accrued amount is kept
// for a later claim instead.
func (m *Market) ClaimRewards(
	ctx context.Context, holder common.Address,
) (*uint256.Int, error) {
	if err := m.accrue(); err != nil {
		return nil, err
	}
	if err := m.distribute(holder); err != nil {
		return nil, err
	}

	accrued := m.load(slotHolderAccrued + holder.Hex())
	if accrued.IsZero() {
		return accrued, nil
	}
	reserve, _ := m.reward.BalanceOf(ctx, m.address)
	if reserve.Lt(accrued) {
		log.Warnf(
			"market %s: reward reserve too low to pay %s %s",
			m.receipt.Symbol(), accrued.Dec(), m.reward.Symbol(),
		)
		return uint256.NewInt(0), nil
	}

	if err := m.reward.Transfer(ctx, m.address, holder, accrued); err != nil {
		return nil, err
	}
	m.store(slotHolderAccrued+holder.Hex(), uint256.NewInt(0))
	return accrued, nil
}

// ExchangeRate returns the rate the market would apply right now, including
// interest not yet accrued.
func (m *Market) ExchangeRate(_ context.Context) (*uint256.Int, error) {
	cash, _, err := m.pendingCash()
	if err != nil {
		return nil, err
	}
	return m.rateFor(cash)
}

// AccruedRewards returns the rewards holder could claim right now.
func (m *Market) AccruedRewards(holder common.Address) (*uint256.Int, error) {
	index, err := m.pendingRewardIndex()
	if err != nil {
		return nil, err
	}
	delta, err := m.holderDelta(holder, index)
	if err != nil {
		return nil, err
	}
	return mathutil.Add(m.load(slotHolderAccrued+holder.Hex()), delta)
}

// accrue books interest and advances the reward index up to the ledger time.
func (m *Market) accrue() error {
	now := uint256.NewInt(uint64(m.ledger.Now().Unix()))

	cash, interest, err := m.pendingCash()
	if err != nil {
		return err
	}
	index, err := m.pendingRewardIndex()
	if err != nil {
		return err
	}
	if !interest.IsZero() {
		if err := m.underlying.Mint(m.address, interest); err != nil {
			return err
		}
		log.Debugf(
			"market %s: accrued %s %s interest, cash %s",
			m.receipt.Symbol(), interest.Dec(), m.underlying.Symbol(), cash.Dec(),
		)
	}
	m.store(slotRewardIndex, index)
	m.store(slotAccrualTimestamp, now)
	return nil
}

// distribute books the rewards earned by holder since its last update. It
// must run before its receipt balance changes.
func (m *Market) distribute(holder common.Address) error {
	index := m.load(slotRewardIndex)
	delta, err := m.holderDelta(holder, index)
	if err != nil {
		return err
	}
	accrued, err := mathutil.Add(m.load(slotHolderAccrued+holder.Hex()), delta)
	if err != nil {
		return err
	}
	m.store(slotHolderAccrued+holder.Hex(), accrued)
	m.store(slotHolderIndex+holder.Hex(), index)
	return nil
}

func (m *Market) holderDelta(
	holder common.Address, index *uint256.Int,
) (*uint256.Int, error) {
	holderIndex := m.load(slotHolderIndex + holder.Hex())
	if !holderIndex.Lt(index) {
		return uint256.NewInt(0), nil
	}
	balance, _ := m.receipt.BalanceOf(context.Background(), holder)
	return mathutil.MulDiv(
		balance, new(uint256.Int).Sub(index, holderIndex), mathutil.DoubleWad,
	)
}

func (m *Market) elapsed() *uint256.Int {
	now := uint64(m.ledger.Now().Unix())
	last := m.load(slotAccrualTimestamp).Uint64()
	if now <= last {
		return uint256.NewInt(0)
	}
	return uint256.NewInt(now - last)
}

// pendingCash returns the market cash including the interest accrued since
// the last accrual, and the interest alone.
func (m *Market) pendingCash() (cash, interest *uint256.Int, err error) {
	cash, _ = m.underlying.BalanceOf(context.Background(), m.address)
	interest = uint256.NewInt(0)
	if m.receipt.TotalSupply().IsZero() {
		return
	}

	rate, err := mathutil.MulDiv(m.supplyRate, m.elapsed(), uint256.NewInt(1))
	if err != nil {
		return nil, nil, err
	}
	if interest, err = mathutil.MulDiv(cash, rate, mathutil.Wad); err != nil {
		return nil, nil, err
	}
	cash, err = mathutil.Add(cash, interest)
	return
}

func (m *Market) pendingRewardIndex() (*uint256.Int, error) {
	index := m.load(slotRewardIndex)
	supply := m.receipt.TotalSupply()
	if supply.IsZero() || m.rewardSpeed.IsZero() {
		return index, nil
	}

	distributed, err := mathutil.MulDiv(m.rewardSpeed, m.elapsed(), uint256.NewInt(1))
	if err != nil {
		return nil, err
	}
	increment, err := mathutil.MulDiv(distributed, mathutil.DoubleWad, supply)
	if err != nil {
		return nil, err
	}
	return mathutil.Add(index, increment)
}

func (m *Market) exchangeRate() (*uint256.Int, error) {
	cash, _ := m.underlying.BalanceOf(context.Background(), m.address)
	return m.rateFor(cash)
}

func (m *Market) rateFor(cash *uint256.Int) (*uint256.Int, error) {
	supply := m.receipt.TotalSupply()
	if supply.IsZero() {
		return m.initialRate.Clone(), nil
	}
	return mathutil.MulDiv(cash, mathutil.Wad, supply)
}

func (m *Market) load(key string) *uint256.Int {
	return m.ledger.Load(m.address, key)
}

func (m *Market) store(key string, value *uint256.Int) {
	m.ledger.Store(m.address, key, value)
}

var _ ports.LendingMarket = (*Market)(nil)
