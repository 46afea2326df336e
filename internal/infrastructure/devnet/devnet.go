// Package devnet assembles an in-process environment the controller can run
// against: a ledger with DAI, cDAI, COMP and WETH, a Compound-style DAI
// market rewarding COMP and a Uniswap-style router over COMP/WETH and
// WETH/DAI pools.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/exchange/amm"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/lending/compound"
	spotoracle "github.com/tdex-network/tdex-yield/internal/infrastructure/oracle/spot"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

var (
	DAIAddress         = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	CDAIAddress        = common.HexToAddress("0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643")
	COMPAddress        = common.HexToAddress("0xc00e94Cb662C3520282E6f5717214004A7f26888")
	WETHAddress        = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	RouterAddress      = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	ComptrollerAddress = common.HexToAddress("0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B")
	COMPWETHPool       = common.HexToAddress("0xCFfDdeD873554F362Ac02f8Fb1F02E5ada10516f")
	WETHDAIPool        = common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11")
	// ControllerAddress is the account the yield controller holds funds with.
	ControllerAddress = common.HexToAddress("0x000000000000000000000000000000000000c0de")

	// InitialExchangeRate is the cDAI rate of an empty market: 0.02 DAI per
	// cDAI, scaled by 1e18 and by the 10 decimals gap.
	InitialExchangeRate = uint256.MustFromDecimal("200000000000000000000000000")

	ErrUnknownToken = errors.New("unknown token")
)

const secondsPerYear = 365 * 24 * 60 * 60

// Config holds the tunables of the devnet. Amounts are whole units.
type Config struct {
	Genesis time.Time
	// SupplyRate is the yearly interest rate of the DAI market (ie. 0.05).
	SupplyRate decimal.Decimal
	// RewardSpeed is the COMP distributed each second to DAI suppliers.
	RewardSpeed decimal.Decimal
	// RewardReserve is the COMP held by the comptroller to pay rewards.
	RewardReserve decimal.Decimal
	// Owner, if defined, receives OwnerFunds DAI at genesis.
	Owner      common.Address
	OwnerFunds decimal.Decimal
}

// Devnet is the assembled environment.
type Devnet struct {
	Ledger *ledger.Ledger
	DAI    *ledger.Token
	CDAI   *ledger.Token
	COMP   *ledger.Token
	WETH   *ledger.Token
	Market *compound.Market
	Router *amm.Router
	Oracle ports.PriceOracle

	tokens map[string]*ledger.Token
}

// New creates and funds the devnet.
func New(cfg Config) (*Devnet, error) {
	if cfg.Genesis.IsZero() {
		cfg.Genesis = time.Now().UTC().Truncate(time.Second)
	}
	if cfg.SupplyRate.IsNegative() || cfg.RewardSpeed.IsNegative() {
		return nil, fmt.Errorf("rates must not be negative")
	}
	l := ledger.New(cfg.Genesis)

	dai, err := ledger.NewToken(l, DAIAddress, "DAI", 18)
	if err != nil {
		return nil, err
	}
	cdai, err := ledger.NewToken(l, CDAIAddress, "cDAI", 8)
	if err != nil {
		return nil, err
	}
	comp, err := ledger.NewToken(l, COMPAddress, "COMP", 18)
	if err != nil {
		return nil, err
	}
	weth, err := ledger.NewToken(l, WETHAddress, "WETH", 18)
	if err != nil {
		return nil, err
	}

	supplyRate, err := mathutil.FromDecimal(
		cfg.SupplyRate.Div(decimal.NewFromInt(secondsPerYear)), 18,
	)
	if err != nil {
		return nil, err
	}
	rewardSpeed, err := mathutil.FromDecimal(cfg.RewardSpeed, comp.Decimals())
	if err != nil {
		return nil, err
	}
	market, err := compound.NewMarket(compound.Config{
		Ledger:              l,
		Address:             CDAIAddress,
		Underlying:          dai,
		Receipt:             cdai,
		Reward:              comp,
		InitialExchangeRate: InitialExchangeRate,
		SupplyRatePerSecond: supplyRate,
		RewardSpeed:         rewardSpeed,
	})
	if err != nil {
		return nil, err
	}

	router, err := amm.NewRouter(l, RouterAddress, amm.DefaultFee)
	if err != nil {
		return nil, err
	}
	if err := router.AddPool(COMPWETHPool, comp, weth); err != nil {
		return nil, err
	}
	if err := router.AddPool(WETHDAIPool, weth, dai); err != nil {
		return nil, err
	}

	oracle, err := spotoracle.NewSpotOracle(router, l)
	if err != nil {
		return nil, err
	}

	d := &Devnet{
		Ledger: l,
		DAI:    dai,
		CDAI:   cdai,
		COMP:   comp,
		WETH:   weth,
		Market: market,
		Router: router,
		Oracle: oracle,
		tokens: map[string]*ledger.Token{
			"DAI": dai, "CDAI": cdai, "COMP": comp, "WETH": weth,
		},
	}

	funds := []struct {
		token   *ledger.Token
		account common.Address
		amount  decimal.Decimal
	}{
		{comp, COMPWETHPool, decimal.NewFromInt(50000)},
		{weth, COMPWETHPool, decimal.NewFromInt(10000)},
		{weth, WETHDAIPool, decimal.NewFromInt(10000)},
		{dai, WETHDAIPool, decimal.NewFromInt(20000000)},
		// The market pays rewards out of its own reserve, topped up by the
		// comptroller.
		{comp, CDAIAddress, cfg.RewardReserve},
	}
	if cfg.Owner != (common.Address{}) {
		funds = append(funds, struct {
			token   *ledger.Token
			account common.Address
			amount  decimal.Decimal
		}{dai, cfg.Owner, cfg.OwnerFunds})
	}
	for _, f := range funds {
		if err := d.mint(f.token, f.account, f.amount); err != nil {
			return nil, err
		}
	}

	log.Infof(
		"devnet: genesis %s, supply rate %s, reward speed %s COMP/s",
		cfg.Genesis.Format(time.RFC3339), cfg.SupplyRate, cfg.RewardSpeed,
	)
	return d, nil
}

// Token returns the token with the given symbol (case insensitive) or
// address.
func (d *Devnet) Token(symbolOrAddress string) (*ledger.Token, error) {
	if t, ok := d.tokens[strings.ToUpper(symbolOrAddress)]; ok {
		return t, nil
	}
	if common.IsHexAddress(symbolOrAddress) {
		addr := common.HexToAddress(symbolOrAddress)
		for _, t := range d.tokens {
			if t.Address() == addr {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownToken, symbolOrAddress)
}

// Tokens returns all tokens sorted by symbol.
func (d *Devnet) Tokens() []*ledger.Token {
	tokens := make([]*ledger.Token, 0, len(d.tokens))
	for _, t := range d.tokens {
		tokens = append(tokens, t)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Symbol() < tokens[j].Symbol()
	})
	return tokens
}

// ResolvePath converts a list of symbols or addresses into a swap path.
func (d *Devnet) ResolvePath(assets []string) ([]common.Address, error) {
	path := make([]common.Address, 0, len(assets))
	for _, a := range assets {
		t, err := d.Token(strings.TrimSpace(a))
		if err != nil {
			return nil, err
		}
		path = append(path, t.Address())
	}
	return path, nil
}

// Faucet mints amount whole units of token to account.
func (d *Devnet) Faucet(
	account common.Address, token string, amount decimal.Decimal,
) (*uint256.Int, error) {
	t, err := d.Token(token)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	if t == d.CDAI {
		return nil, fmt.Errorf("%s can only be minted by supplying to the market", t.Symbol())
	}
	value, err := mathutil.FromDecimal(amount, t.Decimals())
	if err != nil {
		return nil, err
	}
	if err := d.Ledger.Atomic(func() error {
		return t.Mint(account, value)
	}); err != nil {
		return nil, err
	}
	return value, nil
}

// Approve sets the allowance of spender over the owner's token. A zero
// amount revokes it, a negative one grants unlimited allowance.
func (d *Devnet) Approve(
	ctx context.Context, owner, spender common.Address, token string,
	amount decimal.Decimal,
) error {
	t, err := d.Token(token)
	if err != nil {
		return err
	}
	value := ledger.MaxAllowance
	if !amount.IsNegative() {
		if value, err = mathutil.FromDecimal(amount, t.Decimals()); err != nil {
			return err
		}
	}
	return d.Ledger.Atomic(func() error {
		return t.Approve(ctx, owner, spender, value)
	})
}

// Advance moves the ledger clock forward.
func (d *Devnet) Advance(duration time.Duration) time.Time {
	d.Ledger.Advance(duration)
	return d.Ledger.Now()
}

// SetPaused pauses or resumes supplies to the market.
func (d *Devnet) SetPaused(paused bool) error {
	return d.Ledger.Atomic(func() error {
		d.Market.SetPaused(paused)
		return nil
	})
}

// Balances returns the balances of account keyed by token symbol, in whole
// units.
func (d *Devnet) Balances(
	ctx context.Context, account common.Address,
) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal, len(d.tokens))
	for _, t := range d.Tokens() {
		b, err := t.BalanceOf(ctx, account)
		if err != nil {
			return nil, err
		}
		balances[t.Symbol()] = mathutil.ToDecimal(b, t.Decimals())
	}
	return balances, nil
}

func (d *Devnet) mint(
	t *ledger.Token, account common.Address, amount decimal.Decimal,
) error {
	if !amount.IsPositive() {
		return nil
	}
	value, err := mathutil.FromDecimal(amount, t.Decimals())
	if err != nil {
		return err
	}
	return t.Mint(account, value)
}
