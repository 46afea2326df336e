package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
)

// Token is an ERC20-like asset whose balances live in a Ledger.
type Token struct {
	ledger   *Ledger
	address  common.Address
	symbol   string
	decimals uint8
}

// NewToken registers a token on the ledger.
func NewToken(
	l *Ledger, address common.Address, symbol string, decimals uint8,
) (*Token, error) {
	if l == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("missing token address")
	}
	if len(symbol) <= 0 {
		return nil, fmt.Errorf("missing token symbol")
	}
	return &Token{l, address, symbol, decimals}, nil
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) Decimals() uint8 {
	return t.decimals
}

func (t *Token) BalanceOf(
	_ context.Context, account common.Address,
) (*uint256.Int, error) {
	return t.ledger.balanceOf(t.address, account), nil
}

func (t *Token) Allowance(
	_ context.Context, owner, spender common.Address,
) (*uint256.Int, error) {
	return t.ledger.allowance(t.address, owner, spender), nil
}

func (t *Token) TotalSupply() *uint256.Int {
	return t.ledger.totalSupply(t.address)
}

func (t *Token) Transfer(
	_ context.Context, from, to common.Address, amount *uint256.Int,
) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	return t.wrap(t.ledger.transfer(t.address, from, to, amount))
}

func (t *Token) TransferFrom(
	_ context.Context, spender, from, to common.Address, amount *uint256.Int,
) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	return t.wrap(t.ledger.transferFrom(t.address, spender, from, to, amount))
}

func (t *Token) Approve(
	_ context.Context, owner, spender common.Address, amount *uint256.Int,
) error {
	if amount == nil {
		return domain.ErrInvalidAmount
	}
	t.ledger.approve(t.address, owner, spender, amount)
	return nil
}

// Mint creates new units out of thin air. Only the devnet and the market
// minting its receipt are supposed to call it.
func (t *Token) Mint(to common.Address, amount *uint256.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	t.ledger.mint(t.address, to, amount)
	return nil
}

// Burn destroys units held by from.
func (t *Token) Burn(from common.Address, amount *uint256.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	return t.wrap(t.ledger.burn(t.address, from, amount))
}

func (t *Token) wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", t.symbol, err)
}

func validateAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return domain.ErrInvalidAmount
	}
	return nil
}

var _ ports.Asset = (*Token)(nil)
