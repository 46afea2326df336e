package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Asset is the uniform interface over a transferable balance asset. The
// underlying, receipt and reward assets are all instances of it.
// Every mutating method is atomic: it either fully applies or returns an
// error without changing any balance or allowance.
type Asset interface {
	Address() common.Address
	Symbol() string
	Decimals() uint8
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	Allowance(
		ctx context.Context, owner, spender common.Address,
	) (*uint256.Int, error)
	// Transfer moves amount from the from account to the to account on behalf
	// of from itself.
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	// TransferFrom moves amount from the from account to the to account on
	// behalf of spender, consuming its allowance.
	TransferFrom(
		ctx context.Context, spender, from, to common.Address, amount *uint256.Int,
	) error
	// Approve sets the allowance of spender over the funds of owner.
	Approve(
		ctx context.Context, owner, spender common.Address, amount *uint256.Int,
	) error
}
