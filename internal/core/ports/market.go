package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LendingMarket wraps the supply/redeem cycle of a lending market for a
// single underlying asset.
type LendingMarket interface {
	// Address is the account that must be approved before supplying.
	Address() common.Address
	Underlying() common.Address
	Receipt() Asset
	RewardAsset() Asset
	// Supply pulls amount of underlying from supplier and mints receipt to it,
	// returning the minted amount.
	Supply(
		ctx context.Context, supplier common.Address, amount *uint256.Int,
	) (*uint256.Int, error)
	// Redeem burns receiptAmount of the redeemer's receipt and pays out the
	// underlying at the exchange rate computed at redemption time.
	Redeem(
		ctx context.Context, redeemer common.Address, receiptAmount *uint256.Int,
	) (*uint256.Int, error)
	// ClaimRewards triggers reward accrual for holder and transfers whatever
	// accrued to it, returning the claimed amount.
	ClaimRewards(ctx context.Context, holder common.Address) (*uint256.Int, error)
	// ExchangeRate returns the current receipt to underlying rate scaled by
	// 1e18. For diagnostics only.
	ExchangeRate(ctx context.Context) (*uint256.Int, error)
}
