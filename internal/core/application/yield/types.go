package yield

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type AssetInfo struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// Info is the static configuration of a controller.
type Info struct {
	Address      common.Address
	Owner        common.Address
	Underlying   AssetInfo
	Receipt      AssetInfo
	Reward       AssetInfo
	Market       common.Address
	Exchange     common.Address
	SwapPath     []common.Address
	Slippage     decimal.Decimal
	SwapDeadline time.Duration
}

// PositionInfo is the live view of the position.
type PositionInfo struct {
	Owner common.Address
	// Receipt is the receipt balance held by the controller.
	Receipt *uint256.Int
	// ExchangeRate is the receipt to underlying rate, scaled by 1e18.
	ExchangeRate *uint256.Int
	// EstimatedValue is the underlying the receipt would redeem for now.
	EstimatedValue     *uint256.Int
	Principal          *uint256.Int
	Yield              *uint256.Int
	TotalRewardClaimed *uint256.Int
	TotalCompounded    *uint256.Int
	Deposits           int
	Harvests           int
	OpenedAt           int64
	LastHarvestAt      int64
}

// HarvestOptions bound the reward swap of a harvest. Zero values select the
// defaults: the oracle floor and the configured swap deadline.
type HarvestOptions struct {
	// MinAmountOut is the minimum underlying the swap must return. The oracle
	// floor still applies if higher.
	MinAmountOut *uint256.Int
	Deadline     time.Time
}
