package ports

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SwapRequest describes an exact input swap along a route of assets.
type SwapRequest struct {
	Trader       common.Address
	AmountIn     *uint256.Int
	Path         []common.Address
	MinAmountOut *uint256.Int
	Deadline     time.Time
}

// Exchange wraps swapping one asset for another with a minimum output bound.
type Exchange interface {
	// Address is the account that must be approved for the input asset.
	Address() common.Address
	// SwapExactInput pulls AmountIn of Path[0] from the trader and sends back
	// the realized amount of the last asset of the path.
	SwapExactInput(ctx context.Context, req SwapRequest) (*uint256.Int, error)
	// QuoteExactInput returns the output a swap would realize right now.
	QuoteExactInput(
		ctx context.Context, amountIn *uint256.Int, path []common.Address,
	) (*uint256.Int, error)
}
