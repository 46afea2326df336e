// Package formula defines the pricing formulas of the devnet pools.
package formula

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

var (
	// ErrAmountTooLow ...
	ErrAmountTooLow = errors.New("provided amount is too low")
	// ErrAmountTooBig ...
	ErrAmountTooBig = errors.New("provided amount is too big")
	// ErrBalanceTooLow ...
	ErrBalanceTooLow = errors.New("reserve balance amount is too low")
	// ErrInvalidFee ...
	ErrInvalidFee = errors.New("fee must be lower than 10000 basis points")
)

// BalancedReservesOpts defines the parameters needed to price a swap against
// a pair of 50/50 reserves.
type BalancedReservesOpts struct {
	BalanceIn  *uint256.Int
	BalanceOut *uint256.Int
	// DecimalsIn and DecimalsOut are only used by SpotPrice.
	DecimalsIn  uint8
	DecimalsOut uint8
	// Fee is expressed in basis points and is always charged on the way in.
	Fee uint64
}

func (o BalancedReservesOpts) validate() error {
	if o.BalanceIn == nil || o.BalanceOut == nil ||
		o.BalanceIn.IsZero() || o.BalanceOut.IsZero() {
		return ErrBalanceTooLow
	}
	if o.Fee >= mathutil.TenThousands.Uint64() {
		return ErrInvalidFee
	}
	return nil
}

// BalancedReserves defines an AMM strategy with fixed 50/50 reserves, so
// that balanceIn * balanceOut never decreases after a swap.
type BalancedReserves struct{}

// SpotPrice returns how many whole units of the out asset are worth one whole
// unit of the in asset, without fees.
func (BalancedReserves) SpotPrice(
	opts BalancedReservesOpts,
) (spotPrice decimal.Decimal, err error) {
	if err = opts.validate(); err != nil {
		return
	}

	balanceIn := mathutil.ToDecimal(opts.BalanceIn, opts.DecimalsIn)
	balanceOut := mathutil.ToDecimal(opts.BalanceOut, opts.DecimalsOut)
	spotPrice = balanceOut.DivRound(balanceIn, 18)
	return
}

// OutGivenIn returns the amountOut of asset that will be exchanged for the
// given amountIn. The result is rounded down.
func (BalancedReserves) OutGivenIn(
	opts BalancedReservesOpts, amountIn *uint256.Int,
) (*uint256.Int, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrAmountTooLow
	}

	feeComplement := uint256.NewInt(mathutil.TenThousands.Uint64() - opts.Fee)
	amountInWithFee, err := mathutil.MulDiv(
		amountIn, feeComplement, uint256.NewInt(1),
	)
	if err != nil {
		return nil, ErrAmountTooBig
	}
	scaledBalanceIn, err := mathutil.MulDiv(
		opts.BalanceIn, mathutil.TenThousands, uint256.NewInt(1),
	)
	if err != nil {
		return nil, ErrAmountTooBig
	}
	denominator, err := mathutil.Add(scaledBalanceIn, amountInWithFee)
	if err != nil {
		return nil, ErrAmountTooBig
	}

	amountOut, err := mathutil.MulDiv(amountInWithFee, opts.BalanceOut, denominator)
	if err != nil {
		return nil, ErrAmountTooBig
	}
	if amountOut.IsZero() {
		return nil, ErrAmountTooLow
	}
	if !amountOut.Lt(opts.BalanceOut) {
		return nil, ErrAmountTooBig
	}
	return amountOut, nil
}
