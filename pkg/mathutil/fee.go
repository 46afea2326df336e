package mathutil

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// TenThousands is the basis point denominator.
var TenThousands = uint256.NewInt(10000)

// LessFee subtracts a fee expressed in basis points (ie. 0.3% = 30) from
// amount. The fee is rounded down.
func LessFee(amount *uint256.Int, feeAsBasisPoint uint64) (withFee, calculatedFee *uint256.Int) {
	calculatedFee, err := MulDiv(amount, uint256.NewInt(feeAsBasisPoint), TenThousands)
	if err != nil || calculatedFee.Gt(amount) {
		return uint256.NewInt(0), amount.Clone()
	}
	withFee = new(uint256.Int).Sub(amount, calculatedFee)
	return
}

// LessPercentage returns amount * (1 - percentage) rounded down, with
// percentage expressed as a fraction (ie. 5% = 0.05). Percentages outside
// [0, 1] are clamped.
func LessPercentage(amount *uint256.Int, percentage decimal.Decimal) *uint256.Int {
	if percentage.LessThanOrEqual(decimal.Zero) {
		return amount.Clone()
	}
	if percentage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return uint256.NewInt(0)
	}
	a := decimal.NewFromBigInt(amount.ToBig(), 0)
	res := a.Mul(decimal.NewFromInt(1).Sub(percentage)).Floor()
	z, _ := uint256.FromBig(res.BigInt())
	return z
}
