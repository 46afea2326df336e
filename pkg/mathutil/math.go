// Package mathutil provides fixed-point helpers over uint256 mantissas and
// conversions from and to decimal.Decimal.
package mathutil

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	// ErrOverflow ...
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrUnderflow ...
	ErrUnderflow = errors.New("arithmetic underflow")
	// ErrDivisionByZero ...
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNegativeAmount ...
	ErrNegativeAmount = errors.New("amount must not be negative")
)

var (
	// Wad is the 1e18 scale of exchange rates.
	Wad = Pow10(18)
	// DoubleWad is the 1e36 scale of reward indexes.
	DoubleWad = Pow10(36)
)

// Zero returns a fresh zero value.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Pow10 returns 10^n.
func Pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}

// Add returns x + y or ErrOverflow.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sub returns x - y or ErrUnderflow.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

// MulDiv returns floor(x * y / d) computed with a 512 bit intermediate.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// ToDecimal converts a mantissa with the given number of decimals into whole
// units.
func ToDecimal(x *uint256.Int, decimals uint8) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x.ToBig(), -int32(decimals))
}

// FromDecimal converts whole units into a mantissa with the given number of
// decimals, rounding down.
func FromDecimal(d decimal.Decimal, decimals uint8) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Mul(decimal.New(1, int32(decimals))).Floor()
	z, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// ParseUnits parses a decimal string of whole units into a mantissa.
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return FromDecimal(d, decimals)
}
