package ports

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PriceQuote tells how much one whole unit of the base asset is worth in
// whole units of the quote asset.
type PriceQuote struct {
	Price     decimal.Decimal
	Timestamp time.Time
	Source    string
}

// PriceOracle provides the reference price used to bound swap outputs.
type PriceOracle interface {
	Price(ctx context.Context, base, quote common.Address) (*PriceQuote, error)
}
