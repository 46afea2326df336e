// Package spotoracle implements a price oracle reading the spot price of the
// devnet pools.
package spotoracle

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
)

const source = "spot"

// PoolReader is the subset of the router the oracle needs.
type PoolReader interface {
	FindPath(from, to common.Address) ([]common.Address, error)
	SpotPrice(ctx context.Context, path []common.Address) (decimal.Decimal, error)
}

type service struct {
	pools PoolReader
	clock ports.Clock
}

// NewSpotOracle returns an oracle quoting the current pool reserves. Quotes
// are always fresh but can be moved within the same block, so this is meant
// for devnets only.
func NewSpotOracle(pools PoolReader, clock ports.Clock) (ports.PriceOracle, error) {
	if pools == nil {
		return nil, fmt.Errorf("missing pools")
	}
	if clock == nil {
		return nil, fmt.Errorf("missing clock")
	}
	return &service{pools, clock}, nil
}

func (s *service) Price(
	ctx context.Context, base, quote common.Address,
) (*ports.PriceQuote, error) {
	path, err := s.pools.FindPath(base, quote)
	if err != nil {
		return nil, err
	}
	price, err := s.pools.SpotPrice(ctx, path)
	if err != nil {
		return nil, err
	}
	return &ports.PriceQuote{
		Price:     price,
		Timestamp: s.clock.Now(),
		Source:    source,
	}, nil
}
