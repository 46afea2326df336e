// Package amm implements a Uniswap-style router over constant product pools
// whose reserves live in the in-process ledger.
package amm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/ledger"
	"github.com/tdex-network/tdex-yield/pkg/marketmaking/formula"
)

// DefaultFee is the pool fee in basis points (0.3%).
const DefaultFee = 30

var (
	// ErrPoolAlreadyExists ...
	ErrPoolAlreadyExists = errors.New("pool already exists for pair")
	// ErrPoolNotFound ...
	ErrPoolNotFound = errors.New("pool not found for pair")
)

type pairKey struct {
	a common.Address
	b common.Address
}

func newPairKey(a, b common.Address) pairKey {
	if a.Hex() > b.Hex() {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Pool is a pair of reserves held by the pool account.
type Pool struct {
	Address common.Address
	TokenA  *ledger.Token
	TokenB  *ledger.Token
}

func (p *Pool) tokens(tokenIn common.Address) (in, out *ledger.Token) {
	if p.TokenA.Address() == tokenIn {
		return p.TokenA, p.TokenB
	}
	return p.TokenB, p.TokenA
}

// Router implements ports.Exchange.
type Router struct {
	ledger  *ledger.Ledger
	address common.Address
	fee     uint64
	formula formula.BalancedReserves

	lock  *sync.RWMutex
	pools map[pairKey]*Pool
}

// NewRouter returns a router charging the given fee in basis points on
// every hop.
func NewRouter(
	l *ledger.Ledger, address common.Address, fee uint64,
) (*Router, error) {
	if l == nil {
		return nil, fmt.Errorf("missing ledger")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("missing router address")
	}
	if fee >= 10000 {
		return nil, formula.ErrInvalidFee
	}
	return &Router{
		ledger:  l,
		address: address,
		fee:     fee,
		lock:    &sync.RWMutex{},
		pools:   make(map[pairKey]*Pool),
	}, nil
}

func (r *Router) Address() common.Address {
	return r.address
}

// AddPool registers an empty pool for the pair of tokens.
func (r *Router) AddPool(address common.Address, a, b *ledger.Token) error {
	if a == nil || b == nil || a.Address() == b.Address() {
		return domain.ErrInvalidPath
	}
	if address == (common.Address{}) {
		return fmt.Errorf("missing pool address")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	key := newPairKey(a.Address(), b.Address())
	if _, ok := r.pools[key]; ok {
		return ErrPoolAlreadyExists
	}
	r.pools[key] = &Pool{address, a, b}
	return nil
}

// Pools returns the registered pools.
func (r *Router) Pools() []Pool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	pools := make([]Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, *p)
	}
	return pools
}

// Reserves returns the reserves of the pool of the given pair in the order
// of the arguments.
func (r *Router) Reserves(
	ctx context.Context, a, b common.Address,
) (reserveA, reserveB *uint256.Int, err error) {
	pool, err := r.pool(a, b)
	if err != nil {
		return nil, nil, err
	}
	in, out := pool.tokens(a)
	reserveA, _ = in.BalanceOf(ctx, pool.Address)
	reserveB, _ = out.BalanceOf(ctx, pool.Address)
	return
}

func (r *Router) QuoteExactInput(
	ctx context.Context, amountIn *uint256.Int, path []common.Address,
) (*uint256.Int, error) {
	amounts, _, err := r.amountsOut(ctx, amountIn, path)
	if err != nil {
		return nil, err
	}
	return amounts[len(amounts)-1], nil
}

// SwapExactInput checks the deadline and the minimum output before moving
// any funds, so a failing swap leaves every balance untouched.
func (r *Router) SwapExactInput(
	ctx context.Context, req ports.SwapRequest,
) (*uint256.Int, error) {
	if now := r.ledger.Now(); now.After(req.Deadline) {
		return nil, fmt.Errorf(
			"%w: deadline %s, now %s", domain.ErrExpired, req.Deadline, now,
		)
	}

	amounts, pools, err := r.amountsOut(ctx, req.AmountIn, req.Path)
	if err != nil {
		return nil, err
	}
	amountOut := amounts[len(amounts)-1]
	if req.MinAmountOut != nil && amountOut.Lt(req.MinAmountOut) {
		return nil, fmt.Errorf(
			"%w: got %s, min %s",
			domain.ErrSlippageExceeded, amountOut.Dec(), req.MinAmountOut.Dec(),
		)
	}

	tokenIn, _ := pools[0].tokens(req.Path[0])
	if err := tokenIn.TransferFrom(
		ctx, r.address, req.Trader, pools[0].Address, req.AmountIn,
	); err != nil {
		return nil, err
	}
	for i, pool := range pools {
		_, tokenOut := pool.tokens(req.Path[i])
		to := req.Trader
		if i < len(pools)-1 {
			to = pools[i+1].Address
		}
		if err := tokenOut.Transfer(ctx, pool.Address, to, amounts[i+1]); err != nil {
			return nil, err
		}
	}

	log.Debugf(
		"router: swapped %s for %s along %d hops",
		req.AmountIn.Dec(), amountOut.Dec(), len(pools),
	)
	return amountOut, nil
}

// SpotPrice returns how many whole units of the last asset of path are worth
// one whole unit of the first, without fees and price impact.
func (r *Router) SpotPrice(
	ctx context.Context, path []common.Address,
) (decimal.Decimal, error) {
	pools, err := r.route(path)
	if err != nil {
		return decimal.Zero, err
	}

	price := decimal.NewFromInt(1)
	for i, pool := range pools {
		in, out := pool.tokens(path[i])
		reserveIn, _ := in.BalanceOf(ctx, pool.Address)
		reserveOut, _ := out.BalanceOf(ctx, pool.Address)
		p, err := r.formula.SpotPrice(formula.BalancedReservesOpts{
			BalanceIn:   reserveIn,
			BalanceOut:  reserveOut,
			DecimalsIn:  in.Decimals(),
			DecimalsOut: out.Decimals(),
		})
		if err != nil {
			return decimal.Zero, fmt.Errorf(
				"%w: %s", domain.ErrInsufficientLiquidity, err,
			)
		}
		price = price.Mul(p)
	}
	return price, nil
}

// FindPath returns the shortest path of pools connecting from to to.
func (r *Router) FindPath(from, to common.Address) ([]common.Address, error) {
	if from == to {
		return nil, domain.ErrInvalidPath
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	adjacency := make(map[common.Address][]common.Address)
	for key := range r.pools {
		adjacency[key.a] = append(adjacency[key.a], key.b)
		adjacency[key.b] = append(adjacency[key.b], key.a)
	}

	prev := map[common.Address]common.Address{from: from}
	queue := []common.Address{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			break
		}
		for _, next := range adjacency[current] {
			if _, ok := prev[next]; ok {
				continue
			}
			prev[next] = current
			queue = append(queue, next)
		}
	}
	if _, ok := prev[to]; !ok {
		return nil, fmt.Errorf("%w: no route", domain.ErrInvalidPath)
	}

	path := []common.Address{to}
	for current := to; current != from; {
		current = prev[current]
		path = append([]common.Address{current}, path...)
	}
	return path, nil
}

func (r *Router) amountsOut(
	ctx context.Context, amountIn *uint256.Int, path []common.Address,
) ([]*uint256.Int, []*Pool, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, nil, domain.ErrInvalidAmount
	}
	pools, err := r.route(path)
	if err != nil {
		return nil, nil, err
	}

	amounts := make([]*uint256.Int, 0, len(path))
	amounts = append(amounts, amountIn.Clone())
	for i, pool := range pools {
		in, out := pool.tokens(path[i])
		reserveIn, _ := in.BalanceOf(ctx, pool.Address)
		reserveOut, _ := out.BalanceOf(ctx, pool.Address)

		amountOut, err := r.formula.OutGivenIn(formula.BalancedReservesOpts{
			BalanceIn:  reserveIn,
			BalanceOut: reserveOut,
			Fee:        r.fee,
		}, amounts[i])
		if err != nil {
			if errors.Is(err, formula.ErrAmountTooLow) {
				return nil, nil, fmt.Errorf(
					"%w: %s output rounds to zero", domain.ErrInvalidAmount, out.Symbol(),
				)
			}
			return nil, nil, fmt.Errorf(
				"%w: %s/%s pool: %s",
				domain.ErrInsufficientLiquidity, in.Symbol(), out.Symbol(), err,
			)
		}
		amounts = append(amounts, amountOut)
	}
	return amounts, pools, nil
}

func (r *Router) route(path []common.Address) ([]*Pool, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: too short", domain.ErrInvalidPath)
	}

	seen := make(map[common.Address]struct{}, len(path))
	pools := make([]*Pool, 0, len(path)-1)
	for i, asset := range path {
		if _, ok := seen[asset]; ok {
			return nil, fmt.Errorf("%w: %s repeated", domain.ErrInvalidPath, asset)
		}
		seen[asset] = struct{}{}
		if i == 0 {
			continue
		}
		pool, err := r.pool(path[i-1], asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPath, err)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

func (r *Router) pool(a, b common.Address) (*Pool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	pool, ok := r.pools[newPairKey(a, b)]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

var _ ports.Exchange = (*Router)(nil)
