package yield

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

// Harvest claims the market rewards, swaps them for underlying and supplies
// the output back to the market, together with any underlying the
// controller already held. Anyone can trigger it. Finding nothing to
// compound is not an error: the operation is recorded as a noop.
func (c *Controller) Harvest(
	ctx context.Context, caller common.Address, opts HarvestOptions,
) (*domain.Operation, error) {
	return c.run(ctx, domain.OperationHarvest, caller, func(
		ctx context.Context, op *domain.Operation,
	) error {
		underlyingBefore, err := c.balanceOf(ctx, c.underlying)
		if err != nil {
			return err
		}
		receiptBefore, err := c.balanceOf(ctx, c.receipt)
		if err != nil {
			return err
		}

		claimed, err := c.market.ClaimRewards(ctx, c.address)
		if err != nil {
			return err
		}
		reward, err := c.balanceOf(ctx, c.reward)
		if err != nil {
			return err
		}
		if claimed != nil {
			op.RewardClaimed = *claimed.Clone()
		}

		if reward.IsZero() && underlyingBefore.IsZero() {
			op.Noop = true
			log.Debug("harvest: no reward to compound")
			return c.repoManager.PositionRepository().UpdatePosition(
				ctx, c.owner, func(p *domain.Position) (*domain.Position, error) {
					p.Reconcile(receiptBefore, op.Timestamp)
					p.ApplyHarvest(mathutil.Zero(), mathutil.Zero(), mathutil.Zero(), op.Timestamp)
					return p, nil
				},
			)
		}

		out := mathutil.Zero()
		if !reward.IsZero() {
			if out, err = c.swapReward(ctx, op, reward, underlyingBefore, opts); err != nil {
				return err
			}
		}

		reinvested, err := mathutil.Add(underlyingBefore, out)
		if err != nil {
			return err
		}
		minted, err := c.supply(ctx, reinvested)
		if err != nil {
			return err
		}
		if err := c.checkBalance(
			ctx, c.underlying, mathutil.Zero(), "reinvest",
		); err != nil {
			return err
		}
		receiptAfter, err := mathutil.Add(receiptBefore, minted)
		if err != nil {
			return err
		}
		if err := c.checkBalance(
			ctx, c.receipt, receiptAfter, "reinvest",
		); err != nil {
			return err
		}

		op.Compounded = *reinvested
		op.ReceiptMinted = *minted

		if err := c.repoManager.PositionRepository().UpdatePosition(
			ctx, c.owner, func(p *domain.Position) (*domain.Position, error) {
				p.Reconcile(receiptBefore, op.Timestamp)
				p.ApplyHarvest(reward, reinvested, minted, op.Timestamp)
				return p, nil
			},
		); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"reward":     reward.Dec(),
			"min_out":    op.MinAmountOut.Dec(),
			"compounded": reinvested.Dec(),
			"minted":     minted.Dec(),
		}).Info("harvest compounded")
		return nil
	})
}

// swapReward sells the whole reward balance for underlying and returns the
// amount received. The exchange must consume exactly the approved reward
// and pay out at least the swap floor.
func (c *Controller) swapReward(
	ctx context.Context, op *domain.Operation,
	reward, underlyingBefore *uint256.Int, opts HarvestOptions,
) (*uint256.Int, error) {
	minAmountOut, err := c.minAmountOut(ctx, reward, opts.MinAmountOut)
	if err != nil {
		return nil, err
	}
	deadline := opts.Deadline
	if deadline.IsZero() {
		deadline = c.clock.Now().Add(c.swapDeadline)
	}

	if err := c.reward.Approve(
		ctx, c.address, c.exchange.Address(), reward,
	); err != nil {
		return nil, err
	}
	out, err := c.exchange.SwapExactInput(ctx, ports.SwapRequest{
		Trader:       c.address,
		AmountIn:     reward,
		Path:         c.swapPath,
		MinAmountOut: minAmountOut,
		Deadline:     deadline,
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Lt(minAmountOut) {
		return nil, fmt.Errorf(
			"%w: swap returned less than minimum amount",
			domain.ErrPostconditionViolated,
		)
	}
	if err := c.checkAllowance(
		ctx, c.reward, c.exchange.Address(), "swap",
	); err != nil {
		return nil, err
	}
	if err := c.checkBalance(ctx, c.reward, mathutil.Zero(), "swap"); err != nil {
		return nil, err
	}
	swapped, err := mathutil.Add(underlyingBefore, out)
	if err != nil {
		return nil, err
	}
	if err := c.checkBalance(ctx, c.underlying, swapped, "swap"); err != nil {
		return nil, err
	}

	op.RewardSwapped = *reward.Clone()
	op.MinAmountOut = *minAmountOut
	op.SwapOutput = *out.Clone()
	return out, nil
}

// minAmountOut returns the swap floor for amount of reward: the oracle
// estimate less the configured slippage, raised to the caller floor if
// higher.
func (c *Controller) minAmountOut(
	ctx context.Context, amount, callerFloor *uint256.Int,
) (*uint256.Int, error) {
	quote, err := c.oracle.Price(ctx, c.reward.Address(), c.underlying.Address())
	if err != nil {
		return nil, err
	}
	if !quote.Price.IsPositive() {
		return nil, fmt.Errorf("oracle returned non positive price %s", quote.Price)
	}

	estimate := mathutil.ToDecimal(amount, c.reward.Decimals()).Mul(quote.Price)
	estimateAmount, err := mathutil.FromDecimal(estimate, c.underlying.Decimals())
	if err != nil {
		return nil, err
	}
	floor := mathutil.LessPercentage(estimateAmount, c.slippage)
	if floor.IsZero() {
		floor.SetOne()
	}

	if callerFloor != nil && callerFloor.Gt(floor) {
		floor = callerFloor.Clone()
	}
	return floor, nil
}
