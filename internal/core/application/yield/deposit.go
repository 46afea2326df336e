package yield

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

// Deposit pulls amount of underlying from the caller and supplies it to the
// lending market, together with any underlying the controller already held.
// The caller must have approved the controller beforehand.
func (c *Controller) Deposit(
	ctx context.Context, caller common.Address, amount *uint256.Int,
) (*domain.Operation, error) {
	if caller != c.owner {
		return nil, domain.ErrUnauthorized
	}
	if amount == nil || amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	return c.run(ctx, domain.OperationDeposit, caller, func(
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

		if err := c.underlying.TransferFrom(
			ctx, c.address, caller, c.address, amount,
		); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		}
		pulled, err := mathutil.Add(underlyingBefore, amount)
		if err != nil {
			return err
		}
		if err := c.checkBalance(ctx, c.underlying, pulled, "pull"); err != nil {
			return err
		}

		minted, err := c.supply(ctx, pulled)
		if err != nil {
			return err
		}
		if err := c.checkBalance(
			ctx, c.underlying, mathutil.Zero(), "supply",
		); err != nil {
			return err
		}
		receiptAfter, err := mathutil.Add(receiptBefore, minted)
		if err != nil {
			return err
		}
		if err := c.checkBalance(ctx, c.receipt, receiptAfter, "supply"); err != nil {
			return err
		}

		op.UnderlyingIn = *amount.Clone()
		op.ReceiptMinted = *minted

		if err := c.repoManager.PositionRepository().UpdatePosition(
			ctx, c.owner, func(p *domain.Position) (*domain.Position, error) {
				p.Reconcile(receiptBefore, op.Timestamp)
				p.ApplyDeposit(amount, minted, op.Timestamp)
				return p, nil
			},
		); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"amount":   amount.Dec(),
			"supplied": pulled.Dec(),
			"minted":   minted.Dec(),
		}).Info("deposit supplied to market")
		return nil
	})
}

// supply approves the market for exactly amount and supplies it, making sure
// no allowance is left behind and something was minted.
func (c *Controller) supply(
	ctx context.Context, amount *uint256.Int,
) (*uint256.Int, error) {
	if err := c.underlying.Approve(
		ctx, c.address, c.market.Address(), amount,
	); err != nil {
		return nil, err
	}
	minted, err := c.market.Supply(ctx, c.address, amount)
	if err != nil {
		return nil, err
	}
	if minted == nil || minted.IsZero() {
		return nil, fmt.Errorf(
			"%w: supply minted no receipt", domain.ErrPostconditionViolated,
		)
	}
	if err := c.checkAllowance(
		ctx, c.underlying, c.market.Address(), "supply",
	); err != nil {
		return nil, err
	}
	return minted, nil
}
