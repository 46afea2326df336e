package yield

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

// Withdraw redeems the whole receipt balance and forwards the controller's
// entire underlying balance to the caller. Partial withdrawals are not
// supported.
func (c *Controller) Withdraw(
	ctx context.Context, caller common.Address,
) (*domain.Operation, error) {
	if caller != c.owner {
		return nil, domain.ErrUnauthorized
	}

	return c.run(ctx, domain.OperationWithdraw, caller, func(
		ctx context.Context, op *domain.Operation,
	) error {
		receipt, err := c.balanceOf(ctx, c.receipt)
		if err != nil {
			return err
		}
		if receipt.IsZero() {
			return domain.ErrEmptyPosition
		}
		underlyingBefore, err := c.balanceOf(ctx, c.underlying)
		if err != nil {
			return err
		}

		redeemed, err := c.market.Redeem(ctx, c.address, receipt)
		if err != nil {
			return err
		}
		if err := c.checkBalance(
			ctx, c.receipt, mathutil.Zero(), "redeem",
		); err != nil {
			return err
		}
		received, err := mathutil.Add(underlyingBefore, redeemed)
		if err != nil {
			return err
		}
		if err := c.checkBalance(ctx, c.underlying, received, "redeem"); err != nil {
			return err
		}

		if !received.IsZero() {
			if err := c.underlying.Transfer(
				ctx, c.address, caller, received,
			); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
			}
		}
		if err := c.checkBalance(
			ctx, c.underlying, mathutil.Zero(), "forward",
		); err != nil {
			return err
		}

		principal := mathutil.Zero()
		if err := c.repoManager.PositionRepository().UpdatePosition(
			ctx, c.owner, func(p *domain.Position) (*domain.Position, error) {
				principal = p.ApplyWithdraw(op.Timestamp)
				return p, nil
			},
		); err != nil {
			return err
		}

		op.ReceiptBurned = *receipt
		op.UnderlyingOut = *received
		op.Principal = *principal
		if received.Gt(principal) {
			op.RealizedYield.Sub(received, principal)
		}

		log.WithFields(log.Fields{
			"burned":    receipt.Dec(),
			"redeemed":  redeemed.Dec(),
			"forwarded": received.Dec(),
			"principal": principal.Dec(),
		}).Info("position withdrawn")
		return nil
	})
}
