package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Position is the ledger entry of the controller's pooled position. The
// authoritative claim is the receipt balance held by the controller in the
// lending market; the figures below are bookkeeping used for reporting and
// never drive transfer amounts.
type Position struct {
	Owner common.Address
	// Principal is the underlying deposited since the position was opened.
	Principal uint256.Int
	// Receipt mirrors the receipt balance the controller holds.
	Receipt            uint256.Int
	TotalRewardClaimed uint256.Int
	TotalCompounded    uint256.Int
	Deposits           int
	Harvests           int
	OpenedAt           int64
	LastHarvestAt      int64
	UpdatedAt          int64
}

// NewPosition returns an empty position for the given owner.
func NewPosition(owner common.Address) *Position {
	return &Position{Owner: owner}
}

// IsOpen returns whether there is anything supplied to the market.
func (p *Position) IsOpen() bool {
	return !p.Receipt.IsZero()
}

// Reconcile aligns the position with the receipt balance actually held by
// the controller and reports whether anything changed. A position whose
// receipt is gone is reset, since the figures it carries no longer describe
// anything supplied to the market.
func (p *Position) Reconcile(receipt *uint256.Int, timestamp int64) bool {
	if p.Receipt.Eq(receipt) {
		return false
	}
	if receipt.IsZero() {
		p.ApplyWithdraw(timestamp)
		return true
	}
	if !p.IsOpen() {
		p.OpenedAt = timestamp
	}
	p.Receipt.Set(receipt)
	p.UpdatedAt = timestamp
	return true
}

// ApplyDeposit books a deposit of amount underlying that minted the given
// receipt amount.
func (p *Position) ApplyDeposit(amount, minted *uint256.Int, timestamp int64) {
	if !p.IsOpen() {
		p.OpenedAt = timestamp
	}
	p.Principal.Add(&p.Principal, amount)
	p.Receipt.Add(&p.Receipt, minted)
	p.Deposits++
	p.UpdatedAt = timestamp
}

// ApplyHarvest books a harvest. A zero claimed amount only refreshes the
// harvest timestamp.
func (p *Position) ApplyHarvest(
	claimed, compounded, minted *uint256.Int, timestamp int64,
) {
	p.TotalRewardClaimed.Add(&p.TotalRewardClaimed, claimed)
	p.TotalCompounded.Add(&p.TotalCompounded, compounded)
	p.Receipt.Add(&p.Receipt, minted)
	p.Harvests++
	p.LastHarvestAt = timestamp
	p.UpdatedAt = timestamp
}

// ApplyWithdraw closes the position and returns the principal it carried.
func (p *Position) ApplyWithdraw(timestamp int64) *uint256.Int {
	principal := p.Principal.Clone()
	owner := p.Owner
	*p = Position{Owner: owner, UpdatedAt: timestamp}
	return principal
}

// Yield returns how much value exceeds the principal, or zero if the
// position is under water.
func (p *Position) Yield(value *uint256.Int) *uint256.Int {
	if value.Lt(&p.Principal) {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(value, &p.Principal)
}
