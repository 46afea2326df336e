package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// OperationType enumerates the externally observable controller operations.
type OperationType int

const (
	OperationUnspecified OperationType = iota
	OperationDeposit
	OperationWithdraw
	OperationHarvest
)

var operationTypeToString = map[OperationType]string{
	OperationUnspecified: "UNSPECIFIED",
	OperationDeposit:     "DEPOSIT",
	OperationWithdraw:    "WITHDRAW",
	OperationHarvest:     "HARVEST",
}

func (t OperationType) String() string {
	if s, ok := operationTypeToString[t]; ok {
		return s
	}
	return operationTypeToString[OperationUnspecified]
}

// OperationTypeFromString is the inverse of String.
func OperationTypeFromString(s string) (OperationType, bool) {
	for t, label := range operationTypeToString {
		if label == s && t != OperationUnspecified {
			return t, true
		}
	}
	return OperationUnspecified, false
}

// Operation is the audit record of a completed deposit, withdraw or harvest.
// Amounts are expressed in the minor units of the asset they refer to.
type Operation struct {
	ID        string
	Type      OperationType
	Caller    common.Address
	Timestamp int64

	// Deposit.
	UnderlyingIn uint256.Int
	// Withdraw.
	UnderlyingOut uint256.Int
	ReceiptBurned uint256.Int
	Principal     uint256.Int
	RealizedYield uint256.Int
	// Harvest.
	RewardClaimed uint256.Int
	RewardSwapped uint256.Int
	MinAmountOut  uint256.Int
	SwapOutput    uint256.Int
	Compounded    uint256.Int
	// Deposit and harvest.
	ReceiptMinted uint256.Int

	// Noop is set for harvests that found no reward to convert.
	Noop bool
}

// NewOperation returns an operation record with a fresh random id.
func NewOperation(
	opType OperationType, caller common.Address, timestamp int64,
) *Operation {
	return &Operation{
		ID:        uuid.New().String(),
		Type:      opType,
		Caller:    caller,
		Timestamp: timestamp,
	}
}

func (o *Operation) IsDeposit() bool {
	return o.Type == OperationDeposit
}

func (o *Operation) IsWithdraw() bool {
	return o.Type == OperationWithdraw
}

func (o *Operation) IsHarvest() bool {
	return o.Type == OperationHarvest
}
