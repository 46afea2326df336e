package domain

import "errors"

var (
	// ErrInsufficientBalance is returned by an asset when the sender does not
	// hold enough funds. Recoverable by funding the account.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned by an asset when the spender has not
	// been approved for enough funds. Recoverable by re-approving.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrTransferFailed wraps any asset failure while pulling funds from the
	// caller.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrMarketRejected is returned when the lending market is paused or does
	// not support the asset. Not retryable without operator intervention.
	ErrMarketRejected = errors.New("market rejected the request")
	// ErrInsufficientLiquidity is returned when the market cannot pay out a
	// redemption or a pool cannot fill a swap.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrSlippageExceeded is returned when the realized swap output is below
	// the requested floor.
	ErrSlippageExceeded = errors.New("swap output below minimum amount")
	// ErrExpired is returned when a swap is executed after its deadline.
	ErrExpired = errors.New("swap deadline expired")
	// ErrInvalidPath is returned for swap routes that are too short, loop on
	// themselves or do not connect the requested assets.
	ErrInvalidPath = errors.New("invalid swap path")
	// ErrStalePrice is returned when the price oracle has no fresh quote.
	ErrStalePrice = errors.New("price quote is stale")
	// ErrPostconditionViolated signals that an invariant check failed after an
	// external call. Always fatal for the operation.
	ErrPostconditionViolated = errors.New("postcondition violated")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrUnauthorized is returned when a non-owner tries to move the position.
	ErrUnauthorized = errors.New("caller is not the position owner")
	// ErrEmptyPosition is returned when withdrawing with nothing supplied.
	ErrEmptyPosition = errors.New("nothing to withdraw")
	// ErrReentrantCall is returned when an operation is invoked from within
	// another operation of the same controller.
	ErrReentrantCall = errors.New("reentrant call rejected")
	// ErrControllerBusy is returned when the controller guard could not be
	// acquired in time, for example because a call re-entered the controller
	// with a context that does not carry the running operation.
	ErrControllerBusy = errors.New("controller busy")
	// ErrOperationNotFound ...
	ErrOperationNotFound = errors.New("operation not found")
)
