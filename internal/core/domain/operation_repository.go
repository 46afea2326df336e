package domain

import "context"

// OperationRepository is the abstraction for any kind of database intended to
// persist the audit trail of controller operations.
type OperationRepository interface {
	// AddOperation adds a new operation. Adding an operation with an existing
	// id is an error.
	AddOperation(ctx context.Context, op *Operation) error
	// GetOperation returns the operation with the given id.
	GetOperation(ctx context.Context, id string) (*Operation, error)
	// ListOperations returns the operations sorted from the most recent. A nil
	// page returns all of them.
	ListOperations(ctx context.Context, page *Page) ([]Operation, error)
}
