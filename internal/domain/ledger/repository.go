package ledger

import (
	"context"
)

// Repository is the local-store contract for ledger entries. Save commits
// the row together with its sync-queue entry in one transaction.
type Repository interface {
	Get(ctx context.Context, id string) (*Transaction, error)
	Save(ctx context.Context, t *Transaction) error
	ListByClient(ctx context.Context, clientID string) ([]Transaction, error)
}
