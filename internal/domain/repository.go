package domain

import "context"

type Repository interface {
	// Put stores the full order under orderID, replacing any existing record.
	Put(ctx context.Context, orderID string, order Order) error
}
