// Package store persists token records keyed by (user id, provider name).
package store

import (
	"context"

	"github.com/averlon/tokenbroker/internal/oauth/models"
)

// Store is the minimal capability the broker requires from a token backend.
// Put must be atomic enough that a concurrent Get never observes a partially
// written record, and a Get after Put for the same key observes the write.
type Store interface {
	// Put stores the record under (record.UserID, record.Provider),
	// replacing any prior record for that key.
	Put(ctx context.Context, record *models.TokenRecord) error

	// Get returns the current record for the key, or (nil, nil) when none
	// exists.
	Get(ctx context.Context, userID, provider string) (*models.TokenRecord, error)

	// Delete removes the record for the key. Deleting an absent record is
	// not an error.
	Delete(ctx context.Context, userID, provider string) error
}
