package device

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists device registration tokens.
type Repository interface {
	// Upsert registers a token for a user. Registering the same
	// (user, token) pair again is a no-op.
	Upsert(ctx context.Context, userID uuid.UUID, token string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Token, error)
}
