package billing

import (
	"context"

	"github.com/google/uuid"
)

// Package is a subscription plan a subscriber can be assigned to.
type Package struct {
	ID    uuid.UUID
	Name  string
	Price int64 // monthly price in rupiah
}

// Repository provides read access to subscription packages.
type Repository interface {
	// ListAll returns every package; callers build a price lookup map from
	// it before fanning out, rather than querying per subscriber.
	ListAll(ctx context.Context) ([]*Package, error)
}
