package subscriber

import (
	"context"
)

// Repository defines the read operations the notification jobs need against
// the backend's subscriber store.
type Repository interface {
	ListActive(ctx context.Context) ([]*Subscriber, error)
	GetByID(ctx context.Context, id string) (*Subscriber, error)
}
