package device

import (
	"time"

	"github.com/google/uuid"
)

// Token is a push-messaging registration token for one of a user's devices.
// A user may hold several tokens (multi-device); tokens are only ever
// inserted, deduplicated on (user, token).
type Token struct {
	ID        int64
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
}
