// internal/domain/notification/activity.go
package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityEntry is an append-only audit record of an administrative action.
// Corresponds to the 'admin_activity_log' table. Other concurrent admin
// sessions observe inserts over the pub/sub channel for peer awareness.
type ActivityEntry struct {
	ID          uuid.UUID       `json:"id"`
	AdminID     uuid.UUID       `json:"admin_id"`
	Action      Type            `json:"action"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
}
