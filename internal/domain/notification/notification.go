// internal/domain/notification/notification.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type tags a notification with its originating event. The set is closed;
// the backend's stored procedures only ever insert these values.
type Type string

const (
	TypePaymentProcessed Type = "payment_processed"
	TypeInvoiceCreated   Type = "invoice_created"
	TypeCustomerAdded    Type = "customer_added"
	TypeAdminLogin       Type = "admin_login"
	TypeAdminAction      Type = "admin_action"
	TypeSystemAlert      Type = "system_alert"
)

// Notification is a row of the 'notifications' table. Rows are created
// exclusively by backend procedures; this service observes inserts over the
// pub/sub channel and marks rows read on behalf of the user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
