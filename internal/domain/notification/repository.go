// internal/domain/notification/repository.go
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the notification and activity-log operations this
// service performs against the backend. Aggregates (unread count) and writes
// (mark read, activity logging) go through the backend's stored procedures;
// row-level business logic stays on the backend side.
type Repository interface {
	// UnreadCount returns the number of unread notifications for a user,
	// computed by the backend's aggregate procedure.
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	// MarkRead marks one notification as read for the given user.
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	// ListByUser returns the most recent notifications for a user, newest
	// first, limited to limit rows.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)

	// LogActivity appends an entry to the admin activity log via the
	// backend's logging procedure.
	LogActivity(ctx context.Context, entry *ActivityEntry) error
}

// PaymentBroadcast carries the parameters of the payment-processed
// broadcast procedure.
type PaymentBroadcast struct {
	CustomerName  string
	CustomerCode  string
	InvoicePeriod string
	Amount        int64
	AdminName     string
	CustomerID    uuid.UUID
	InvoiceID     uuid.UUID
}

// Broadcaster invokes the backend procedures that fan a notification out to
// every admin. Persistence and per-admin row creation happen backend-side;
// callers only observe success or failure of the invocation.
type Broadcaster interface {
	SendPaymentNotification(ctx context.Context, p PaymentBroadcast) error
	SendInvoiceCreationNotification(ctx context.Context, adminName string, invoiceCount int, period string) error
	SendCustomerAddedNotification(ctx context.Context, adminName, customerName string) error
	SendAdminLoginNotification(ctx context.Context, adminName string) error
}
