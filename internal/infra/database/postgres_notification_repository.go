// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"selinggonet_notification_service/internal/domain/notification"
)

var ErrNotificationNotFound = fmt.Errorf("notification not found")

// PostgresNotificationRepository implements notification.Repository and
// notification.Broadcaster. Aggregates and writes go through the backend's
// stored procedures; this layer only marshals parameters and results.
type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT get_unread_notification_count($1)`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error getting unread notification count: %w", err)
	}
	return count, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT mark_notification_read($1, $2)`, notificationID, userID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	query := `SELECT id, type, title, body, read, user_id, created_at
               FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.Read, &n.UserID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) LogActivity(ctx context.Context, entry *notification.ActivityEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}
	ts := entry.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `SELECT log_admin_activity($1, $2, $3, $4, $5)`,
		entry.AdminID, string(entry.Action), entry.Description, []byte(metadata), ts)
	if err != nil {
		return fmt.Errorf("error logging admin activity: %w", err)
	}
	return nil
}

// Broadcaster implementation. Each procedure persists per-admin notification
// rows backend-side; the insert triggers feed the real-time channel.

func (r *PostgresNotificationRepository) SendPaymentNotification(ctx context.Context, p notification.PaymentBroadcast) error {
	_, err := r.db.ExecContext(ctx, `SELECT send_payment_notification($1, $2, $3, $4, $5, $6, $7)`,
		p.CustomerName, p.CustomerCode, p.InvoicePeriod, p.Amount, p.AdminName, p.CustomerID, p.InvoiceID)
	if err != nil {
		return fmt.Errorf("error sending payment notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) SendInvoiceCreationNotification(ctx context.Context, adminName string, invoiceCount int, period string) error {
	_, err := r.db.ExecContext(ctx, `SELECT send_invoice_creation_notification($1, $2, $3)`,
		adminName, invoiceCount, period)
	if err != nil {
		return fmt.Errorf("error sending invoice creation notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) SendCustomerAddedNotification(ctx context.Context, adminName, customerName string) error {
	_, err := r.db.ExecContext(ctx, `SELECT send_customer_added_notification($1, $2)`,
		adminName, customerName)
	if err != nil {
		return fmt.Errorf("error sending customer added notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) SendAdminLoginNotification(ctx context.Context, adminName string) error {
	_, err := r.db.ExecContext(ctx, `SELECT send_admin_login_notification($1)`, adminName)
	if err != nil {
		return fmt.Errorf("error sending admin login notification: %w", err)
	}
	return nil
}
