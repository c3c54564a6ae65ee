// internal/app/activity_service.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/domain/notification"
)

// ActivityService logs admin actions for audit and peer awareness and
// triggers the backend's broadcast procedures. The activity log write is a
// best-effort side effect: its failure is logged and never blocks the
// broadcast it accompanies.
type ActivityService struct {
	notifRepo   notification.Repository
	broadcaster notification.Broadcaster
	logger      *logrus.Logger
}

func NewActivityService(
	nr notification.Repository,
	b notification.Broadcaster,
	logger *logrus.Logger,
) *ActivityService {
	return &ActivityService{
		notifRepo:   nr,
		broadcaster: b,
		logger:      logger,
	}
}

// LogActivity appends one audit entry. metadata may be nil.
func (s *ActivityService) LogActivity(ctx context.Context, adminID uuid.UUID, action notification.Type, description string, metadata map[string]any) error {
	raw := json.RawMessage(`{}`)
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
		raw = b
	}

	entry := &notification.ActivityEntry{
		AdminID:     adminID,
		Action:      action,
		Description: description,
		Metadata:    raw,
		CreatedAt:   time.Now(),
	}
	if err := s.notifRepo.LogActivity(ctx, entry); err != nil {
		return fmt.Errorf("failed to log admin activity: %w", err)
	}
	return nil
}

// logBestEffort records an audit entry for a broadcast trigger without
// letting a logging failure stop the broadcast.
func (s *ActivityService) logBestEffort(ctx context.Context, adminID uuid.UUID, action notification.Type, description string, metadata map[string]any) {
	if err := s.LogActivity(ctx, adminID, action, description, metadata); err != nil {
		s.logger.Errorf("Activity log write failed (%s): %v", action, err)
	}
}

// NotifyPayment broadcasts a processed payment to every admin.
func (s *ActivityService) NotifyPayment(ctx context.Context, adminID uuid.UUID, adminName string, p notification.PaymentBroadcast) error {
	s.logBestEffort(ctx, adminID, notification.TypePaymentProcessed,
		fmt.Sprintf("Memproses pembayaran %s - %s", p.CustomerName, p.InvoicePeriod),
		map[string]any{
			"customer_id": p.CustomerID.String(),
			"invoice_id":  p.InvoiceID.String(),
			"amount":      p.Amount,
		})

	p.AdminName = adminName
	if err := s.broadcaster.SendPaymentNotification(ctx, p); err != nil {
		return fmt.Errorf("failed to send payment notification: %w", err)
	}
	return nil
}

// NotifyInvoiceCreation broadcasts a bulk invoice creation.
func (s *ActivityService) NotifyInvoiceCreation(ctx context.Context, adminID uuid.UUID, adminName string, invoiceCount int, period string) error {
	s.logBestEffort(ctx, adminID, notification.TypeInvoiceCreated,
		fmt.Sprintf("Membuat %d tagihan untuk periode %s", invoiceCount, period),
		map[string]any{"invoice_count": invoiceCount, "period": period})

	if err := s.broadcaster.SendInvoiceCreationNotification(ctx, adminName, invoiceCount, period); err != nil {
		return fmt.Errorf("failed to send invoice creation notification: %w", err)
	}
	return nil
}

// NotifyCustomerAdded broadcasts a newly registered customer.
func (s *ActivityService) NotifyCustomerAdded(ctx context.Context, adminID uuid.UUID, adminName, customerName string) error {
	s.logBestEffort(ctx, adminID, notification.TypeCustomerAdded,
		fmt.Sprintf("Menambahkan pelanggan baru: %s", customerName),
		map[string]any{"customer_name": customerName})

	if err := s.broadcaster.SendCustomerAddedNotification(ctx, adminName, customerName); err != nil {
		return fmt.Errorf("failed to send customer added notification: %w", err)
	}
	return nil
}

// NotifyAdminLogin broadcasts an admin sign-in.
func (s *ActivityService) NotifyAdminLogin(ctx context.Context, adminID uuid.UUID, adminName string) error {
	s.logBestEffort(ctx, adminID, notification.TypeAdminLogin,
		"Login ke sistem",
		map[string]any{"login_time": time.Now().Format(time.RFC3339)})

	if err := s.broadcaster.SendAdminLoginNotification(ctx, adminName); err != nil {
		return fmt.Errorf("failed to send admin login notification: %w", err)
	}
	return nil
}
