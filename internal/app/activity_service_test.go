package app

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selinggonet_notification_service/internal/domain/notification"
)

type fakeActivityRepo struct {
	entries []*notification.ActivityEntry
	logErr  error
}

func (f *fakeActivityRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeActivityRepo) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return nil
}

func (f *fakeActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	return nil, nil
}

func (f *fakeActivityRepo) LogActivity(ctx context.Context, entry *notification.ActivityEntry) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeBroadcaster struct {
	payments  []notification.PaymentBroadcast
	invoices  []string
	customers []string
	logins    []string
	err       error
}

func (f *fakeBroadcaster) SendPaymentNotification(ctx context.Context, p notification.PaymentBroadcast) error {
	if f.err != nil {
		return f.err
	}
	f.payments = append(f.payments, p)
	return nil
}

func (f *fakeBroadcaster) SendInvoiceCreationNotification(ctx context.Context, adminName string, invoiceCount int, period string) error {
	if f.err != nil {
		return f.err
	}
	f.invoices = append(f.invoices, fmt.Sprintf("%s/%d/%s", adminName, invoiceCount, period))
	return nil
}

func (f *fakeBroadcaster) SendCustomerAddedNotification(ctx context.Context, adminName, customerName string) error {
	if f.err != nil {
		return f.err
	}
	f.customers = append(f.customers, customerName)
	return nil
}

func (f *fakeBroadcaster) SendAdminLoginNotification(ctx context.Context, adminName string) error {
	if f.err != nil {
		return f.err
	}
	f.logins = append(f.logins, adminName)
	return nil
}

func TestLogActivity_DefaultsMetadata(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, &fakeBroadcaster{}, testLogger())
	adminID := uuid.New()

	err := svc.LogActivity(context.Background(), adminID, notification.TypeAdminAction, "Mengubah paket pelanggan", nil)
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, adminID, entry.AdminID)
	assert.Equal(t, notification.TypeAdminAction, entry.Action)
	assert.Equal(t, json.RawMessage(`{}`), entry.Metadata)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestLogActivity_MarshalsMetadata(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, &fakeBroadcaster{}, testLogger())

	err := svc.LogActivity(context.Background(), uuid.New(), notification.TypeCustomerAdded,
		"Menambahkan pelanggan baru: Siti", map[string]any{"customer_name": "Siti"})
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(repo.entries[0].Metadata, &meta))
	assert.Equal(t, "Siti", meta["customer_name"])
}

func TestNotifyPayment_BroadcastsAndLogs(t *testing.T) {
	repo := &fakeActivityRepo{}
	bc := &fakeBroadcaster{}
	svc := NewActivityService(repo, bc, testLogger())

	p := notification.PaymentBroadcast{
		CustomerName:  "Budi Santoso",
		CustomerCode:  "SLG-0042",
		InvoicePeriod: "Agustus 2026",
		Amount:        150000,
		CustomerID:    uuid.New(),
		InvoiceID:     uuid.New(),
	}
	err := svc.NotifyPayment(context.Background(), uuid.New(), "Admin Tika", p)
	require.NoError(t, err)

	require.Len(t, bc.payments, 1)
	assert.Equal(t, "Admin Tika", bc.payments[0].AdminName)
	require.Len(t, repo.entries, 1)
	assert.Contains(t, repo.entries[0].Description, "Budi Santoso")
}

func TestNotifyPayment_LogFailureDoesNotBlockBroadcast(t *testing.T) {
	repo := &fakeActivityRepo{logErr: fmt.Errorf("insert rejected")}
	bc := &fakeBroadcaster{}
	svc := NewActivityService(repo, bc, testLogger())

	err := svc.NotifyPayment(context.Background(), uuid.New(), "Admin Tika", notification.PaymentBroadcast{
		CustomerName:  "Budi",
		InvoicePeriod: "Agustus 2026",
	})
	require.NoError(t, err)
	assert.Len(t, bc.payments, 1, "the broadcast must go out even when the audit write fails")
}

func TestNotifyBroadcastFailuresSurface(t *testing.T) {
	repo := &fakeActivityRepo{}
	bc := &fakeBroadcaster{err: fmt.Errorf("procedure failed")}
	svc := NewActivityService(repo, bc, testLogger())
	ctx := context.Background()
	adminID := uuid.New()

	assert.Error(t, svc.NotifyPayment(ctx, adminID, "Admin", notification.PaymentBroadcast{}))
	assert.Error(t, svc.NotifyInvoiceCreation(ctx, adminID, "Admin", 12, "Agustus 2026"))
	assert.Error(t, svc.NotifyCustomerAdded(ctx, adminID, "Admin", "Siti"))
	assert.Error(t, svc.NotifyAdminLogin(ctx, adminID, "Admin"))
}

func TestNotifyInvoiceCreationAndCustomerAdded(t *testing.T) {
	repo := &fakeActivityRepo{}
	bc := &fakeBroadcaster{}
	svc := NewActivityService(repo, bc, testLogger())
	ctx := context.Background()
	adminID := uuid.New()

	require.NoError(t, svc.NotifyInvoiceCreation(ctx, adminID, "Admin Tika", 12, "Agustus 2026"))
	require.NoError(t, svc.NotifyCustomerAdded(ctx, adminID, "Admin Tika", "Siti"))
	require.NoError(t, svc.NotifyAdminLogin(ctx, adminID, "Admin Tika"))

	assert.Equal(t, []string{"Admin Tika/12/Agustus 2026"}, bc.invoices)
	assert.Equal(t, []string{"Siti"}, bc.customers)
	assert.Equal(t, []string{"Admin Tika"}, bc.logins)
	assert.Len(t, repo.entries, 3)
}
