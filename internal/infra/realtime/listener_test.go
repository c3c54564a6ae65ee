package realtime

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selinggonet_notification_service/internal/domain/notification"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDecodeEvent_NotificationRow(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	payload := []byte(`{
		"id": "` + id.String() + `",
		"type": "payment_processed",
		"title": "Pembayaran Diterima",
		"body": "Pembayaran Budi telah diproses",
		"read": false,
		"user_id": "` + userID.String() + `",
		"created_at": "2026-08-31T08:00:00Z"
	}`)

	ev, err := decodeEvent("notifications_insert", payload)
	require.NoError(t, err)

	assert.Equal(t, EventNotificationInserted, ev.Kind)
	require.NotNil(t, ev.Notification)
	assert.Nil(t, ev.Activity)
	assert.Equal(t, id, ev.Notification.ID)
	assert.Equal(t, userID, ev.Notification.UserID)
	assert.Equal(t, notification.TypePaymentProcessed, ev.Notification.Type)
	assert.Equal(t, "Pembayaran Diterima", ev.Notification.Title)
	assert.False(t, ev.Notification.Read)
}

func TestDecodeEvent_ActivityRow(t *testing.T) {
	adminID := uuid.New()
	payload := []byte(`{
		"id": "` + uuid.NewString() + `",
		"admin_id": "` + adminID.String() + `",
		"action": "customer_added",
		"description": "Menambahkan pelanggan baru: Siti",
		"metadata": {"customer_name": "Siti"},
		"created_at": "2026-08-31T08:00:00Z"
	}`)

	ev, err := decodeEvent("admin_activity_insert", payload)
	require.NoError(t, err)

	assert.Equal(t, EventActivityInserted, ev.Kind)
	require.NotNil(t, ev.Activity)
	assert.Nil(t, ev.Notification)
	assert.Equal(t, adminID, ev.Activity.AdminID)
	assert.Equal(t, "Menambahkan pelanggan baru: Siti", ev.Activity.Description)
	assert.JSONEq(t, `{"customer_name": "Siti"}`, string(ev.Activity.Metadata))
}

func TestDecodeEvent_FailsClosed(t *testing.T) {
	_, err := decodeEvent("some_other_table_insert", []byte(`{}`))
	assert.Error(t, err, "unknown channels must not produce events")

	_, err = decodeEvent("notifications_insert", []byte(`not json`))
	assert.Error(t, err)

	_, err = decodeEvent("admin_activity_insert", []byte(`{"admin_id": 42}`))
	assert.Error(t, err, "malformed rows must not produce events")
}

func TestEnqueue_DropsOldestWhenFull(t *testing.T) {
	s := &Subscription{
		events: make(chan Event, 2),
		done:   make(chan struct{}),
		logger: testLogger(),
	}

	first := Event{Kind: EventNotificationInserted, Notification: &notification.Notification{Title: "first"}}
	second := Event{Kind: EventNotificationInserted, Notification: &notification.Notification{Title: "second"}}
	third := Event{Kind: EventNotificationInserted, Notification: &notification.Notification{Title: "third"}}

	s.enqueue(first)
	s.enqueue(second)
	s.enqueue(third) // queue full, "first" is sacrificed

	got := <-s.events
	assert.Equal(t, "second", got.Notification.Title)
	got = <-s.events
	assert.Equal(t, "third", got.Notification.Title)

	select {
	case ev := <-s.events:
		t.Fatalf("unexpected extra event %q", ev.Notification.Title)
	default:
	}
}

func TestEnqueue_NeverBlocks(t *testing.T) {
	s := &Subscription{
		events: make(chan Event, 1),
		done:   make(chan struct{}),
		logger: testLogger(),
	}

	// No consumer at all; repeated enqueues must still return.
	for i := 0; i < 100; i++ {
		s.enqueue(Event{Kind: EventActivityInserted, Activity: &notification.ActivityEntry{}})
	}

	assert.Len(t, s.events, 1)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	s := &Subscription{
		events: make(chan Event),
		done:   make(chan struct{}),
		logger: testLogger(),
	}

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	select {
	case <-s.done:
	default:
		t.Fatal("done must be closed after Close")
	}
}
