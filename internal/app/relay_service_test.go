package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selinggonet_notification_service/internal/domain/notification"
	"selinggonet_notification_service/internal/infra/realtime"
)

type fakeChannel struct {
	events    chan realtime.Event
	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan realtime.Event, 16)}
}

func (f *fakeChannel) Events() <-chan realtime.Event { return f.events }

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.events)
	})
	return nil
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeNotifRepo struct {
	mu        sync.Mutex
	unread    int
	unreadErr error
	marked    []uuid.UUID
}

func (f *fakeNotifRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreadErr != nil {
		return 0, f.unreadErr
	}
	return f.unread, nil
}

func (f *fakeNotifRepo) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, notificationID)
	return nil
}

func (f *fakeNotifRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	return nil, nil
}

func (f *fakeNotifRepo) LogActivity(ctx context.Context, entry *notification.ActivityEntry) error {
	return nil
}

type shownPopup struct {
	title    string
	duration time.Duration
}

type recordingUI struct {
	mu         sync.Mutex
	instants   []shownPopup
	activities []shownPopup
	badges     []int
}

func (u *recordingUI) ShowInstant(n *notification.Notification, dismissAfter time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.instants = append(u.instants, shownPopup{title: n.Title, duration: dismissAfter})
}

func (u *recordingUI) ShowActivity(a *notification.ActivityEntry, dismissAfter time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.activities = append(u.activities, shownPopup{title: a.Description, duration: dismissAfter})
}

func (u *recordingUI) UpdateBadge(unread int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.badges = append(u.badges, unread)
}

func (u *recordingUI) instantCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.instants)
}

func (u *recordingUI) activityCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.activities)
}

func (u *recordingUI) lastBadge() (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.badges) == 0 {
		return 0, false
	}
	return u.badges[len(u.badges)-1], true
}

func notifEvent(userID uuid.UUID, title string, read bool) realtime.Event {
	return realtime.Event{
		Kind: realtime.EventNotificationInserted,
		Notification: &notification.Notification{
			ID:     uuid.New(),
			Type:   notification.TypePaymentProcessed,
			Title:  title,
			UserID: userID,
			Read:   read,
		},
	}
}

func activityEvent(adminID uuid.UUID, description string) realtime.Event {
	return realtime.Event{
		Kind: realtime.EventActivityInserted,
		Activity: &notification.ActivityEntry{
			ID:          uuid.New(),
			AdminID:     adminID,
			Action:      notification.TypeAdminAction,
			Description: description,
		},
	}
}

func newTestRelay(open ChannelOpenerFunc, repo *fakeNotifRepo, ui *recordingUI, adminID uuid.UUID) *NotificationRelay {
	return NewNotificationRelay(open, repo, ui, adminID, time.Hour, testLogger())
}

func TestRelay_StartFailureStaysDisconnected(t *testing.T) {
	open := func(ctx context.Context) (EventChannel, error) {
		return nil, fmt.Errorf("subscribe rejected")
	}
	relay := newTestRelay(open, &fakeNotifRepo{}, &recordingUI{}, uuid.New())

	err := relay.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, RelayDisconnected, relay.State())
}

func TestRelay_NotificationShowsInstantPopup(t *testing.T) {
	adminID := uuid.New()
	ch := newFakeChannel()
	repo := &fakeNotifRepo{unread: 7}
	ui := &recordingUI{}
	relay := newTestRelay(func(ctx context.Context) (EventChannel, error) { return ch, nil }, repo, ui, adminID)

	var callbackTitles []string
	var cbMu sync.Mutex
	relay.OnNotification(func(n *notification.Notification) {
		cbMu.Lock()
		callbackTitles = append(callbackTitles, n.Title)
		cbMu.Unlock()
	})

	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()
	assert.Equal(t, RelayActive, relay.State())

	ch.events <- notifEvent(adminID, "Pembayaran Diterima", false)

	assert.Eventually(t, func() bool { return ui.instantCount() == 1 }, time.Second, 10*time.Millisecond)
	ui.mu.Lock()
	popup := ui.instants[0]
	ui.mu.Unlock()
	assert.Equal(t, "Pembayaran Diterima", popup.title)
	assert.Equal(t, 5*time.Second, popup.duration)

	cbMu.Lock()
	assert.Equal(t, []string{"Pembayaran Diterima"}, callbackTitles)
	cbMu.Unlock()

	// The badge refresh is asynchronous and fed by the backend count.
	assert.Eventually(t, func() bool {
		badge, ok := ui.lastBadge()
		return ok && badge == 7
	}, time.Second, 10*time.Millisecond)
}

func TestRelay_OwnActivityNotEchoed(t *testing.T) {
	adminID := uuid.New()
	ch := newFakeChannel()
	ui := &recordingUI{}
	relay := newTestRelay(func(ctx context.Context) (EventChannel, error) { return ch, nil }, &fakeNotifRepo{}, ui, adminID)

	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	ch.events <- activityEvent(adminID, "Memproses pembayaran")
	ch.events <- activityEvent(uuid.New(), "Menambahkan pelanggan baru")

	assert.Eventually(t, func() bool { return ui.activityCount() == 1 }, time.Second, 10*time.Millisecond)
	ui.mu.Lock()
	popup := ui.activities[0]
	ui.mu.Unlock()
	assert.Equal(t, "Menambahkan pelanggan baru", popup.title)
	assert.Equal(t, 3*time.Second, popup.duration)

	// Give the own-admin entry time to have been (wrongly) rendered.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, ui.activityCount())
}

func TestRelay_RestartClosesPreviousChannel(t *testing.T) {
	adminID := uuid.New()
	first := newFakeChannel()
	second := newFakeChannel()
	channels := []*fakeChannel{first, second}
	var opened int
	open := func(ctx context.Context) (EventChannel, error) {
		ch := channels[opened]
		opened++
		return ch, nil
	}

	ui := &recordingUI{}
	relay := newTestRelay(open, &fakeNotifRepo{}, ui, adminID)

	var callbacks int
	var cbMu sync.Mutex
	relay.OnNotification(func(*notification.Notification) {
		cbMu.Lock()
		callbacks++
		cbMu.Unlock()
	})

	require.NoError(t, relay.Start(context.Background()))
	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	assert.True(t, first.isClosed(), "reopening must close the previous channel first")
	assert.Equal(t, RelayActive, relay.State())

	second.events <- notifEvent(adminID, "Tagihan Dibuat", false)

	assert.Eventually(t, func() bool {
		cbMu.Lock()
		defer cbMu.Unlock()
		return callbacks == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	cbMu.Lock()
	assert.Equal(t, 1, callbacks, "one insert must reach the callback exactly once")
	cbMu.Unlock()
}

func TestRelay_StopDisconnects(t *testing.T) {
	ch := newFakeChannel()
	relay := newTestRelay(func(ctx context.Context) (EventChannel, error) { return ch, nil }, &fakeNotifRepo{}, &recordingUI{}, uuid.New())

	require.NoError(t, relay.Start(context.Background()))
	relay.Stop()

	assert.Equal(t, RelayDisconnected, relay.State())
	assert.True(t, ch.isClosed())
}

func TestRelay_FallbackPollUsesLocalCache(t *testing.T) {
	adminID := uuid.New()
	ch := newFakeChannel()
	// Authoritative refresh fails; the poll alone must converge the badge.
	repo := &fakeNotifRepo{unreadErr: fmt.Errorf("backend unavailable")}
	ui := &recordingUI{}
	relay := NewNotificationRelay(
		func(ctx context.Context) (EventChannel, error) { return ch, nil },
		repo, ui, adminID, 20*time.Millisecond, testLogger(),
	)

	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	ch.events <- notifEvent(adminID, "a", false)
	ch.events <- notifEvent(adminID, "b", false)
	ch.events <- notifEvent(uuid.New(), "someone else's", false)
	ch.events <- notifEvent(adminID, "already read", true)

	assert.Eventually(t, func() bool {
		badge, ok := ui.lastBadge()
		return ok && badge == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRelay_MarkReadShrinksCache(t *testing.T) {
	adminID := uuid.New()
	ch := newFakeChannel()
	repo := &fakeNotifRepo{}
	relay := newTestRelay(func(ctx context.Context) (EventChannel, error) { return ch, nil }, repo, &recordingUI{}, adminID)

	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	ev := notifEvent(adminID, "unread one", false)
	ch.events <- ev
	ch.events <- notifEvent(adminID, "unread two", false)

	assert.Eventually(t, func() bool { return relay.cachedUnread() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, relay.MarkRead(context.Background(), ev.Notification.ID))
	assert.Equal(t, 1, relay.cachedUnread())

	repo.mu.Lock()
	assert.Equal(t, []uuid.UUID{ev.Notification.ID}, repo.marked)
	repo.mu.Unlock()
}
