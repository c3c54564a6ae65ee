// internal/app/relay_service.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/domain/notification"
	"selinggonet_notification_service/internal/infra/realtime"
)

// Pop-up lifetimes. Instant notifications linger longer than peer-activity
// hints.
const (
	instantPopupDuration  = 5 * time.Second
	activityPopupDuration = 3 * time.Second
)

// EventChannel is one live subscription to the backend's insert streams.
type EventChannel interface {
	Events() <-chan realtime.Event
	Close() error
}

// ChannelOpenerFunc opens a new session-scoped event channel.
type ChannelOpenerFunc func(ctx context.Context) (EventChannel, error)

// RelayUI receives the user-visible effects of relay events. Implementations
// must not block; pop-up dismissal after the given duration is the
// implementation's responsibility.
type RelayUI interface {
	ShowInstant(n *notification.Notification, dismissAfter time.Duration)
	ShowActivity(a *notification.ActivityEntry, dismissAfter time.Duration)
	UpdateBadge(unread int)
}

// RelayState is the lifecycle state of the relay's channel.
type RelayState string

const (
	RelayDisconnected RelayState = "DISCONNECTED"
	RelaySubscribing  RelayState = "SUBSCRIBING"
	RelayActive       RelayState = "ACTIVE"
)

// NotificationRelay keeps one admin session live-updated: it owns at most
// one event channel at a time, renders pop-ups for inserts, refreshes the
// unread badge through the backend's aggregate call, and runs a low
// frequency fallback poll that re-derives the badge from locally observed
// state in case channel events were missed.
type NotificationRelay struct {
	open           ChannelOpenerFunc
	notifRepo      notification.Repository
	ui             RelayUI
	adminID        uuid.UUID
	pollInterval   time.Duration
	onNotification func(*notification.Notification) // optional registered callback
	logger         *logrus.Logger

	mu      sync.Mutex
	state   RelayState
	channel EventChannel
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// unreadSeen tracks the read flag of this admin's notifications as
	// observed over the channel; it backs the fallback poll only and is
	// not authoritative.
	cacheMu    sync.Mutex
	unreadSeen map[uuid.UUID]bool
}

func NewNotificationRelay(
	open ChannelOpenerFunc,
	nr notification.Repository,
	ui RelayUI,
	adminID uuid.UUID,
	pollInterval time.Duration,
	logger *logrus.Logger,
) *NotificationRelay {
	return &NotificationRelay{
		open:         open,
		notifRepo:    nr,
		ui:           ui,
		adminID:      adminID,
		pollInterval: pollInterval,
		logger:       logger,
		state:        RelayDisconnected,
		unreadSeen:   make(map[uuid.UUID]bool),
	}
}

// OnNotification registers the callback invoked for every notification
// insert. Must be called before Start.
func (r *NotificationRelay) OnNotification(cb func(*notification.Notification)) {
	r.onNotification = cb
}

// State returns the relay's current lifecycle state.
func (r *NotificationRelay) State() RelayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start opens the event channel and begins relaying. If a channel is already
// active it is closed first, so a single backend insert can never reach two
// callbacks of the same session.
func (r *NotificationRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teardownLocked()

	r.state = RelaySubscribing
	ch, err := r.open(ctx)
	if err != nil {
		r.state = RelayDisconnected
		return fmt.Errorf("failed to open event channel: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.channel = ch
	r.cancel = cancel
	r.state = RelayActive
	r.logger.Infof("Notification relay active for admin %s", r.adminID)

	r.wg.Add(1)
	go r.run(runCtx, ch)
	return nil
}

// Stop tears the relay down and waits for the processing loop to exit.
func (r *NotificationRelay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
}

// teardownLocked closes the current channel, if any, and waits for its loop.
// Callers must hold r.mu.
func (r *NotificationRelay) teardownLocked() {
	if r.channel == nil {
		return
	}
	r.channel.Close()
	r.cancel()
	r.wg.Wait()
	r.channel = nil
	r.cancel = nil
	r.state = RelayDisconnected
	r.logger.Info("Notification relay disconnected")
}

// run is the single processing loop of one subscription: channel events and
// the fallback poll interleave here, and nothing in the loop blocks on the
// effects it triggers.
func (r *NotificationRelay) run(ctx context.Context, ch EventChannel) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch.Events():
			if !ok {
				return
			}
			r.handleEvent(ctx, ev)
		case <-ticker.C:
			// Deliberate redundancy: if a channel event was missed, the
			// poll still converges the badge to locally observed state.
			r.ui.UpdateBadge(r.cachedUnread())
		}
	}
}

func (r *NotificationRelay) handleEvent(ctx context.Context, ev realtime.Event) {
	switch ev.Kind {
	case realtime.EventNotificationInserted:
		n := ev.Notification
		if n.UserID == r.adminID && !n.Read {
			r.rememberUnread(n.ID)
		}
		if r.onNotification != nil {
			r.onNotification(n)
		}
		r.ui.ShowInstant(n, instantPopupDuration)
		r.refreshBadge(ctx)
	case realtime.EventActivityInserted:
		a := ev.Activity
		// Own actions are not echoed back as pop-ups.
		if a.AdminID == r.adminID {
			return
		}
		r.ui.ShowActivity(a, activityPopupDuration)
	default:
		r.logger.Warnf("Ignoring event of unknown kind %q", ev.Kind)
	}
}

// refreshBadge fetches the authoritative unread count as a fire-and-forget
// task: failures are logged and the triggering event is unaffected.
func (r *NotificationRelay) refreshBadge(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		count, err := r.notifRepo.UnreadCount(ctx, r.adminID)
		if err != nil {
			r.logger.Errorf("Failed to refresh unread badge: %v", err)
			return
		}
		r.ui.UpdateBadge(count)
	}()
}

// MarkRead marks one of this admin's notifications read and updates the
// local unread cache.
func (r *NotificationRelay) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if err := r.notifRepo.MarkRead(ctx, notificationID, r.adminID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	r.cacheMu.Lock()
	delete(r.unreadSeen, notificationID)
	r.cacheMu.Unlock()
	return nil
}

func (r *NotificationRelay) rememberUnread(id uuid.UUID) {
	r.cacheMu.Lock()
	r.unreadSeen[id] = true
	r.cacheMu.Unlock()
}

func (r *NotificationRelay) cachedUnread() int {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	return len(r.unreadSeen)
}
