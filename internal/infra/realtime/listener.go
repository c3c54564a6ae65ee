// Package realtime subscribes to the backend's row-change channel. Insert
// triggers on the notifications and admin_activity_log tables NOTIFY the
// inserted row as JSON; this package decodes those payloads and delivers
// them onto a bounded in-process queue consumed by the relay.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/domain/notification"
)

// NOTIFY channels fed by the backend's insert triggers.
const (
	channelNotifications = "notifications_insert"
	channelActivity      = "admin_activity_insert"
)

const (
	minReconnectInterval = 1 * time.Second
	maxReconnectInterval = 30 * time.Second
	pingInterval         = 90 * time.Second
)

// EventKind distinguishes the two insert streams of one subscription.
type EventKind string

const (
	EventNotificationInserted EventKind = "notification_inserted"
	EventActivityInserted     EventKind = "activity_inserted"
)

// Event is one decoded insert. Exactly one of Notification or Activity is
// set, matching Kind. No ordering is guaranteed between the two kinds.
type Event struct {
	Kind         EventKind
	Notification *notification.Notification
	Activity     *notification.ActivityEntry
}

// Opener builds session-scoped subscriptions. Each Open call creates its own
// backend connection; the caller owns the returned subscription and must
// Close it before opening a replacement.
type Opener struct {
	conninfo  string
	queueSize int
	logger    *logrus.Logger
}

func NewOpener(conninfo string, queueSize int, logger *logrus.Logger) *Opener {
	return &Opener{conninfo: conninfo, queueSize: queueSize, logger: logger}
}

// Open starts listening on both insert channels and returns the live
// subscription. ctx bounds the whole lifetime of the subscription: when it
// is cancelled the subscription shuts down as if Close had been called.
func (o *Opener) Open(ctx context.Context) (*Subscription, error) {
	listener := pq.NewListener(o.conninfo, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				o.logger.Warnf("realtime listener event %d: %v", ev, err)
			}
		})

	for _, ch := range []string{channelNotifications, channelActivity} {
		if err := listener.Listen(ch); err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to listen on %s: %w", ch, err)
		}
	}

	s := &Subscription{
		listener: listener,
		events:   make(chan Event, o.queueSize),
		done:     make(chan struct{}),
		logger:   o.logger,
	}
	go s.run(ctx)
	return s, nil
}

// Subscription is one live channel handle. It is exclusively owned by the
// session that opened it; events stop and the queue is closed after Close.
type Subscription struct {
	listener  *pq.Listener
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	logger    *logrus.Logger
}

// Events returns the queue of decoded inserts. The channel is closed when
// the subscription shuts down.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.events)
	defer s.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case n := <-s.listener.Notify:
			if n == nil {
				// Connection was re-established; events in between may
				// have been missed. The relay's fallback poll covers it.
				s.logger.Warn("realtime listener reconnected")
				continue
			}
			ev, err := decodeEvent(n.Channel, []byte(n.Extra))
			if err != nil {
				s.logger.Warnf("dropping undecodable %s payload: %v", n.Channel, err)
				continue
			}
			s.enqueue(ev)
		case <-time.After(pingInterval):
			if err := s.listener.Ping(); err != nil {
				s.logger.Warnf("realtime listener ping failed: %v", err)
			}
		}
	}
}

// enqueue delivers an event without ever blocking the stream. When the queue
// is full the oldest queued event is dropped in favor of the new one.
func (s *Subscription) enqueue(ev Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case dropped := <-s.events:
			s.logger.Warnf("relay queue full, dropping oldest event (%s)", dropped.Kind)
		default:
		}
	}
}

// decodeEvent unmarshals a NOTIFY payload into a typed event. Unknown
// channels and malformed rows fail closed.
func decodeEvent(channel string, payload []byte) (Event, error) {
	switch channel {
	case channelNotifications:
		n := &notification.Notification{}
		if err := json.Unmarshal(payload, n); err != nil {
			return Event{}, fmt.Errorf("decode notification row: %w", err)
		}
		return Event{Kind: EventNotificationInserted, Notification: n}, nil
	case channelActivity:
		a := &notification.ActivityEntry{}
		if err := json.Unmarshal(payload, a); err != nil {
			return Event{}, fmt.Errorf("decode activity row: %w", err)
		}
		return Event{Kind: EventActivityInserted, Activity: a}, nil
	default:
		return Event{}, fmt.Errorf("unknown channel: %s", channel)
	}
}
