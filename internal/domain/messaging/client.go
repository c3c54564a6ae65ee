package messaging

import "context"

// Client defines an interface for queueing one outbound chat message to a
// destination address, decoupling the reminder job from the concrete
// gateway. One logical message per call; the gateway does its own queueing.
type Client interface {
	Send(ctx context.Context, target, message string) error
}
