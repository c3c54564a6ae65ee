package push

import "context"

// MulticastResult reports how many device tokens of one multicast call were
// accepted by the push provider and how many were rejected.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
}

// Client defines an interface for delivering a push notification to a set of
// device tokens. This decouples the reminder job from the concrete push
// provider.
type Client interface {
	// SendMulticast delivers one title/body pair to every token and returns
	// per-token success/failure counts. A returned error means the call as
	// a whole failed and nothing was delivered.
	SendMulticast(ctx context.Context, tokens []string, title, body string) (MulticastResult, error)
}
