package email

import (
	"context"
	"time"
)

func newSendContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so the request finishing doesn't abort the send.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}
