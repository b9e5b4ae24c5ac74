package application

import "context"

// Worker is a background process (the history writer, the price poller).
// Implementations run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
