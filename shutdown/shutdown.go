package shutdown

import (
	"context"
	"os/signal"
)

// Context returns a context cancelled on the first interrupt (and SIGTERM
// where the platform has it).
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}
