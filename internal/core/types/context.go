// Provides helper functions for working with contexts.
package types

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NewSignalNotifySubContext creates a new cancellable sub-context that is cancelled when the provided signals are received.
func NewSignalNotifySubContext(ctx context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, signals...)
}

// DefaultSignalNotifySubContext creates a new cancellable sub-context that is cancelled when the default signals (SIGINT and SIGTERM) are received.
func DefaultSignalNotifySubContext() (context.Context, context.CancelFunc) {
	return NewSignalNotifySubContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
