// Package notify delivers operator-facing status messages. The ingestion
// pipeline emits exactly one summary per run through a Notifier.
package notify

import (
	"context"
	"log"
)

// Notifier sends a short free-text message to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LogNotifier writes operator messages to the process log. It is the fallback
// when no delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, text string) error {
	log.Printf("[notify] %s", text)
	return nil
}
