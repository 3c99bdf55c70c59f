package nats

import (
	"context"
	"errors"
)

// classifyNATSError reports whether err should count against the publish
// circuit breaker. Caller cancellation never does.
func classifyNATSError(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
