package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Classified provider failures. The HTTP layer maps these onto status codes,
// callers pick them apart with errors.Is / errors.As.
var (
	// ErrAuth covers token acquisition and credential problems.
	ErrAuth = errors.New("provider authentication failed")
	// ErrTransport covers connection-level failures before a response arrived.
	ErrTransport = errors.New("provider unreachable")
	// ErrTimeout covers deadline expiry on a provider call.
	ErrTimeout = errors.New("provider call timed out")
	// ErrNotFound marks a reference-data lookup with no match.
	ErrNotFound = errors.New("not found")
)

// RejectedError is a non-2xx response from a provider endpoint. The raw body
// is kept so operators can see the provider's own diagnostics in the logs.
type RejectedError struct {
	Provider string
	Endpoint string
	Status   int
	Body     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected %s with status %d: %s", e.Provider, e.Endpoint, e.Status, e.Body)
}

// classifyTransport folds a failed round trip into ErrTimeout or ErrTransport.
func classifyTransport(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", provider, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %v", provider, ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", provider, ErrTransport, err)
}
