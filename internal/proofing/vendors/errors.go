package vendors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TimeoutError marks a vendor call that exceeded its deadline. The agent
// records it on the result and never re-raises it to callers.
type TimeoutError struct {
	Vendor     string
	Underlying error
}

func (e *TimeoutError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("vendor %s timed out: %v", e.Vendor, e.Underlying)
	}
	return fmt.Sprintf("vendor %s timed out", e.Vendor)
}

func (e *TimeoutError) Unwrap() error { return e.Underlying }

// NewTimeoutError wraps a deadline failure from a vendor call.
func NewTimeoutError(vendor string, underlying error) *TimeoutError {
	return &TimeoutError{Vendor: vendor, Underlying: underlying}
}

// IsTimeout classifies an error from a vendor call as deadline-related.
// Besides the explicit TimeoutError, context deadline expiry and net-level
// timeouts count, since HTTP vendors surface those directly.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
