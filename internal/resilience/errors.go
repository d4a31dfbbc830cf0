package resilience

import (
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/tradedesk/tiercache/internal/types"
)

// ErrCircuitOpen is re-exported so callers inside this package can use the
// shorter name.
var ErrCircuitOpen = types.ErrCircuitOpen

// IsCircuitOpen returns true if the error is a circuit open error.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, types.ErrCircuitOpen)
}

// IsRetryable determines if an error is transient and worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Circuit open errors should not be retried
	if errors.Is(err, types.ErrCircuitOpen) {
		return false
	}

	// A miss is a definitive answer, not a fault
	if errors.Is(err, types.ErrCacheMiss) {
		return false
	}

	// Check for temporary network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Check for connection refused, reset, etc.
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// Check for temporary OS errors
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	// By default, assume errors are retryable for resilience
	return true
}
