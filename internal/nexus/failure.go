package nexus

import (
	"errors"
	"fmt"
)

// The retry machinery distinguishes two failure classes:
//
//   - network-class: no HTTP response was received (DNS, dial, timeout).
//     Fetch failures of this class back off the poll interval; status-report
//     failures are parked in the retry ledger.
//   - application-class: the producer answered with an error status.
//     These are never retried.

// NetworkError wraps a transport failure where no response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("nexus: %s: no response: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is an HTTP error response from the producer.
type APIError struct {
	Op         string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nexus: %s: unexpected status %d", e.Op, e.StatusCode)
}

// IsNetworkError reports whether err is a transport failure with no
// response, as opposed to a rejection from the producer.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
