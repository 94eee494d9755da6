package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an operation requires a session token
	// and none is held. It indicates incorrect call ordering and is not retryable.
	ErrNoSession = errors.New("must connect the session first")

	// ErrMalformedParams is returned when a parameter structure cannot be flattened.
	ErrMalformedParams = errors.New("malformed parameter structure")

	// ErrInvalidDigest is returned when a signed payload fails digest verification.
	ErrInvalidDigest = errors.New("invalid request digest")

	// ErrInvalidResponse is returned when a 2xx response body is not valid JSON.
	ErrInvalidResponse = errors.New("invalid JSON response")
)

// HTTPError is returned for any non-2xx response from the remote service.
// The body is kept as received.
type HTTPError struct {
	Path       string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.StatusCode, string(e.Body))
}
