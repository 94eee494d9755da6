package interfaces

import (
	"context"
	"encoding/json"
)

// Requester issues a signed call against a TinyCert v1 endpoint and returns
// the JSON response body as received.
type Requester interface {
	Request(ctx context.Context, path string, params Params) (json.RawMessage, error)
}

// SessionState is the authentication state of a session.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
