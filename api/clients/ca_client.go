package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/interfaces"
)

// CAClient manages the certificate authorities of an account.
// Every typed result keeps the response body it was decoded from in Raw.
type CAClient struct {
	requester interfaces.Requester
}

// NewCAClient creates a CA client on top of an authenticated requester.
// Use Session.CA to obtain one from a session.
func NewCAClient(requester interfaces.Requester) *CAClient {
	return &CAClient{requester: requester}
}

// List returns the CAs in the account.
func (c *CAClient) List(ctx context.Context) ([]api.CAInfo, error) {
	return callList[api.CAInfo](ctx, c.requester, "ca/list", nil)
}

// Details retrieves the subject and hash algorithm of a CA.
func (c *CAClient) Details(ctx context.Context, caID interfaces.CAID) (*api.CADetails, error) {
	return call[api.CADetails](ctx, c.requester, "ca/details", interfaces.Params{
		"ca_id": interfaces.Int(int64(caID)),
	})
}

// Get downloads the CA certificate.
func (c *CAClient) Get(ctx context.Context, caID interfaces.CAID) (*api.PEMResponse, error) {
	return call[api.PEMResponse](ctx, c.requester, "ca/get", interfaces.Params{
		"ca_id": interfaces.Int(int64(caID)),
		"what":  interfaces.String(string(interfaces.DataCert)),
	})
}

// Delete removes the CA and returns the response body as received.
func (c *CAClient) Delete(ctx context.Context, caID interfaces.CAID) (json.RawMessage, error) {
	return c.requester.Request(ctx, "ca/delete", interfaces.Params{
		"ca_id": interfaces.Int(int64(caID)),
	})
}

// Create creates a new CA in the account.
func (c *CAClient) Create(ctx context.Context, req interfaces.CARequest) (*api.CreateCAResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return call[api.CreateCAResponse](ctx, c.requester, "ca/new", req.Params())
}

// rawRecord is a pointer to a response record that keeps its source JSON.
type rawRecord[T any] interface {
	*T
	SetRaw(json.RawMessage)
}

// call issues a request and decodes the response into T.
func call[T any, PT rawRecord[T]](ctx context.Context, requester interfaces.Requester, path string, params interfaces.Params) (*T, error) {
	raw, err := requester.Request(ctx, path, params)
	if err != nil {
		return nil, err
	}

	result := new(T)
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("could not parse %s response: %w", path, err)
	}
	PT(result).SetRaw(raw)
	return result, nil
}

// callList issues a request whose response is a JSON array and decodes each
// element into T, keeping the element's own JSON.
func callList[T any, PT rawRecord[T]](ctx context.Context, requester interfaces.Requester, path string, params interfaces.Params) ([]T, error) {
	raw, err := requester.Request(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("could not parse %s response: %w", path, err)
	}

	result := make([]T, len(elems))
	for i, elem := range elems {
		if err := json.Unmarshal(elem, &result[i]); err != nil {
			return nil, fmt.Errorf("could not parse %s response entry %d: %w", path, i, err)
		}
		PT(&result[i]).SetRaw(elem)
	}
	return result, nil
}
