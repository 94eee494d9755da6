package clients

import (
	"context"
	"encoding/json"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/interfaces"
)

// CertClient manages certificates issued by the account's CAs.
// Every typed result keeps the response body it was decoded from in Raw.
type CertClient struct {
	requester interfaces.Requester
}

// NewCertClient creates a certificate client on top of an authenticated requester.
// Use Session.Cert to obtain one from a session.
func NewCertClient(requester interfaces.Requester) *CertClient {
	return &CertClient{requester: requester}
}

// List returns the certificates of a CA in any of the given states.
func (c *CertClient) List(ctx context.Context, caID interfaces.CAID, states interfaces.CertState) ([]api.CertInfo, error) {
	return callList[api.CertInfo](ctx, c.requester, "cert/list", interfaces.Params{
		"ca_id": interfaces.Int(int64(caID)),
		"what":  interfaces.Int(int64(states)),
	})
}

// Details retrieves the subject, SANs and status of a certificate.
func (c *CertClient) Details(ctx context.Context, certID interfaces.CertID) (*api.CertDetails, error) {
	return call[api.CertDetails](ctx, c.requester, "cert/details", interfaces.Params{
		"cert_id": interfaces.Int(int64(certID)),
	})
}

// Get downloads certificate material: the certificate, its chain, the CSR or the key.
func (c *CertClient) Get(ctx context.Context, certID interfaces.CertID, dataType interfaces.DataType) (*api.PEMResponse, error) {
	if err := dataType.Validate(); err != nil {
		return nil, err
	}
	return call[api.PEMResponse](ctx, c.requester, "cert/get", interfaces.Params{
		"cert_id": interfaces.Int(int64(certID)),
		"what":    interfaces.String(string(dataType)),
	})
}

// Reissue issues a new certificate with the same details.
func (c *CertClient) Reissue(ctx context.Context, certID interfaces.CertID) (*api.CreateCertResponse, error) {
	return call[api.CreateCertResponse](ctx, c.requester, "cert/reissue", interfaces.Params{
		"cert_id": interfaces.Int(int64(certID)),
	})
}

// SetStatus moves a certificate to good, hold or revoked and returns the
// response body as received.
func (c *CertClient) SetStatus(ctx context.Context, certID interfaces.CertID, status interfaces.CertStatus) (json.RawMessage, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	return c.requester.Request(ctx, "cert/status", interfaces.Params{
		"cert_id": interfaces.Int(int64(certID)),
		"status":  interfaces.String(string(status)),
	})
}

// Create issues a new certificate signed by the given CA.
func (c *CertClient) Create(ctx context.Context, caID interfaces.CAID, req interfaces.CertRequest) (*api.CreateCertResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	params := req.Params()
	params["ca_id"] = interfaces.Int(int64(caID))

	return call[api.CreateCertResponse](ctx, c.requester, "cert/new", params)
}
