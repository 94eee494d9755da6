package api

import (
	"encoding/json"

	"github.com/ruteri/tinycert-go/interfaces"
)

// Response keeps the JSON a record was decoded from, including fields the
// record does not model.
type Response struct {
	Raw json.RawMessage `json:"-"`
}

// SetRaw records the body the record was decoded from.
func (r *Response) SetRaw(raw json.RawMessage) {
	r.Raw = raw
}

// ConnectResponse is returned by the connect endpoint.
type ConnectResponse struct {
	Token string `json:"token"`
}

// CAInfo is a certificate authority entry returned by ca/list.
type CAInfo struct {
	Response

	ID   interfaces.CAID `json:"id"`
	Name string          `json:"name"`
}

// CADetails is returned by ca/details.
type CADetails struct {
	Response

	ID      interfaces.CAID `json:"id"`
	C       string          `json:"C"`
	ST      string          `json:"ST,omitempty"`
	L       string          `json:"L,omitempty"`
	O       string          `json:"O"`
	OU      string          `json:"OU,omitempty"`
	CN      string          `json:"CN"`
	E       string          `json:"E,omitempty"`
	HashAlg string          `json:"hash_alg"`
}

// CreateCAResponse is returned by ca/new.
type CreateCAResponse struct {
	Response

	CAID interfaces.CAID `json:"ca_id"`
}

// CertInfo is a certificate entry returned by cert/list.
type CertInfo struct {
	Response

	ID      interfaces.CertID     `json:"id"`
	Name    string                `json:"name"`
	Status  interfaces.CertStatus `json:"status"`
	Expires int64                 `json:"expires"`
}

// CertDetails is returned by cert/details.
// Alt holds the Subject Alternative Names as one-key maps, e.g. {"DNS": "example.com"}.
type CertDetails struct {
	Response

	ID      interfaces.CertID     `json:"id"`
	Status  interfaces.CertStatus `json:"status"`
	C       string                `json:"C"`
	ST      string                `json:"ST,omitempty"`
	L       string                `json:"L,omitempty"`
	O       string                `json:"O"`
	OU      string                `json:"OU,omitempty"`
	CN      string                `json:"CN"`
	Alt     []map[string]string   `json:"Alt,omitempty"`
	HashAlg string                `json:"hash_alg"`
}

// SANs converts Alt into typed SANs. Entries with unknown tags are skipped.
func (d *CertDetails) SANs() []interfaces.SAN {
	sans := make([]interfaces.SAN, 0, len(d.Alt))
	for _, entry := range d.Alt {
		for tag, value := range entry {
			san, err := interfaces.ParseSAN(tag + ":" + value)
			if err != nil {
				continue
			}
			sans = append(sans, san)
		}
	}
	return sans
}

// CreateCertResponse is returned by cert/new and cert/reissue.
type CreateCertResponse struct {
	Response

	CertID interfaces.CertID `json:"cert_id"`
}

// PEMResponse carries downloaded PEM material from ca/get and cert/get.
type PEMResponse struct {
	Response

	PEM string `json:"pem"`
}
