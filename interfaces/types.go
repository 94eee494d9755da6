package interfaces

import (
	"errors"
	"fmt"
	"strings"
)

// CAID identifies a certificate authority in the account.
type CAID int64

// CertID identifies a certificate.
type CertID int64

// CertState is a bitmask of certificate states used to filter certificate listings.
type CertState int

const (
	StateExpired CertState = 1
	StateGood    CertState = 2
	StateRevoked CertState = 4
	StateHold    CertState = 8

	// AllCertStates selects certificates in any state.
	AllCertStates = StateExpired | StateGood | StateRevoked | StateHold
)

// Has reports whether every bit of other is set in s.
func (s CertState) Has(other CertState) bool {
	return s&other == other
}

// ParseCertStates parses a comma separated list of state names into a bitmask.
func ParseCertStates(raw string) (CertState, error) {
	if strings.TrimSpace(raw) == "" || raw == "all" {
		return AllCertStates, nil
	}

	var states CertState
	for _, name := range strings.Split(raw, ",") {
		switch strings.TrimSpace(name) {
		case "expired":
			states |= StateExpired
		case "good":
			states |= StateGood
		case "revoked":
			states |= StateRevoked
		case "hold":
			states |= StateHold
		default:
			return 0, fmt.Errorf("unknown certificate state: %q", name)
		}
	}
	return states, nil
}

// CertStatus is the status a certificate can be moved to.
type CertStatus string

const (
	StatusGood    CertStatus = "good"
	StatusHold    CertStatus = "hold"
	StatusRevoked CertStatus = "revoked"
)

// Validate checks that the status is one the service accepts.
func (s CertStatus) Validate() error {
	switch s {
	case StatusGood, StatusHold, StatusRevoked:
		return nil
	default:
		return fmt.Errorf("invalid certificate status: %q", string(s))
	}
}

// State returns the list filter bit matching the status.
func (s CertStatus) State() CertState {
	switch s {
	case StatusGood:
		return StateGood
	case StatusHold:
		return StateHold
	case StatusRevoked:
		return StateRevoked
	default:
		return 0
	}
}

// DataType selects which material cert/get downloads.
type DataType string

const (
	DataCert         DataType = "cert"
	DataChain        DataType = "chain"
	DataCSR          DataType = "csr"
	DataKeyDecrypted DataType = "key.dec"
	DataKeyEncrypted DataType = "key.enc"
)

// Validate checks that the data type is one the service accepts.
func (d DataType) Validate() error {
	switch d {
	case DataCert, DataChain, DataCSR, DataKeyDecrypted, DataKeyEncrypted:
		return nil
	default:
		return fmt.Errorf("invalid data type: %q", string(d))
	}
}

// IsKey reports whether the material is a private key.
func (d DataType) IsKey() bool {
	return d == DataKeyDecrypted || d == DataKeyEncrypted
}

// SANType is the tag of a Subject Alternative Name entry.
type SANType string

const (
	SANDNS   SANType = "DNS"
	SANIP    SANType = "IP"
	SANEmail SANType = "email"
	SANURI   SANType = "URI"
)

// SAN is a typed Subject Alternative Name.
type SAN struct {
	Type  SANType
	Value string
}

// ParseSAN parses "TYPE:value", e.g. "DNS:www.example.com".
func ParseSAN(raw string) (SAN, error) {
	tag, value, ok := strings.Cut(raw, ":")
	if !ok || value == "" {
		return SAN{}, fmt.Errorf("invalid SAN %q, expected TYPE:value", raw)
	}
	switch SANType(tag) {
	case SANDNS, SANIP, SANEmail, SANURI:
		return SAN{Type: SANType(tag), Value: value}, nil
	default:
		return SAN{}, fmt.Errorf("unsupported SAN type: %q", tag)
	}
}

// CARequest describes a certificate authority to create.
type CARequest struct {
	C          string // required, ISO 3166-1 alpha-2
	O          string // required
	L          string
	ST         string
	HashMethod string // required, "sha1" or "sha256"
}

// Validate checks the required fields.
func (r CARequest) Validate() error {
	if r.C == "" || r.O == "" {
		return errors.New("country and organization are required")
	}
	if r.HashMethod != "sha1" && r.HashMethod != "sha256" {
		return fmt.Errorf("invalid hash method: %q", r.HashMethod)
	}
	return nil
}

// Params converts the request into API parameters. Empty optional fields are omitted.
func (r CARequest) Params() Params {
	p := Params{
		"C":           String(r.C),
		"O":           String(r.O),
		"hash_method": String(r.HashMethod),
	}
	setOptional(p, "L", r.L)
	setOptional(p, "ST", r.ST)
	return p
}

// CertRequest describes a certificate to create under a CA.
type CertRequest struct {
	C    string // required
	CN   string // required
	O    string // required
	L    string
	OU   string
	ST   string
	SANs []SAN
}

// Validate checks the required fields.
func (r CertRequest) Validate() error {
	if r.C == "" || r.CN == "" || r.O == "" {
		return errors.New("country, common name and organization are required")
	}
	return nil
}

// Params converts the request into API parameters. SANs become an EntryList.
func (r CertRequest) Params() Params {
	p := Params{
		"C":  String(r.C),
		"CN": String(r.CN),
		"O":  String(r.O),
	}
	setOptional(p, "L", r.L)
	setOptional(p, "OU", r.OU)
	setOptional(p, "ST", r.ST)
	if len(r.SANs) > 0 {
		sans := make(EntryList, 0, len(r.SANs))
		for _, san := range r.SANs {
			sans = append(sans, Entry{Tag: string(san.Type), Value: String(san.Value)})
		}
		p["SANs"] = sans
	}
	return p
}

func setOptional(p Params, key, value string) {
	if value != "" {
		p[key] = String(value)
	}
}
