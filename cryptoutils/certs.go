package cryptoutils

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"time"

	"github.com/ruteri/tinycert-go/interfaces"
)

// ParseCertificatePEM decodes the first CERTIFICATE block in data.
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("failed to decode certificate PEM block")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

// ParseChainPEM decodes every CERTIFICATE block in data, leaf first.
func ParseChainPEM(data []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate %d in chain: %w", len(chain), err)
		}
		chain = append(chain, cert)
	}

	if len(chain) == 0 {
		return nil, errors.New("no certificates found in chain")
	}
	return chain, nil
}

// Fingerprint returns the lowercase hex SHA-256 of the certificate DER.
func Fingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// VerifyKeyPair validates that a private key matches a certificate and,
// when expectedCN is not empty, that the certificate has that common name.
// PKCS#8, PKCS#1 and SEC 1 keys are accepted.
func VerifyKeyPair(keyPEM, certPEM []byte, expectedCN string) error {
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return errors.New("failed to decode private key PEM block")
	}

	privateKey, err := parsePrivateKey(keyBlock)
	if err != nil {
		return err
	}

	cert, err := ParseCertificatePEM(certPEM)
	if err != nil {
		return err
	}

	if expectedCN != "" && cert.Subject.CommonName != expectedCN {
		return fmt.Errorf("CommonName is %s, expected %s", cert.Subject.CommonName, expectedCN)
	}

	pub, ok := cert.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return errors.New("unsupported key type")
	}
	if !pub.Equal(privateKey.Public()) {
		return errors.New("private key doesn't match certificate")
	}
	return nil
}

func parsePrivateKey(block *pem.Block) (crypto.Signer, error) {
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, errors.New("unsupported private key type")
		}
		return signer, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported private key PEM block %q", block.Type)
	}
}

// IssuedCertificate is PEM material produced by NewCA or IssueCertificate.
type IssuedCertificate struct {
	Cert    *x509.Certificate
	Key     crypto.Signer
	CertPEM []byte
	KeyPEM  []byte
	CSRPEM  []byte
}

// NewCA creates a self-signed ECDSA P-256 certificate authority valid for ten years.
func NewCA(subject pkix.Name) (*IssuedCertificate, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, privateKey.Public(), privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	return newIssued(der, privateKey, nil)
}

// IssueCertificate creates a key and CSR for subject and signs a one year
// leaf certificate with the CA. SANs are mapped to the matching x509 fields.
func IssueCertificate(ca *IssuedCertificate, subject pkix.Name, sans []interfaces.SAN) (*IssuedCertificate, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	csrTemplate := x509.CertificateRequest{
		Subject:            subject,
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}
	if err := applySANs(&csrTemplate, sans); err != nil {
		return nil, err
	}

	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &csrTemplate, privateKey)
	if err != nil {
		return nil, err
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:   serial,
		Subject:        subject,
		NotBefore:      now.Add(-time.Hour),
		NotAfter:       now.AddDate(1, 0, 0),
		KeyUsage:       x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:    []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:       csrTemplate.DNSNames,
		IPAddresses:    csrTemplate.IPAddresses,
		EmailAddresses: csrTemplate.EmailAddresses,
		URIs:           csrTemplate.URIs,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, ca.Cert, privateKey.Public(), ca.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign certificate: %w", err)
	}

	return newIssued(der, privateKey, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csrDER}))
}

func applySANs(csr *x509.CertificateRequest, sans []interfaces.SAN) error {
	for _, san := range sans {
		switch san.Type {
		case interfaces.SANDNS:
			csr.DNSNames = append(csr.DNSNames, san.Value)
		case interfaces.SANIP:
			ip := net.ParseIP(san.Value)
			if ip == nil {
				return fmt.Errorf("invalid IP SAN: %q", san.Value)
			}
			csr.IPAddresses = append(csr.IPAddresses, ip)
		case interfaces.SANEmail:
			csr.EmailAddresses = append(csr.EmailAddresses, san.Value)
		case interfaces.SANURI:
			u, err := url.Parse(san.Value)
			if err != nil {
				return fmt.Errorf("invalid URI SAN %q: %w", san.Value, err)
			}
			csr.URIs = append(csr.URIs, u)
		default:
			return fmt.Errorf("unsupported SAN type: %q", san.Type)
		}
	}
	return nil
}

func newIssued(der []byte, key *ecdsa.PrivateKey, csrPEM []byte) (*IssuedCertificate, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}

	return &IssuedCertificate{
		Cert:    cert,
		Key:     key,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		CSRPEM:  csrPEM,
	}, nil
}

func randomSerial() (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
}
