package cryptoutils

import (
	"crypto/x509/pkix"
	"testing"

	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCertificate(t *testing.T) {
	ca, err := NewCA(pkix.Name{CommonName: "ACME CA", Organization: []string{"ACME, Inc."}})
	require.NoError(t, err)
	assert.True(t, ca.Cert.IsCA)

	leaf, err := IssueCertificate(ca, pkix.Name{CommonName: "example.com"}, []interfaces.SAN{
		{Type: interfaces.SANDNS, Value: "www.example.com"},
		{Type: interfaces.SANIP, Value: "127.0.0.1"},
		{Type: interfaces.SANEmail, Value: "demo@example.com"},
		{Type: interfaces.SANURI, Value: "spiffe://example.com/web"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"www.example.com"}, leaf.Cert.DNSNames)
	assert.Len(t, leaf.Cert.IPAddresses, 1)
	assert.Equal(t, []string{"demo@example.com"}, leaf.Cert.EmailAddresses)
	require.Len(t, leaf.Cert.URIs, 1)
	assert.Equal(t, "spiffe://example.com/web", leaf.Cert.URIs[0].String())
	assert.Contains(t, string(leaf.CSRPEM), "-----BEGIN CERTIFICATE REQUEST-----")

	require.NoError(t, leaf.Cert.CheckSignatureFrom(ca.Cert))
	require.NoError(t, VerifyKeyPair(leaf.KeyPEM, leaf.CertPEM, "example.com"))
	assert.Error(t, VerifyKeyPair(leaf.KeyPEM, leaf.CertPEM, "other.com"))
	assert.Error(t, VerifyKeyPair(ca.KeyPEM, leaf.CertPEM, ""))

	chain, err := ParseChainPEM(append(append([]byte{}, leaf.CertPEM...), ca.CertPEM...))
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, Fingerprint(leaf.Cert), Fingerprint(chain[0]))
	assert.Equal(t, Fingerprint(ca.Cert), Fingerprint(chain[1]))
}

func TestIssueCertificate_InvalidIP(t *testing.T) {
	ca, err := NewCA(pkix.Name{CommonName: "ACME CA"})
	require.NoError(t, err)

	_, err = IssueCertificate(ca, pkix.Name{CommonName: "example.com"}, []interfaces.SAN{
		{Type: interfaces.SANIP, Value: "not-an-ip"},
	})
	assert.Error(t, err)
}

func TestParseCertificatePEM_Invalid(t *testing.T) {
	_, err := ParseCertificatePEM([]byte("not pem"))
	assert.Error(t, err)

	_, err = ParseChainPEM(nil)
	assert.Error(t, err)
}

func TestPassphraseHash(t *testing.T) {
	hash, err := HashPassphrase("my passphrase")
	require.NoError(t, err)

	assert.True(t, hash.Verify("my passphrase"))
	assert.False(t, hash.Verify("other passphrase"))
}
