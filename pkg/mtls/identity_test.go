package mtls

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCertificate(t *testing.T, cn string) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{"wsgate"},
		},
		DNSNames:    []string{"client.local"},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(time.Hour),
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestExtractIdentity(t *testing.T) {
	cert := newTestCertificate(t, "device-7")

	id := ExtractIdentity(cert, true)
	require.NotNil(t, id)
	assert.Equal(t, "device-7", id.CommonName)
	assert.Equal(t, []string{"wsgate"}, id.Organization)
	assert.Equal(t, "42", id.SerialNumber)
	assert.Equal(t, "device-7", id.Issuer)
	assert.Equal(t, []string{"client.local"}, id.DNSNames)
	assert.Equal(t, Fingerprint(cert), id.Fingerprint)
	assert.True(t, id.Verified)

	// The identity does not share slices with the certificate.
	id.Organization[0] = "changed"
	assert.Equal(t, "wsgate", cert.Subject.Organization[0])

	assert.Nil(t, ExtractIdentity(nil, false))
}

func TestFromPeerCertificates(t *testing.T) {
	leaf := newTestCertificate(t, "leaf")
	ca := newTestCertificate(t, "ca")

	id := FromPeerCertificates([]*x509.Certificate{leaf, ca}, false)
	require.NotNil(t, id)
	assert.Equal(t, "leaf", id.CommonName)
	assert.False(t, id.Verified)

	assert.Nil(t, FromPeerCertificates(nil, true))
}

func TestFingerprint(t *testing.T) {
	cert := newTestCertificate(t, "fp")

	fp := Fingerprint(cert)
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint(cert))
	assert.Empty(t, Fingerprint(nil))
}

func TestClientIdentity_LogValue(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	id := &ClientIdentity{CommonName: "sensor-1", Fingerprint: "abcd"}
	log.Info("accepted", "client", id)

	assert.Contains(t, buf.String(), "client.cn=sensor-1")
	assert.Contains(t, buf.String(), "client.fingerprint=abcd")
}
