package file

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io/ioutil"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
)

func writeTestCredentials(t *testing.T, dir string) (certFile, keyFile, caFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "gateway-client"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	certFile = filepath.Join(dir, "client.crt")
	keyFile = filepath.Join(dir, "client.key")
	caFile = filepath.Join(dir, "ca.crt")
	for _, f := range []struct {
		path string
		data []byte
	}{{certFile, certPEM}, {keyFile, keyPEM}, {caFile, certPEM}} {
		if err := ioutil.WriteFile(f.path, f.data, 0600); err != nil {
			t.Fatal(err)
		}
	}
	return certFile, keyFile, caFile
}

func TestGetClientCertificate(t *testing.T) {
	dir, err := ioutil.TempDir("", "gateway-secrets")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	certFile, keyFile, caFile := writeTestCredentials(t, dir)
	secrets := NewFile(certFile, keyFile, caFile, log.NewNopLogger())

	cert, err := secrets.GetClientCertificate()
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if len(cert.Certificate) == 0 {
		t.Error("Expected a certificate chain in the key pair")
	}
}

func TestGetTrustAnchors(t *testing.T) {
	dir, err := ioutil.TempDir("", "gateway-secrets")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	certFile, keyFile, caFile := writeTestCredentials(t, dir)
	secrets := NewFile(certFile, keyFile, caFile, log.NewNopLogger())

	pool, err := secrets.GetTrustAnchors()
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if pool == nil {
		t.Fatal("Expected a non-nil certificate pool")
	}
}

func TestGetTrustAnchorsBadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "gateway-secrets")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	certFile, keyFile, _ := writeTestCredentials(t, dir)
	bogus := filepath.Join(dir, "bogus.crt")
	if err := ioutil.WriteFile(bogus, []byte("not a certificate"), 0600); err != nil {
		t.Fatal(err)
	}
	secrets := NewFile(certFile, keyFile, bogus, log.NewNopLogger())

	if _, err := secrets.GetTrustAnchors(); err == nil {
		t.Fatal("Expected error for a file without certificates")
	}
}
