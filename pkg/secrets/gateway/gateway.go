package gateway

import (
	"crypto/tls"
	"crypto/x509"
)

// Secrets provides the credentials the gateway presents to the CA:
// the client certificate for mutual TLS and the trust anchors used to
// verify the CA's server certificate.
type Secrets interface {
	GetClientCertificate() (tls.Certificate, error)
	GetTrustAnchors() (*x509.CertPool, error)
}
