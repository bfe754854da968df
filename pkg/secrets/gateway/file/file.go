package file

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io/ioutil"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/secrets/gateway"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

type file struct {
	cert   string
	key    string
	ca     string
	logger log.Logger
}

func NewFile(cert string, key string, ca string, logger log.Logger) gateway.Secrets {
	return &file{cert: cert, key: key, ca: ca, logger: logger}
}

func (f *file) GetClientCertificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(f.cert, f.key)
	if err != nil {
		level.Error(f.logger).Log("err", err, "msg", "Could not load Gateway client certificate")
		return tls.Certificate{}, err
	}
	level.Info(f.logger).Log("msg", "Gateway client certificate loaded")
	return cert, nil
}

func (f *file) GetTrustAnchors() (*x509.CertPool, error) {
	caPEM, err := ioutil.ReadFile(f.ca)
	if err != nil {
		level.Error(f.logger).Log("err", err, "msg", "Could not load CA trust anchors")
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		err = errors.New("no certificates found in trust anchor file")
		level.Error(f.logger).Log("err", err, "msg", "Could not parse CA trust anchors")
		return nil, err
	}
	level.Info(f.logger).Log("msg", "CA trust anchors loaded")
	return pool, nil
}
