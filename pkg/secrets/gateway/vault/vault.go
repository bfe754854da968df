package vault

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/secrets/gateway"

	"github.com/hashicorp/vault/api"
)

type vaultSecrets struct {
	client     *api.Client
	roleID     string
	secretID   string
	secretPath string
}

func NewVaultSecrets(address string, roleID string, secretID string, secretPath string) (gateway.Secrets, error) {
	conf := api.DefaultConfig()
	conf.Address = strings.ReplaceAll(conf.Address, "https://127.0.0.1:8200", address)
	tlsConf := &api.TLSConfig{Insecure: true}
	conf.ConfigureTLS(tlsConf)
	client, err := api.NewClient(conf)
	if err != nil {
		return nil, err
	}

	err = login(client, roleID, secretID)
	if err != nil {
		return nil, err
	}
	return &vaultSecrets{client: client, roleID: roleID, secretID: secretID, secretPath: secretPath}, nil
}

func login(client *api.Client, roleID string, secretID string) error {
	loginPath := "auth/approle/login"
	options := map[string]interface{}{
		"role_id":   roleID,
		"secret_id": secretID,
	}
	resp, err := client.Logical().Write(loginPath, options)
	if err != nil {
		return err
	}
	client.SetToken(resp.Auth.ClientToken)
	return nil
}

func (vs *vaultSecrets) readField(field string) (string, error) {
	resp, err := vs.client.Logical().Read(vs.secretPath)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Data == nil {
		return "", errors.New("no secret found at " + vs.secretPath)
	}
	value, ok := resp.Data[field].(string)
	if !ok {
		return "", errors.New("missing field " + field + " in secret " + vs.secretPath)
	}
	return value, nil
}

func (vs *vaultSecrets) GetClientCertificate() (tls.Certificate, error) {
	certPEM, err := vs.readField("certificate")
	if err != nil {
		return tls.Certificate{}, err
	}
	keyPEM, err := vs.readField("private_key")
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
}

func (vs *vaultSecrets) GetTrustAnchors() (*x509.CertPool, error) {
	chainPEM, err := vs.readField("ca_chain")
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(chainPEM)) {
		return nil, errors.New("no certificates found in ca_chain field")
	}
	return pool, nil
}
