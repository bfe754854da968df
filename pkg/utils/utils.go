package utils

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
)

const (
	CertPEMBlockType = "CERTIFICATE"
	KeyPEMBlockType  = "RSA PRIVATE KEY"
	CSRPEMBlockType  = "CERTIFICATE REQUEST"
)

func CheckPEMBlock(pemBlock *pem.Block, blockType string) error {
	if pemBlock == nil {
		return errors.New("cannot find the next PEM formatted block")
	}
	if pemBlock.Type != blockType || len(pemBlock.Headers) != 0 {
		return errors.New("unmatched type of headers")
	}
	return nil
}

// StripCSRArmor returns the raw base64 body of a PKCS#10 request. The EJBCA
// web service expects the request without PEM headers, so armored input is
// unwrapped and bare base64 is passed through after a decode check.
func StripCSRArmor(csr string) (string, error) {
	trimmed := strings.TrimSpace(csr)
	if strings.HasPrefix(trimmed, "-----BEGIN") {
		pemBlock, _ := pem.Decode([]byte(trimmed))
		if pemBlock == nil {
			return "", errors.New("cannot find the next PEM formatted block")
		}
		if pemBlock.Type != CSRPEMBlockType && pemBlock.Type != "NEW CERTIFICATE REQUEST" {
			return "", errors.New("unmatched type of headers")
		}
		return base64.StdEncoding.EncodeToString(pemBlock.Bytes), nil
	}
	compact := strings.Join(strings.Fields(trimmed), "")
	if _, err := base64.StdEncoding.DecodeString(compact); err != nil {
		return "", errors.New("request is neither PEM nor base64")
	}
	return compact, nil
}

// CSRDER decodes a PKCS#10 request, armored or bare base64, to DER bytes.
func CSRDER(csr string) ([]byte, error) {
	stripped, err := StripCSRArmor(csr)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(stripped)
}

func EncodeCertPEM(der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: CertPEMBlockType, Bytes: der}))
}

func EncodePKCS7PEM(der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PKCS7", Bytes: der}))
}
