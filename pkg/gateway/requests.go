package gateway

import (
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/client"
)

// RevocationReasons maps the request enumeration to RFC 5280 reason codes.
var RevocationReasons = map[string]int{
	"UNSPECIFIED":            0,
	"KEY_COMPROMISE":         1,
	"CA_COMPROMISE":          2,
	"AFFILIATION_CHANGED":    3,
	"SUPERSEDED":             4,
	"CESSATION_OF_OPERATION": 5,
	"CERTIFICATE_HOLD":       6,
}

func reasonName(code int) string {
	for name, c := range RevocationReasons {
		if c == code {
			return name
		}
	}
	return "UNSPECIFIED"
}

// EndEntityRequest is the JSON body for end-entity creation and edits.
type EndEntityRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	SubjectDN          string `json:"subject_dn"`
	SubjectAltName     string `json:"subject_alt_name,omitempty"`
	Email              string `json:"email,omitempty"`
	CAName             string `json:"ca_name"`
	EndEntityProfile   string `json:"end_entity_profile"`
	CertificateProfile string `json:"certificate_profile"`
	TokenType          string `json:"token_type"`
	Status             int    `json:"status"`
}

func (r *EndEntityRequest) Validate() error {
	if r.Username == "" {
		return missingField("username")
	}
	if r.Password == "" {
		return missingField("password")
	}
	if r.SubjectDN == "" {
		return missingField("subject_dn")
	}
	if r.CAName == "" {
		r.CAName = "ManagementCA"
	}
	if r.EndEntityProfile == "" {
		r.EndEntityProfile = "EMPTY"
	}
	if r.CertificateProfile == "" {
		r.CertificateProfile = "ENDUSER"
	}
	if r.TokenType == "" {
		r.TokenType = client.TokenTypeUserGenerated
	}
	if r.Status == 0 {
		r.Status = client.StatusNew
	}
	return nil
}

// CertificateRequest is the JSON body for PKCS#10 issuance.
type CertificateRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	PKCS10       string `json:"pkcs10"`
	ResponseType string `json:"response_type"`
}

func (r *CertificateRequest) Validate() error {
	if r.Username == "" {
		return missingField("username")
	}
	if r.Password == "" {
		return missingField("password")
	}
	if r.PKCS10 == "" {
		return missingField("pkcs10")
	}
	switch r.ResponseType {
	case "":
		r.ResponseType = client.ResponseTypeCertificate
	case client.ResponseTypeCertificate, client.ResponseTypePKCS7:
	default:
		return &ValidationError{Field: "response_type", Message: "must be CERTIFICATE or PKCS7"}
	}
	return nil
}

// RevocationRequest targets either an end entity by username or a
// certificate by (issuer DN, serial number).
type RevocationRequest struct {
	Username      string `json:"username,omitempty"`
	IssuerDN      string `json:"issuer_dn,omitempty"`
	CertificateSN string `json:"certificate_sn,omitempty"`
	Reason        string `json:"reason"`
	Delete        bool   `json:"delete,omitempty"`
}

func (r *RevocationRequest) validateReason() (int, error) {
	if r.Reason == "" {
		r.Reason = "UNSPECIFIED"
	}
	code, ok := RevocationReasons[r.Reason]
	if !ok {
		return 0, &ValidationError{Field: "reason", Message: "unknown revocation reason " + r.Reason}
	}
	return code, nil
}

func (r *RevocationRequest) ValidateForUser() (int, error) {
	if r.Username == "" {
		return 0, missingField("username")
	}
	return r.validateReason()
}

func (r *RevocationRequest) ValidateForCertificate() (int, error) {
	if r.IssuerDN == "" {
		return 0, missingField("issuer_dn")
	}
	if r.CertificateSN == "" {
		return 0, missingField("certificate_sn")
	}
	return r.validateReason()
}

type HealthStatus struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp"`
}

type GatewayStatus struct {
	Session    string   `json:"session"`
	Operations []string `json:"operations,omitempty"`
}

type CADescriptor struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type ProfileDescriptor struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type EndEntityDescriptor struct {
	Username           string `json:"username"`
	SubjectDN          string `json:"subject_dn"`
	SubjectAltName     string `json:"subject_alt_name,omitempty"`
	Email              string `json:"email,omitempty"`
	CAName             string `json:"ca_name"`
	EndEntityProfile   string `json:"end_entity_profile"`
	CertificateProfile string `json:"certificate_profile"`
	TokenType          string `json:"token_type"`
	Status             int    `json:"status"`
}

type CertificateBundle struct {
	ResponseType string `json:"response_type"`
	PEM          string `json:"certificate_pem"`
	SerialNumber string `json:"serial_number,omitempty"`
	SubjectDN    string `json:"subject_dn,omitempty"`
}

type ChainBundle struct {
	Name      string `json:"name"`
	PEM       string `json:"chain_pem"`
	SubjectDN string `json:"subject_dn,omitempty"`
	Length    int    `json:"length"`
}

type CRLBundle struct {
	CAName    string `json:"ca_name"`
	Delta     bool   `json:"delta"`
	CRLBase64 string `json:"crl_base64"`
}

type RevocationResult struct {
	Revoked        bool   `json:"revoked"`
	AlreadyRevoked bool   `json:"already_revoked,omitempty"`
	Deleted        bool   `json:"deleted,omitempty"`
	Reason         string `json:"reason"`
	Target         string `json:"target"`
}

type RevocationStatusResult struct {
	CertificateSN  string `json:"certificate_sn"`
	IssuerDN       string `json:"issuer_dn"`
	Revoked        bool   `json:"revoked"`
	Reason         string `json:"reason,omitempty"`
	RevocationDate string `json:"revocation_date,omitempty"`
}
