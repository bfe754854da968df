package gateway

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/audit"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/client"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/utils"
)

// Service maps validated REST requests onto EJBCA web service operations.
type Service interface {
	Health(ctx context.Context) HealthStatus
	Status(ctx context.Context) GatewayStatus
	AvailableCAs(ctx context.Context) ([]CADescriptor, error)
	CAChain(ctx context.Context, caName string) (*ChainBundle, error)
	LatestCRL(ctx context.Context, caName string, delta bool) (*CRLBundle, error)
	EndEntityProfiles(ctx context.Context) ([]ProfileDescriptor, error)
	CertificateProfiles(ctx context.Context, endEntityProfileID int) ([]ProfileDescriptor, error)
	EditUser(ctx context.Context, req EndEntityRequest) (*EndEntityDescriptor, error)
	FindUser(ctx context.Context, username string) (*EndEntityDescriptor, error)
	FindCertificates(ctx context.Context, username string, onlyValid bool) ([]CertificateBundle, error)
	RevokeUser(ctx context.Context, req RevocationRequest) (*RevocationResult, error)
	IssueCertificate(ctx context.Context, req CertificateRequest) (*CertificateBundle, error)
	GetCertificate(ctx context.Context, certificateSN string, issuerDN string) (*CertificateBundle, error)
	CertificateChain(ctx context.Context, username string) (*ChainBundle, error)
	RevokeCertificate(ctx context.Context, req RevocationRequest) (*RevocationResult, error)
	RevocationStatus(ctx context.Context, certificateSN string, issuerDN string) (*RevocationStatusResult, error)
}

type ejbcaGateway struct {
	ws            client.Client
	audit         audit.Store
	healthTimeout time.Duration
	logger        log.Logger
}

func NewService(ws client.Client, auditStore audit.Store, healthTimeout time.Duration, logger log.Logger) Service {
	if healthTimeout == 0 {
		healthTimeout = 5 * time.Second
	}
	return &ejbcaGateway{
		ws:            ws,
		audit:         auditStore,
		healthTimeout: healthTimeout,
		logger:        logger,
	}
}

// Health probes the CA with a cheap version call under a bounded timeout.
// A failure is reported as degraded, never as an error.
func (g *ejbcaGateway) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, g.healthTimeout)
	defer cancel()

	status := HealthStatus{Timestamp: time.Now().UTC().Format(time.RFC3339)}
	var resp client.GetEjbcaVersionResponse
	if err := g.ws.Invoke(ctx, "getEjbcaVersion", client.GetEjbcaVersionRequest{}, &resp); err != nil {
		status.Status = "degraded"
		return status
	}
	status.Status = "ok"
	status.Connected = true
	status.Version = resp.Return
	return status
}

func (g *ejbcaGateway) Status(ctx context.Context) GatewayStatus {
	status := GatewayStatus{Session: g.ws.State().String()}
	if ops, err := g.ws.Operations(ctx); err == nil {
		status.Operations = ops
	}
	return status
}

func (g *ejbcaGateway) AvailableCAs(ctx context.Context) ([]CADescriptor, error) {
	var resp client.GetAvailableCAsResponse
	if err := g.ws.Invoke(ctx, "getAvailableCAs", client.GetAvailableCAsRequest{}, &resp); err != nil {
		return nil, err
	}
	cas := make([]CADescriptor, 0, len(resp.Return))
	for _, ca := range resp.Return {
		cas = append(cas, CADescriptor{Name: ca.Name, ID: ca.ID})
	}
	return cas, nil
}

func (g *ejbcaGateway) CAChain(ctx context.Context, caName string) (*ChainBundle, error) {
	if caName == "" {
		return nil, missingField("ca_name")
	}
	var resp client.GetLastCAChainResponse
	if err := g.ws.Invoke(ctx, "getLastCAChain", client.GetLastCAChainRequest{CAName: caName}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Return) == 0 {
		return nil, &client.RemoteFault{
			Kind:      client.FaultUnknownCA,
			Message:   fmt.Sprintf("CA %s returned an empty chain", caName),
			Operation: "getLastCAChain",
		}
	}
	return chainBundle("getLastCAChain", caName, resp.Return)
}

func (g *ejbcaGateway) LatestCRL(ctx context.Context, caName string, delta bool) (*CRLBundle, error) {
	if caName == "" {
		return nil, missingField("ca_name")
	}
	var resp client.GetLatestCRLResponse
	if err := g.ws.Invoke(ctx, "getLatestCRL", client.GetLatestCRLRequest{CAName: caName, DeltaCRL: delta}, &resp); err != nil {
		return nil, err
	}
	if resp.Return == "" {
		return nil, &client.RemoteFault{
			Kind:      client.FaultNotFound,
			Message:   fmt.Sprintf("no CRL available for CA %s", caName),
			Operation: "getLatestCRL",
		}
	}
	return &CRLBundle{CAName: caName, Delta: delta, CRLBase64: resp.Return}, nil
}

func (g *ejbcaGateway) EndEntityProfiles(ctx context.Context) ([]ProfileDescriptor, error) {
	var resp client.GetAuthorizedEndEntityProfilesResponse
	if err := g.ws.Invoke(ctx, "getAuthorizedEndEntityProfiles", client.GetAuthorizedEndEntityProfilesRequest{}, &resp); err != nil {
		return nil, err
	}
	profiles := make([]ProfileDescriptor, 0, len(resp.Return))
	for _, p := range resp.Return {
		profiles = append(profiles, ProfileDescriptor{Name: p.Name, ID: p.ID})
	}
	return profiles, nil
}

func (g *ejbcaGateway) CertificateProfiles(ctx context.Context, endEntityProfileID int) ([]ProfileDescriptor, error) {
	if endEntityProfileID <= 0 {
		return nil, &ValidationError{Field: "profile_id", Message: "must be a positive end entity profile id"}
	}
	payload := client.GetAvailableCertificateProfilesRequest{EntityProfileID: endEntityProfileID}
	var resp client.GetAvailableCertificateProfilesResponse
	if err := g.ws.Invoke(ctx, "getAvailableCertificateProfiles", payload, &resp); err != nil {
		return nil, err
	}
	profiles := make([]ProfileDescriptor, 0, len(resp.Return))
	for _, p := range resp.Return {
		profiles = append(profiles, ProfileDescriptor{Name: p.Name, ID: p.ID})
	}
	return profiles, nil
}

func (g *ejbcaGateway) EditUser(ctx context.Context, req EndEntityRequest) (*EndEntityDescriptor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	payload := client.EditUserRequest{
		User: client.UserDataVOWS{
			Username:               req.Username,
			Password:               req.Password,
			SubjectDN:              req.SubjectDN,
			CAName:                 req.CAName,
			SubjectAltName:         req.SubjectAltName,
			Email:                  req.Email,
			Status:                 req.Status,
			TokenType:              req.TokenType,
			EndEntityProfileName:   req.EndEntityProfile,
			CertificateProfileName: req.CertificateProfile,
		},
	}
	err := g.ws.Invoke(ctx, "editUser", payload, &client.EditUserResponse{})
	g.record("editUser", req.Username, err)
	if err != nil {
		return nil, err
	}
	return &EndEntityDescriptor{
		Username:           req.Username,
		SubjectDN:          req.SubjectDN,
		SubjectAltName:     req.SubjectAltName,
		Email:              req.Email,
		CAName:             req.CAName,
		EndEntityProfile:   req.EndEntityProfile,
		CertificateProfile: req.CertificateProfile,
		TokenType:          req.TokenType,
		Status:             req.Status,
	}, nil
}

func (g *ejbcaGateway) FindUser(ctx context.Context, username string) (*EndEntityDescriptor, error) {
	if username == "" {
		return nil, missingField("username")
	}
	payload := client.FindUserRequest{
		Match: client.UserMatch{
			MatchWith:  client.MatchWithUsername,
			MatchType:  client.MatchTypeEquals,
			MatchValue: username,
		},
	}
	var resp client.FindUserResponse
	if err := g.ws.Invoke(ctx, "findUser", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, &client.RemoteFault{
			Kind:      client.FaultNotFound,
			Message:   fmt.Sprintf("end entity %s could not be found", username),
			Operation: "findUser",
		}
	}
	u := resp.Users[0]
	return &EndEntityDescriptor{
		Username:           u.Username,
		SubjectDN:          u.SubjectDN,
		SubjectAltName:     u.SubjectAltName,
		Email:              u.Email,
		CAName:             u.CAName,
		EndEntityProfile:   u.EndEntityProfileName,
		CertificateProfile: u.CertificateProfileName,
		TokenType:          u.TokenType,
		Status:             u.Status,
	}, nil
}

// FindCertificates searches the CA for an end entity's certificates. An
// empty result is a valid answer, unlike a missing end entity.
func (g *ejbcaGateway) FindCertificates(ctx context.Context, username string, onlyValid bool) ([]CertificateBundle, error) {
	if username == "" {
		return nil, missingField("username")
	}
	payload := client.FindCertsRequest{Username: username, OnlyValid: onlyValid}
	var resp client.FindCertsResponse
	if err := g.ws.Invoke(ctx, "findCerts", payload, &resp); err != nil {
		return nil, err
	}
	bundles := make([]CertificateBundle, 0, len(resp.Return))
	for _, c := range resp.Return {
		b, err := certificateBundle("findCerts", client.ResponseTypeCertificate, c.CertificateData)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *b)
	}
	return bundles, nil
}

func (g *ejbcaGateway) RevokeUser(ctx context.Context, req RevocationRequest) (*RevocationResult, error) {
	reason, err := req.ValidateForUser()
	if err != nil {
		return nil, err
	}
	payload := client.RevokeUserRequest{Username: req.Username, Reason: reason, Delete: req.Delete}
	err = g.ws.Invoke(ctx, "revokeUser", payload, &client.RevokeUserResponse{})
	g.record("revokeUser", req.Username, err)
	if alreadyRevoked(err) {
		return &RevocationResult{Revoked: true, AlreadyRevoked: true, Reason: req.Reason, Target: req.Username}, nil
	}
	if err != nil {
		return nil, err
	}
	return &RevocationResult{Revoked: true, Deleted: req.Delete, Reason: req.Reason, Target: req.Username}, nil
}

func (g *ejbcaGateway) IssueCertificate(ctx context.Context, req CertificateRequest) (*CertificateBundle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	der, err := utils.CSRDER(req.PKCS10)
	if err != nil {
		return nil, &ValidationError{Field: "pkcs10", Message: err.Error()}
	}
	if _, err := x509.ParseCertificateRequest(der); err != nil {
		return nil, &ValidationError{Field: "pkcs10", Message: "not a parsable PKCS#10 request"}
	}
	stripped, err := utils.StripCSRArmor(req.PKCS10)
	if err != nil {
		return nil, &ValidationError{Field: "pkcs10", Message: err.Error()}
	}

	payload := client.PKCS10Request{
		Username:     req.Username,
		Password:     req.Password,
		PKCS10:       stripped,
		ResponseType: req.ResponseType,
	}
	var resp client.PKCS10Response
	err = g.ws.Invoke(ctx, "pkcs10Request", payload, &resp)
	g.record("pkcs10Request", req.Username, err)
	if err != nil {
		return nil, err
	}
	return certificateBundle("pkcs10Request", resp.Return.ResponseType, resp.Return.Data)
}

func (g *ejbcaGateway) GetCertificate(ctx context.Context, certificateSN string, issuerDN string) (*CertificateBundle, error) {
	if certificateSN == "" {
		return nil, missingField("certificate_sn")
	}
	payload := client.GetCertificateRequest{CertificateSN: certificateSN, IssuerDN: issuerDN}
	var resp client.GetCertificateResponse
	if err := g.ws.Invoke(ctx, "getCertificate", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Return == nil {
		return nil, &client.RemoteFault{
			Kind:      client.FaultNotFound,
			Message:   fmt.Sprintf("certificate with serial %s could not be found", certificateSN),
			Operation: "getCertificate",
		}
	}
	return certificateBundle("getCertificate", client.ResponseTypeCertificate, resp.Return.CertificateData)
}

func (g *ejbcaGateway) CertificateChain(ctx context.Context, username string) (*ChainBundle, error) {
	if username == "" {
		return nil, missingField("username")
	}
	var resp client.GetLastCertChainResponse
	if err := g.ws.Invoke(ctx, "getLastCertChain", client.GetLastCertChainRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Return) == 0 {
		return nil, &client.RemoteFault{
			Kind:      client.FaultNotFound,
			Message:   fmt.Sprintf("no certificate chain for end entity %s", username),
			Operation: "getLastCertChain",
		}
	}
	return chainBundle("getLastCertChain", username, resp.Return)
}

func (g *ejbcaGateway) RevokeCertificate(ctx context.Context, req RevocationRequest) (*RevocationResult, error) {
	reason, err := req.ValidateForCertificate()
	if err != nil {
		return nil, err
	}
	payload := client.RevokeCertRequest{
		IssuerDN:      req.IssuerDN,
		CertificateSN: req.CertificateSN,
		Reason:        reason,
	}
	err = g.ws.Invoke(ctx, "revokeCert", payload, &client.RevokeCertResponse{})
	g.record("revokeCert", req.CertificateSN, err)
	if alreadyRevoked(err) {
		return &RevocationResult{Revoked: true, AlreadyRevoked: true, Reason: req.Reason, Target: req.CertificateSN}, nil
	}
	if err != nil {
		return nil, err
	}
	return &RevocationResult{Revoked: true, Reason: req.Reason, Target: req.CertificateSN}, nil
}

func (g *ejbcaGateway) RevocationStatus(ctx context.Context, certificateSN string, issuerDN string) (*RevocationStatusResult, error) {
	if certificateSN == "" {
		return nil, missingField("certificate_sn")
	}
	payload := client.CheckRevokationStatusRequest{IssuerDN: issuerDN, CertificateSN: certificateSN}
	var resp client.CheckRevokationStatusResponse
	if err := g.ws.Invoke(ctx, "checkRevokationStatus", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Return == nil {
		return nil, &client.RemoteFault{
			Kind:      client.FaultNotFound,
			Message:   fmt.Sprintf("certificate with serial %s could not be found", certificateSN),
			Operation: "checkRevokationStatus",
		}
	}
	result := &RevocationStatusResult{
		CertificateSN: resp.Return.CertificateSN,
		IssuerDN:      resp.Return.IssuerDN,
	}
	if resp.Return.Reason != client.ReasonNotRevoked {
		result.Revoked = true
		result.Reason = reasonName(resp.Return.Reason)
		result.RevocationDate = resp.Return.RevocationDate
	}
	return result, nil
}

func alreadyRevoked(err error) bool {
	rf, ok := err.(*client.RemoteFault)
	return ok && rf.Kind == client.FaultAlreadyRevoked
}

// record writes mutating operations to the audit trail. Audit failures are
// logged and never fail the operation itself.
func (g *ejbcaGateway) record(operation string, subject string, opErr error) {
	if g.audit == nil {
		return
	}
	entry := &audit.Entry{
		ID:        uuid.New().String(),
		Operation: operation,
		Subject:   subject,
		Success:   opErr == nil,
		Timestamp: time.Now().UTC(),
	}
	if opErr != nil {
		entry.Message = opErr.Error()
	}
	if err := g.audit.Record(entry); err != nil {
		level.Warn(g.logger).Log("err", err, "msg", "Could not record audit entry", "operation", operation)
	}
}

func certificateBundle(operation string, responseType string, data string) (*CertificateBundle, error) {
	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(data), ""))
	if err != nil {
		return nil, &client.RemoteFault{
			Kind:      client.FaultUnknown,
			Message:   "service returned an undecodable certificate payload",
			Operation: operation,
		}
	}
	bundle := &CertificateBundle{ResponseType: responseType}
	if responseType == client.ResponseTypePKCS7 {
		bundle.PEM = utils.EncodePKCS7PEM(der)
		return bundle, nil
	}
	bundle.PEM = utils.EncodeCertPEM(der)
	if cert, err := x509.ParseCertificate(der); err == nil {
		bundle.SerialNumber = fmt.Sprintf("%x", cert.SerialNumber)
		bundle.SubjectDN = cert.Subject.String()
	}
	return bundle, nil
}

func chainBundle(operation string, name string, chain []client.Certificate) (*ChainBundle, error) {
	var pems strings.Builder
	bundle := &ChainBundle{Name: name, Length: len(chain)}
	for i, c := range chain {
		der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(c.CertificateData), ""))
		if err != nil {
			return nil, &client.RemoteFault{
				Kind:      client.FaultUnknown,
				Message:   "service returned an undecodable chain element",
				Operation: operation,
			}
		}
		pems.WriteString(utils.EncodeCertPEM(der))
		if i == 0 {
			if cert, err := x509.ParseCertificate(der); err == nil {
				bundle.SubjectDN = cert.Subject.String()
			}
		}
	}
	bundle.PEM = pems.String()
	return bundle, nil
}
