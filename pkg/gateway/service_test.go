package gateway

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/audit"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/client"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/utils"
)

// mockClient plays the role of the EJBCA web service with an in-memory
// end-entity registry and revocation list.
type mockClient struct {
	users      map[string]client.UserDataVOWS
	revoked    map[string]bool
	certSerial string
	certData   string
	lastPKCS10 string
	degraded   bool
	calls      int
}

func newMockClient() *mockClient {
	return &mockClient{
		users:   make(map[string]client.UserDataVOWS),
		revoked: make(map[string]bool),
	}
}

func (m *mockClient) Connect(ctx context.Context) error {
	if m.degraded {
		return &client.TransportError{Operation: "connect", Err: errors.New("connection refused")}
	}
	return nil
}

func (m *mockClient) Operations(ctx context.Context) ([]string, error) {
	return []string{"editUser", "findUser", "revokeCert"}, nil
}

func (m *mockClient) State() client.State {
	if m.degraded {
		return client.StateDegraded
	}
	return client.StateConnected
}

func (m *mockClient) Invoke(ctx context.Context, operation string, request interface{}, response interface{}) error {
	m.calls++
	if m.degraded {
		return &client.TransportError{Operation: operation, Err: errors.New("connection refused")}
	}
	switch req := request.(type) {
	case client.GetEjbcaVersionRequest:
		response.(*client.GetEjbcaVersionResponse).Return = "EJBCA 7.4.3.2"
	case client.EditUserRequest:
		m.users[req.User.Username] = req.User
	case client.FindUserRequest:
		if u, ok := m.users[req.Match.MatchValue]; ok {
			response.(*client.FindUserResponse).Users = []client.UserDataVOWS{u}
		}
	case client.RevokeCertRequest:
		if m.revoked[req.CertificateSN] {
			return &client.RemoteFault{
				Kind:      client.FaultAlreadyRevoked,
				Message:   "Certificate is already revoked",
				Operation: operation,
			}
		}
		m.revoked[req.CertificateSN] = true
	case client.RevokeUserRequest:
		if m.revoked[req.Username] {
			return &client.RemoteFault{
				Kind:      client.FaultAlreadyRevoked,
				Message:   "End entity is already revoked",
				Operation: operation,
			}
		}
		m.revoked[req.Username] = true
	case client.GetCertificateRequest:
		if req.CertificateSN == m.certSerial {
			response.(*client.GetCertificateResponse).Return = &client.Certificate{CertificateData: m.certData}
		}
	case client.PKCS10Request:
		m.lastPKCS10 = req.PKCS10
		response.(*client.PKCS10Response).Return = client.CertificateResponse{
			Data:         m.certData,
			ResponseType: req.ResponseType,
		}
	case client.GetAvailableCAsRequest:
		response.(*client.GetAvailableCAsResponse).Return = []client.NameAndID{{Name: "ManagementCA", ID: 1}}
	case client.GetAuthorizedEndEntityProfilesRequest:
		response.(*client.GetAuthorizedEndEntityProfilesResponse).Return = []client.NameAndID{
			{Name: "EMPTY", ID: 1},
			{Name: "DEVICE", ID: 12},
		}
	case client.GetAvailableCertificateProfilesRequest:
		if req.EntityProfileID == 12 {
			response.(*client.GetAvailableCertificateProfilesResponse).Return = []client.NameAndID{{Name: "ENDUSER", ID: 1}}
		}
	case client.FindCertsRequest:
		if _, ok := m.users[req.Username]; ok {
			response.(*client.FindCertsResponse).Return = []client.Certificate{{CertificateData: m.certData}}
		}
	}
	return nil
}

func newTestService(t *testing.T) (Service, *mockClient) {
	t.Helper()
	mock := newMockClient()
	mock.certSerial, mock.certData = makeTestCertificate(t)
	return NewService(mock, audit.NewNop(), time.Second, log.NewNopLogger()), mock
}

// makeTestCertificate returns the serial and base64 DER of a self-signed
// certificate, as the web service would hand them back.
func makeTestCertificate(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(0x1a2b3c),
		Subject:      pkix.Name{CommonName: "device-001", Organization: []string{"Test Org"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return "1a2b3c", base64.StdEncoding.EncodeToString(der)
}

func makeTestCSR(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject: pkix.Name{CommonName: "device-001"},
	}, key)
	if err != nil {
		t.Fatal(err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der}))
}

func TestEditUserThenFindUser(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.EditUser(ctx, EndEntityRequest{
		Username:  "device-001",
		Password:  "foo123",
		SubjectDN: "CN=device-001,O=Test Org",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if created.CAName != "ManagementCA" {
		t.Errorf("Expected default CA ManagementCA, got %s", created.CAName)
	}
	if created.Status != client.StatusNew {
		t.Errorf("Expected status %d, got %d", client.StatusNew, created.Status)
	}

	found, err := s.FindUser(ctx, "device-001")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if found.SubjectDN != created.SubjectDN {
		t.Errorf("Expected subject DN %s, got %s", created.SubjectDN, found.SubjectDN)
	}
	if found.EndEntityProfile != "EMPTY" || found.CertificateProfile != "ENDUSER" {
		t.Errorf("Expected default profiles, got %s/%s", found.EndEntityProfile, found.CertificateProfile)
	}
}

func TestFindUserNotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.FindUser(context.Background(), "nobody")
	rf, ok := err.(*client.RemoteFault)
	if !ok {
		t.Fatalf("Expected RemoteFault, got %T: %v", err, err)
	}
	if rf.Kind != client.FaultNotFound {
		t.Errorf("Expected kind %s, got %s", client.FaultNotFound, rf.Kind)
	}
}

func TestValidationFailureSkipsTransport(t *testing.T) {
	s, mock := newTestService(t)
	ctx := context.Background()

	if _, err := s.EditUser(ctx, EndEntityRequest{Username: "device-001"}); err == nil {
		t.Fatal("Expected validation error for missing password")
	} else if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("Expected ValidationError, got %T", err)
	}

	if _, err := s.RevokeCertificate(ctx, RevocationRequest{
		IssuerDN:      "CN=ManagementCA",
		CertificateSN: "1a2b3c",
		Reason:        "BECAUSE",
	}); err == nil {
		t.Fatal("Expected validation error for unknown reason")
	}

	if _, err := s.IssueCertificate(ctx, CertificateRequest{
		Username: "device-001",
		Password: "foo123",
		PKCS10:   "not a csr",
	}); err == nil {
		t.Fatal("Expected validation error for a malformed CSR")
	}

	if mock.calls != 0 {
		t.Errorf("Expected no web service calls on validation failure, got %d", mock.calls)
	}
}

func TestRevokeCertificateIdempotent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req := RevocationRequest{
		IssuerDN:      "CN=ManagementCA",
		CertificateSN: "1a2b3c",
		Reason:        "KEY_COMPROMISE",
	}

	first, err := s.RevokeCertificate(ctx, req)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if !first.Revoked || first.AlreadyRevoked {
		t.Errorf("Unexpected first revocation result: %+v", first)
	}

	second, err := s.RevokeCertificate(ctx, req)
	if err != nil {
		t.Fatalf("Expected the second revocation to succeed, got %s", err)
	}
	if !second.Revoked || !second.AlreadyRevoked {
		t.Errorf("Expected already_revoked on repeat, got %+v", second)
	}
}

func TestRevokeUserIdempotent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	req := RevocationRequest{Username: "device-001", Reason: "CESSATION_OF_OPERATION"}

	if _, err := s.RevokeUser(ctx, req); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	second, err := s.RevokeUser(ctx, req)
	if err != nil {
		t.Fatalf("Expected the second revocation to succeed, got %s", err)
	}
	if !second.AlreadyRevoked {
		t.Errorf("Expected already_revoked on repeat, got %+v", second)
	}
}

func TestIssueCertificate(t *testing.T) {
	s, _ := newTestService(t)

	bundle, err := s.IssueCertificate(context.Background(), CertificateRequest{
		Username: "device-001",
		Password: "foo123",
		PKCS10:   makeTestCSR(t),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if bundle.ResponseType != client.ResponseTypeCertificate {
		t.Errorf("Expected response type CERTIFICATE, got %s", bundle.ResponseType)
	}
	if bundle.SerialNumber != "1a2b3c" {
		t.Errorf("Expected serial 1a2b3c, got %s", bundle.SerialNumber)
	}
	block, _ := pem.Decode([]byte(bundle.PEM))
	if block == nil || block.Type != "CERTIFICATE" {
		t.Error("Expected a PEM encoded certificate in the bundle")
	}
}

func TestIssueCertificatePassesStrippedCSR(t *testing.T) {
	s, mock := newTestService(t)
	csr := makeTestCSR(t)

	_, err := s.IssueCertificate(context.Background(), CertificateRequest{
		Username: "device-001",
		Password: "foo123",
		PKCS10:   csr,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	stripped, err := utils.StripCSRArmor(csr)
	if err != nil {
		t.Fatal(err)
	}
	if mock.lastPKCS10 != stripped {
		t.Error("Expected the request to carry the armor-stripped CSR unchanged")
	}
}

func TestEndEntityProfiles(t *testing.T) {
	s, _ := newTestService(t)

	profiles, err := s.EndEntityProfiles(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if len(profiles) != 2 || profiles[1].Name != "DEVICE" {
		t.Errorf("Unexpected profile list: %+v", profiles)
	}
}

func TestCertificateProfiles(t *testing.T) {
	s, mock := newTestService(t)
	ctx := context.Background()

	profiles, err := s.CertificateProfiles(ctx, 12)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "ENDUSER" {
		t.Errorf("Unexpected profile list: %+v", profiles)
	}

	calls := mock.calls
	if _, err := s.CertificateProfiles(ctx, 0); err == nil {
		t.Fatal("Expected validation error for a non-positive profile id")
	} else if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if mock.calls != calls {
		t.Error("Expected no web service call for an invalid profile id")
	}
}

func TestFindCertificates(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.EditUser(ctx, EndEntityRequest{
		Username:  "device-001",
		Password:  "foo123",
		SubjectDN: "CN=device-001",
	}); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	certs, err := s.FindCertificates(ctx, "device-001", true)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if len(certs) != 1 || certs[0].SerialNumber != "1a2b3c" {
		t.Errorf("Unexpected certificate list: %+v", certs)
	}

	empty, err := s.FindCertificates(ctx, "nobody", false)
	if err != nil {
		t.Fatalf("Expected an empty search to succeed, got %s", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no certificates, got %+v", empty)
	}
}

func TestGetCertificateNotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.GetCertificate(context.Background(), "deadbeef", "CN=ManagementCA")
	rf, ok := err.(*client.RemoteFault)
	if !ok {
		t.Fatalf("Expected RemoteFault, got %T: %v", err, err)
	}
	if rf.Kind != client.FaultNotFound {
		t.Errorf("Expected kind %s, got %s", client.FaultNotFound, rf.Kind)
	}
}

func TestGetCertificateLookup(t *testing.T) {
	s, _ := newTestService(t)

	bundle, err := s.GetCertificate(context.Background(), "1a2b3c", "CN=ManagementCA")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if bundle.SerialNumber != "1a2b3c" {
		t.Errorf("Expected serial 1a2b3c, got %s", bundle.SerialNumber)
	}
}

func TestHealthDegraded(t *testing.T) {
	s, mock := newTestService(t)
	mock.degraded = true

	status := s.Health(context.Background())
	if status.Status != "degraded" {
		t.Errorf("Expected degraded status, got %s", status.Status)
	}
	if status.Connected {
		t.Error("Expected connected false when the CA is unreachable")
	}
}

func TestHealthOK(t *testing.T) {
	s, _ := newTestService(t)

	status := s.Health(context.Background())
	if status.Status != "ok" {
		t.Errorf("Expected ok status, got %s", status.Status)
	}
	if status.Version != "EJBCA 7.4.3.2" {
		t.Errorf("Unexpected version %s", status.Version)
	}
}

func TestAvailableCAs(t *testing.T) {
	s, _ := newTestService(t)

	cas, err := s.AvailableCAs(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if len(cas) != 1 || cas[0].Name != "ManagementCA" {
		t.Errorf("Unexpected CA list: %+v", cas)
	}
}
