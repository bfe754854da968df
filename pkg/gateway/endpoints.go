package gateway

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/tracing/opentracing"
	stdopentracing "github.com/opentracing/opentracing-go"
)

type Endpoints struct {
	HealthEndpoint              endpoint.Endpoint
	StatusEndpoint              endpoint.Endpoint
	AvailableCAsEndpoint        endpoint.Endpoint
	CAChainEndpoint             endpoint.Endpoint
	LatestCRLEndpoint           endpoint.Endpoint
	EndEntityProfilesEndpoint   endpoint.Endpoint
	CertificateProfilesEndpoint endpoint.Endpoint
	EditUserEndpoint            endpoint.Endpoint
	FindUserEndpoint            endpoint.Endpoint
	FindCertificatesEndpoint    endpoint.Endpoint
	RevokeUserEndpoint          endpoint.Endpoint
	IssueCertificateEndpoint    endpoint.Endpoint
	GetCertificateEndpoint      endpoint.Endpoint
	CertChainEndpoint           endpoint.Endpoint
	RevokeCertEndpoint          endpoint.Endpoint
	RevocationStatusEndpoint    endpoint.Endpoint
}

func MakeServerEndpoints(s Service, otTracer stdopentracing.Tracer) Endpoints {
	trace := func(name string, e endpoint.Endpoint) endpoint.Endpoint {
		return opentracing.TraceServer(otTracer, name)(e)
	}
	return Endpoints{
		HealthEndpoint:              trace("Health", MakeHealthEndpoint(s)),
		StatusEndpoint:              trace("Status", MakeStatusEndpoint(s)),
		AvailableCAsEndpoint:        trace("GetAvailableCAs", MakeAvailableCAsEndpoint(s)),
		CAChainEndpoint:             trace("GetLastCAChain", MakeCAChainEndpoint(s)),
		LatestCRLEndpoint:           trace("GetLatestCRL", MakeLatestCRLEndpoint(s)),
		EndEntityProfilesEndpoint:   trace("GetAuthorizedEndEntityProfiles", MakeEndEntityProfilesEndpoint(s)),
		CertificateProfilesEndpoint: trace("GetAvailableCertificateProfiles", MakeCertificateProfilesEndpoint(s)),
		EditUserEndpoint:            trace("EditUser", MakeEditUserEndpoint(s)),
		FindUserEndpoint:            trace("FindUser", MakeFindUserEndpoint(s)),
		FindCertificatesEndpoint:    trace("FindCerts", MakeFindCertificatesEndpoint(s)),
		RevokeUserEndpoint:          trace("RevokeUser", MakeRevokeUserEndpoint(s)),
		IssueCertificateEndpoint:    trace("Pkcs10Request", MakeIssueCertificateEndpoint(s)),
		GetCertificateEndpoint:      trace("GetCertificate", MakeGetCertificateEndpoint(s)),
		CertChainEndpoint:           trace("GetLastCertChain", MakeCertChainEndpoint(s)),
		RevokeCertEndpoint:          trace("RevokeCert", MakeRevokeCertEndpoint(s)),
		RevocationStatusEndpoint:    trace("CheckRevokationStatus", MakeRevocationStatusEndpoint(s)),
	}
}

func MakeHealthEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return s.Health(ctx), nil
	}
}

func MakeStatusEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return s.Status(ctx), nil
	}
}

func MakeAvailableCAsEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		cas, err := s.AvailableCAs(ctx)
		return casResponse{CAs: cas, Err: err}, nil
	}
}

func MakeCAChainEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(caChainRequest)
		chain, err := s.CAChain(ctx, req.CAName)
		return chainResponse{Chain: chain, Err: err}, nil
	}
}

func MakeLatestCRLEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(latestCRLRequest)
		crl, err := s.LatestCRL(ctx, req.CAName, req.Delta)
		return crlResponse{CRL: crl, Err: err}, nil
	}
}

func MakeEndEntityProfilesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		profiles, err := s.EndEntityProfiles(ctx)
		return profilesResponse{Profiles: profiles, Err: err}, nil
	}
}

func MakeCertificateProfilesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(certificateProfilesRequest)
		profiles, err := s.CertificateProfiles(ctx, req.EndEntityProfileID)
		return profilesResponse{Profiles: profiles, Err: err}, nil
	}
}

func MakeFindCertificatesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(findCertificatesRequest)
		certs, err := s.FindCertificates(ctx, req.Username, req.OnlyValid)
		return certificateListResponse{Certificates: certs, Err: err}, nil
	}
}

func MakeEditUserEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(EndEntityRequest)
		user, err := s.EditUser(ctx, req)
		return userResponse{User: user, Err: err}, nil
	}
}

func MakeFindUserEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(findUserRequest)
		user, err := s.FindUser(ctx, req.Username)
		return userResponse{User: user, Err: err}, nil
	}
}

func MakeRevokeUserEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RevocationRequest)
		result, err := s.RevokeUser(ctx, req)
		return revocationResponse{Result: result, Err: err}, nil
	}
}

func MakeIssueCertificateEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(CertificateRequest)
		bundle, err := s.IssueCertificate(ctx, req)
		return certificateResponse{Certificate: bundle, Err: err}, nil
	}
}

func MakeGetCertificateEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(certificateLookupRequest)
		bundle, err := s.GetCertificate(ctx, req.CertificateSN, req.IssuerDN)
		return certificateResponse{Certificate: bundle, Err: err}, nil
	}
}

func MakeCertChainEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(findUserRequest)
		chain, err := s.CertificateChain(ctx, req.Username)
		return chainResponse{Chain: chain, Err: err}, nil
	}
}

func MakeRevokeCertEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RevocationRequest)
		result, err := s.RevokeCertificate(ctx, req)
		return revocationResponse{Result: result, Err: err}, nil
	}
}

func MakeRevocationStatusEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(certificateLookupRequest)
		status, err := s.RevocationStatus(ctx, req.CertificateSN, req.IssuerDN)
		return revocationStatusResponse{Status: status, Err: err}, nil
	}
}

type findUserRequest struct {
	Username string
}

type caChainRequest struct {
	CAName string
}

type latestCRLRequest struct {
	CAName string
	Delta  bool
}

type certificateLookupRequest struct {
	CertificateSN string
	IssuerDN      string
}

type certificateProfilesRequest struct {
	EndEntityProfileID int
}

type findCertificatesRequest struct {
	Username  string
	OnlyValid bool
}

type profilesResponse struct {
	Profiles []ProfileDescriptor `json:"profiles"`
	Err      error               `json:"-"`
}

func (r profilesResponse) error() error { return r.Err }

type certificateListResponse struct {
	Certificates []CertificateBundle `json:"certificates"`
	Err          error               `json:"-"`
}

func (r certificateListResponse) error() error { return r.Err }

type casResponse struct {
	CAs []CADescriptor `json:"cas"`
	Err error          `json:"-"`
}

func (r casResponse) error() error { return r.Err }

type chainResponse struct {
	Chain *ChainBundle `json:"chain"`
	Err   error        `json:"-"`
}

func (r chainResponse) error() error { return r.Err }

type crlResponse struct {
	CRL *CRLBundle `json:"crl"`
	Err error      `json:"-"`
}

func (r crlResponse) error() error { return r.Err }

type userResponse struct {
	User *EndEntityDescriptor `json:"user"`
	Err  error                `json:"-"`
}

func (r userResponse) error() error { return r.Err }

type revocationResponse struct {
	Result *RevocationResult `json:"result"`
	Err    error             `json:"-"`
}

func (r revocationResponse) error() error { return r.Err }

type certificateResponse struct {
	Certificate *CertificateBundle `json:"certificate"`
	Err         error              `json:"-"`
}

func (r certificateResponse) error() error { return r.Err }

type revocationStatusResponse struct {
	Status *RevocationStatusResult `json:"status"`
	Err    error                   `json:"-"`
}

func (r revocationStatusResponse) error() error { return r.Err }
