package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	stdopentracing "github.com/opentracing/opentracing-go"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/client"
)

var ErrMalformedBody = errors.New("malformed JSON request body")

type errorer interface {
	error() error
}

func MakeHTTPHandler(s Service, logger log.Logger, otTracer stdopentracing.Tracer) http.Handler {
	r := mux.NewRouter()
	e := MakeServerEndpoints(s, otTracer)

	options := []httptransport.ServerOption{
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerErrorEncoder(encodeError),
	}

	handler := func(name string, ep endpoint.Endpoint, dec httptransport.DecodeRequestFunc) http.Handler {
		return httptransport.NewServer(
			ep,
			dec,
			encodeResponse,
			append(options, httptransport.ServerBefore(opentracing.HTTPToContext(otTracer, name, logger)))...,
		)
	}

	r.Methods("GET").Path("/health").Handler(handler("Health", e.HealthEndpoint, decodeEmptyRequest))
	r.Methods("GET").Path("/soap/status").Handler(handler("Status", e.StatusEndpoint, decodeEmptyRequest))
	r.Methods("GET").Path("/soap/getAvailableCAs").Handler(handler("GetAvailableCAs", e.AvailableCAsEndpoint, decodeEmptyRequest))
	r.Methods("GET").Path("/soap/getLastCAChain/{caName}").Handler(handler("GetLastCAChain", e.CAChainEndpoint, decodeCAChainRequest))
	r.Methods("GET").Path("/soap/getLatestCRL/{caName}").Handler(handler("GetLatestCRL", e.LatestCRLEndpoint, decodeLatestCRLRequest))
	r.Methods("GET").Path("/soap/getAuthorizedEndEntityProfiles").Handler(handler("GetAuthorizedEndEntityProfiles", e.EndEntityProfilesEndpoint, decodeEmptyRequest))
	r.Methods("GET").Path("/soap/getAvailableCertificateProfiles/{profileId}").Handler(handler("GetAvailableCertificateProfiles", e.CertificateProfilesEndpoint, decodeCertificateProfilesRequest))
	r.Methods("POST").Path("/soap/editUser").Handler(handler("EditUser", e.EditUserEndpoint, decodeEditUserRequest))
	r.Methods("GET").Path("/soap/findUser/{username}").Handler(handler("FindUser", e.FindUserEndpoint, decodeFindUserRequest))
	r.Methods("GET").Path("/soap/findCerts/{username}").Handler(handler("FindCerts", e.FindCertificatesEndpoint, decodeFindCertificatesRequest))
	r.Methods("POST").Path("/soap/revokeUser").Handler(handler("RevokeUser", e.RevokeUserEndpoint, decodeRevocationRequest))
	r.Methods("POST").Path("/soap/pkcs10Request").Handler(handler("Pkcs10Request", e.IssueCertificateEndpoint, decodeCertificateRequest))
	r.Methods("GET").Path("/soap/getCertificate/{serial}").Handler(handler("GetCertificate", e.GetCertificateEndpoint, decodeCertificateLookupRequest))
	r.Methods("GET").Path("/soap/getLastCertChain/{username}").Handler(handler("GetLastCertChain", e.CertChainEndpoint, decodeFindUserRequest))
	r.Methods("POST").Path("/soap/revokeCert").Handler(handler("RevokeCert", e.RevokeCertEndpoint, decodeRevocationRequest))
	r.Methods("GET").Path("/soap/checkRevokationStatus/{serial}").Handler(handler("CheckRevokationStatus", e.RevocationStatusEndpoint, decodeCertificateLookupRequest))

	return r
}

func decodeEmptyRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

func decodeFindUserRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return findUserRequest{Username: vars["username"]}, nil
}

func decodeCAChainRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return caChainRequest{CAName: vars["caName"]}, nil
}

func decodeLatestCRLRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return latestCRLRequest{
		CAName: vars["caName"],
		Delta:  r.URL.Query().Get("delta") == "true",
	}, nil
}

func decodeCertificateProfilesRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["profileId"])
	if err != nil {
		return nil, &ValidationError{Field: "profile_id", Message: "must be a numeric end entity profile id"}
	}
	return certificateProfilesRequest{EndEntityProfileID: id}, nil
}

func decodeFindCertificatesRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return findCertificatesRequest{
		Username:  vars["username"],
		OnlyValid: r.URL.Query().Get("only_valid") == "true",
	}, nil
}

func decodeCertificateLookupRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return certificateLookupRequest{
		CertificateSN: vars["serial"],
		IssuerDN:      r.URL.Query().Get("issuer_dn"),
	}, nil
}

func decodeEditUserRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()
	var req EndEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedBody
	}
	return req, nil
}

func decodeRevocationRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()
	var req RevocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedBody
	}
	return req, nil
}

func decodeCertificateRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()
	var req CertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, ErrMalformedBody
	}
	return req, nil
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

type errorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Operation string `json:"operation,omitempty"`
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(codeFrom(err))
	json.NewEncoder(w).Encode(bodyFrom(err))
}

func bodyFrom(err error) errorBody {
	switch e := err.(type) {
	case *ValidationError:
		return errorBody{Kind: "validation", Message: e.Error()}
	case *client.RemoteFault:
		return errorBody{Kind: "remote_fault:" + string(e.Kind), Message: e.Message, Operation: e.Operation}
	case *client.AuthorizationError:
		return errorBody{Kind: "authorization", Message: e.Message, Operation: e.Operation}
	case *client.TransportError:
		return errorBody{Kind: "transport", Message: e.Error(), Operation: e.Operation}
	default:
		return errorBody{Kind: "internal", Message: err.Error()}
	}
}

func codeFrom(err error) int {
	if err == ErrMalformedBody {
		return http.StatusBadRequest
	}
	switch e := err.(type) {
	case *ValidationError:
		return http.StatusBadRequest
	case *client.AuthorizationError:
		return http.StatusBadGateway
	case *client.TransportError:
		return http.StatusServiceUnavailable
	case *client.RemoteFault:
		switch e.Kind {
		case client.FaultNotFound, client.FaultUnknownCA:
			return http.StatusNotFound
		case client.FaultAlreadyExists, client.FaultAlreadyRevoked:
			return http.StatusConflict
		case client.FaultInvalidProfile:
			return http.StatusBadRequest
		case client.FaultWaitingForApproval:
			return http.StatusAccepted
		default:
			return http.StatusInternalServerError
		}
	default:
		return http.StatusInternalServerError
	}
}
