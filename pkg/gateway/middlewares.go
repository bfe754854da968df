package gateway

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger log.Logger
}

func (mw loggingMiddleware) Health(ctx context.Context) (status HealthStatus) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "Health",
			"status", status.Status,
			"took", time.Since(begin),
		)
	}(time.Now())
	return mw.next.Health(ctx)
}

func (mw loggingMiddleware) Status(ctx context.Context) (status GatewayStatus) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "Status",
			"session", status.Session,
			"took", time.Since(begin),
		)
	}(time.Now())
	return mw.next.Status(ctx)
}

func (mw loggingMiddleware) AvailableCAs(ctx context.Context) (cas []CADescriptor, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "AvailableCAs",
			"count", len(cas),
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.AvailableCAs(ctx)
}

func (mw loggingMiddleware) CAChain(ctx context.Context, caName string) (chain *ChainBundle, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "CAChain",
			"ca_name", caName,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.CAChain(ctx, caName)
}

func (mw loggingMiddleware) LatestCRL(ctx context.Context, caName string, delta bool) (crl *CRLBundle, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "LatestCRL",
			"ca_name", caName,
			"delta", delta,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.LatestCRL(ctx, caName, delta)
}

func (mw loggingMiddleware) EndEntityProfiles(ctx context.Context) (profiles []ProfileDescriptor, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "EndEntityProfiles",
			"count", len(profiles),
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.EndEntityProfiles(ctx)
}

func (mw loggingMiddleware) CertificateProfiles(ctx context.Context, endEntityProfileID int) (profiles []ProfileDescriptor, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "CertificateProfiles",
			"profile_id", endEntityProfileID,
			"count", len(profiles),
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.CertificateProfiles(ctx, endEntityProfileID)
}

func (mw loggingMiddleware) EditUser(ctx context.Context, req EndEntityRequest) (user *EndEntityDescriptor, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "EditUser",
			"username", req.Username,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.EditUser(ctx, req)
}

func (mw loggingMiddleware) FindUser(ctx context.Context, username string) (user *EndEntityDescriptor, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "FindUser",
			"username", username,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.FindUser(ctx, username)
}

func (mw loggingMiddleware) FindCertificates(ctx context.Context, username string, onlyValid bool) (certs []CertificateBundle, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "FindCertificates",
			"username", username,
			"count", len(certs),
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.FindCertificates(ctx, username, onlyValid)
}

func (mw loggingMiddleware) RevokeUser(ctx context.Context, req RevocationRequest) (result *RevocationResult, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "RevokeUser",
			"username", req.Username,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.RevokeUser(ctx, req)
}

func (mw loggingMiddleware) IssueCertificate(ctx context.Context, req CertificateRequest) (bundle *CertificateBundle, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "IssueCertificate",
			"username", req.Username,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.IssueCertificate(ctx, req)
}

func (mw loggingMiddleware) GetCertificate(ctx context.Context, certificateSN string, issuerDN string) (bundle *CertificateBundle, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "GetCertificate",
			"serial", certificateSN,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.GetCertificate(ctx, certificateSN, issuerDN)
}

func (mw loggingMiddleware) CertificateChain(ctx context.Context, username string) (chain *ChainBundle, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "CertificateChain",
			"username", username,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.CertificateChain(ctx, username)
}

func (mw loggingMiddleware) RevokeCertificate(ctx context.Context, req RevocationRequest) (result *RevocationResult, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "RevokeCertificate",
			"serial", req.CertificateSN,
			"reason", req.Reason,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.RevokeCertificate(ctx, req)
}

func (mw loggingMiddleware) RevocationStatus(ctx context.Context, certificateSN string, issuerDN string) (status *RevocationStatusResult, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "RevocationStatus",
			"serial", certificateSN,
			"took", time.Since(begin),
			"err", err)
	}(time.Now())
	return mw.next.RevocationStatus(ctx, certificateSN, issuerDN)
}
