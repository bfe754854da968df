package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics"
)

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func NewInstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return &instrumentingMiddleware{
			requestCount:   counter,
			requestLatency: latency,
			next:           next,
		}
	}
}

func (mw *instrumentingMiddleware) observe(method string, err error, begin time.Time) {
	lvs := []string{"method", method, "error", fmt.Sprint(err != nil)}
	mw.requestCount.With(lvs...).Add(1)
	mw.requestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) Health(ctx context.Context) HealthStatus {
	defer mw.observe("Health", nil, time.Now())
	return mw.next.Health(ctx)
}

func (mw *instrumentingMiddleware) Status(ctx context.Context) GatewayStatus {
	defer mw.observe("Status", nil, time.Now())
	return mw.next.Status(ctx)
}

func (mw *instrumentingMiddleware) AvailableCAs(ctx context.Context) (cas []CADescriptor, err error) {
	defer func(begin time.Time) { mw.observe("AvailableCAs", err, begin) }(time.Now())
	return mw.next.AvailableCAs(ctx)
}

func (mw *instrumentingMiddleware) CAChain(ctx context.Context, caName string) (chain *ChainBundle, err error) {
	defer func(begin time.Time) { mw.observe("CAChain", err, begin) }(time.Now())
	return mw.next.CAChain(ctx, caName)
}

func (mw *instrumentingMiddleware) LatestCRL(ctx context.Context, caName string, delta bool) (crl *CRLBundle, err error) {
	defer func(begin time.Time) { mw.observe("LatestCRL", err, begin) }(time.Now())
	return mw.next.LatestCRL(ctx, caName, delta)
}

func (mw *instrumentingMiddleware) EndEntityProfiles(ctx context.Context) (profiles []ProfileDescriptor, err error) {
	defer func(begin time.Time) { mw.observe("EndEntityProfiles", err, begin) }(time.Now())
	return mw.next.EndEntityProfiles(ctx)
}

func (mw *instrumentingMiddleware) CertificateProfiles(ctx context.Context, endEntityProfileID int) (profiles []ProfileDescriptor, err error) {
	defer func(begin time.Time) { mw.observe("CertificateProfiles", err, begin) }(time.Now())
	return mw.next.CertificateProfiles(ctx, endEntityProfileID)
}

func (mw *instrumentingMiddleware) EditUser(ctx context.Context, req EndEntityRequest) (user *EndEntityDescriptor, err error) {
	defer func(begin time.Time) { mw.observe("EditUser", err, begin) }(time.Now())
	return mw.next.EditUser(ctx, req)
}

func (mw *instrumentingMiddleware) FindUser(ctx context.Context, username string) (user *EndEntityDescriptor, err error) {
	defer func(begin time.Time) { mw.observe("FindUser", err, begin) }(time.Now())
	return mw.next.FindUser(ctx, username)
}

func (mw *instrumentingMiddleware) FindCertificates(ctx context.Context, username string, onlyValid bool) (certs []CertificateBundle, err error) {
	defer func(begin time.Time) { mw.observe("FindCertificates", err, begin) }(time.Now())
	return mw.next.FindCertificates(ctx, username, onlyValid)
}

func (mw *instrumentingMiddleware) RevokeUser(ctx context.Context, req RevocationRequest) (result *RevocationResult, err error) {
	defer func(begin time.Time) { mw.observe("RevokeUser", err, begin) }(time.Now())
	return mw.next.RevokeUser(ctx, req)
}

func (mw *instrumentingMiddleware) IssueCertificate(ctx context.Context, req CertificateRequest) (bundle *CertificateBundle, err error) {
	defer func(begin time.Time) { mw.observe("IssueCertificate", err, begin) }(time.Now())
	return mw.next.IssueCertificate(ctx, req)
}

func (mw *instrumentingMiddleware) GetCertificate(ctx context.Context, certificateSN string, issuerDN string) (bundle *CertificateBundle, err error) {
	defer func(begin time.Time) { mw.observe("GetCertificate", err, begin) }(time.Now())
	return mw.next.GetCertificate(ctx, certificateSN, issuerDN)
}

func (mw *instrumentingMiddleware) CertificateChain(ctx context.Context, username string) (chain *ChainBundle, err error) {
	defer func(begin time.Time) { mw.observe("CertificateChain", err, begin) }(time.Now())
	return mw.next.CertificateChain(ctx, username)
}

func (mw *instrumentingMiddleware) RevokeCertificate(ctx context.Context, req RevocationRequest) (result *RevocationResult, err error) {
	defer func(begin time.Time) { mw.observe("RevokeCertificate", err, begin) }(time.Now())
	return mw.next.RevokeCertificate(ctx, req)
}

func (mw *instrumentingMiddleware) RevocationStatus(ctx context.Context, certificateSN string, issuerDN string) (status *RevocationStatusResult, err error) {
	defer func(begin time.Time) { mw.observe("RevocationStatus", err, begin) }(time.Now())
	return mw.next.RevocationStatus(ctx, certificateSN, issuerDN)
}
