package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// State of the mutual-TLS session to the CA.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDegraded:
		return "DEGRADED"
	default:
		return "UNINITIALIZED"
	}
}

// Client is the transport to the EJBCA web service. Implementations must be
// safe for concurrent use; request handlers share one client.
type Client interface {
	Connect(ctx context.Context) error
	Invoke(ctx context.Context, operation string, request interface{}, response interface{}) error
	Operations(ctx context.Context) ([]string, error)
	State() State
}

type Config struct {
	ServiceURL        string
	WSDLURL           string
	ClientCertificate tls.Certificate
	TrustAnchors      *x509.CertPool
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	ReconnectFloor    time.Duration
}

const maxResponseBytes = 10 << 20

type wsClient struct {
	serviceURL     string
	wsdlURL        string
	httpc          *http.Client
	reconnectFloor time.Duration
	connectTimeout time.Duration
	logger         log.Logger

	mtx         sync.Mutex
	state       State
	lastAttempt time.Time
	operations  []string
}

func New(cfg Config, logger log.Logger) Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.ReconnectFloor == 0 {
		cfg.ReconnectFloor = 5 * time.Second
	}

	httpc := &http.Client{
		Timeout: cfg.ReadTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
			TLSHandshakeTimeout: cfg.ConnectTimeout,
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cfg.ClientCertificate},
				RootCAs:      cfg.TrustAnchors,
			},
		},
	}

	return &wsClient{
		serviceURL:     cfg.ServiceURL,
		wsdlURL:        cfg.WSDLURL,
		httpc:          httpc,
		reconnectFloor: cfg.ReconnectFloor,
		connectTimeout: cfg.ConnectTimeout,
		logger:         logger,
	}
}

// Connect establishes the session by fetching the service's WSDL over the
// mutual-TLS channel. Calling it while connected is a no-op. Attempts are
// serialized; concurrent callers block until the in-flight attempt settles.
// After a failure further attempts are suppressed until the reconnect floor
// has elapsed, so a stream of incoming requests cannot hammer the CA.
func (c *wsClient) Connect(ctx context.Context) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == StateConnected {
		return nil
	}
	if c.state == StateDegraded && time.Since(c.lastAttempt) < c.reconnectFloor {
		return &TransportError{Operation: "connect", Err: ErrReconnectSuppressed}
	}
	c.state = StateConnecting
	c.lastAttempt = time.Now()

	ops, err := c.fetchOperations(ctx)
	if err != nil {
		c.state = StateDegraded
		level.Error(c.logger).Log("err", err, "msg", "Could not establish session with CA web service")
		return &TransportError{Operation: "connect", Err: err}
	}
	c.operations = ops
	c.state = StateConnected
	level.Info(c.logger).Log("msg", "Session established with CA web service", "operations", len(ops))
	return nil
}

func (c *wsClient) fetchOperations(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.wsdlURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WSDL endpoint returned status %d", resp.StatusCode)
	}
	raw, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	ops, err := parseWSDLOperations(raw)
	if err != nil || len(ops) == 0 {
		// Reachability is what matters here; a WSDL the parser cannot
		// digest falls back to the published catalog.
		level.Warn(c.logger).Log("msg", "Could not introspect WSDL operations, using contract catalog", "err", err)
		return append([]string(nil), defaultOperations...), nil
	}
	return ops, nil
}

// Invoke sends one operation envelope and parses the reply. The session is
// established lazily on first use.
func (c *wsClient) Invoke(ctx context.Context, operation string, request interface{}, response interface{}) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	envelope, err := encodeEnvelope(request)
	if err != nil {
		return &TransportError{Operation: operation, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(envelope))
	if err != nil {
		return &TransportError{Operation: operation, Err: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.markDegraded(operation, err)
		return &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.markDegraded(operation, err)
		return &TransportError{Operation: operation, Err: err}
	}

	// Faults arrive with a 500 status; anything else without a parsable
	// envelope is a transport-level failure and degrades the session.
	if err := decodeEnvelope(operation, raw, response); err != nil {
		if te, ok := err.(*TransportError); ok {
			if resp.StatusCode != http.StatusOK {
				te = &TransportError{Operation: operation, Err: fmt.Errorf("service returned status %d", resp.StatusCode)}
			}
			c.markDegraded(operation, te.Err)
			return te
		}
		return err
	}
	return nil
}

func (c *wsClient) markDegraded(operation string, err error) {
	c.mtx.Lock()
	c.state = StateDegraded
	c.lastAttempt = time.Now()
	c.mtx.Unlock()
	level.Warn(c.logger).Log("err", err, "msg", "Session with CA web service degraded", "operation", operation)
}

// Operations lists the operation names published by the service contract.
func (c *wsClient) Operations(ctx context.Context) ([]string, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return append([]string(nil), c.operations...), nil
}

func (c *wsClient) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}
