package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/audit"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/audit/relational"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/client"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/config"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/discovery/consul"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/gateway"
	gwsecrets "github.com/lamassuiot/ejbca-rest-gateway/pkg/secrets/gateway"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/secrets/gateway/file"
	"github.com/lamassuiot/ejbca-rest-gateway/pkg/secrets/gateway/vault"
)

func main() {
	flConfig := flag.String("config", envString("GATEWAY_CONFIG", ""), "configuration file")
	flag.Parse()

	var logger log.Logger
	{
		logger = log.NewJSONLogger(os.Stdout)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	cfg, err := config.NewConfig(*flConfig)
	if err != nil {
		level.Error(logger).Log("err", err, "msg", "Could not read configuration")
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "Configuration loaded")

	var secrets gwsecrets.Secrets
	if cfg.Vault.Address != "" {
		secrets, err = vault.NewVaultSecrets(cfg.Vault.Address, cfg.Vault.RoleID, cfg.Vault.SecretID, cfg.Vault.SecretPath)
		if err != nil {
			level.Error(logger).Log("err", err, "msg", "Could not create Vault secrets provider")
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Gateway credentials provided by Vault")
	} else {
		secrets = file.NewFile(cfg.Certs.CertFile, cfg.Certs.KeyFile, cfg.Certs.CAFile, logger)
		level.Info(logger).Log("msg", "Gateway credentials provided by files")
	}

	clientCert, err := secrets.GetClientCertificate()
	if err != nil {
		level.Error(logger).Log("err", err, "msg", "Could not load Gateway client certificate")
		os.Exit(1)
	}
	trustAnchors, err := secrets.GetTrustAnchors()
	if err != nil {
		level.Error(logger).Log("err", err, "msg", "Could not load CA trust anchors")
		os.Exit(1)
	}

	ws := client.New(client.Config{
		ServiceURL:        cfg.EJBCA.ServiceURL,
		WSDLURL:           cfg.EJBCA.WSDLURL,
		ClientCertificate: clientCert,
		TrustAnchors:      trustAnchors,
		ConnectTimeout:    cfg.EJBCA.ConnectTimeout,
		ReadTimeout:       cfg.EJBCA.ReadTimeout,
		ReconnectFloor:    cfg.EJBCA.ReconnectFloor,
	}, log.With(logger, "component", "WS"))

	var auditStore audit.Store
	if cfg.Audit.DSN != "" {
		auditStore, err = relational.NewDB("postgres", cfg.Audit.DSN, log.With(logger, "component", "audit"))
		if err != nil {
			level.Error(logger).Log("err", err, "msg", "Could not connect to audit database")
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Connection established with audit database")
	} else {
		auditStore = audit.NewNop()
		level.Info(logger).Log("msg", "Audit trail disabled, no DSN configured")
	}

	jcfg, err := jaegercfg.FromEnv()
	if err != nil {
		level.Error(logger).Log("err", err, "msg", "Could not load Jaeger configuration values fron environment")
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "Jaeger configuration values loaded")
	tracer, closer, err := jcfg.NewTracer()
	if err != nil {
		level.Error(logger).Log("err", err, "msg", "Could not start Jaeger tracer")
		os.Exit(1)
	}
	defer closer.Close()
	level.Info(logger).Log("msg", "Jaeger tracer started")
	fieldKeys := []string{"method", "error"}

	var s gateway.Service
	{
		s = gateway.NewService(ws, auditStore, cfg.EJBCA.HealthTimeout, logger)
		s = gateway.LoggingMiddleware(logger)(s)
		s = gateway.NewInstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "ejbca_gateway",
				Subsystem: "gateway",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "ejbca_gateway",
				Subsystem: "gateway",
				Name:      "request_latency_microseconds",
				Help:      "Total duration of requests in microseconds.",
			}, fieldKeys),
		)(s)
	}

	mux := http.NewServeMux()
	mux.Handle("/", gateway.MakeHTTPHandler(s, log.With(logger, "component", "HTTP"), tracer))
	mux.Handle("/metrics", promhttp.Handler())

	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	if cfg.Consul.Host != "" {
		consulsd, err := consul.NewServiceDiscovery(cfg.Consul.Protocol, cfg.Consul.Host, cfg.Consul.Port, cfg.Consul.CA, logger)
		if err != nil {
			level.Error(logger).Log("err", err, "msg", "Could not start connection with Consul Service Discovery")
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Connection established with Consul Service Discovery")
		consulsd.Register("http", "ejbcagateway", cfg.Server.Port)
		defer consulsd.Deregister()
	}

	go func() {
		addr := cfg.Server.Address + ":" + cfg.Server.Port
		level.Info(logger).Log("transport", "HTTP", "address", addr, "msg", "listening")
		errs <- http.ListenAndServe(addr, mux)
	}()
	level.Info(logger).Log("exit", <-errs)
}

func envString(key, def string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	return def
}
