package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string
	Port    string
}

type EJBCAConfig struct {
	ServiceURL     string
	WSDLURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ReconnectFloor time.Duration
	HealthTimeout  time.Duration
}

type CertsConfig struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

type VaultConfig struct {
	Address    string
	RoleID     string
	SecretID   string
	SecretPath string
}

type ConsulConfig struct {
	Protocol string
	Host     string
	Port     string
	CA       string
}

type AuditConfig struct {
	DSN string
}

type Config struct {
	Server ServerConfig
	EJBCA  EJBCAConfig
	Certs  CertsConfig
	Vault  VaultConfig
	Consul ConsulConfig
	Audit  AuditConfig
}

// NewConfig reads configuration from the given YAML file, if any, with
// environment variables (prefix GATEWAY_, dots mapped to underscores)
// taking precedence over file values.
func NewConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("gateway")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "")
	v.SetDefault("server.port", "8085")
	v.SetDefault("ejbca.connect_timeout", 10*time.Second)
	v.SetDefault("ejbca.read_timeout", 30*time.Second)
	v.SetDefault("ejbca.reconnect_floor", 5*time.Second)
	v.SetDefault("ejbca.health_timeout", 5*time.Second)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := &Config{
		Server: ServerConfig{
			Address: v.GetString("server.address"),
			Port:    v.GetString("server.port"),
		},
		EJBCA: EJBCAConfig{
			ServiceURL:     v.GetString("ejbca.service_url"),
			WSDLURL:        v.GetString("ejbca.wsdl_url"),
			ConnectTimeout: v.GetDuration("ejbca.connect_timeout"),
			ReadTimeout:    v.GetDuration("ejbca.read_timeout"),
			ReconnectFloor: v.GetDuration("ejbca.reconnect_floor"),
			HealthTimeout:  v.GetDuration("ejbca.health_timeout"),
		},
		Certs: CertsConfig{
			CertFile: v.GetString("certs.cert_file"),
			KeyFile:  v.GetString("certs.key_file"),
			CAFile:   v.GetString("certs.ca_file"),
		},
		Vault: VaultConfig{
			Address:    v.GetString("vault.address"),
			RoleID:     v.GetString("vault.role_id"),
			SecretID:   v.GetString("vault.secret_id"),
			SecretPath: v.GetString("vault.secret_path"),
		},
		Consul: ConsulConfig{
			Protocol: v.GetString("consul.protocol"),
			Host:     v.GetString("consul.host"),
			Port:     v.GetString("consul.port"),
			CA:       v.GetString("consul.ca"),
		},
		Audit: AuditConfig{
			DSN: v.GetString("audit.dsn"),
		},
	}
	return config, nil
}
