package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Ledger   LedgerConfig    `mapstructure:"ledger"`
	Crypto   CryptoConfig    `mapstructure:"crypto"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	CORS     CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LedgerConfig holds the proof and audit provider configuration
type LedgerConfig struct {
	Proof ProofConfig `mapstructure:"proof"`
	Audit AuditConfig `mapstructure:"audit"`
}

// ProofConfig holds private proof provider configuration.
// Mode selects the backend: "local" computes salted digests in-process,
// "remote" submits to a networked proof service.
type ProofConfig struct {
	Mode     string        `mapstructure:"mode"`
	Endpoint string        `mapstructure:"endpoint"`
	Salt     string        `mapstructure:"salt"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuditConfig holds public audit provider configuration.
// An empty NetworkID is not an error; the provider runs in a clearly
// labeled degraded mode so the pipeline works end to end in development.
type AuditConfig struct {
	Mode               string        `mapstructure:"mode"`
	Endpoint           string        `mapstructure:"endpoint"`
	NetworkID          string        `mapstructure:"network_id"`
	VerificationScript string        `mapstructure:"verification_script"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// CryptoConfig holds envelope crypto configuration
type CryptoConfig struct {
	// FallbackKey is a hex-encoded 32-byte key used to seal relayed
	// payloads and administrative fields at rest on the server side.
	FallbackKey string `mapstructure:"fallback_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	// Read from environment variables; nested keys map to underscored
	// names, e.g. server.port -> CONSENT_LEDGER_SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvPrefix("CONSENT_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Consent.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Consent.Database == "" {
		return fmt.Errorf("database name is required")
	}

	switch config.Ledger.Proof.Mode {
	case "", "local":
		// local mode needs no endpoint
	case "remote":
		if config.Ledger.Proof.Endpoint == "" {
			return fmt.Errorf("proof endpoint is required when proof mode is remote")
		}
	default:
		return fmt.Errorf("invalid proof mode: %s", config.Ledger.Proof.Mode)
	}

	switch config.Ledger.Audit.Mode {
	case "", "local":
	case "remote":
		if config.Ledger.Audit.Endpoint == "" {
			return fmt.Errorf("audit endpoint is required when audit mode is remote")
		}
	default:
		return fmt.Errorf("invalid audit mode: %s", config.Ledger.Audit.Mode)
	}

	if config.Ledger.Proof.Salt == "" {
		return fmt.Errorf("proof salt is required")
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// ProviderTimeout returns the bounded per-call timeout for a provider,
// defaulting to a few seconds so a hung ledger cannot stall an approval.
func (p *ProofConfig) ProviderTimeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 5 * time.Second
}

// ProviderTimeout returns the bounded per-call timeout for the audit
// provider, defaulting to a few seconds.
func (a *AuditConfig) ProviderTimeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return 5 * time.Second
}

// IsConfigured reports whether the audit provider has network
// credentials. Unconfigured is not an error; the provider degrades.
func (a *AuditConfig) IsConfigured() bool {
	return a.NetworkID != ""
}
