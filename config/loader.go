// =============================================================================
// Fabric configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("fabric.yaml").
//	    WithEnvPrefix("INTELLIROUTER_FABRIC").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/intellirouter/fabric/resilience"
)

// =============================================================================
// Core configuration structures
// =============================================================================

// Config is the fabric's complete deployment configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" env:"SERVER"`
	Broker   BrokerConfig   `yaml:"broker" env:"BROKER"`
	Token    TokenConfig    `yaml:"token" env:"TOKEN"`
	TLS      TLSConfig      `yaml:"tls" env:"TLS"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
	Families FamiliesConfig `yaml:"families" env:"FAMILIES"`
}

// ServerConfig configures the process hosting the fabric's metrics and
// diagnostics surface.
type ServerConfig struct {
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// BrokerConfig configures the Redis connection backing ipc/broker.
type BrokerConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// TokenConfig configures ipc/security's Authenticator.
type TokenConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET"`
	Issuer     string        `yaml:"issuer" env:"ISSUER"`
	Audience   string        `yaml:"audience" env:"AUDIENCE"`
	Expiration time.Duration `yaml:"expiration" env:"EXPIRATION"`
}

// TLSConfig configures the optional mTLS identity used by the broker
// client and RPC proxies when their transport supports it.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	CertPath string `yaml:"cert_path" env:"CERT_PATH"`
	KeyPath  string `yaml:"key_path" env:"KEY_PATH"`
	CAPath   string `yaml:"ca_path" env:"CA_PATH"`
}

// LogConfig configures the fabric's zap logger.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// RetryConfig is the on-disk form of a resilience.Policy.
type RetryConfig struct {
	// Kind is one of "none", "fixed", "exponential".
	Kind         string        `yaml:"kind" env:"KIND"`
	Interval     time.Duration `yaml:"interval" env:"INTERVAL"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	Factor       float64       `yaml:"factor" env:"FACTOR"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	MaxRetries   int           `yaml:"max_retries" env:"MAX_RETRIES"`
	Jitter       bool          `yaml:"jitter" env:"JITTER"`
}

// Policy converts the on-disk RetryConfig to a resilience.Policy.
func (r RetryConfig) Policy() resilience.Policy {
	switch r.Kind {
	case "fixed":
		return resilience.Fixed(r.Interval, r.MaxRetries)
	case "exponential":
		p := resilience.ExponentialBackoff(r.InitialDelay, r.Factor, r.MaxRetries, r.MaxDelay)
		p.Jitter = r.Jitter
		return p
	default:
		return resilience.NoRetry()
	}
}

// BreakerConfig is the on-disk form of a resilience.BreakerConfig.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" env:"FAILURE_THRESHOLD"`
	SuccessThreshold int           `yaml:"success_threshold" env:"SUCCESS_THRESHOLD"`
	ResetTimeout     time.Duration `yaml:"reset_timeout" env:"RESET_TIMEOUT"`
	HalfOpenMaxCalls int           `yaml:"half_open_max_calls" env:"HALF_OPEN_MAX_CALLS"`
	Enabled          bool          `yaml:"enabled" env:"ENABLED"`
}

// Breaker converts the on-disk BreakerConfig to a resilience.BreakerConfig.
func (b BreakerConfig) Breaker() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		FailureThreshold: b.FailureThreshold,
		SuccessThreshold: b.SuccessThreshold,
		ResetTimeout:     b.ResetTimeout,
		HalfOpenMaxCalls: b.HalfOpenMaxCalls,
		Enabled:          b.Enabled,
	}
}

// DegradedConfig is the on-disk form of a resilience.DegradedMode.
type DegradedConfig struct {
	// Kind is one of "fail_fast", "static_response", "default_upstream".
	Kind           string  `yaml:"kind" env:"KIND"`
	StaticText     string  `yaml:"static_text" env:"STATIC_TEXT"`
	UpstreamID     string  `yaml:"upstream_id" env:"UPSTREAM_ID"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// Mode converts the on-disk DegradedConfig to a resilience.DegradedMode.
func (d DegradedConfig) Mode() resilience.DegradedMode {
	switch d.Kind {
	case "static_response":
		return resilience.DegradedMode{Kind: resilience.StaticResponse, Text: d.StaticText}
	case "default_upstream":
		return resilience.DegradedMode{Kind: resilience.DefaultUpstream, UpstreamID: d.UpstreamID}
	default:
		return resilience.DegradedMode{Kind: resilience.FailFast}
	}
}

// FamilyConfig bundles the resilience settings for one RPC family.
type FamilyConfig struct {
	Retry    RetryConfig    `yaml:"retry" env:"RETRY"`
	Breaker  BreakerConfig  `yaml:"breaker" env:"BREAKER"`
	Degraded DegradedConfig `yaml:"degraded" env:"DEGRADED"`
}

// FamiliesConfig carries one FamilyConfig per RPC family named in
// SPEC_FULL.md's RPC families resolution.
type FamiliesConfig struct {
	ChainEngine   FamilyConfig `yaml:"chain_engine" env:"CHAIN_ENGINE"`
	Memory        FamilyConfig `yaml:"memory" env:"MEMORY"`
	Persona       FamilyConfig `yaml:"persona" env:"PERSONA"`
	RAG           FamilyConfig `yaml:"rag" env:"RAG"`
	ModelRegistry FamilyConfig `yaml:"model_registry" env:"MODEL_REGISTRY"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader is the fabric's configuration loader (builder pattern).
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "INTELLIROUTER_FABRIC",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a config validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads the configuration. Precedence: defaults -> YAML file ->
// environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively walks cfg's struct fields, overriding any
// whose "env" tag names a set environment variable.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads the configuration, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads the configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate runs basic sanity checks on cfg.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Broker.Addr == "" {
		errs = append(errs, "broker.addr must not be empty")
	}
	if c.Token.Secret == "" {
		errs = append(errs, "token.secret must not be empty")
	}
	if c.Token.Expiration <= 0 {
		errs = append(errs, "token.expiration must be positive")
	}
	if c.TLS.Enabled && (c.TLS.CertPath == "" || c.TLS.KeyPath == "" || c.TLS.CAPath == "") {
		errs = append(errs, "tls.enabled requires cert_path, key_path, and ca_path")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
