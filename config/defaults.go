// =============================================================================
// Fabric default configuration
// =============================================================================
package config

import (
	"time"

	"github.com/intellirouter/fabric/resilience"
)

// DefaultConfig returns the fabric's baseline configuration: an exponential
// backoff retry policy with modest retries, a breaker that admits a single
// HalfOpen trial call (HalfOpenMaxCalls 1), and fail-fast degraded mode for
// every family until overridden.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsPort:     9091,
			ShutdownTimeout: 15 * time.Second,
		},
		Broker: BrokerConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Token: TokenConfig{
			Issuer:     "intellirouter",
			Audience:   "intellirouter-fabric",
			Expiration: 5 * time.Minute,
		},
		TLS: TLSConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Families: defaultFamiliesConfig(),
	}
}

func defaultFamilyConfig() FamilyConfig {
	return FamilyConfig{
		Retry: RetryConfig{
			Kind:         "exponential",
			InitialDelay: 100 * time.Millisecond,
			Factor:       2.0,
			MaxDelay:     5 * time.Second,
			MaxRetries:   3,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 1,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 1,
			Enabled:          true,
		},
		Degraded: DegradedConfig{
			Kind: "fail_fast",
		},
	}
}

func defaultFamiliesConfig() FamiliesConfig {
	return FamiliesConfig{
		ChainEngine:   defaultFamilyConfig(),
		Memory:        defaultFamilyConfig(),
		Persona:       defaultFamilyConfig(),
		RAG:           defaultFamilyConfig(),
		ModelRegistry: defaultFamilyConfig(),
	}
}
