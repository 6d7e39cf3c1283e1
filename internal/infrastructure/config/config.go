package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Provider      string              `mapstructure:"provider"`
	PayPal        PayPalConfig        `mapstructure:"paypal"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Breaker       BreakerConfig       `mapstructure:"breaker"`
	Server        ServerConfig        `mapstructure:"server"`
	Idempotency   IdempotencyConfig   `mapstructure:"idempotency"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type PayPalConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	Sandbox       bool   `mapstructure:"sandbox"`
	ReturnURL     string `mapstructure:"return_url"`
	CancelURL     string `mapstructure:"cancel_url"`
	WebhookID     string `mapstructure:"webhook_id"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// BaseURL overrides the sandbox/live host, mostly for tests.
	BaseURL string `mapstructure:"base_url"`
}

type StripeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Sandbox       bool   `mapstructure:"sandbox"`
	SandboxAPIKey string `mapstructure:"sandbox_api_key"`
	WebhookSecret string `mapstructure:"stripe_webhook_secret"`
}

// SelectedKey is the secret key used for API calls given the sandbox flag.
func (c StripeConfig) SelectedKey() string {
	if c.Sandbox {
		return c.SandboxAPIKey
	}
	return c.APIKey
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`

	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `mapstructure:"rate_limit"`

	// JWTSecret enables bearer authentication on /api/v1 when set.
	JWTSecret string `mapstructure:"jwt_secret"`
}

type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig selects the Redis idempotency store. An empty Host keeps
// replay records in process memory.
type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type ObservabilityConfig struct {
	ServiceName   string `mapstructure:"service_name"`
	LogLevel      string `mapstructure:"log_level"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
	EnableTracing bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/unifiedpay")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("UNIFIEDPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate reports every problem at once. Only the credentials of the
// selected provider are required.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case "paypal":
		if c.PayPal.ClientID == "" {
			errs = append(errs, fmt.Errorf("paypal.client_id is required"))
		}
		if c.PayPal.ClientSecret == "" {
			errs = append(errs, fmt.Errorf("paypal.client_secret is required"))
		}
	case "stripe":
		if c.Stripe.SelectedKey() == "" {
			if c.Stripe.Sandbox {
				errs = append(errs, fmt.Errorf("stripe.sandbox_api_key is required when stripe.sandbox is set"))
			} else {
				errs = append(errs, fmt.Errorf("stripe.api_key is required"))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("provider must be one of paypal, stripe, got %q", c.Provider))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive"))
	}
	if c.Breaker.Enabled && c.Breaker.FailureThreshold == 0 {
		errs = append(errs, fmt.Errorf("breaker.failure_threshold must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if c.Idempotency.Enabled && c.Idempotency.TTL <= 0 {
		errs = append(errs, fmt.Errorf("idempotency.ttl must be positive"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "paypal")

	// Keys without a meaningful default are still registered so that
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("paypal.client_id", "")
	v.SetDefault("paypal.client_secret", "")
	v.SetDefault("paypal.sandbox", false)
	v.SetDefault("paypal.return_url", "https://example.com/return")
	v.SetDefault("paypal.cancel_url", "https://example.com/cancel")
	v.SetDefault("paypal.webhook_id", "")
	v.SetDefault("paypal.webhook_secret", "")
	v.SetDefault("paypal.base_url", "")

	v.SetDefault("stripe.api_key", "")
	v.SetDefault("stripe.sandbox", false)
	v.SetDefault("stripe.sandbox_api_key", "")
	v.SetDefault("stripe.stripe_webhook_secret", "")

	v.SetDefault("http.timeout", "30s")

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.max_requests", 1)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "45s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("idempotency.redis.host", "")
	v.SetDefault("idempotency.redis.port", 6379)
	v.SetDefault("idempotency.redis.password", "")
	v.SetDefault("idempotency.redis.db", 0)
	v.SetDefault("idempotency.redis.connect_retries", 5)
	v.SetDefault("idempotency.redis.connect_retry_delay", "1s")

	v.SetDefault("observability.service_name", "unifiedpay")
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.otlp_endpoint", "localhost:4317")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)
}
