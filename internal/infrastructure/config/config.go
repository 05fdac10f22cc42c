package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development" validate:"oneof=development staging production"`
	JWTSecret string `env:"JWT_SECRET"`

	Log       LogConfig
	Dispatch  DispatchConfig
	Poll      PollConfig
	Discovery DiscoveryConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,  default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// DispatchConfig covers the order API and the public tracking endpoints.
type DispatchConfig struct {
	BaseURL         string        `env:"DISPATCH_API_BASE,         default=https://yabalash.com/api/v1" validate:"required,url"`
	TenantCode      string        `env:"DISPATCH_TENANT_CODE"`
	Email           string        `env:"DISPATCH_EMAIL"                                                 validate:"omitempty,email"`
	Password        string        `env:"DISPATCH_PASSWORD"`
	DeviceToken     string        `env:"DISPATCH_DEVICE_TOKEN"`
	Timeout         time.Duration `env:"DISPATCH_TIMEOUT,          default=15s"                         validate:"min=1s"`
	TrackingTimeout time.Duration `env:"DISPATCH_TRACKING_TIMEOUT, default=10s"                         validate:"min=1s"`
	ListLimit       int           `env:"ORDER_LIST_LIMIT,          default=50"                          validate:"min=1,max=500"`
}

type PollConfig struct {
	Interval time.Duration `env:"POLL_INTERVAL,  default=5s" validate:"min=100ms"`
	MaxPolls int           `env:"POLL_MAX_POLLS, default=0"  validate:"min=0"`
}

type DiscoveryConfig struct {
	Enabled  bool   `env:"DISCOVERY_ENABLED,  default=true"`
	Schedule string `env:"DISCOVERY_SCHEDULE, default=0 * * * * *"`
}

// MongoConfig enables the observation history when URI is set.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB,  default=driver_tracker"`
}

// RedisConfig enables the latest-snapshot store when Addr is set.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB,     default=0"  validate:"min=0"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL, default=6h"`
}

// IsProduction reports whether ENV is production. Production logs are plain
// JSON without caller information.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasCredentials reports whether the order API login can be performed.
func (c DispatchConfig) HasCredentials() bool {
	return c.Email != "" && c.Password != ""
}

// Load reads an optional .env file, then the environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes and validates the configuration using lookuper as the
// variable source.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
