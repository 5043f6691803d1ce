package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Backend selectors.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	CatalogStatic = "static"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	LogPretty bool          `env:"LOG_PRETTY, default=false"`

	Backend       string `env:"BACKEND,        default=memory"`
	SessionStore  string `env:"SESSION_STORE,  default=memory"`
	CatalogSource string `env:"CATALOG_SOURCE, default=static"`

	Forms FormsConfig
	Chat  ChatConfig
	Mongo MongoConfig
	Redis RedisConfig

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT, default=5"`
}

type FormsConfig struct {
	SubmitTimeout         time.Duration `env:"FORM_SUBMIT_TIMEOUT,     default=10s"`
	RegisterRedirectDelay time.Duration `env:"REGISTER_REDIRECT_DELAY, default=3s"`
	IdleTTL               time.Duration `env:"FORM_IDLE_TTL,           default=30m"`
}

type ChatConfig struct {
	ReplyDelay time.Duration `env:"CHAT_REPLY_DELAY, default=2s"`
	Workers    int           `env:"CHAT_WORKERS,     default=8"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=fazpramim"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR,        default=localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB,          default=0"`
	SessionTTL time.Duration `env:"REDIS_SESSION_TTL, default=168h"`
}

// Load reads configuration from environment variables using go-envconfig.
// Variables from a .env file in the working directory are loaded first when
// the file exists; variables already set in the environment win.
func Load() *Config {
	cfg, err := LoadContext(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadContext resolves the configuration through lookuper and validates it.
func LoadContext(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backend selectors and a missing JWT secret
// outside development.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend != BackendMemory && c.Backend != BackendMongo {
		errs = append(errs, fmt.Errorf("BACKEND must be %q or %q, got %q", BackendMemory, BackendMongo, c.Backend))
	}
	if c.SessionStore != BackendMemory && c.SessionStore != BackendRedis {
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", BackendMemory, BackendRedis, c.SessionStore))
	}
	if c.CatalogSource != CatalogStatic && c.CatalogSource != BackendMongo {
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", CatalogStatic, BackendMongo, c.CatalogSource))
	}
	if c.JWTSecret == "" && c.Env != "development" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	return errors.Join(errs...)
}

// UsesMongo reports whether any component is backed by MongoDB.
func (c *Config) UsesMongo() bool {
	return c.Backend == BackendMongo || c.CatalogSource == BackendMongo
}
