package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the cinesearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error (default: determined by env)
	Encoding string `yaml:"encoding"` // json, console (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// HealthCheckSec bounds each dependency check behind /health.
	HealthCheckSec int `yaml:"health_check_timeout_sec"`
}

// MongoConfig holds the user store connection.
type MongoConfig struct {
	URI             string `yaml:"uri"`
	Database        string `yaml:"database"`
	UsersCollection string `yaml:"users_collection"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// RedisConfig holds the session and cache store connection.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SessionConfig holds login session settings.
type SessionConfig struct {
	Secret       string `yaml:"secret"`
	TTLHours     int    `yaml:"ttl_hours"`
	CookieName   string `yaml:"cookie_name"`
	SecureCookie bool   `yaml:"secure_cookie"`
	BcryptCost   int    `yaml:"bcrypt_cost"`
	// MaxLoginAttempts locks a username after this many failures; 0 disables throttling.
	MaxLoginAttempts int `yaml:"max_login_attempts"`
	LockoutMinutes   int `yaml:"lockout_minutes"`
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// Lockout returns how long failed login attempts are remembered.
func (s SessionConfig) Lockout() time.Duration {
	return time.Duration(s.LockoutMinutes) * time.Minute
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai, fastembed (default: openai)
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	CacheDir   string `yaml:"cache_dir"`  // fastembed model files
	MaxLength  int    `yaml:"max_length"` // fastembed max input tokens
	// MaxBatchSize caps texts per provider call; 0 uses the provider default.
	MaxBatchSize int `yaml:"max_batch_size"`
	// MaxRetries and RequestsPerSecond apply to the openai provider.
	MaxRetries        int     `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// CacheTTLHours is the query embedding cache lifetime; 0 keeps entries forever.
	CacheTTLHours int  `yaml:"cache_ttl_hours"`
	DisableCache  bool `yaml:"disable_cache"`
}

// CatalogConfig holds catalog file settings.
type CatalogConfig struct {
	Path           string `yaml:"path"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`
}

// SearchConfig holds similarity search limits.
type SearchConfig struct {
	TopK           int `yaml:"top_k"`
	MaxQueryLength int `yaml:"max_query_length"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, is applied to the process environment first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.HealthCheckSec <= 0 {
		c.HTTP.HealthCheckSec = 2
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "movie_recommender"
	}
	if c.Mongo.UsersCollection == "" {
		c.Mongo.UsersCollection = "users"
	}
	if c.Mongo.TimeoutSec <= 0 {
		c.Mongo.TimeoutSec = 10
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = 24
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "cinesearch_session"
	}
	if c.Session.LockoutMinutes <= 0 {
		c.Session.LockoutMinutes = 15
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "cleaned_movies_fixed.json"
	}
	if c.Catalog.EmbedBatchSize <= 0 {
		c.Catalog.EmbedBatchSize = 64
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 5
	}
	if c.Search.MaxQueryLength <= 0 {
		c.Search.MaxQueryLength = 1024
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "cinesearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session.secret must be at least 32 bytes, got %d", len(c.Session.Secret))
	}
	if c.Session.BcryptCost != 0 && (c.Session.BcryptCost < 4 || c.Session.BcryptCost > 31) {
		return fmt.Errorf("session.bcrypt_cost must be between 4 and 31, got %d", c.Session.BcryptCost)
	}
	if c.Session.MaxLoginAttempts < 0 {
		return fmt.Errorf("session.max_login_attempts must not be negative, got %d", c.Session.MaxLoginAttempts)
	}
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for the openai provider")
		}
	case "fastembed":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"fastembed\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.MaxBatchSize < 0 {
		return fmt.Errorf("embedding.max_batch_size must not be negative, got %d", c.Embedding.MaxBatchSize)
	}
	if c.Embedding.MaxRetries < 0 || c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.max_retries and embedding.requests_per_second must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
