package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the matcher configuration shared by the API, worker and seeder.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	NATS       NATSConfig       `yaml:"nats"`
	Vector     VectorConfig     `yaml:"vector"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Cache      CacheConfig      `yaml:"cache"`
	Tasks      TasksConfig      `yaml:"tasks"`
	Worker     WorkerConfig     `yaml:"worker"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port             int `yaml:"port"`
	ReadTimeoutSec   int `yaml:"read_timeout_sec"`
	ShutdownSec      int `yaml:"shutdown_timeout_sec"`
	MatchRatePerMin  int `yaml:"match_rate_per_min"` // 0 = unlimited
	WorkerMetricPort int `yaml:"worker_metrics_port"`
}

// RedisConfig holds the connection used for cache, status backend, pub/sub and the FT index.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MySQLConfig holds the relational community store connection.
type MySQLConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	SlowThresholdMS int    `yaml:"slow_threshold_ms"`
}

// NATSConfig holds the task queue connection.
type NATSConfig struct {
	URL      string `yaml:"url"`
	Stream   string `yaml:"stream"`
	Subject  string `yaml:"subject"`
	Consumer string `yaml:"consumer"`
}

// VectorConfig selects and tunes the community vector index.
type VectorConfig struct {
	Driver          string `yaml:"driver"` // redis, qdrant (default: redis)
	QdrantURL       string `yaml:"qdrant_url"`
	QdrantAPIKey    string `yaml:"qdrant_api_key"`
	Collection      string `yaml:"collection"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// EnrichmentConfig holds the chat model used to sanitize profiles.
type EnrichmentConfig struct {
	Enabled          bool    `yaml:"enabled"`
	APIKey           string  `yaml:"api_key"`
	BaseURL          string  `yaml:"base_url"`
	Model            string  `yaml:"model"`
	Temperature      float32 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	FailureThreshold uint32  `yaml:"breaker_failure_threshold"`
	BreakerOpenSec   int     `yaml:"breaker_open_sec"`
}

// CacheConfig holds TTLs for best-effort cache writes.
type CacheConfig struct {
	VectorTTLSec int `yaml:"vector_ttl_sec"`
	ResultTTLSec int `yaml:"result_ttl_sec"`
}

// TasksConfig holds task lifecycle settings.
type TasksConfig struct {
	ExpirySec       int `yaml:"expiry_sec"`
	ResultTTLSec    int `yaml:"result_ttl_sec"`
	EstimatedTimeMS int `yaml:"estimated_time_ms"`
}

// WorkerConfig holds worker process settings.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// StoreConfig holds candidate store query limits.
type StoreConfig struct {
	CandidateLimit int `yaml:"candidate_limit"`
	PopularLimit   int `yaml:"popular_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.WorkerMetricPort <= 0 {
		c.HTTP.WorkerMetricPort = 9100
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.MySQL.MaxOpenConns <= 0 {
		c.MySQL.MaxOpenConns = 20
	}
	if c.MySQL.MaxIdleConns <= 0 {
		c.MySQL.MaxIdleConns = 5
	}
	if c.MySQL.SlowThresholdMS <= 0 {
		c.MySQL.SlowThresholdMS = 1000
	}
	if c.NATS.Stream == "" {
		c.NATS.Stream = "MATCH_TASKS"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "vayo.match.tasks"
	}
	if c.NATS.Consumer == "" {
		c.NATS.Consumer = "vayo-worker"
	}
	if c.Vector.Driver == "" {
		c.Vector.Driver = "redis"
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "communities"
	}
	if c.Vector.HNSWM <= 0 {
		c.Vector.HNSWM = 16
	}
	if c.Vector.HNSWEFConstruct <= 0 {
		c.Vector.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Enrichment.Model == "" {
		c.Enrichment.Model = "gpt-4o-mini"
	}
	if c.Enrichment.Temperature <= 0 {
		c.Enrichment.Temperature = 0.3
	}
	if c.Enrichment.MaxTokens <= 0 {
		c.Enrichment.MaxTokens = 300
	}
	if c.Enrichment.FailureThreshold == 0 {
		c.Enrichment.FailureThreshold = 5
	}
	if c.Enrichment.BreakerOpenSec <= 0 {
		c.Enrichment.BreakerOpenSec = 30
	}
	if c.Enrichment.APIKey == "" {
		c.Enrichment.APIKey = c.Embedding.APIKey
	}
	if c.Enrichment.BaseURL == "" {
		c.Enrichment.BaseURL = c.Embedding.BaseURL
	}
	if c.Cache.VectorTTLSec <= 0 {
		c.Cache.VectorTTLSec = 3600
	}
	if c.Cache.ResultTTLSec <= 0 {
		c.Cache.ResultTTLSec = 3600
	}
	if c.Tasks.ExpirySec <= 0 {
		c.Tasks.ExpirySec = 60
	}
	if c.Tasks.ResultTTLSec <= 0 {
		c.Tasks.ResultTTLSec = 86400
	}
	if c.Tasks.EstimatedTimeMS <= 0 {
		c.Tasks.EstimatedTimeMS = 2000
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 4
	}
	if c.Store.CandidateLimit <= 0 {
		c.Store.CandidateLimit = 500
	}
	if c.Store.PopularLimit <= 0 {
		c.Store.PopularLimit = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	switch c.Vector.Driver {
	case "redis":
	case "qdrant":
		if c.Vector.QdrantURL == "" {
			return fmt.Errorf("vector.qdrant_url is required for the qdrant driver")
		}
	default:
		return fmt.Errorf("vector.driver must be \"redis\" or \"qdrant\", got %q", c.Vector.Driver)
	}
	if c.Store.PopularLimit > 50 {
		return fmt.Errorf("store.popular_limit must be at most 50, got %d", c.Store.PopularLimit)
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
