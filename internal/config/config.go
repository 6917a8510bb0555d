// Package config loads the service configuration from config/<env>.yaml.
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

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Embedding provider kinds.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderTFIDF  = "tfidf"
)

const maxTFIDFCandidates = 255

// Config holds the ATS service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Progress  ProgressConfig  `yaml:"progress"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int `yaml:"max_upload_mb"`
	HeartbeatSec    int `yaml:"sse_heartbeat_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, valkey (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RankingConfig holds job limits and result retention.
type RankingConfig struct {
	DefaultTopN       int `yaml:"default_top_n"`
	MaxCandidates     int `yaml:"max_candidates"`
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
	ResultTTLSec      int `yaml:"result_ttl_sec"`
	MaxResults        int `yaml:"max_results"`
}

// ResultTTL returns the result retention as a duration.
func (r RankingConfig) ResultTTL() time.Duration {
	return time.Duration(r.ResultTTLSec) * time.Second
}

// ProgressConfig selects the progress event broker.
type ProgressConfig struct {
	Driver string `yaml:"driver"` // memory, redis (default: memory)
	Buffer int    `yaml:"buffer"`
}

// StorageConfig holds upload storage settings.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Vectorizer VectorizerConfig          `yaml:"vectorizer"`
	Retry      RetryConfig               `yaml:"retry"`
	Cache      CacheConfig               `yaml:"cache"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	Kind    string       `yaml:"kind"` // openai, gemini, tfidf (default: the provider name)
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Budget  BudgetConfig `yaml:"budget"`
}

// VectorizerConfig selects the provider and model used for ranking.
type VectorizerConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	Instruction string `yaml:"instruction"`
}

// RetryConfig bounds retries of a failed embedding call.
type RetryConfig struct {
	MaxAttempts       int `yaml:"max_attempts"`
	InitialIntervalMS int `yaml:"initial_interval_ms"`
	MaxIntervalMS     int `yaml:"max_interval_ms"`
}

// CacheConfig controls the embedding cache in the key-value store.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours"` // 0 disables the cache
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
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
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.HTTP.HeartbeatSec <= 0 {
		c.HTTP.HeartbeatSec = 15
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Ranking.DefaultTopN <= 0 {
		c.Ranking.DefaultTopN = 5
	}
	if c.Ranking.MaxCandidates <= 0 {
		c.Ranking.MaxCandidates = 200
	}
	if c.Ranking.MaxConcurrentJobs <= 0 {
		c.Ranking.MaxConcurrentJobs = 4
	}
	if c.Ranking.ResultTTLSec <= 0 {
		c.Ranking.ResultTTLSec = 3600
	}
	if c.Ranking.MaxResults <= 0 {
		c.Ranking.MaxResults = 10000
	}
	if c.Progress.Driver == "" {
		c.Progress.Driver = DriverMemory
	}
	if c.Progress.Buffer <= 0 {
		c.Progress.Buffer = 64
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
	if c.Embedding.Vectorizer.Provider == "" {
		c.Embedding.Vectorizer.Provider = ProviderTFIDF
	}
	if c.Embedding.Retry.MaxAttempts <= 0 {
		c.Embedding.Retry.MaxAttempts = 3
	}
	if c.Embedding.Retry.InitialIntervalMS <= 0 {
		c.Embedding.Retry.InitialIntervalMS = 500
	}
	if c.Embedding.Retry.MaxIntervalMS <= 0 {
		c.Embedding.Retry.MaxIntervalMS = 5000
	}
	for name, p := range c.Embedding.Providers {
		if p.Kind == "" {
			p.Kind = name
			c.Embedding.Providers[name] = p
		}
	}
}

// Provider returns the settings of the vectorizer's provider. The tfidf
// provider needs no entry in the registry.
func (c *Config) Provider() (ProviderConfig, error) {
	name := c.Embedding.Vectorizer.Provider
	if p, ok := c.Embedding.Providers[name]; ok {
		return p, nil
	}
	if name == ProviderTFIDF {
		return ProviderConfig{Kind: ProviderTFIDF}, nil
	}
	return ProviderConfig{}, fmt.Errorf("embedding.vectorizer.provider %q is not in embedding.providers", name)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	default:
		return fmt.Errorf("database.driver must be memory, redis or valkey, got %q", c.Database.Driver)
	}
	switch c.Progress.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Database.Driver == DriverMemory {
			return errors.New("progress.driver redis requires database.driver redis or valkey")
		}
	default:
		return fmt.Errorf("progress.driver must be memory or redis, got %q", c.Progress.Driver)
	}
	for name, p := range c.Embedding.Providers {
		switch p.Kind {
		case ProviderOpenAI, ProviderGemini, ProviderTFIDF:
		default:
			return fmt.Errorf("embedding.providers.%s.kind must be openai, gemini or tfidf, got %q", name, p.Kind)
		}
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"embedding.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}
	p, err := c.Provider()
	if err != nil {
		return err
	}
	if p.Kind != ProviderTFIDF && c.Embedding.Vectorizer.Model == "" {
		return errors.New("embedding.vectorizer.model is required for remote providers")
	}
	if c.Ranking.MaxCandidates < 1 {
		return fmt.Errorf("ranking.max_candidates must be >= 1, got %d", c.Ranking.MaxCandidates)
	}
	// TF-IDF vectors are only comparable within one provider call, and the
	// instrumented embedder splits batches above 256 texts.
	if p.Kind == ProviderTFIDF && c.Ranking.MaxCandidates > maxTFIDFCandidates {
		return fmt.Errorf("ranking.max_candidates must be <= %d with the tfidf provider, got %d",
			maxTFIDFCandidates, c.Ranking.MaxCandidates)
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
