package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers = map[string]ProviderConfig{
		"openai": {
			Kind:    ProviderOpenAI,
			APIKey:  "test-key",
			BaseURL: "https://api.example.com/v1/",
			Budget: BudgetConfig{
				DailyTokenLimit: 1000000,
				Action:          "invalid_action",
			},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)

	assert.EqualError(t, err, `embedding.providers.openai.budget.action must be "warn" or "reject", got "invalid_action"`)
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Providers = map[string]ProviderConfig{
				"openai": {
					Kind:   ProviderOpenAI,
					APIKey: "test-key",
					Budget: BudgetConfig{Action: action},
				},
			}

			require.NoError(t, cfg.Validate())
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	require.Error(t, cfg.Validate())
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverRedis

	require.Error(t, cfg.Validate())
}

func TestValidate_MemoryNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()

	require.NoError(t, cfg.Validate())
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	require.Error(t, cfg.Validate())
}

func TestValidate_RedisProgressNeedsRedisDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Progress.Driver = DriverRedis

	require.Error(t, cfg.Validate())

	cfg.Database.Driver = DriverValkey
	cfg.Database.Addrs = []string{"localhost:6379"}
	require.NoError(t, cfg.Validate())
}

func TestValidate_UnknownVectorizerProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Vectorizer.Provider = "nebius"

	require.Error(t, cfg.Validate())
}

func TestValidate_RemoteProviderNeedsModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers = map[string]ProviderConfig{
		"gemini": {Kind: ProviderGemini, APIKey: "k"},
	}
	cfg.Embedding.Vectorizer.Provider = "gemini"

	require.Error(t, cfg.Validate())

	cfg.Embedding.Vectorizer.Model = "text-embedding-004"
	require.NoError(t, cfg.Validate())
}

func TestValidate_UnknownProviderKind(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers = map[string]ProviderConfig{
		"cohere": {Kind: "cohere"},
	}

	require.Error(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30, cfg.HTTP.ReadTimeoutSec)
	assert.Equal(t, 32, cfg.HTTP.MaxUploadMB)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Ranking.DefaultTopN)
	assert.Equal(t, 200, cfg.Ranking.MaxCandidates)
	assert.Equal(t, ProviderTFIDF, cfg.Embedding.Vectorizer.Provider)
	assert.Equal(t, 3, cfg.Embedding.Retry.MaxAttempts)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Ranking:  RankingConfig{DefaultTopN: 10, MaxCandidates: 50},
		Storage:  StorageConfig{UploadDir: "/data"},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 60, cfg.HTTP.WriteTimeoutSec)
	assert.Equal(t, 10, cfg.Ranking.DefaultTopN)
	assert.Equal(t, 50, cfg.Ranking.MaxCandidates)
	assert.Equal(t, "/data", cfg.Storage.UploadDir)
}

func TestApplyDefaults_ProviderKindFromName(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{Providers: map[string]ProviderConfig{
		"openai": {APIKey: "k"},
	}}}
	cfg.ApplyDefaults()

	assert.Equal(t, ProviderOpenAI, cfg.Embedding.Providers["openai"].Kind)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ATS_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("a: ${ATS_TEST_KEY}\nb: ${ATS_TEST_MISSING:-fallback}\nc: ${ATS_TEST_MISSING}")))
	assert.Equal(t, "a: secret\nb: fallback\nc: ", got)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("ATS_TEST_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte(`
http:
  port: ${ATS_TEST_PORT}
ranking:
  default_top_n: 3
embedding:
  vectorizer:
    provider: tfidf
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Ranking.DefaultTopN)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	assert.Equal(t, "local", GetEnv())
	t.Setenv("ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}

func TestValidate_TFIDFCandidateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Ranking.MaxCandidates = 256

	require.Error(t, cfg.Validate())
}
