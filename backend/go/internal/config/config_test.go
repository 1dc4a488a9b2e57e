package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
app:
  name: minerva
retrieval:
  defaultCollections: ["notes"]
databases:
  milvus:
    address: "localhost:19530"
embedding:
  provider: ollama
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 100, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 60, cfg.Retrieval.RRFK)
	assert.Equal(t, 0.7, cfg.Retrieval.Alpha)
	assert.Equal(t, 20, cfg.Retrieval.CandidateLimit)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, "3s", cfg.Retrieval.BranchTimeout)
	assert.Equal(t, 10, cfg.Retrieval.LLMCandidateLimit)
	assert.Equal(t, RerankWeights{Original: 0.3, CrossEncoder: 0.4, Metadata: 0.2, LLM: 0.1}, cfg.Retrieval.Weights)
}

func TestLoadConfigKeepsExplicitValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, `
server:
  address: ":9090"
retrieval:
  defaultCollections: ["notes", "journal"]
  chunkSize: 500
  chunkOverlap: 50
  rrfK: 30
  weights:
    original: 1.0
databases:
  milvus:
    address: "localhost:19530"
embedding:
  provider: ollama
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 500, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 30, cfg.Retrieval.RRFK)
	// A partially set weight block is taken as-is, not merged with defaults.
	assert.Equal(t, RerankWeights{Original: 1.0}, cfg.Retrieval.Weights)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, "retrieval: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func validConfig(t *testing.T) *AppConfig {
	t.Helper()
	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestValidateRejectsEmptyCollections(t *testing.T) {
	cfg := validConfig(t)
	cfg.Retrieval.DefaultCollections = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaultCollections")
}

func TestValidateRejectsOversizedOverlap(t *testing.T) {
	cfg := validConfig(t)
	cfg.Retrieval.ChunkOverlap = cfg.Retrieval.ChunkSize

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunkOverlap")
}

func TestValidateRejectsBadBranchTimeout(t *testing.T) {
	cfg := validConfig(t)
	cfg.Retrieval.BranchTimeout = "soon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branchTimeout")
}

func TestValidateRejectsNegativeWeights(t *testing.T) {
	cfg := validConfig(t)
	cfg.Retrieval.Weights.Metadata = -0.1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestValidateRequiresMilvusAddress(t *testing.T) {
	cfg := validConfig(t)
	cfg.Databases.Milvus.Address = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milvus.address")
}

func TestValidateEmbeddingProviderCredentials(t *testing.T) {
	cfg := validConfig(t)

	cfg.Embedding.Provider = "gemini"
	require.Error(t, cfg.Validate(), "gemini without an API key must fail")

	cfg.Embedding.Gemini.APIKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.Embedding.Provider = "carrier-pigeon"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestBranchTimeoutDuration(t *testing.T) {
	r := RetrievalConfig{BranchTimeout: "250ms"}
	assert.Equal(t, 250*time.Millisecond, r.BranchTimeoutDuration())

	r.BranchTimeout = "garbage"
	assert.Equal(t, 3*time.Second, r.BranchTimeoutDuration())
}
