package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FieldConfig describes one field of the Milvus collection schema.
type FieldConfig struct {
	Name         string `yaml:"name"`                // field name
	DataType     string `yaml:"dataType"`            // field data type (e.g. "Int64", "VarChar", "FloatVector", "JSON")
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`        // whether this field is the primary key
	Dim          int    `yaml:"dim,omitempty"`       // vector dimension (vector fields only)
	MaxLength    int    `yaml:"maxLength,omitempty"` // maximum length (VarChar fields only)
}

// IndexConfig describes the vector index of a Milvus collection.
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`  // field the index is built on
	IndexType  string                 `yaml:"indexType"`  // index type (e.g. "IVF_FLAT", "HNSW")
	MetricType string                 `yaml:"metricType"` // similarity metric (e.g. "L2", "COSINE")
	Params     map[string]interface{} `yaml:"params"`     // index parameters (e.g. {"nlist": 128})
}

// SchemaConfig describes the Milvus collection schema shared by every
// retrieval collection.
type SchemaConfig struct {
	Description string        `yaml:"description"` // collection description
	VectorField string        `yaml:"vectorField"` // name of the embedding field
	Fields      []FieldConfig `yaml:"fields"`      // field configurations
	Index       IndexConfig   `yaml:"index"`       // index configuration
}

// MilvusConfig holds the Milvus connection and schema configuration.
type MilvusConfig struct {
	Address string       `yaml:"address"` // Milvus service address
	Schema  SchemaConfig `yaml:"schema"`  // collection schema configuration
}

// RedisConfig holds the Redis / RediSearch connection configuration.
// RediSearch backs the lexical retrieval modality; when disabled the
// engine degrades lexical branches to a second dense pass.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`  // whether a lexical backend is configured
	Address  string `yaml:"address"`  // Redis server address (e.g. "localhost:6379")
	Password string `yaml:"password"` // Redis password
	DB       int    `yaml:"db"`       // Redis database number
}

// MongoConfig holds the MongoDB connection configuration. MongoDB is the
// document of record for raw chunk text.
type MongoConfig struct {
	Address    string `yaml:"address"`    // MongoDB server address
	Username   string `yaml:"username"`   // username
	Password   string `yaml:"password"`   // password
	Database   string `yaml:"database"`   // database name
	Collection string `yaml:"collection"` // chunk collection name
}

// Neo4jConfig holds the Neo4j graph database connection configuration.
type Neo4jConfig struct {
	Enabled  bool   `yaml:"enabled"`  // whether the graph side-path is active
	Uri      string `yaml:"uri"`      // Neo4j URI (e.g. "bolt://localhost:7687")
	Username string `yaml:"username"` // username
	Password string `yaml:"password"` // password
	Database string `yaml:"database"` // database name
}

// KafkaConfig holds the Kafka connection configuration used for the
// fire-and-forget graph fact events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"` // whether fact events are published
	Brokers []string `yaml:"brokers"` // Kafka broker address list
	Topics  []string `yaml:"topics"`  // Kafka topic list
}

// DatabaseConfigs groups every backing store configuration.
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`  // vector store
	Redis   RedisConfig  `yaml:"redis"`   // lexical backend
	MongoDB MongoConfig  `yaml:"mongodb"` // raw chunk store
	Neo4j   Neo4jConfig  `yaml:"neo4j"`   // graph database
	Kafka   KafkaConfig  `yaml:"kafka"`   // fact event bus
}

// AppInfo holds basic application information.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // runtime environment (e.g. "development", "production")
}

// LoggerConfig holds the logger configuration.
type LoggerConfig struct {
	Level string `yaml:"level"` // log level (e.g. "info", "debug", "warn", "error")
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Address string `yaml:"address"` // listen address (e.g. ":8080")
}

// RateLimiterConfig holds the API rate limiter configuration.
type RateLimiterConfig struct {
	Enabled   bool    `yaml:"enabled"`   // whether rate limiting is active
	Algorithm string  `yaml:"algorithm"` // limiter algorithm ("tokenBucket", "slidingWindow")
	Rate      float64 `yaml:"rate"`      // allowed requests per second
	Capacity  int     `yaml:"capacity"`  // burst size
}

// MiddlewareConfig groups the HTTP middleware configuration.
type MiddlewareConfig struct {
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"` // API rate limiter
}

// ProviderModelConfig holds the credentials for one model provider.
type ProviderModelConfig struct {
	APIKey  string `yaml:"apiKey"`  // provider API key
	Model   string `yaml:"model"`   // model name
	BaseURL string `yaml:"baseURL"` // provider base URL (ollama / self-hosted deployments)
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string              `yaml:"provider"` // embedding provider ("gemini", "openai", "ollama")
	Gemini   ProviderModelConfig `yaml:"gemini"`   // Gemini settings
	OpenAI   ProviderModelConfig `yaml:"openai"`   // OpenAI settings
	Ollama   ProviderModelConfig `yaml:"ollama"`   // Ollama settings
}

// LLMConfig selects and configures the generative model used for the
// chunk-context hook, LLM relevance scoring and graph fact extraction.
type LLMConfig struct {
	Provider string              `yaml:"provider"` // LLM provider ("gemini", "ollama")
	Gemini   ProviderModelConfig `yaml:"gemini"`   // Gemini settings
	Ollama   ProviderModelConfig `yaml:"ollama"`   // Ollama settings
}

// CrossEncoderConfig configures the external rerank model endpoint.
type CrossEncoderConfig struct {
	Enabled bool   `yaml:"enabled"` // whether the cross-encoder signal is active
	URL     string `yaml:"url"`     // rerank API endpoint
	APIKey  string `yaml:"apiKey"`  // rerank API key
	Model   string `yaml:"model"`   // rerank model name
}

// RerankWeights is the blend applied to the four reranker signals.
type RerankWeights struct {
	Original     float64 `yaml:"original"`     // weight of the fused retrieval score
	CrossEncoder float64 `yaml:"crossEncoder"` // weight of the cross-encoder score
	Metadata     float64 `yaml:"metadata"`     // weight of the metadata heuristics
	LLM          float64 `yaml:"llm"`          // weight of the LLM relevance score
}

// RetrievalConfig holds every tunable constant of the retrieval engine.
// These are deliberately configuration, not code constants.
type RetrievalConfig struct {
	DefaultCollections []string           `yaml:"defaultCollections"` // collections queried when the caller names none
	ChunkSize          int                `yaml:"chunkSize"`          // chunk window size in characters
	ChunkOverlap       int                `yaml:"chunkOverlap"`       // overlap between consecutive windows
	RRFK               int                `yaml:"rrfK"`               // reciprocal rank fusion constant
	Alpha              float64            `yaml:"alpha"`              // dense weight in per-collection fusion
	CandidateLimit     int                `yaml:"candidateLimit"`     // fused candidates handed to the reranker
	TopK               int                `yaml:"topK"`               // final result size
	BranchTimeout      string             `yaml:"branchTimeout"`      // per fan-out branch timeout (e.g. "3s")
	LLMCandidateLimit  int                `yaml:"llmCandidateLimit"`  // max candidates for LLM relevance scoring
	LLMScoringEnabled  bool               `yaml:"llmScoringEnabled"`  // whether the LLM relevance signal is active
	CrossEncoder       CrossEncoderConfig `yaml:"crossEncoder"`       // cross-encoder endpoint
	Weights            RerankWeights      `yaml:"weights"`            // reranker signal blend
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // application information
	Server     ServerConfig     `yaml:"server"`     // HTTP server configuration
	Middleware MiddlewareConfig `yaml:"middleware"` // HTTP middleware configuration
	Logger     LoggerConfig     `yaml:"logger"`     // logger configuration
	Embedding  EmbeddingConfig  `yaml:"embedding"`  // embedding provider configuration
	LLM        LLMConfig        `yaml:"llm"`        // generative model configuration
	Retrieval  RetrievalConfig  `yaml:"retrieval"`  // retrieval engine tuning
	Databases  DatabaseConfigs  `yaml:"databases"`  // backing store configuration
}

// LoadConfig reads and parses the YAML configuration file at the given
// path, applying defaults for unset retrieval constants.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Middleware.RateLimiter.Enabled {
		if cfg.Middleware.RateLimiter.Rate == 0 {
			cfg.Middleware.RateLimiter.Rate = 50
		}
		if cfg.Middleware.RateLimiter.Capacity == 0 {
			cfg.Middleware.RateLimiter.Capacity = 100
		}
	}
	cfg.Retrieval.applyDefaults()
	return &cfg, nil
}

func (r *RetrievalConfig) applyDefaults() {
	if r.ChunkSize == 0 {
		r.ChunkSize = 1000
	}
	if r.ChunkOverlap == 0 {
		r.ChunkOverlap = 100
	}
	if r.RRFK == 0 {
		r.RRFK = 60
	}
	if r.Alpha == 0 {
		r.Alpha = 0.7
	}
	if r.CandidateLimit == 0 {
		r.CandidateLimit = 20
	}
	if r.TopK == 0 {
		r.TopK = 10
	}
	if r.BranchTimeout == "" {
		r.BranchTimeout = "3s"
	}
	if r.LLMCandidateLimit == 0 {
		r.LLMCandidateLimit = 10
	}
	zero := RerankWeights{}
	if r.Weights == zero {
		r.Weights = RerankWeights{Original: 0.3, CrossEncoder: 0.4, Metadata: 0.2, LLM: 0.1}
	}
}

// Validate checks the configuration invariants that must fail at startup
// rather than surface mid-query.
func (c *AppConfig) Validate() error {
	if len(c.Retrieval.DefaultCollections) == 0 {
		return fmt.Errorf("retrieval.defaultCollections must name at least one collection")
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("retrieval.chunkOverlap (%d) must be smaller than retrieval.chunkSize (%d)",
			c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	if _, err := time.ParseDuration(c.Retrieval.BranchTimeout); err != nil {
		return fmt.Errorf("retrieval.branchTimeout is not a valid duration: %w", err)
	}
	w := c.Retrieval.Weights
	if w.Original < 0 || w.CrossEncoder < 0 || w.Metadata < 0 || w.LLM < 0 {
		return fmt.Errorf("retrieval.weights must be non-negative")
	}
	if c.Databases.Milvus.Address == "" {
		return fmt.Errorf("databases.milvus.address is required")
	}
	if c.Middleware.RateLimiter.Enabled {
		switch c.Middleware.RateLimiter.Algorithm {
		case "", "tokenBucket", "slidingWindow":
		default:
			return fmt.Errorf("unsupported rate limiter algorithm: %s", c.Middleware.RateLimiter.Algorithm)
		}
		if c.Middleware.RateLimiter.Rate <= 0 {
			return fmt.Errorf("middleware.rateLimiter.rate must be positive")
		}
	}
	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.Gemini.APIKey == "" {
			return fmt.Errorf("embedding.gemini.apiKey is required for provider 'gemini'")
		}
	case "openai":
		if c.Embedding.OpenAI.APIKey == "" {
			return fmt.Errorf("embedding.openai.apiKey is required for provider 'openai'")
		}
	case "ollama":
		// local provider, no credentials required
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	return nil
}

// BranchTimeoutDuration returns the parsed per-branch timeout. Validate
// has already rejected unparseable values at startup.
func (r *RetrievalConfig) BranchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.BranchTimeout)
	if err != nil {
		return 3 * time.Second
	}
	return d
}
