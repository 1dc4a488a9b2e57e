package service

import (
	"context"
	"fmt"

	"Minerva_AI/backend/go/internal/config"
	"Minerva_AI/backend/go/internal/database/kafka"
	"Minerva_AI/backend/go/internal/database/milvus"
	"Minerva_AI/backend/go/internal/database/mongo"
	"Minerva_AI/backend/go/internal/database/neo4j"
	"Minerva_AI/backend/go/internal/database/redis"
	"Minerva_AI/backend/go/internal/embedding"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/chunkers"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/embeddings"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/llms"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/loaders"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/pipeline"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/rerankers"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/chunkstore"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/graphstore"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/lexical"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/storages/vectorstore"
	"Minerva_AI/backend/go/internal/retrieval_service/graph"
	"Minerva_AI/backend/go/pkg/logger"
)

// SearchRequest is the service-level query input.
type SearchRequest struct {
	Query                string
	Collections          []string
	Filters              map[string]interface{}
	TopK                 int
	PreferredSourceTypes []string
	PreferredCollections []string
}

// RetrievalService owns every engine component and the connections they
// run on. It is built once at startup from the configuration and shared
// by all request handlers.
type RetrievalService struct {
	cfg *config.AppConfig
	log *logger.Logger

	milvusClient *milvus.MilvusClient
	kafkaClient  *kafka.KafkaClient
	neo4jClient  *neo4j.Neo4jClient

	vectorStore interfaces.VectorStore
	chunkStore  interfaces.ChunkStore
	lexical     *lexical.RediSearchStore

	indexing  *pipeline.IndexingPipeline
	retrieval *pipeline.RetrievalPipeline
	consumer  *graph.Consumer
}

// NewRetrievalService wires the full engine from configuration: backing
// stores, model providers, pipelines and the optional graph side-path.
// Optional subsystems that are disabled in the config are simply left
// nil and the engine degrades around them.
func NewRetrievalService(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*RetrievalService, error) {
	s := &RetrievalService{cfg: cfg, log: log}

	// Vector store, one Milvus collection per retrieval collection.
	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	s.milvusClient = milvusClient
	for _, collection := range cfg.Retrieval.DefaultCollections {
		if err := milvusClient.EnsureCollection(ctx, collection); err != nil {
			return nil, fmt.Errorf("failed to ensure collection '%s': %w", collection, err)
		}
	}
	s.vectorStore, err = vectorstore.NewMilvusStore(milvusClient, log)
	if err != nil {
		return nil, err
	}

	// Raw chunk document of record.
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongodb: %w", err)
	}
	s.chunkStore, err = chunkstore.NewMongoChunkStore(mongoClient, cfg.Databases.MongoDB.Database, cfg.Databases.MongoDB.Collection, log)
	if err != nil {
		return nil, err
	}

	// Lexical backend, optional.
	if cfg.Databases.Redis.Enabled {
		redisClient, err := redis.GetClient(&cfg.Databases.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.lexical, err = lexical.NewRediSearchStore(redisClient, log)
		if err != nil {
			return nil, err
		}
		for _, collection := range cfg.Retrieval.DefaultCollections {
			if err := s.lexical.EnsureIndex(ctx, collection); err != nil {
				return nil, fmt.Errorf("failed to ensure lexical index for '%s': %w", collection, err)
			}
		}
	} else {
		log.Warn("Lexical backend disabled, lexical branches degrade to dense search")
	}

	// Model providers.
	embCfg := cfg.Embedding
	var providerCfg config.ProviderModelConfig
	switch embCfg.Provider {
	case "gemini":
		providerCfg = embCfg.Gemini
	case "openai":
		providerCfg = embCfg.OpenAI
	case "ollama":
		providerCfg = embCfg.Ollama
	}
	embModel, err := embedding.NewEmdModel(embCfg.Provider, providerCfg.Model, providerCfg.APIKey, providerCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	embedder, err := embeddings.NewProviderAdapter(embModel)
	if err != nil {
		return nil, err
	}

	llm, err := llms.NewLLM(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	// Graph side-path, optional: publisher on the indexing side, consumer
	// plus graph store on the other end of the topic.
	var factPublisher interfaces.FactPublisher
	if cfg.Databases.Kafka.Enabled {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize kafka: %w", err)
		}
		s.kafkaClient = kafkaClient
		factPublisher = kafka.NewFactPublisher(kafkaClient)

		if cfg.Databases.Neo4j.Enabled {
			neo4jClient, err := neo4j.GetClient(ctx, &cfg.Databases.Neo4j)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize neo4j: %w", err)
			}
			s.neo4jClient = neo4jClient
			graphStore, err := graphstore.NewNeo4jGraphStore(neo4jClient, log)
			if err != nil {
				return nil, err
			}
			extractor := graph.NewFactExtractor(llm)
			s.consumer = graph.NewConsumer(kafkaClient, extractor, graphStore, log)
		}
	}

	// Pipelines.
	chunker := chunkers.NewContextChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap, log).
		WithContextLLM(llm)

	var lexicalIndexer interfaces.LexicalIndexer
	var lexicalSearcher interfaces.LexicalSearcher
	if s.lexical != nil {
		lexicalIndexer = s.lexical
		lexicalSearcher = s.lexical
	}

	s.indexing = pipeline.NewIndexingPipeline(chunker, embedder, s.vectorStore, s.chunkStore, lexicalIndexer, factPublisher, log)

	fanout := pipeline.NewFanOutRetriever(embedder, s.vectorStore, lexicalSearcher,
		cfg.Retrieval.DefaultCollections, cfg.Retrieval.BranchTimeoutDuration(), log)

	var crossEncoder interfaces.CrossEncoder
	if cfg.Retrieval.CrossEncoder.Enabled {
		ce := cfg.Retrieval.CrossEncoder
		crossEncoder = rerankers.NewCohereCrossEncoder(ce.URL, ce.APIKey, ce.Model)
	}
	var relevanceLLM interfaces.LLM
	if cfg.Retrieval.LLMScoringEnabled {
		relevanceLLM = llm
	}
	weights := rerankers.Weights{
		Original:     cfg.Retrieval.Weights.Original,
		CrossEncoder: cfg.Retrieval.Weights.CrossEncoder,
		Metadata:     cfg.Retrieval.Weights.Metadata,
		LLM:          cfg.Retrieval.Weights.LLM,
	}
	reranker := rerankers.NewWeightedReranker(crossEncoder, relevanceLLM, weights, cfg.Retrieval.LLMCandidateLimit, log)

	s.retrieval = pipeline.NewRetrievalPipeline(fanout, s.chunkStore, reranker,
		cfg.Retrieval.RRFK, cfg.Retrieval.Alpha, cfg.Retrieval.CandidateLimit, log)

	return s, nil
}

// StartConsumers launches the graph fact consumer when the side-path is
// fully configured.
func (s *RetrievalService) StartConsumers(ctx context.Context) {
	if s.consumer != nil {
		s.consumer.Start(ctx)
		s.log.Info("Graph fact consumer started")
	}
}

// Search runs the full retrieval pipeline for a query.
func (s *RetrievalService) Search(ctx context.Context, req *SearchRequest) ([]*schema.RerankedHit, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Retrieval.TopK
	}
	opts := rerankers.Options{
		PreferredSourceTypes: req.PreferredSourceTypes,
		PreferredCollections: req.PreferredCollections,
	}
	return s.retrieval.Run(ctx, req.Query, req.Collections, req.Filters, topK, opts)
}

// IndexDocument indexes one source document.
func (s *RetrievalService) IndexDocument(ctx context.Context, doc *schema.SourceDocument, force bool) (bool, string, error) {
	indexed, err := s.indexing.IndexDocument(ctx, doc, force)
	return indexed, chunkers.DocumentID(doc.SourceID), err
}

// IndexFile loads a file from disk and indexes it into the collection.
func (s *RetrievalService) IndexFile(ctx context.Context, path, collection, userID string, force bool) (bool, string, error) {
	loader, err := loaders.ForFile(path)
	if err != nil {
		return false, "", err
	}
	doc, err := loader.Load(ctx, path)
	if err != nil {
		return false, "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	doc.Collection = collection
	if userID != "" {
		doc.Metadata[schema.MetadataKeyUserID] = userID
	}
	return s.IndexDocument(ctx, doc, force)
}

// DeleteDocument removes a source document from every store it was
// indexed into.
func (s *RetrievalService) DeleteDocument(ctx context.Context, collection, sourceID string) error {
	documentID := chunkers.DocumentID(sourceID)

	if err := s.vectorStore.Delete(ctx, collection, documentID); err != nil {
		return err
	}
	if err := s.chunkStore.Delete(ctx, documentID); err != nil {
		return err
	}
	if s.lexical != nil {
		if err := s.lexical.DeleteDocument(ctx, collection, documentID); err != nil {
			return err
		}
	}
	s.log.Info(fmt.Sprintf("Deleted document %s from collection %s", documentID, collection))
	return nil
}

// HealthCheck reports per-dependency health. The service is degraded,
// not down, when an optional dependency fails.
func (s *RetrievalService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	check := func(name string, err error) {
		if err != nil {
			status[name] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			status[name] = "ok"
		}
	}

	check("milvus", s.milvusClient.HealthCheck(ctx))
	check("mongodb", mongo.HealthCheck(ctx))
	if s.lexical != nil {
		check("redis", redis.HealthCheck(ctx))
	}
	if s.kafkaClient != nil {
		check("kafka", s.kafkaClient.HealthCheck(ctx))
	}
	if s.neo4jClient != nil {
		check("neo4j", s.neo4jClient.HealthCheck(ctx))
	}
	return status
}

// Close releases every connection the service holds.
func (s *RetrievalService) Close(ctx context.Context) {
	if s.kafkaClient != nil {
		if err := s.kafkaClient.Close(); err != nil {
			s.log.Warn(fmt.Sprintf("Failed to close kafka client: %v", err))
		}
	}
	if s.neo4jClient != nil {
		s.neo4jClient.Close(ctx)
	}
	if err := redis.Close(); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to close redis client: %v", err))
	}
	if err := mongo.Close(ctx); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to close mongodb client: %v", err))
	}
	if s.milvusClient != nil {
		s.milvusClient.Close()
	}
}
