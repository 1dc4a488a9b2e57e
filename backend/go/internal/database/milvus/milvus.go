package milvus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Minerva_AI/backend/go/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient wraps the Milvus SDK client together with its configuration.
// Every retrieval collection shares the schema described in the config;
// collection names are passed per call.
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// GetClient creates and returns the Milvus client as a singleton.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to Milvus: %w", err)
			return
		}
		log.Println("Connected to Milvus.")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close safely closes the connection to Milvus.
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
		log.Println("Milvus connection closed.")
	}
}

// HealthCheck verifies the Milvus connection is alive.
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// Flush writes in-memory segments of a collection to disk.
func (c *MilvusClient) Flush(ctx context.Context, collectionName string) error {
	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.Client.Flush(flushCtx, collectionName, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", collectionName, err)
	}
	return nil
}

// EnsureCollection makes sure the named collection exists with the
// configured schema and index, and loads it for search. It is safe to
// call on every startup.
func (c *MilvusClient) EnsureCollection(ctx context.Context, collectionName string) error {
	exists, err := c.Client.HasCollection(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		schemaFields := make([]*entity.Field, 0, len(c.Config.Schema.Fields))
		for _, fieldCfg := range c.Config.Schema.Fields {
			field := entity.NewField().WithName(fieldCfg.Name)

			if fieldCfg.IsPrimaryKey {
				field = field.WithIsPrimaryKey(true)
			}

			switch fieldCfg.DataType {
			case "Int64":
				field = field.WithDataType(entity.FieldTypeInt64)
			case "VarChar":
				field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
			case "FloatVector":
				field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
			case "Float":
				field = field.WithDataType(entity.FieldTypeFloat)
			case "Double":
				field = field.WithDataType(entity.FieldTypeDouble)
			case "Bool":
				field = field.WithDataType(entity.FieldTypeBool)
			case "JSON":
				field = field.WithDataType(entity.FieldTypeJSON)
			default:
				return fmt.Errorf("unsupported data type: %s", fieldCfg.DataType)
			}

			schemaFields = append(schemaFields, field)
		}

		collSchema := entity.NewSchema().
			WithName(collectionName).
			WithDescription(c.Config.Schema.Description)
		for _, field := range schemaFields {
			collSchema = collSchema.WithField(field)
		}

		if err := c.Client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection '%s': %w", collectionName, err)
		}
		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collectionName, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("failed to create index on field '%s': %w", c.Config.Schema.Index.FieldName, err)
		}
	}

	if err := c.Client.LoadCollection(ctx, collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", collectionName, err)
	}
	return nil
}

// buildIndexFromConfig builds an index entity from the configuration.
func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	indexCfg := c.Config.Schema.Index
	metricType := entity.MetricType(indexCfg.MetricType)

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		nlist, ok := indexCfg.Params["nlist"].(int)
		if !ok {
			nlist = 128
		}
		return entity.NewIndexIvfFlat(metricType, nlist)
	case "HNSW":
		M, ok := indexCfg.Params["M"].(int)
		if !ok {
			M = 8
		}
		efConstruction, ok := indexCfg.Params["efConstruction"].(int)
		if !ok {
			efConstruction = 96
		}
		return entity.NewIndexHNSW(metricType, M, efConstruction)
	case "IVF_SQ8":
		nlist, ok := indexCfg.Params["nlist"].(int)
		if !ok {
			nlist = 128
		}
		return entity.NewIndexIvfSQ8(metricType, nlist)
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("unsupported index type: %s", indexCfg.IndexType)
	}
}
