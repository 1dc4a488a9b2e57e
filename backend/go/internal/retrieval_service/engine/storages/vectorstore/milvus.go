package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"Minerva_AI/backend/go/internal/database/milvus"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// Schema fields of the retrieval collections.
	FieldID         = "id"
	FieldDocumentID = "document_id"
	FieldContent    = "content"
	FieldUserID     = "user_id"
	FieldMetadata   = "metadata"
	FieldEmbedding  = "embedding"
)

// MilvusStore adapts the shared Milvus client to the VectorStore
// interface. The content column always carries the raw chunk text; the
// contextualized text only ever exists as the embedded vector.
type MilvusStore struct {
	log    *logger.Logger
	client client.Client
}

// NewMilvusStore creates a new MilvusStore adapter on top of the
// project's shared Milvus client wrapper.
func NewMilvusStore(milvusClient *milvus.MilvusClient, log *logger.Logger) (interfaces.VectorStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{log: log, client: milvusClient.Client}, nil
}

// Upsert inserts or replaces records keyed by chunk id, making forced
// re-indexing of a document safe to re-run.
func (s *MilvusStore) Upsert(ctx context.Context, collection string, records []*schema.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	docIDs := make([]string, len(records))
	contents := make([]string, len(records))
	userIDs := make([]string, len(records))
	metadatas := make([][]byte, len(records))
	vectors := make([][]float32, len(records))

	dim := 0
	for i, record := range records {
		ids[i] = record.ChunkID
		docIDs[i] = documentIDOf(record.ChunkID)
		contents[i] = record.Content
		vectors[i] = record.Vector
		if len(record.Vector) > dim {
			dim = len(record.Vector)
		}
		if uid, ok := record.Metadata[schema.MetadataKeyUserID].(string); ok {
			userIDs[i] = uid
		}
		raw, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk '%s': %w", record.ChunkID, err)
		}
		metadatas[i] = raw
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	docIDCol := entity.NewColumnVarChar(FieldDocumentID, docIDs)
	contentCol := entity.NewColumnVarChar(FieldContent, contents)
	userIDCol := entity.NewColumnVarChar(FieldUserID, userIDs)
	metadataCol := entity.NewColumnJSONBytes(FieldMetadata, metadatas)
	embeddingCol := entity.NewColumnFloatVector(FieldEmbedding, dim, vectors)

	s.log.Info(fmt.Sprintf("Upserting %d records into Milvus collection: %s", len(records), collection))
	_, err := s.client.Upsert(ctx, collection, "", idCol, docIDCol, contentCol, userIDCol, metadataCol, embeddingCol)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to upsert data into Milvus: %v", err))
		return fmt.Errorf("failed to upsert data into Milvus: %w", err)
	}
	return nil
}

// Exists reports whether a chunk id is present in the collection.
func (s *MilvusStore) Exists(ctx context.Context, collection, chunkID string) (bool, error) {
	expr := fmt.Sprintf(`%s == "%s"`, FieldID, chunkID)
	results, err := s.client.Query(ctx, collection, nil, expr, []string{FieldID})
	if err != nil {
		return false, fmt.Errorf("failed to query Milvus for chunk '%s': %w", chunkID, err)
	}
	for _, col := range results {
		if col.Name() == FieldID && col.Len() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Query performs a vector similarity search with optional metadata
// equality filters. Hits come back ordered by ascending distance.
func (s *MilvusStore) Query(ctx context.Context, collection string, embedding []float32, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error) {
	filterExpr := buildFilterExpression(filters)

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	outputFields := []string{FieldID, FieldContent, FieldMetadata}

	searchResults, err := s.client.Search(
		ctx, collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to search in Milvus: %v", err))
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var hits []*schema.RankedHit
	for _, res := range searchResults {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(FieldID).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing id field or has wrong type, skipping.")
			continue
		}
		idData := idCol.Data()

		var contentData []string
		if contentCol, ok := findColumn(FieldContent).(*entity.ColumnVarChar); ok {
			contentData = contentCol.Data()
		}
		var metadataCol *entity.ColumnJSONBytes
		if col, ok := findColumn(FieldMetadata).(*entity.ColumnJSONBytes); ok {
			metadataCol = col
		}

		for i := 0; i < res.ResultCount; i++ {
			hit := &schema.RankedHit{
				ChunkID:    idData[i],
				Score:      float64(res.Scores[i]),
				Modality:   schema.ModalityDense,
				Collection: collection,
				Metadata:   map[string]interface{}{},
			}
			if contentData != nil {
				hit.Content = contentData[i]
			}
			if metadataCol != nil {
				if raw, err := metadataCol.ValueByIdx(i); err == nil {
					var meta map[string]interface{}
					if err := json.Unmarshal(raw, &meta); err == nil {
						hit.Metadata = meta
					}
				}
			}
			hits = append(hits, hit)
		}
	}

	return hits, nil
}

// Delete removes every chunk of a document from the collection.
func (s *MilvusStore) Delete(ctx context.Context, collection, documentID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete document '%s' from Milvus: %w", documentID, err)
	}
	return nil
}

// documentIDOf recovers the document id from a chunk id of the form
// "<docID>_chunk_<n>".
func documentIDOf(chunkID string) string {
	if idx := strings.Index(chunkID, "_chunk_"); idx > 0 {
		return chunkID[:idx]
	}
	return chunkID
}

// buildFilterExpression creates a Milvus filter expression from a map.
// Known top-level columns filter directly; everything else goes through
// the metadata JSON column.
func buildFilterExpression(filters map[string]interface{}) string {
	if len(filters) == 0 {
		return ""
	}

	var conditions []string
	for key, value := range filters {
		v, ok := value.(string)
		if !ok {
			continue
		}
		switch key {
		case FieldUserID, FieldDocumentID:
			conditions = append(conditions, fmt.Sprintf(`%s == "%s"`, key, v))
		default:
			conditions = append(conditions, fmt.Sprintf(`%s["%s"] == "%s"`, FieldMetadata, key, v))
		}
	}
	return strings.Join(conditions, " and ")
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
