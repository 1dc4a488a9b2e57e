package chunkstore

import (
	"context"
	"fmt"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// chunkDocument is the MongoDB representation of a stored chunk. Both
// text variants are persisted here; the vector store only ever carries
// the raw text in its content column.
type chunkDocument struct {
	ID             string                 `bson:"_id"`
	DocumentID     string                 `bson:"document_id"`
	Collection     string                 `bson:"collection"`
	Index          int                    `bson:"index"`
	Total          int                    `bson:"total"`
	RawText        string                 `bson:"raw_text"`
	ContextualText string                 `bson:"contextual_text"`
	Metadata       map[string]interface{} `bson:"metadata,omitempty"`
}

// MongoChunkStore is the document of record for chunk text, backed by a
// single MongoDB collection across all retrieval collections.
type MongoChunkStore struct {
	log        *logger.Logger
	collection *mongo.Collection
}

// NewMongoChunkStore creates a new MongoChunkStore over the given
// database and collection names.
func NewMongoChunkStore(client *mongo.Client, database, collection string, log *logger.Logger) (*MongoChunkStore, error) {
	if client == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return &MongoChunkStore{
		log:        log,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Add inserts or replaces chunks keyed by chunk id.
func (s *MongoChunkStore) Add(ctx context.Context, chunks []*schema.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, len(chunks))
	for i, chunk := range chunks {
		doc := &chunkDocument{
			ID:             chunk.ID,
			DocumentID:     chunk.DocumentID,
			Collection:     chunk.Collection,
			Index:          chunk.Index,
			Total:          chunk.Total,
			RawText:        chunk.RawText,
			ContextualText: chunk.ContextualText,
			Metadata:       chunk.Metadata,
		}
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": chunk.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	if _, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to write chunks to MongoDB: %w", err)
	}
	return nil
}

// Get retrieves chunks by id. Missing ids are simply absent from the
// returned map.
func (s *MongoChunkStore) Get(ctx context.Context, ids []string) (map[string]*schema.Chunk, error) {
	if len(ids) == 0 {
		return map[string]*schema.Chunk{}, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to read chunks from MongoDB: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]*schema.Chunk)
	for cursor.Next(ctx) {
		var doc chunkDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode chunk document: %w", err)
		}
		result[doc.ID] = &schema.Chunk{
			ID:             doc.ID,
			DocumentID:     doc.DocumentID,
			Collection:     doc.Collection,
			Index:          doc.Index,
			Total:          doc.Total,
			RawText:        doc.RawText,
			ContextualText: doc.ContextualText,
			Metadata:       doc.Metadata,
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while reading chunks: %w", err)
	}
	return result, nil
}

// Delete removes every chunk of a document.
func (s *MongoChunkStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return fmt.Errorf("failed to delete chunks of document '%s': %w", documentID, err)
	}
	return nil
}

// compile-time check to ensure MongoChunkStore implements the ChunkStore interface
var _ interfaces.ChunkStore = (*MongoChunkStore)(nil)
