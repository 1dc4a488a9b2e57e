package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"Minerva_AI/backend/go/internal/models"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/chunkers"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
)

// IndexingPipeline orchestrates chunking, embedding and storage of a
// source document. Chunk identities are deterministic, so the pipeline is
// idempotent: indexing the same source twice without force is a no-op.
type IndexingPipeline struct {
	chunker       *chunkers.ContextChunker
	embedder      interfaces.EmbeddingModel
	vectorStore   interfaces.VectorStore
	chunkStore    interfaces.ChunkStore
	lexicalIndex  interfaces.LexicalIndexer
	factPublisher interfaces.FactPublisher
	log           *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline. chunkStore,
// lexicalIndex and factPublisher are optional.
func NewIndexingPipeline(
	chunker *chunkers.ContextChunker,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	chunkStore interfaces.ChunkStore,
	lexicalIndex interfaces.LexicalIndexer,
	factPublisher interfaces.FactPublisher,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		chunker:       chunker,
		embedder:      embedder,
		vectorStore:   vectorStore,
		chunkStore:    chunkStore,
		lexicalIndex:  lexicalIndex,
		factPublisher: factPublisher,
		log:           log,
	}
}

// IndexDocument runs the full indexing pass for one document. It returns
// indexed=true when the document's chunks are present in the vector store
// afterwards, whether freshly embedded or already there. Empty input is a
// skip, not an error.
func (p *IndexingPipeline) IndexDocument(ctx context.Context, doc *schema.SourceDocument, force bool) (bool, error) {
	if doc.Collection == "" {
		return false, fmt.Errorf("source document %q has no collection", doc.SourceID)
	}
	if strings.TrimSpace(doc.Text) == "" {
		p.log.Info(fmt.Sprintf("Skipping empty document: %s", doc.SourceID))
		return false, nil
	}

	documentID := chunkers.DocumentID(doc.SourceID)

	if !force {
		exists, err := p.vectorStore.Exists(ctx, doc.Collection, chunkers.ChunkID(documentID, 0))
		if err != nil {
			// Err toward re-indexing: an unreachable store must not cause a
			// silent skip.
			p.log.Warn(fmt.Sprintf("Existence check failed for %s, re-indexing: %v", documentID, err))
		} else if exists {
			p.log.Info(fmt.Sprintf("Document %s already indexed, skipping (use force to re-embed)", documentID))
			return true, nil
		}
	}

	chunks, err := p.chunker.Chunk(ctx, doc)
	if err != nil {
		return false, fmt.Errorf("failed to chunk document %s: %w", doc.SourceID, err)
	}
	if len(chunks) == 0 {
		return false, nil
	}

	indexedAt := time.Now().UTC().Format(time.RFC3339)
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunk.Metadata[schema.MetadataKeyIndexedAt] = indexedAt
		texts[i] = chunk.ContextualText
	}

	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return false, fmt.Errorf("failed to embed chunks of %s: %w", doc.SourceID, err)
	}
	if len(embeddings) != len(chunks) {
		return false, fmt.Errorf("embedding provider returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	records := make([]*schema.EmbeddingRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &schema.EmbeddingRecord{
			ChunkID: chunk.ID,
			// The vector store's content column holds the display text; the
			// contextual text exists only in the embedding itself and in the
			// chunk store's document of record.
			Content:    chunk.RawText,
			Vector:     embeddings[i],
			Collection: chunk.Collection,
			Metadata:   chunk.Metadata,
		}
	}

	// Upsert semantics make a forced pass safe to re-run. Vector store and
	// chunk store writes run in parallel.
	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := p.vectorStore.Upsert(gCtx, doc.Collection, records); err != nil {
			return fmt.Errorf("failed to upsert into vector store: %w", err)
		}
		return nil
	})
	if p.chunkStore != nil {
		eg.Go(func() error {
			if err := p.chunkStore.Add(gCtx, chunks); err != nil {
				return fmt.Errorf("failed to store raw chunks: %w", err)
			}
			return nil
		})
	}
	if p.lexicalIndex != nil {
		eg.Go(func() error {
			if err := p.lexicalIndex.Index(gCtx, chunks); err != nil {
				return fmt.Errorf("failed to index chunks lexically: %w", err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return false, err
	}

	p.publishFactEvent(ctx, documentID, doc, chunks)

	p.log.Info(fmt.Sprintf("Indexed document %s as %s (%d chunks)", doc.SourceID, documentID, len(chunks)))
	return true, nil
}

// publishFactEvent hands the indexed content to the graph side-path. The
// call is fire-and-forget: a publish failure is logged and swallowed so
// graph latency can never affect indexing.
func (p *IndexingPipeline) publishFactEvent(ctx context.Context, documentID string, doc *schema.SourceDocument, chunks []*schema.Chunk) {
	if p.factPublisher == nil {
		return
	}

	userID, _ := doc.Metadata[schema.MetadataKeyUserID].(string)
	event := &models.FactEvent{
		EventID:    uuid.New().String(),
		DocumentID: documentID,
		Collection: doc.Collection,
		UserID:     userID,
		Chunks:     make([]*models.FactChunk, len(chunks)),
		EmittedAt:  time.Now().UTC(),
	}
	for i, chunk := range chunks {
		event.Chunks[i] = &models.FactChunk{ChunkID: chunk.ID, Text: chunk.RawText}
	}

	if err := p.factPublisher.Publish(ctx, event); err != nil {
		p.log.Warn(fmt.Sprintf("Failed to publish fact event for %s: %v", documentID, err))
	}
}
