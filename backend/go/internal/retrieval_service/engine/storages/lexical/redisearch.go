package lexical

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RediSearchStore implements keyword retrieval on top of a Redis server
// with the RediSearch module loaded. Each collection gets its own
// full-text index over hashes keyed "chunk:<collection>:<chunkID>".
type RediSearchStore struct {
	log    *logger.Logger
	client *redis.Client
}

// NewRediSearchStore creates a new RediSearchStore.
func NewRediSearchStore(client *redis.Client, log *logger.Logger) (*RediSearchStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}
	return &RediSearchStore{log: log, client: client}, nil
}

func indexName(collection string) string {
	return "idx:" + collection
}

func keyPrefix(collection string) string {
	return "chunk:" + collection + ":"
}

// EnsureIndex creates the full-text index for a collection if it does not
// exist yet. Safe to call on every startup.
func (s *RediSearchStore) EnsureIndex(ctx context.Context, collection string) error {
	err := s.client.Do(ctx,
		"FT.CREATE", indexName(collection),
		"ON", "HASH",
		"PREFIX", "1", keyPrefix(collection),
		"SCHEMA",
		"content", "TEXT",
		"document_id", "TAG",
		"user_id", "TAG",
		"source_type", "TAG",
	).Err()
	if err != nil && !strings.Contains(err.Error(), "Index already exists") {
		return fmt.Errorf("failed to create RediSearch index for '%s': %w", collection, err)
	}
	return nil
}

// Index inserts or replaces the raw text of the given chunks. HSET
// overwrites, so forced re-indexing is safe to re-run.
func (s *RediSearchStore) Index(ctx context.Context, chunks []*schema.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, chunk := range chunks {
		fields := map[string]interface{}{
			"content":     chunk.RawText,
			"document_id": chunk.DocumentID,
		}
		if uid, ok := chunk.Metadata[schema.MetadataKeyUserID].(string); ok {
			fields["user_id"] = uid
		}
		if st, ok := chunk.Metadata[schema.MetadataKeySourceType].(string); ok {
			fields["source_type"] = st
		}
		pipe.HSet(ctx, keyPrefix(chunk.Collection)+chunk.ID, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write chunks to RediSearch: %w", err)
	}
	return nil
}

// DeleteDocument removes every indexed chunk of a document.
func (s *RediSearchStore) DeleteDocument(ctx context.Context, collection, documentID string) error {
	pattern := keyPrefix(collection) + documentID + "_chunk_*"
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key '%s': %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys for document '%s': %w", documentID, err)
	}
	return nil
}

// Search runs a ranked full-text query against the collection's index.
// Scores are RediSearch relevance scores, higher is better; downstream
// fusion only consumes the rank order.
func (s *RediSearchStore) Search(ctx context.Context, collection, query string, topK int, filters map[string]interface{}) ([]*schema.RankedHit, error) {
	ftQuery := sanitizeQuery(query)
	if ftQuery == "" {
		return nil, nil
	}
	for key, value := range filters {
		if v, ok := value.(string); ok && isTagField(key) {
			ftQuery += fmt.Sprintf(" @%s:{%s}", key, escapeTag(v))
		}
	}

	res, err := s.client.Do(ctx,
		"FT.SEARCH", indexName(collection), ftQuery,
		"WITHSCORES",
		"RETURN", "2", "content", "document_id",
		"LIMIT", "0", strconv.Itoa(topK),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search RediSearch index '%s': %w", indexName(collection), err)
	}

	return s.parseSearchReply(res, collection)
}

// parseSearchReply decodes the flat FT.SEARCH reply:
// [total, key, score, [field, value, ...], key, score, [...], ...].
func (s *RediSearchStore) parseSearchReply(res interface{}, collection string) ([]*schema.RankedHit, error) {
	reply, ok := res.([]interface{})
	if !ok || len(reply) == 0 {
		return nil, fmt.Errorf("unexpected FT.SEARCH reply type %T", res)
	}

	prefix := keyPrefix(collection)
	var hits []*schema.RankedHit
	for i := 1; i+2 < len(reply); i += 3 {
		key, _ := reply[i].(string)
		scoreStr, _ := reply[i+1].(string)
		score, _ := strconv.ParseFloat(scoreStr, 64)

		hit := &schema.RankedHit{
			ChunkID:    strings.TrimPrefix(key, prefix),
			Score:      score,
			Metadata:   map[string]interface{}{},
			Modality:   schema.ModalityLexical,
			Collection: collection,
		}

		if fields, ok := reply[i+2].([]interface{}); ok {
			for j := 0; j+1 < len(fields); j += 2 {
				name, _ := fields[j].(string)
				value, _ := fields[j+1].(string)
				if name == "content" {
					hit.Content = value
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// sanitizeQuery strips RediSearch query syntax so user input is treated
// as plain terms.
func sanitizeQuery(query string) string {
	replacer := strings.NewReplacer(
		"@", " ", "{", " ", "}", " ", "(", " ", ")", " ",
		"\"", " ", "'", " ", "|", " ", "-", " ", "~", " ",
		"*", " ", ":", " ", "[", " ", "]", " ", "%", " ",
	)
	return strings.TrimSpace(replacer.Replace(query))
}

func escapeTag(v string) string {
	return strings.NewReplacer(" ", "\\ ", ",", "\\,", "{", "\\{", "}", "\\}").Replace(v)
}

func isTagField(key string) bool {
	switch key {
	case "document_id", schema.MetadataKeyUserID, schema.MetadataKeySourceType:
		return true
	}
	return false
}

// compile-time checks for both sides of the lexical backend
var (
	_ interfaces.LexicalSearcher = (*RediSearchStore)(nil)
	_ interfaces.LexicalIndexer  = (*RediSearchStore)(nil)
)
