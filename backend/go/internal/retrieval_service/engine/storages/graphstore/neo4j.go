package graphstore

import (
	"context"
	"fmt"
	"strings"

	"Minerva_AI/backend/go/internal/database/neo4j"
	"Minerva_AI/backend/go/internal/models"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/pkg/logger"
)

// Neo4jGraphStore persists extracted facts as a knowledge graph. Nodes
// are entities scoped by user id; edges carry the relation type and the
// chunk the fact was extracted from.
type Neo4jGraphStore struct {
	log    *logger.Logger
	client *neo4j.Neo4jClient
}

// NewNeo4jGraphStore creates a new Neo4jGraphStore.
func NewNeo4jGraphStore(client *neo4j.Neo4jClient, log *logger.Logger) (*Neo4jGraphStore, error) {
	if client == nil {
		return nil, fmt.Errorf("neo4j client is not initialized")
	}
	return &Neo4jGraphStore{log: log, client: client}, nil
}

// UpsertFacts merges facts into the graph. MERGE semantics make repeated
// delivery of the same event harmless.
func (s *Neo4jGraphStore) UpsertFacts(ctx context.Context, facts []*models.Fact) error {
	for _, fact := range facts {
		relType := sanitizeRelationType(fact.Type)
		if relType == "" || fact.Source == "" || fact.Target == "" {
			s.log.Warn(fmt.Sprintf("Skipping malformed fact from chunk %s", fact.ChunkID))
			continue
		}

		// Relationship types cannot be parameterized in Cypher, hence the
		// sanitized concatenation.
		query := `
		MERGE (source:Entity {name: $source_name, user_id: $user_id})
		MERGE (target:Entity {name: $target_name, user_id: $user_id})
		MERGE (source)-[r:` + relType + `]->(target)
		SET r.chunk_id = $chunk_id
		`
		params := map[string]interface{}{
			"source_name": fact.Source,
			"target_name": fact.Target,
			"user_id":     fact.UserID,
			"chunk_id":    fact.ChunkID,
		}
		if _, err := s.client.RunCypherQuery(ctx, query, params); err != nil {
			return fmt.Errorf("failed to upsert fact into neo4j: %w", err)
		}
	}
	return nil
}

// sanitizeRelationType normalizes a free-form relation into a Cypher-safe
// relationship type: uppercase letters, digits and underscores only.
func sanitizeRelationType(relType string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(relType)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// compile-time check to ensure Neo4jGraphStore implements the GraphStore interface
var _ interfaces.GraphStore = (*Neo4jGraphStore)(nil)
