package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"Minerva_AI/backend/go/internal/database/kafka"
	"Minerva_AI/backend/go/internal/models"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/pkg/logger"
)

// Consumer reads fact events from Kafka, runs LLM fact extraction and
// upserts the results into the graph store. It lives entirely off the
// query and indexing paths: a failure here only costs graph freshness.
type Consumer struct {
	kafkaClient *kafka.KafkaClient
	extractor   *FactExtractor
	graphStore  interfaces.GraphStore
	log         *logger.Logger
}

// NewConsumer creates a new Consumer.
func NewConsumer(kafkaClient *kafka.KafkaClient, extractor *FactExtractor, graphStore interfaces.GraphStore, log *logger.Logger) *Consumer {
	return &Consumer{
		kafkaClient: kafkaClient,
		extractor:   extractor,
		graphStore:  graphStore,
		log:         log,
	}
}

// Start launches the consume loop in a goroutine. It runs until the
// context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	go func() {
		for {
			msg, err := c.kafkaClient.Reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Error(fmt.Sprintf("Failed to fetch fact event: %v", err))
				continue
			}

			var event models.FactEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				// A malformed event will never parse; commit it so the
				// partition does not wedge.
				c.log.Error(fmt.Sprintf("Failed to unmarshal fact event: %v", err))
				if err := c.kafkaClient.Reader.CommitMessages(ctx, msg); err != nil {
					c.log.Error(fmt.Sprintf("Failed to commit malformed event: %v", err))
				}
				continue
			}

			c.processEvent(ctx, &event)

			if err := c.kafkaClient.Reader.CommitMessages(ctx, msg); err != nil {
				c.log.Error(fmt.Sprintf("Failed to commit fact event %s: %v", event.EventID, err))
			}
		}
	}()
}

// processEvent extracts and stores facts per chunk. Chunk-level failures
// are logged and skipped so one bad chunk cannot drop a whole event.
func (c *Consumer) processEvent(ctx context.Context, event *models.FactEvent) {
	for _, chunk := range event.Chunks {
		facts, err := c.extractor.Extract(ctx, event, chunk)
		if err != nil {
			c.log.Warn(fmt.Sprintf("Fact extraction failed for chunk %s: %v", chunk.ChunkID, err))
			continue
		}
		if len(facts) == 0 {
			continue
		}
		if err := c.graphStore.UpsertFacts(ctx, facts); err != nil {
			c.log.Warn(fmt.Sprintf("Failed to upsert facts for chunk %s: %v", chunk.ChunkID, err))
		}
	}
}
