package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Minerva_AI/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
)

// FactEventTopic carries indexed-content events for the graph side-path.
const FactEventTopic = "fact_events"

// FactPublisher sends fact events to Kafka. The indexing pipeline treats
// publishing as fire-and-forget, so a slow or unavailable broker never
// blocks indexing beyond the write timeout.
type FactPublisher struct {
	writer *kafka.Writer
}

// NewFactPublisher creates a new FactPublisher on the fact event topic.
func NewFactPublisher(client *KafkaClient) *FactPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        FactEventTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &FactPublisher{writer: writer}
}

// Publish serializes a FactEvent as JSON and sends it keyed by document
// id, so events for one document stay ordered within a partition.
func (p *FactPublisher) Publish(ctx context.Context, event *models.FactEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal fact event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DocumentID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write fact event to kafka: %w", err)
	}
	return nil
}

// Close closes the underlying writer connection.
func (p *FactPublisher) Close() error {
	return p.writer.Close()
}
