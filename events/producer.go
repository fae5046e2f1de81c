package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"yt2x/types"
)

// Producer emits PostedEvents keyed by item id.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer that waits for all in-sync replicas.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	sc.Producer.Retry.Max = 3

	sp, err := sarama.NewSyncProducer(brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerWithClient(sp, topic), nil
}

// NewProducerWithClient wraps an existing producer.
func NewProducerWithClient(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: sp, topic: topic}
}

// NewPostedEvent builds the event for a published item.
func NewPostedEvent(item types.FeedItem, postID string, fallback, dryRun bool, at time.Time) types.PostedEvent {
	return types.PostedEvent{
		EventID:  uuid.NewString(),
		ItemID:   item.ID,
		Title:    item.Title,
		URL:      item.URL,
		PostID:   postID,
		Fallback: fallback,
		DryRun:   dryRun,
		PostedAt: at.UTC(),
	}
}

// PublishPosted sends ev. The context is only checked before sending; sarama has no
// per-message cancellation.
func (p *Producer) PublishPosted(ctx context.Context, ev types.PostedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.ItemID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("failed to send posted event for %s: %w", ev.ItemID, err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
