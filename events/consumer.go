package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/IBM/sarama"

	"yt2x/logger"
)

// Handler processes one raw message. Returning mark=false leaves the offset uncommitted so
// the message is redelivered.
type Handler interface {
	HandleMessage(ctx context.Context, message []byte) (mark bool, err error)
}

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler Handler
	topic   string
	groupID string
	logger  *log.Logger
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler Handler
}

// NewConsumer joins the consumer group. New groups start from the newest offset so old
// commands are not replayed.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, err
	}
	return &Consumer{
		group:   group,
		handler: cfg.Handler,
		topic:   cfg.Topic,
		groupID: cfg.GroupID,
		logger:  logger.New("kafka"),
	}, nil
}

// Run consumes until ctx is cancelled, rejoining the group after every rebalance.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Printf("❌ consumer error: %v", err)
		}
	}()

	c.logger.Printf("✅ consumer started (group: %s, topic: %s)", c.groupID, c.topic)
	h := &groupHandler{handler: c.handler, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Printf("error from consumer: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close leaves the group.
func (c *Consumer) Close() error {
	c.logger.Println("closing consumer...")
	return c.group.Close()
}

type groupHandler struct {
	handler Handler
	logger  *log.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.logger.Printf("📥 received message: partition=%d, offset=%d, key=%s", msg.Partition, msg.Offset, string(msg.Key))

			mark, err := h.handler.HandleMessage(session.Context(), msg.Value)
			if err != nil {
				h.logger.Printf("❌ failed to handle message: %v", err)
			}
			if mark {
				session.MarkMessage(msg, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// TypedHandler decodes JSON messages into T before processing.
type TypedHandler[T any] struct {
	// Validate rejects messages that should not be processed.
	Validate func(msg *T) bool
	Process  func(ctx context.Context, msg *T) error
	// MarkInvalid commits offsets for undecodable or invalid messages so they are not redelivered.
	MarkInvalid bool
	Logger      *log.Logger
}

func (h *TypedHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		if h.Logger != nil {
			h.Logger.Printf("❌ failed to unmarshal message: %v", err)
		}
		return h.MarkInvalid, nil
	}
	if h.Validate != nil && !h.Validate(&msg) {
		return h.MarkInvalid, nil
	}
	if err := h.Process(ctx, &msg); err != nil {
		return false, err
	}
	return true, nil
}
