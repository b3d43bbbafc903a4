package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"travelhub/internal/shared/config"
	"travelhub/pkg/logger"

	"github.com/IBM/sarama"
)

// Handler processes one decoded booking event.
type Handler interface {
	Handle(ctx context.Context, e *BookingEvent) error
}

type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	workers int
	handler Handler
	log     *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	cfg.Consumer.Retry.Backoff = 100 * time.Millisecond
	cfg.Consumer.MaxProcessingTime = 5 * time.Minute
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Offsets.AutoCommit.Enable = true
	cfg.Consumer.Offsets.AutoCommit.Interval = time.Second
	return cfg
}

func NewConsumer(cfg config.KafkaConfig, handler Handler, log *logger.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroupID, NewConsumerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	workers := cfg.ConsumerWorkers
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		group:   group,
		topics:  []string{cfg.Topic},
		workers: workers,
		handler: handler,
		log:     log,
	}, nil
}

// Start launches the workers and returns immediately.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.log.Info("starting booking event consumers", "workers", c.workers, "topics", c.topics)

	go func() {
		for err := range c.group.Errors() {
			c.log.Error("consumer group error", "error", err)
		}
	}()

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.run(ctx, workerID)
		}(i)
	}
}

func (c *Consumer) run(ctx context.Context, workerID int) {
	h := &groupHandler{
		handler: c.handler,
		log:     c.log.WithFields(map[string]interface{}{"worker": workerID}),
		delay:   redeliverDelay,
	}
	for {
		if err := c.group.Consume(ctx, c.topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			c.log.Error("consume failed", "worker", workerID, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.group.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

// redeliverDelay is how long a claim pauses before handing a failed message back to the group.
const redeliverDelay = time.Second

type groupHandler struct {
	handler Handler
	log     *logger.Logger
	delay   time.Duration
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
			if h.process(session.Context(), msg) {
				session.MarkMessage(msg, "")
				continue
			}
			// Stop the claim so nothing later on this partition is marked past the
			// failed offset. The next session starts from it again.
			session.ResetOffset(msg.Topic, msg.Partition, msg.Offset, "")
			h.log.Warn("releasing claim for redelivery", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			select {
			case <-time.After(h.delay):
			case <-session.Context().Done():
			}
			return nil
		case <-session.Context().Done():
			return nil
		}
	}
}

// process reports whether the message may be committed. Undecodable messages are
// committed so they do not block the partition.
func (h *groupHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	e, err := DecodeBookingEvent(msg.Value)
	if err != nil {
		h.log.Error("dropping undecodable booking event", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return true
	}
	if err := h.handler.Handle(ctx, e); err != nil {
		h.log.Error("booking event handling failed", "event_id", e.ID.String(), "type", string(e.Type), "error", err)
		return false
	}
	return true
}
