package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher emits audit events to a Kafka topic. Emit is non-blocking:
// events go through a bounded inbox drained by Run; when the inbox is full
// the event is dropped and counted, because registration flow latency matters
// more than best-effort audit completeness.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	inbox  chan Event
	logger *slog.Logger
}

const inboxSize = 1024

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaPublisher{
		client: client,
		topic:  topic,
		inbox:  make(chan Event, inboxSize),
		logger: logger,
	}, nil
}

// ensureTopic creates the audit topic when it does not exist yet, so a fresh
// environment does not silently drop the first events into auto-create limbo.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	details, err := adm.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if details.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 3, 1, nil, topic); err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

// Emit enqueues the event for asynchronous publishing.
func (p *KafkaPublisher) Emit(_ context.Context, event Event) error {
	stamp(&event)
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event",
			"action", event.Action,
			"inscription_id", event.InscriptionID,
		)
	}
	return nil
}

// Run drains the inbox until ctx is cancelled, then flushes what it can.
func (p *KafkaPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = p.client.Flush(flushCtx)
			return ctx.Err()
		case event := <-p.inbox:
			p.produce(ctx, event)
		}
	}
}

func (p *KafkaPublisher) produce(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal audit event", "error", err, "action", event.Action)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Action),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("produce audit event",
				"error", err,
				"action", event.Action,
				"topic", p.topic,
			)
		}
	})
}

// Close releases the Kafka client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
