package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the executor uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaExecutor publishes matched rules for an external runner, keyed by case
// id so one case's events stay ordered.
type KafkaExecutor struct {
	writer MessageWriter
	topic  string
}

func NewKafkaExecutor(brokers []string, topic string) *KafkaExecutor {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
	}
	slog.Info("kafka automation producer created", "brokers", brokers, "topic", topic)
	return &KafkaExecutor{writer: w, topic: topic}
}

func newKafkaExecutorWithWriter(w MessageWriter, topic string) *KafkaExecutor {
	return &KafkaExecutor{writer: w, topic: topic}
}

func (k *KafkaExecutor) Execute(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(msg.CaseID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(msg.Event)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish automation: %w", err)
	}
	return nil
}

func (k *KafkaExecutor) Close() error { return k.writer.Close() }
