package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/config"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	kafkago "github.com/segmentio/kafka-go"
)

// Message header keys.
const (
	HeaderSpecHash    = "spec_hash"
	HeaderGeneratedAt = "generated_at"
)

// Writer publishes emitted specifications to a Kafka topic, one message per
// view keyed by view name.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured spec topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSpecTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes all documents in a single WriteMessages call. Keying by view
// name keeps every version of a view on one partition.
func (w *Writer) Publish(ctx context.Context, docs []vegalite.Document) error {
	if len(docs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(docs))
	for i := range docs {
		msgs[i] = serializeToMessage(docs[i])
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write spec messages: %w", err)
	}
	w.logger.Debug("specs published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage wraps an already-encoded document in a Kafka message.
func serializeToMessage(doc vegalite.Document) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(doc.Name),
		Value: doc.JSON,
		Headers: []kafkago.Header{
			{Key: HeaderSpecHash, Value: []byte(doc.HashHex())},
			{Key: HeaderGeneratedAt, Value: []byte(doc.GeneratedAt.Format(time.RFC3339))},
		},
	}
}

// DocumentFromMessage reverses serializeToMessage for consumers of the spec
// topic.
func DocumentFromMessage(msg kafkago.Message) (vegalite.Document, error) {
	doc := vegalite.Document{Name: string(msg.Key), JSON: msg.Value}
	for _, h := range msg.Headers {
		switch h.Key {
		case HeaderSpecHash:
			v, err := strconv.ParseUint(string(h.Value), 16, 64)
			if err != nil {
				return vegalite.Document{}, fmt.Errorf("parse %s header: %w", HeaderSpecHash, err)
			}
			doc.Hash = v
		case HeaderGeneratedAt:
			t, err := time.Parse(time.RFC3339, string(h.Value))
			if err != nil {
				return vegalite.Document{}, fmt.Errorf("parse %s header: %w", HeaderGeneratedAt, err)
			}
			doc.GeneratedAt = t.UTC()
		}
	}
	if doc.Name == "" {
		return vegalite.Document{}, fmt.Errorf("spec message at offset %d has no key", msg.Offset)
	}
	return doc, nil
}
