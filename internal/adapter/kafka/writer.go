package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cropsense/crop-analysis/internal/config"
	"github.com/cropsense/crop-analysis/internal/domain"
)

// Writer produces field reports to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes multiple reports to the sink topic in a single
// WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i, ev := range events {
		msgs[i] = mapOutputToMessage(ev)
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// mapOutputToMessage converts the transport-neutral output envelope into a
// Kafka message with stable header ordering.
func mapOutputToMessage(ev domain.OutputEvent) kafkago.Message {
	msg := kafkago.Message{Key: ev.Key, Value: ev.Value}
	for _, key := range []string{"field_id", "processed_at", "risk_level"} {
		if v, ok := ev.Headers[key]; ok {
			msg.Headers = append(msg.Headers, kafkago.Header{Key: key, Value: []byte(v)})
		}
	}
	return msg
}
