package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hazemap/hazemap-api/internal/config"
	"github.com/hazemap/hazemap-api/internal/domain"
)

// Publisher announces successfully ingested records on a Kafka topic for
// downstream consumers (alerting, aggregation). It implements
// report.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured ingest topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaIngestTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// ingestEnvelope is the wire shape of one ingest announcement.
type ingestEnvelope struct {
	Kind   domain.Kind   `json:"kind"`
	ID     string        `json:"id"`
	Record domain.Record `json:"record"`
}

// PublishIngest serializes and publishes one ingested record, keyed by its
// store-assigned id so replays of the same record land in the same partition.
func (p *Publisher) PublishIngest(ctx context.Context, kind domain.Kind, id string, rec domain.Record) error {
	msg, err := buildMessage(kind, id, rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func buildMessage(kind domain.Kind, id string, rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(ingestEnvelope{Kind: kind, ID: id, Record: rec})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ingest event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(id),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_kind", Value: []byte(kind)},
		},
	}, nil
}
