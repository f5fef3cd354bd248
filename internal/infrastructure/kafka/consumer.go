package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	service "github.com/novapay/txgate/internal/services"
	"github.com/segmentio/kafka-go"
)

// Consumer feeds transaction submissions from a Kafka topic through the same
// idempotent ingestion path as the webhook, so replayed messages dedupe the
// same way replayed HTTP calls do.
type Consumer struct {
	reader *kafka.Reader
	svc    service.TransactionService
}

func NewConsumer(brokers []string, topic, groupID string, svc service.TransactionService) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		svc: svc,
	}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to read Kafka message", "topic", c.reader.Config().Topic, "error", err)
			continue
		}

		var sub struct {
			TransactionID      string  `json:"transaction_id"`
			SourceAccount      string  `json:"source_account"`
			DestinationAccount string  `json:"destination_account"`
			Amount             float64 `json:"amount"`
			Currency           string  `json:"currency"`
		}
		if err := json.Unmarshal(msg.Value, &sub); err != nil {
			slog.Error("failed to unmarshal transaction submission", "topic", msg.Topic, "error", err)
			continue
		}

		result, err := c.svc.Ingest(ctx, service.Submission{
			TransactionID:      sub.TransactionID,
			SourceAccount:      sub.SourceAccount,
			DestinationAccount: sub.DestinationAccount,
			Amount:             sub.Amount,
			Currency:           sub.Currency,
		})
		if err != nil {
			slog.Error("failed to ingest transaction from Kafka", "transaction_id", sub.TransactionID, "error", err)
			continue
		}

		if result == service.IngestDuplicate {
			slog.Info("duplicate transaction from Kafka ignored", "transaction_id", sub.TransactionID)
			continue
		}
		slog.Info("transaction ingested from Kafka", "transaction_id", sub.TransactionID)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
