package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/novapay/txgate/internal/models"
	"github.com/novapay/txgate/internal/repository"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Scheduler hands a transaction id to the background settlement machinery.
// Implemented by processor.Processor.
type Scheduler interface {
	Enqueue(transactionID string)
}

type Submission struct {
	TransactionID      string
	SourceAccount      string
	DestinationAccount string
	Amount             float64
	Currency           string
}

type IngestResult int

const (
	IngestAccepted IngestResult = iota
	IngestDuplicate
)

type TransactionService interface {
	Ingest(ctx context.Context, sub Submission) (IngestResult, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
}

type transactionService struct {
	repo      repository.TransactionRepository
	scheduler Scheduler
}

func NewTransactionService(repo repository.TransactionRepository, scheduler Scheduler) *transactionService {
	return &transactionService{repo: repo, scheduler: scheduler}
}

// Ingest durably records the submission exactly once per transaction_id and
// schedules settlement for fresh inserts. Settlement is never awaited here:
// the acknowledgement is decoupled from the eventual transition. A replayed
// id yields IngestDuplicate and leaves the stored record untouched.
func (s *transactionService) Ingest(ctx context.Context, sub Submission) (IngestResult, error) {
	tracer := otel.Tracer("transaction-service")
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	if sub.TransactionID == "" {
		span.SetStatus(codes.Error, "empty transaction_id")
		return 0, pkgerrors.ErrInvalidInput
	}

	span.SetAttributes(
		attribute.String("transaction_id", sub.TransactionID),
		attribute.String("currency", sub.Currency),
	)

	tx := &models.Transaction{
		TransactionID:      sub.TransactionID,
		SourceAccount:      sub.SourceAccount,
		DestinationAccount: sub.DestinationAccount,
		Amount:             sub.Amount,
		Currency:           sub.Currency,
		Status:             models.StatusProcessing,
		CreatedAt:          time.Now().UTC(),
		ProcessedAt:        nil,
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, tx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		slog.Error("failed to ingest transaction", "transaction_id", sub.TransactionID, "error", err)
		return 0, err
	}

	if !inserted {
		slog.Info("transaction already received", "transaction_id", sub.TransactionID)
		return IngestDuplicate, nil
	}

	// Scheduled only after the durable insert, so the insert always
	// happens-before the settlement transition for this id.
	s.scheduler.Enqueue(sub.TransactionID)

	slog.Info("transaction accepted", "transaction_id", sub.TransactionID)
	return IngestAccepted, nil
}

func (s *transactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	tracer := otel.Tracer("transaction-service")
	ctx, span := tracer.Start(ctx, "GetTransaction")
	span.SetAttributes(attribute.String("transaction_id", id))
	defer span.End()

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}
	return tx, nil
}
