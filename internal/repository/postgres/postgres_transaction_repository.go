package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/novapay/txgate/internal/infrastructure/observability"
	"github.com/novapay/txgate/internal/models"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id      TEXT PRIMARY KEY,
	source_account      TEXT NOT NULL,
	destination_account TEXT NOT NULL,
	amount              DOUBLE PRECISION NOT NULL,
	currency            TEXT NOT NULL,
	status              TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	processed_at        TIMESTAMPTZ
)`

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableStmt); err != nil {
		slog.Error("failed to ensure transactions schema", "error", err)
		return fmt.Errorf("failed to ensure transactions schema: %w", err)
	}
	return nil
}

// InsertIfAbsent relies on the primary key on transaction_id: a concurrent
// duplicate is rejected by Postgres at commit, never by a pre-check.
func (r *PostgresTransactionRepository) InsertIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error) {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "InsertIfAbsent")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("InsertIfAbsent", status).Inc()
		observability.RepositoryDuration.WithLabelValues("InsertIfAbsent").Observe(time.Since(start).Seconds())
	}()

	if tx == nil {
		err = pkgerrors.ErrNilTransaction
		slog.Error("failed to insert transaction", "method", "InsertIfAbsent", "error", err)
		return false, err
	}

	if tx.Status != models.StatusProcessing && tx.Status != models.StatusProcessed {
		err = pkgerrors.ErrInvalidTransactionStatus
		slog.Error("invalid transaction status", "method", "InsertIfAbsent", "status", tx.Status, "error", err)
		return false, err
	}

	span.SetAttributes(
		attribute.String("transaction_id", tx.TransactionID),
		attribute.String("currency", tx.Currency),
		attribute.Float64("amount", tx.Amount),
	)

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "InsertIfAbsent", "error", err)
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `INSERT INTO transactions (transaction_id, source_account, destination_account, amount, currency, status, created_at, processed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = dbTx.ExecContext(ctx, query, tx.TransactionID, tx.SourceAccount, tx.DestinationAccount, tx.Amount, tx.Currency, tx.Status, tx.CreatedAt, tx.ProcessedAt)
	if err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "method", "InsertIfAbsent", "error", rbErr)
		}
		if isUniqueViolation(err) {
			err = nil
			slog.Info("duplicate transaction ignored", "method", "InsertIfAbsent", "transaction_id", tx.TransactionID)
			return false, nil
		}
		slog.Error("failed to insert transaction", "method", "InsertIfAbsent", "transaction_id", tx.TransactionID, "error", err)
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err = dbTx.Commit(); err != nil {
		if isUniqueViolation(err) {
			err = nil
			slog.Info("duplicate transaction ignored", "method", "InsertIfAbsent", "transaction_id", tx.TransactionID)
			return false, nil
		}
		slog.Error("failed to commit transaction", "method", "InsertIfAbsent", "error", err)
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("transaction inserted", "method", "InsertIfAbsent", "transaction_id", tx.TransactionID, "status", tx.Status)
	return true, nil
}

func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "GetTransactionByID")
	span.SetAttributes(attribute.String("transaction_id", id))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("GetTransactionByID", status).Inc()
		observability.RepositoryDuration.WithLabelValues("GetTransactionByID").Observe(time.Since(start).Seconds())
	}()

	var tx models.Transaction
	var processedAt sql.NullTime
	query := `SELECT transaction_id, source_account, destination_account, amount, currency, status, created_at, processed_at FROM transactions WHERE transaction_id = $1`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&tx.TransactionID, &tx.SourceAccount, &tx.DestinationAccount, &tx.Amount, &tx.Currency, &tx.Status, &tx.CreatedAt, &processedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrTransactionNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get transaction by id", "method", "GetByID", "transaction_id", id, "error", err)
		return nil, fmt.Errorf("failed to get transaction by id: %w", err)
	}
	if processedAt.Valid {
		t := processedAt.Time
		tx.ProcessedAt = &t
	}

	return &tx, nil
}

func (r *PostgresTransactionRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "MarkProcessed")
	span.SetAttributes(attribute.String("transaction_id", id))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("MarkProcessed", status).Inc()
		observability.RepositoryDuration.WithLabelValues("MarkProcessed").Observe(time.Since(start).Seconds())
	}()

	query := `UPDATE transactions SET status = $2, processed_at = $3 WHERE transaction_id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusProcessed, processedAt)
	if err != nil {
		slog.Error("failed to mark transaction processed", "method", "MarkProcessed", "transaction_id", id, "error", err)
		return fmt.Errorf("failed to mark transaction processed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("failed to read rows affected", "method", "MarkProcessed", "transaction_id", id, "error", err)
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		err = pkgerrors.ErrTransactionNotFound
		return err
	}

	slog.Info("transaction processed", "method", "MarkProcessed", "transaction_id", id, "processed_at", processedAt)
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
