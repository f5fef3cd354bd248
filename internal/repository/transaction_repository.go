package repository

import (
	"context"
	"time"

	"github.com/novapay/txgate/internal/models"
)

type TransactionRepository interface {
	// InsertIfAbsent stores tx unless a transaction with the same
	// transaction_id already exists. The duplicate outcome is an expected
	// result, not an error.
	InsertIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	MarkProcessed(ctx context.Context, id string, processedAt time.Time) error
}
