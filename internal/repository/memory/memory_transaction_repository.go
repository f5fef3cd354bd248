package memory

import (
	"context"
	"sync"
	"time"

	"github.com/novapay/txgate/internal/models"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
)

// MemoryTransactionRepository keeps transactions in a mutex-guarded map.
// It backs local runs without Postgres and the unit tests.
type MemoryTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*models.Transaction
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		transactions: make(map[string]*models.Transaction),
	}
}

func (r *MemoryTransactionRepository) InsertIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error) {
	if tx == nil {
		return false, pkgerrors.ErrNilTransaction
	}
	if tx.Status != models.StatusProcessing && tx.Status != models.StatusProcessed {
		return false, pkgerrors.ErrInvalidTransactionStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[tx.TransactionID]; exists {
		return false, nil
	}

	clone := *tx
	r.transactions[tx.TransactionID] = &clone
	return true, nil
}

func (r *MemoryTransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return nil, pkgerrors.ErrTransactionNotFound
	}

	clone := *tx
	return &clone, nil
}

func (r *MemoryTransactionRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.transactions[id]
	if !ok {
		return pkgerrors.ErrTransactionNotFound
	}

	tx.Status = models.StatusProcessed
	tx.ProcessedAt = &processedAt
	return nil
}
