package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/novapay/txgate/internal/models"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func pendingTransaction(id string) *models.Transaction {
	return &models.Transaction{
		TransactionID:      id,
		SourceAccount:      "A",
		DestinationAccount: "B",
		Amount:             100.0,
		Currency:           "USD",
		Status:             models.StatusProcessing,
		CreatedAt:          time.Now().UTC(),
	}
}

func TestMemoryTransactionRepository_InsertIfAbsent(t *testing.T) {
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	t.Run("NilTransaction", func(t *testing.T) {
		inserted, err := repo.InsertIfAbsent(ctx, nil)
		assert.False(t, inserted)
		assert.ErrorIs(t, err, pkgerrors.ErrNilTransaction)
	})

	t.Run("FirstInsert", func(t *testing.T) {
		inserted, err := repo.InsertIfAbsent(ctx, pendingTransaction("tx1"))
		assert.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("DuplicateKeepsOriginal", func(t *testing.T) {
		replay := pendingTransaction("tx1")
		replay.Amount = 999.99
		replay.Currency = "EUR"

		inserted, err := repo.InsertIfAbsent(ctx, replay)
		assert.NoError(t, err)
		assert.False(t, inserted)

		stored, err := repo.GetByID(ctx, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, 100.0, stored.Amount)
		assert.Equal(t, "USD", stored.Currency)
	})
}

func TestMemoryTransactionRepository_ConcurrentInsertSameID(t *testing.T) {
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	const callers = 50
	var inserts int64
	var duplicates int64
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := repo.InsertIfAbsent(ctx, pendingTransaction("tx-race"))
			assert.NoError(t, err)
			if inserted {
				atomic.AddInt64(&inserts, 1)
			} else {
				atomic.AddInt64(&duplicates, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), inserts)
	assert.Equal(t, int64(callers-1), duplicates)
}

func TestMemoryTransactionRepository_GetByID(t *testing.T) {
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		tx, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, tx)
		assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)
	})

	t.Run("SnapshotIsACopy", func(t *testing.T) {
		_, err := repo.InsertIfAbsent(ctx, pendingTransaction("tx1"))
		assert.NoError(t, err)

		first, err := repo.GetByID(ctx, "tx1")
		assert.NoError(t, err)
		first.Amount = 0

		second, err := repo.GetByID(ctx, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, 100.0, second.Amount)
	})
}

func TestMemoryTransactionRepository_MarkProcessed(t *testing.T) {
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		err := repo.MarkProcessed(ctx, "missing", time.Now().UTC())
		assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		tx := pendingTransaction("tx1")
		_, err := repo.InsertIfAbsent(ctx, tx)
		assert.NoError(t, err)

		processedAt := time.Now().UTC()
		assert.NoError(t, repo.MarkProcessed(ctx, "tx1", processedAt))

		stored, err := repo.GetByID(ctx, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusProcessed, stored.Status)
		if assert.NotNil(t, stored.ProcessedAt) {
			assert.Equal(t, processedAt, *stored.ProcessedAt)
			assert.False(t, stored.ProcessedAt.Before(stored.CreatedAt))
		}
	})
}
