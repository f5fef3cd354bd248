package service

import (
	"context"
	"sync"
	"testing"

	"github.com/novapay/txgate/internal/models"
	memoryrepo "github.com/novapay/txgate/internal/repository/memory"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeScheduler) Enqueue(transactionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, transactionID)
}

func (f *fakeScheduler) scheduled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func submission(id string) Submission {
	return Submission{
		TransactionID:      id,
		SourceAccount:      "A",
		DestinationAccount: "B",
		Amount:             100.0,
		Currency:           "USD",
	}
}

func TestTransactionService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyTransactionID", func(t *testing.T) {
		scheduler := &fakeScheduler{}
		svc := NewTransactionService(memoryrepo.NewMemoryTransactionRepository(), scheduler)

		_, err := svc.Ingest(ctx, submission(""))
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.Empty(t, scheduler.scheduled())
	})

	t.Run("FreshSubmissionIsAcceptedAndScheduledOnce", func(t *testing.T) {
		repo := memoryrepo.NewMemoryTransactionRepository()
		scheduler := &fakeScheduler{}
		svc := NewTransactionService(repo, scheduler)

		result, err := svc.Ingest(ctx, submission("tx1"))
		assert.NoError(t, err)
		assert.Equal(t, IngestAccepted, result)
		assert.Equal(t, []string{"tx1"}, scheduler.scheduled())

		tx, err := svc.Get(ctx, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, tx.Status)
		assert.Nil(t, tx.ProcessedAt)
		assert.False(t, tx.CreatedAt.IsZero())
	})

	t.Run("ReplayIsDuplicateAndNotRescheduled", func(t *testing.T) {
		repo := memoryrepo.NewMemoryTransactionRepository()
		scheduler := &fakeScheduler{}
		svc := NewTransactionService(repo, scheduler)

		_, err := svc.Ingest(ctx, submission("tx1"))
		assert.NoError(t, err)

		replay := submission("tx1")
		replay.Amount = 999.99
		replay.SourceAccount = "C"

		result, err := svc.Ingest(ctx, replay)
		assert.NoError(t, err)
		assert.Equal(t, IngestDuplicate, result)
		assert.Equal(t, []string{"tx1"}, scheduler.scheduled())

		// The stored record keeps the first payload.
		tx, err := svc.Get(ctx, "tx1")
		assert.NoError(t, err)
		assert.Equal(t, 100.0, tx.Amount)
		assert.Equal(t, "A", tx.SourceAccount)
	})

	t.Run("ConcurrentSameID", func(t *testing.T) {
		repo := memoryrepo.NewMemoryTransactionRepository()
		scheduler := &fakeScheduler{}
		svc := NewTransactionService(repo, scheduler)

		const callers = 25
		results := make(chan IngestResult, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := svc.Ingest(ctx, submission("tx-race"))
				assert.NoError(t, err)
				results <- result
			}()
		}
		wg.Wait()
		close(results)

		accepted, duplicates := 0, 0
		for result := range results {
			if result == IngestAccepted {
				accepted++
			} else {
				duplicates++
			}
		}
		assert.Equal(t, 1, accepted)
		assert.Equal(t, callers-1, duplicates)
		assert.Equal(t, []string{"tx-race"}, scheduler.scheduled())
	})
}

func TestTransactionService_Get(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(memoryrepo.NewMemoryTransactionRepository(), &fakeScheduler{})

	tx, err := svc.Get(ctx, "nonexistent")
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)
}
