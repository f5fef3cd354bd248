package processor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/novapay/txgate/internal/infrastructure/kafka"
	"github.com/novapay/txgate/internal/infrastructure/observability"
	"github.com/novapay/txgate/internal/models/events"
	"github.com/novapay/txgate/internal/repository"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
)

// Processor settles transactions on a fixed-size worker pool. Each queued id
// waits out the simulated external settlement latency and is then moved to
// its terminal PROCESSED state. The queue is in-process only: work enqueued
// before a restart is lost and the transaction stays PROCESSING.
type Processor struct {
	repo    repository.TransactionRepository
	events  kafka.EventProducer
	topic   string
	delay   time.Duration
	workers int

	queue  chan string
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func New(repo repository.TransactionRepository, events kafka.EventProducer, topic string, delay time.Duration, workers, queueSize int) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		repo:    repo,
		events:  events,
		topic:   topic,
		delay:   delay,
		workers: workers,
		queue:   make(chan string, queueSize),
	}
}

func (p *Processor) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(p.ctx)
		}()
	}
	slog.Info("processor started", "workers", p.workers, "settlement_delay", p.delay)
}

// Enqueue schedules settlement for an already-inserted transaction. It blocks
// only while the queue is full and never waits for the settlement itself.
func (p *Processor) Enqueue(transactionID string) {
	select {
	case p.queue <- transactionID:
		observability.ProcessorQueueDepth.Set(float64(len(p.queue)))
	case <-p.ctx.Done():
	}
}

// Stop cancels the workers and waits for them to drain. In-flight settlements
// that have not yet written their transition are abandoned.
func (p *Processor) Stop() {
	p.cancel()
	p.wg.Wait()
	slog.Info("processor stopped")
}

func (p *Processor) run(ctx context.Context) {
	for {
		select {
		case id := <-p.queue:
			observability.ProcessorQueueDepth.Set(float64(len(p.queue)))
			p.settle(ctx, id)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Processor) settle(ctx context.Context, id string) {
	// Simulated external settlement call.
	timer := time.NewTimer(p.delay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return
	}

	processedAt := time.Now().UTC()
	err := p.repo.MarkProcessed(ctx, id, processedAt)
	if stderrors.Is(err, pkgerrors.ErrTransactionNotFound) {
		// Benign race: the record vanished after scheduling. The request
		// that scheduled it has long since completed, so nothing to report.
		return
	}
	if err != nil {
		slog.Error("failed to settle transaction", "transaction_id", id, "error", err)
		return
	}

	observability.TransactionsProcessed.Inc()
	p.publishProcessed(ctx, id, processedAt)
}

func (p *Processor) publishProcessed(ctx context.Context, id string, processedAt time.Time) {
	if p.events == nil {
		return
	}

	tx, err := p.repo.GetByID(ctx, id)
	if err != nil {
		slog.Error("failed to load transaction for event", "transaction_id", id, "error", err)
		return
	}

	event := events.TransactionProcessed{
		EventID:            uuid.New().String(),
		TransactionID:      tx.TransactionID,
		SourceAccount:      tx.SourceAccount,
		DestinationAccount: tx.DestinationAccount,
		Amount:             tx.Amount,
		Currency:           tx.Currency,
		ProcessedAt:        processedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal processed event", "transaction_id", id, "error", err)
		return
	}
	if err := p.events.Send(ctx, p.topic, tx.TransactionID, value); err != nil {
		slog.Error("failed to publish processed event", "transaction_id", id, "error", err)
	}
}
