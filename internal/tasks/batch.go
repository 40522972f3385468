package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dnastore/internal/models"
)

var (
	ErrQueueFull = errors.New("batch queue is full")
	ErrStopped   = errors.New("batch coordinator stopped")
)

// BatchStore is implemented by repositories.DB.
type BatchStore interface {
	InitBatch(ctx context.Context) (uint, error)
	AssociateAndComplete(ctx context.Context, batchID uint, sequenceIDs []uint) error
	FailBatch(ctx context.Context, batchID uint) error
}

// SequenceUpserter is implemented by repositories.DNARepository.
type SequenceUpserter interface {
	Update(ctx context.Context, sequences []models.DNASequence) ([]models.DNASequence, error)
}

// Archiver stores the raw submitted batch. Optional.
type Archiver interface {
	Put(ctx context.Context, batchID uint, payload []byte) error
}

// Recorder receives batch metrics. Optional.
type Recorder interface {
	BatchSubmitted()
	BatchFinished(status models.BatchStatus, elapsed time.Duration)
	SetQueueDepth(n int)
}

type Options struct {
	Workers   int
	QueueSize int
	Archive   Archiver
	Metrics   Recorder
	Logger    *log.Logger
}

type job struct {
	batchID   uint
	sequences []models.DNASequence
	submitted time.Time
}

// Coordinator hands batch uploads to a fixed pool of background workers.
type Coordinator struct {
	store    BatchStore
	upserter SequenceUpserter
	archive  Archiver
	metrics  Recorder
	logger   *log.Logger
	workers  int

	queue   chan job
	mu      sync.RWMutex
	stopped bool
}

func NewCoordinator(store BatchStore, upserter SequenceUpserter, opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Coordinator{
		store:    store,
		upserter: upserter,
		archive:  opts.Archive,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("component", "batch"),
		workers:  opts.Workers,
		queue:    make(chan job, opts.QueueSize),
	}
}

// Submit creates an initiated batch and enqueues sequences for processing without
// waiting for them. When the queue is full the batch is marked failed and its id is
// returned together with ErrQueueFull.
func (c *Coordinator) Submit(ctx context.Context, sequences []models.DNASequence) (uint, error) {
	if c.isStopped() {
		return 0, ErrStopped
	}

	id, err := c.store.InitBatch(ctx)
	if err != nil {
		return 0, err
	}
	c.metrics.BatchSubmitted()

	queued, stopped := c.enqueue(job{batchID: id, sequences: sequences, submitted: time.Now()})
	if queued {
		c.logger.Info("batch queued", "batch_id", id, "sequences", len(sequences))
		return id, nil
	}

	cause := ErrQueueFull
	if stopped {
		cause = ErrStopped
	}
	c.logger.Warn("batch rejected", "batch_id", id, "err", cause)
	if err := c.store.FailBatch(context.WithoutCancel(ctx), id); err != nil {
		return id, errors.Join(cause, err)
	}
	c.metrics.BatchFinished(models.BatchFailed, 0)
	return id, cause
}

func (c *Coordinator) enqueue(j job) (queued, stopped bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return false, true
	}
	select {
	case c.queue <- j:
		c.metrics.SetQueueDepth(len(c.queue))
		return true, false
	default:
		return false, false
	}
}

func (c *Coordinator) isStopped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopped
}

// Run starts the workers and blocks until ctx is cancelled and every queued batch
// has been processed. It must be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	work := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for range c.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range c.queue {
				c.metrics.SetQueueDepth(len(c.queue))
				c.process(work, j)
			}
		}()
	}

	<-ctx.Done()

	c.mu.Lock()
	c.stopped = true
	close(c.queue)
	c.mu.Unlock()

	c.logger.Info("draining batch queue", "pending", len(c.queue))
	wg.Wait()
	return nil
}

func (c *Coordinator) process(ctx context.Context, j job) {
	logger := c.logger.With("batch_id", j.batchID)
	status := models.BatchFailed
	defer func() {
		if r := recover(); r != nil {
			logger.Error("batch worker panicked", "panic", r)
			c.fail(ctx, logger, j.batchID)
		}
		c.metrics.BatchFinished(status, time.Since(j.submitted))
	}()

	if c.archive != nil {
		if err := c.archivePayload(ctx, j); err != nil {
			logger.Warn("batch archive failed", "err", err)
		}
	}

	inserted, err := c.upserter.Update(ctx, j.sequences)
	if err != nil {
		logger.Error("batch upsert failed", "err", err)
		c.fail(ctx, logger, j.batchID)
		return
	}

	ids := make([]uint, 0, len(inserted))
	for _, s := range inserted {
		ids = append(ids, s.ID)
	}
	if err := c.store.AssociateAndComplete(ctx, j.batchID, ids); err != nil {
		// the store has already marked the batch failed
		logger.Error("batch failed", "err", err)
		return
	}

	status = models.BatchCompleted
	logger.Info("batch completed", "submitted", len(j.sequences), "inserted", len(ids))
}

func (c *Coordinator) fail(ctx context.Context, logger *log.Logger, batchID uint) {
	if err := c.store.FailBatch(ctx, batchID); err != nil {
		logger.Error("mark batch failed", "err", err)
	}
}

func (c *Coordinator) archivePayload(ctx context.Context, j job) error {
	payload, err := json.Marshal(j.sequences)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	return c.archive.Put(ctx, j.batchID, payload)
}

type nopRecorder struct{}

func (nopRecorder) BatchSubmitted() {}
func (nopRecorder) BatchFinished(models.BatchStatus, time.Duration) {}
func (nopRecorder) SetQueueDepth(int) {}
