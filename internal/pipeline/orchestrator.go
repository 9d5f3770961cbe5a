package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/jobfmt/internal/config"
	"github.com/dgallion1/jobfmt/internal/notion"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline stopped")

// ErrNoStore is returned by store operations when no store is configured.
var ErrNoStore = errors.New("no job store configured")

// Orchestrator manages the posting ingestion pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	deps  Deps
	log   *slog.Logger
	cfg   config.Config

	// inflight maps source row IDs to the job handling them so a row is
	// not queued twice by overlapping polls. mu also guards stopped; the
	// queue is only sent on or closed while it is held.
	mu       sync.Mutex
	inflight map[string]string
	stopped  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, deps Deps, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		deps:     deps,
		log:      log,
		cfg:      cfg,
		inflight: make(map[string]string),
	}
}

// Start launches worker goroutines, the job store cleanup and, when a poll
// interval and a store are configured, the poller.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.deps, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					o.release(job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.every(workerCtx, 5*time.Minute, func() { o.jobs.Cleanup() })
	}()

	if o.cfg.PollInterval > 0 && o.deps.Store != nil {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.every(workerCtx, o.cfg.PollInterval, func() {
				n, err := o.PollOnce(workerCtx)
				if err != nil {
					o.log.Error("poll failed", "error", err)
					return
				}
				if n > 0 {
					o.log.Info("queued unprocessed rows", "count", n)
				}
			})
		}()
	}
}

func (o *Orchestrator) every(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.AddError("pipeline stopped")
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// PollOnce queues a job for each unprocessed row not already in flight and
// returns how many were queued.
func (o *Orchestrator) PollOnce(ctx context.Context) (int, error) {
	pages, err := o.PendingPages(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, p := range pages {
		url := p.JobURL()
		if url == "" {
			o.log.Warn("row has no job url, skipping", "page_id", p.ID)
			continue
		}
		job := NewJob(url, p.ID)
		if !o.claim(p.ID, job.ID) {
			continue
		}
		if err := o.Submit(job); err != nil {
			o.release(job)
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// PendingPages lists store rows not yet processed.
func (o *Orchestrator) PendingPages(ctx context.Context) ([]notion.Page, error) {
	if o.deps.Store == nil {
		return nil, ErrNoStore
	}
	pages, err := o.deps.Store.QueryUnprocessed(ctx, o.cfg.PollBatchSize)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}
	return pages, nil
}

func (o *Orchestrator) claim(pageID, jobID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[pageID]; busy {
		return false
	}
	o.inflight[pageID] = jobID
	return true
}

func (o *Orchestrator) release(job *Job) {
	if job.SourcePageID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[job.SourcePageID] == job.ID {
		delete(o.inflight, job.SourcePageID)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// HasStore reports whether postings are written to a job database.
func (o *Orchestrator) HasStore() bool {
	return o.deps.Store != nil
}
