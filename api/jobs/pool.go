// Package jobs provides an asynchronous worker pool for repository index
// runs submitted through the API.
//
// The pool decouples fetch-and-embed work from the API's HTTP hot path so
// that index requests return immediately with a job id. Job state lives in
// an in-memory registry and does not survive a restart.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/crates/pkg/indexer"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Fetcher retrieves a repository's files keyed by path. The int return is
// the number of files the fetch skipped.
type Fetcher interface {
	FetchContents(ctx context.Context, owner, repo, ref string, maxFileBytes int64) (map[string][]byte, int, error)
}

// Config is the configuration options for the job pool.
type Config struct {
	// Fetcher retrieves repository contents for queued jobs.
	Fetcher Fetcher

	// Session embeds and stores the fetched contents.
	Session *indexer.Session

	// MaxFileBytes is handed to the fetcher so oversized files are
	// skipped before download.
	MaxFileBytes int64

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the configured slog logger.
	Logger *slog.Logger
}

// Pool executes index jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan string

	mu   sync.RWMutex
	jobs map[string]*Job

	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	if c.Session == nil {
		return nil, errors.New("indexer session is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan string, c.QueueSize),
		jobs:   make(map[string]*Job),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue registers and queues an index job for the repo slug. Returns the
// job and true if queued, or a zero Job and false when the queue is full
// and the job was dropped.
func (p *Pool) Enqueue(repo, ref string) (Job, bool) {
	job := &Job{
		ID:       uuid.NewString(),
		Repo:     repo,
		Ref:      ref,
		Status:   StatusQueued,
		QueuedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	select {
	case p.queue <- job.ID:
		p.logger.Debug("index job queued",
			"job_id", job.ID,
			"repo", repo,
		)
		return *job, true
	default:
		p.mu.Lock()
		delete(p.jobs, job.ID)
		p.mu.Unlock()

		p.logger.Error("index job not queued, queue full, job dropped",
			"repo", repo,
		)
		return Job{}, false
	}
}

// Get returns a snapshot of the job with the given id.
func (p *Pool) Get(id string) (Job, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	job, ok := p.jobs[id]
	if !ok {
		return Job{}, false
	}

	return *job, true
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the queue.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("index worker started", "worker_id", id)

	for jobID := range p.queue {
		p.process(jobID)
	}

	p.logger.Debug("index worker stopped", "worker_id", id)
}

// process fetches the job's repository contents and runs them through the
// index session, recording the terminal state in the registry.
func (p *Pool) process(jobID string) {
	ctx := context.Background()

	p.mu.Lock()
	job, ok := p.jobs[jobID]
	if !ok {
		p.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &now
	repo, ref := job.Repo, job.Ref
	p.mu.Unlock()

	owner, name, _ := strings.Cut(repo, "/")

	files, fetchSkipped, err := p.config.Fetcher.FetchContents(ctx, owner, name, ref, p.config.MaxFileBytes)
	if err != nil {
		p.fail(jobID, fmt.Errorf("fetch contents: %w", err))
		return
	}

	report, err := p.config.Session.Run(ctx, repo, files)
	if err != nil {
		p.fail(jobID, err)
		return
	}

	p.logger.Info("index job completed",
		"job_id", jobID,
		"repo", repo,
		"indexed", report.Indexed,
	)

	p.mu.Lock()
	defer p.mu.Unlock()

	if job, ok := p.jobs[jobID]; ok {
		now := time.Now().UTC()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.Report = &Report{
			Indexed:    report.Indexed,
			Skipped:    report.Skipped + fetchSkipped,
			Batches:    report.Batches,
			DurationMs: report.Duration.Milliseconds(),
		}
	}
}

func (p *Pool) fail(jobID string, err error) {
	p.logger.Error("index job failed",
		"job_id", jobID,
		"error", err,
	)

	p.mu.Lock()
	defer p.mu.Unlock()

	if job, ok := p.jobs[jobID]; ok {
		now := time.Now().UTC()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = err.Error()
	}
}
