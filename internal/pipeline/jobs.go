package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a posting ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusExtracting JobStatus = "extracting"
	StatusFormatting JobStatus = "formatting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is final.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the ingestion of one posting URL.
type Job struct {
	mu sync.Mutex

	ID  string `json:"job_id"`
	URL string `json:"url"`
	// SourcePageID is the unprocessed store row the job came from, if any.
	SourcePageID string `json:"source_page_id,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	result Result
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	FetchedBytes    int      `json:"fetched_bytes"`
	ExtractAttempts int      `json:"extract_attempts"`
	Bullets         int      `json:"bullets"`
	Blocks          int      `json:"blocks"`
	Errors          []string `json:"errors"`
}

// Result is what a finished job produced.
type Result struct {
	PageID   string `json:"page_id,omitempty"`
	PageURL  string `json:"page_url,omitempty"`
	Position string `json:"position,omitempty"`
	Company  string `json:"company,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// NewJob returns a queued job for url.
func NewJob(url, sourcePageID string) *Job {
	now := time.Now()
	return &Job{
		ID:           newJobID(),
		URL:          url,
		SourcePageID: sourcePageID,
		Status:       StatusQueued,
		Phase:        "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Status.Done() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// HasErrors reports whether any error was recorded.
func (j *Job) HasErrors() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.errors) > 0
}

// SetFetched records the fetched page size and content hash.
func (j *Job) SetFetched(body []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FetchedBytes = len(body)
	j.ContentHash = ContentHashHex(body)
	j.UpdatedAt = time.Now()
}

// IncrExtractAttempts counts one extraction call.
func (j *Job) IncrExtractAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ExtractAttempts++
	j.UpdatedAt = time.Now()
}

// SetFormatted records the size of the formatted posting.
func (j *Job) SetFormatted(bullets, blocks int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Bullets = bullets
	j.Progress.Blocks = blocks
	j.UpdatedAt = time.Now()
}

// SetResult records what the job produced.
func (j *Job) SetResult(r Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string    `json:"job_id"`
	URL          string    `json:"url"`
	SourcePageID string    `json:"source_page_id,omitempty"`
	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`
	Progress     Progress  `json:"progress"`
	Result       Result    `json:"result"`
	ContentHash  string    `json:"content_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:           j.ID,
		URL:          j.URL,
		SourcePageID: j.SourcePageID,
		Status:       j.Status,
		Phase:        j.Phase,
		Progress:     progress,
		Result:       j.result,
		ContentHash:  j.ContentHash,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
