package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/sbaggregate/internal/decode"
)

// JobStatus represents the state of an aggregation job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusDecoding  JobStatus = "decoding"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of one uploaded classification export.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	// Workflows are NAME[@VERSION] selectors; empty means every workflow.
	Workflows []string `json:"workflows"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	results  []*decode.Result
	stats    decode.Stats
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Classifications int            `json:"classifications"`
	Decoded         int            `json:"decoded"`
	Ignored         int            `json:"ignored"`
	Rows            map[string]int `json:"rows"`
	Published       int            `json:"published"`
	Errors          []string       `json:"errors"`
}

// NewJob returns a queued job for an uploaded file.
func NewJob(id, filename string, workflows []string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          id,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Workflows:   workflows,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
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

// SetResults records the decoded tables and their row counts, and releases
// the uploaded bytes.
func (j *Job) SetResults(results []*decode.Result, stats decode.Stats) {
	rows := make(map[string]int)
	for _, res := range results {
		for _, t := range decode.TableNamesInOrder {
			rows[t] += res.Len(t)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = results
	j.stats = stats
	j.fileData = nil
	j.Progress.Classifications = stats.Classifications
	j.Progress.Decoded = stats.Decoded
	j.Progress.Ignored = stats.Ignored
	j.Progress.Rows = rows
	j.UpdatedAt = time.Now()
}

// AddPublished records nodes written to pathstore.
func (j *Job) AddPublished(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Published += n
	j.UpdatedAt = time.Now()
}

// Results returns the decoded tables, or nil before decoding finished.
func (j *Job) Results() ([]*decode.Result, decode.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.results, j.stats
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Workflows   []string  `json:"workflows"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	rows := make(map[string]int, len(j.Progress.Rows))
	for k, v := range j.Progress.Rows {
		rows[k] = v
	}
	workflows := append([]string{}, j.Workflows...)
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Workflows:   workflows,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Classifications: j.Progress.Classifications,
			Decoded:         j.Progress.Decoded,
			Ignored:         j.Progress.Ignored,
			Rows:            rows,
			Published:       j.Progress.Published,
			Errors:          errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
