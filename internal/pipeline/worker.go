package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/sbaggregate/internal/decode"
	"github.com/dgallion1/sbaggregate/internal/output"
	"github.com/dgallion1/sbaggregate/internal/parser"
	"github.com/dgallion1/sbaggregate/internal/pathstore"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

// Worker processes a single aggregation job.
type Worker struct {
	reg       *vocab.Registry
	results   *output.SQLiteStore
	pathstore *pathstore.Client
	stats     *DecodeStats
	log       *slog.Logger

	// backoff is the wait before retry attempt n.
	backoff func(int) time.Duration
}

// NewWorker returns a worker. results and ps may be nil to skip those sinks.
func NewWorker(reg *vocab.Registry, results *output.SQLiteStore, ps *pathstore.Client, stats *DecodeStats, log *slog.Logger) *Worker {
	return &Worker{
		reg:       reg,
		results:   results,
		pathstore: ps,
		stats:     stats,
		log:       log,
		backoff:   Backoff,
	}
}

// Process parses the job's upload, decodes every selected workflow, and
// stores the tables. Any decode error fails the whole job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", "unsupported format", err)
		return
	}
	rows, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", "parse failed", err)
		return
	}
	log.Info("parsed export", "classifications", len(rows))

	// Phase 2: Decode
	job.SetStatus(StatusDecoding, "decoding")
	workflows, err := w.reg.Select(job.Workflows)
	if err != nil {
		w.fail(log, job, "decoding", "bad workflow selection", err)
		return
	}
	keys := make([]vocab.Key, len(workflows))
	for i, wf := range workflows {
		keys[i] = wf.Key
	}
	results, stats, err := decode.Run(ctx, w.reg, keys, rows, log)
	if err != nil {
		w.fail(log, job, "decoding", "decode failed", err)
		return
	}
	job.SetResults(results, stats)
	total := 0
	for _, n := range job.Snapshot().Progress.Rows {
		total += n
	}
	if w.stats != nil {
		w.stats.Record(stats.Elapsed, total)
	}
	log.Info("decode complete",
		"decoded", stats.Decoded,
		"ignored", stats.Ignored,
		"rows", total,
		"elapsed_ms", stats.Elapsed.Milliseconds(),
	)

	// Phase 3: Store
	if w.results == nil && w.pathstore == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusStoring, "storing")
	if w.results != nil {
		if err := w.results.Save(ctx, job.ID, job.Filename, results); err != nil {
			w.fail(log, job, "storing", "save results failed", err)
			return
		}
	}
	if w.pathstore != nil {
		put := retryPut(w.pathstore.PutNode, w.backoff)
		for _, res := range results {
			n, err := w.pathstore.Publish(ctx, res, "sbaggregate:"+job.ID, put)
			job.AddPublished(n)
			if err != nil {
				w.fail(log, job, "storing", "publish failed", fmt.Errorf("%s: %w", res.Slug(), err))
				return
			}
		}
		log.Info("published to pathstore", "nodes", job.Snapshot().Progress.Published)
	}
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase, msg string, err error) {
	log.Error(msg, "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("%s: %s", phase, err))
	job.SetStatus(StatusFailed, phase)
}
