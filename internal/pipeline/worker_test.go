package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/sbaggregate/internal/config"
	"github.com/dgallion1/sbaggregate/internal/decode"
	"github.com/dgallion1/sbaggregate/internal/output"
	"github.com/dgallion1/sbaggregate/internal/pathstore"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *vocab.Registry {
	t.Helper()
	reg, err := vocab.Default()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return reg
}

// exportCSV builds a classification export; each row is
// {id, workflow id, version, page, annotations}.
func exportCSV(t *testing.T, rows ...[5]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"classification_id", "workflow_id", "workflow_version", "subject_data", "annotations"})
	for _, r := range rows {
		subject := fmt.Sprintf(`{"%s":{"page":%s}}`, r[0], r[3])
		w.Write([]string{r[0], r[1], r[2], subject, r[4]})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return buf.Bytes()
}

var indexExport = [][5]string{
	{"1", "16866", "11.28", "4", `[{"task":"T20","value":"Other page"},{"task":"T13","value":"Bridges"},{"task":"T14","value":"12, 14"}]`},
	{"2", "16866", "11.28", "5", `[{"task":"T20","value":"Blank page"}]`},
	{"3", "18611", "3.5", "1", `[{"task":"T0","value":"Blank page"}]`},
}

type fakePathstore struct {
	mu    sync.Mutex
	puts  map[string]bool
	fails int
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch r.Method {
	case http.MethodPut:
		if f.fails > 0 {
			f.fails--
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		f.puts[key] = true
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestWorker_DecodesSelectedWorkflow(t *testing.T) {
	stats := NewDecodeStats(time.Hour)
	w := NewWorker(testRegistry(t), nil, nil, stats, testLogger())

	job := NewJob("job-1", "export.csv", []string{"Index@11.28"}, exportCSV(t, indexExport...))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Classifications != 3 || snap.Progress.Decoded != 2 || snap.Progress.Ignored != 1 {
		t.Errorf("unexpected counts: %+v", snap.Progress)
	}
	if snap.Progress.Rows[decode.TableIndex] != 2 {
		t.Errorf("expected 2 index rows, got %d", snap.Progress.Rows[decode.TableIndex])
	}
	results, _ := job.Results()
	if len(results) != 1 || results[0].Slug() != "index-11.28" {
		t.Fatalf("expected index-11.28 result, got %d results", len(results))
	}
	if got := stats.Snapshot(); got.Count != 1 || got.Rows != 2 {
		t.Errorf("expected one recorded run of 2 rows, got %+v", got)
	}
}

func TestWorker_StoresAndPublishes(t *testing.T) {
	db, err := output.OpenSQLite(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	fake := &fakePathstore{puts: make(map[string]bool), fails: 1}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	ps := pathstore.NewClient(srv.URL, "key")

	w := NewWorker(testRegistry(t), db, ps, NewDecodeStats(time.Hour), testLogger())
	w.backoff = func(int) time.Duration { return 0 }

	job := NewJob("job-2", "export.csv", []string{"Index@11.28"}, exportCSV(t, indexExport...))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	n, err := db.Count(context.Background(), "job-2", decode.TableIndex)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 stored index rows, got %d", n)
	}
	if snap.Progress.Published != 2 {
		t.Errorf("expected 2 published nodes, got %d", snap.Progress.Published)
	}
	for _, key := range []string{"transcriptions/index-11.28/index/4/0", "transcriptions/index-11.28/index/4/1"} {
		if !fake.puts[key] {
			t.Errorf("expected node %s to be published", key)
		}
	}
}

func TestWorker_Failures(t *testing.T) {
	badControl := [5]string{"9", "16866", "11.28", "2", `[{"task":"T20","value":"Sideways"}]`}
	tests := []struct {
		name      string
		filename  string
		workflows []string
		data      []byte
		phase     string
	}{
		{"unsupported format", "export.txt", nil, []byte("x"), "parsing"},
		{"missing column", "export.csv", nil, []byte("classification_id\n1\n"), "parsing"},
		{"unknown workflow", "export.csv", []string{"Ledger"}, exportCSV(t, indexExport...), "decoding"},
		{"bad control answer", "export.csv", nil, exportCSV(t, badControl), "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorker(testRegistry(t), nil, nil, nil, testLogger())
			job := NewJob("job", tt.filename, tt.workflows, tt.data)
			w.Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != StatusFailed {
				t.Fatalf("expected failed, got %q", snap.Status)
			}
			if snap.Phase != tt.phase {
				t.Errorf("expected phase %q, got %q", tt.phase, snap.Phase)
			}
			if len(snap.Progress.Errors) != 1 || !strings.HasPrefix(snap.Progress.Errors[0], tt.phase+": ") {
				t.Errorf("expected one %s error, got %v", tt.phase, snap.Progress.Errors)
			}
		})
	}
}

func TestOrchestrator_ProcessesSubmittedJob(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testRegistry(t), nil, nil, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("orch-1", "export.csv", nil, exportCSV(t, indexExport...))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := o.GetJob("orch-1").Snapshot()
		if snap.Status == StatusCompleted {
			break
		}
		if snap.Status == StatusFailed {
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %q after 5s", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := o.DecodeStats().Snapshot().Count; got != 1 {
		t.Errorf("expected 1 recorded decode run, got %d", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, testRegistry(t), nil, nil, testLogger())
	// Not started: nothing drains the queue.

	if err := o.Submit(NewJob("a", "a.csv", nil, nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := o.Submit(NewJob("b", "b.csv", nil, nil)); err == nil {
		t.Fatal("expected queue full error")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	if got := o.GetJob("b").Snapshot().Status; got != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", got)
	}
}
