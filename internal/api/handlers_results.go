package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dgallion1/sbaggregate/internal/decode"
	"github.com/dgallion1/sbaggregate/internal/output"
	"github.com/dgallion1/sbaggregate/internal/pipeline"
	"github.com/dgallion1/sbaggregate/internal/vocab"
	"github.com/go-chi/chi/v5"
)

// completedJob writes an error response and returns nil unless the job in
// the URL has finished decoding.
func (s *Server) completedJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	if status := job.Snapshot().Status; status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("job is %s", status), http.StatusConflict)
		return nil
	}
	return job
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if decode.Columns(table) == nil {
		jsonError(w, fmt.Sprintf("unknown table %q", table), http.StatusNotFound)
		return
	}
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	results, _ := job.Results()

	res, err := s.pickResult(results, r.URL.Query().Get("workflow"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := output.WriteTableCSV(&buf, res, table); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.FileName(res, table)))
	w.Write(buf.Bytes())
}

// pickResult selects the result named by a NAME[@VERSION] selector. Without
// a selector the job must have decoded exactly one workflow.
func (s *Server) pickResult(results []*decode.Result, selector string) (*decode.Result, error) {
	if selector == "" {
		if len(results) != 1 {
			return nil, fmt.Errorf("workflow is required: job decoded %d workflows", len(results))
		}
		return results[0], nil
	}
	matches, err := s.orchestrator.Registry().Select([]string{selector})
	if err != nil {
		return nil, err
	}
	want := make(map[vocab.Key]bool, len(matches))
	for _, wf := range matches {
		want[wf.Key] = true
	}
	var picked []*decode.Result
	for _, res := range results {
		if want[res.Workflow.Key] {
			picked = append(picked, res)
		}
	}
	switch len(picked) {
	case 0:
		return nil, fmt.Errorf("workflow %q was not decoded by this job", selector)
	case 1:
		return picked[0], nil
	}
	return nil, fmt.Errorf("workflow %q matches %d versions; use NAME@VERSION", selector, len(picked))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	results, stats := job.Results()
	snap := job.Snapshot()

	page, err := output.ReportHTML(snap.Filename, output.ReportMarkdown(snap.Filename, results, stats))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
