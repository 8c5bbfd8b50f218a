package api

import (
	"encoding/json"
	"net/http"
)

type workflowInfo struct {
	Name        string   `json:"name"`
	ID          int      `json:"id"`
	Version     string   `json:"version"`
	ControlTask string   `json:"control_task"`
	Answers     []string `json:"control_answers"`
	Tasks       int      `json:"tasks"`
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	var out []workflowInfo
	for _, wf := range s.orchestrator.Registry().Workflows() {
		out = append(out, workflowInfo{
			Name:        wf.Name,
			ID:          wf.Key.ID,
			Version:     wf.Key.Version.String(),
			ControlTask: wf.ControlTask,
			Answers:     wf.ControlAnswers(),
			Tasks:       wf.TaskCount(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"workflows": out})
}

func (s *Server) handleDecodeStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.orchestrator.DecodeStats().Snapshot(),
	})
}
