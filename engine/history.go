package engine

import (
	"sync"
	"time"

	"github.com/BaSui01/agentpipe/pipeline"
)

// RunStatus is the lifecycle state of a run or a node within it.
type RunStatus string

const (
	// StatusRunning indicates the execution is in progress.
	StatusRunning RunStatus = "running"
	// StatusCompleted indicates the execution finished without errors.
	StatusCompleted RunStatus = "completed"
	// StatusFailed indicates the execution recorded at least one error.
	StatusFailed RunStatus = "failed"
	// StatusBlocked indicates a node was skipped because a required
	// predecessor failed.
	StatusBlocked RunStatus = "blocked"
)

// NodeRun records the execution of a single node.
type NodeRun struct {
	NodeID    string        `json:"node_id"`
	Kind      pipeline.Kind `json:"kind"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Status    RunStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// RunHistory records the complete execution path of one pipeline run.
type RunHistory struct {
	RunID     string        `json:"run_id"`
	Schema    string        `json:"schema"`
	GraphName string        `json:"graph_name,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Status    RunStatus     `json:"status"`
	Nodes     []*NodeRun    `json:"nodes"`
	Errors    []string      `json:"errors,omitempty"`
	mu        sync.Mutex
}

// NewRunHistory creates a history for a starting run.
func NewRunHistory(runID, schema string) *RunHistory {
	return &RunHistory{
		RunID:     runID,
		Schema:    schema,
		StartTime: time.Now(),
		Status:    StatusRunning,
	}
}

// RecordNodeStart appends a running node record and returns it.
func (h *RunHistory) RecordNodeStart(nodeID string, kind pipeline.Kind) *NodeRun {
	h.mu.Lock()
	defer h.mu.Unlock()
	nr := &NodeRun{
		NodeID:    nodeID,
		Kind:      kind,
		StartTime: time.Now(),
		Status:    StatusRunning,
	}
	h.Nodes = append(h.Nodes, nr)
	return nr
}

// RecordNodeEnd closes a node record with its outcome.
func (h *RunHistory) RecordNodeEnd(nr *NodeRun, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	nr.EndTime = time.Now()
	nr.Duration = nr.EndTime.Sub(nr.StartTime)
	if err != nil {
		nr.Status = StatusFailed
		nr.Error = err.Error()
	} else {
		nr.Status = StatusCompleted
	}
}

// RecordNodeBlocked appends a blocked node record.
func (h *RunHistory) RecordNodeBlocked(nodeID string, kind pipeline.Kind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.Nodes = append(h.Nodes, &NodeRun{
		NodeID:    nodeID,
		Kind:      kind,
		StartTime: now,
		EndTime:   now,
		Status:    StatusBlocked,
	})
}

// Finish closes the run record.
func (h *RunHistory) Finish(errors []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.EndTime = time.Now()
	h.Duration = h.EndTime.Sub(h.StartTime)
	h.Errors = errors
	if len(errors) > 0 {
		h.Status = StatusFailed
	} else {
		h.Status = StatusCompleted
	}
}
