package model

import "time"

// RunStatus tracks an ETL batch run through its lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunKind names the pass a batch run executed.
type RunKind string

const (
	RunKindDiscover  RunKind = "discover"
	RunKindIngest    RunKind = "ingest"
	RunKindVisualize RunKind = "visualize"
)

// Run is one audit record for a batch pass over the study queue.
type Run struct {
	ID             string     `json:"id"`
	Kind           RunKind    `json:"kind"`
	Status         RunStatus  `json:"status"`
	StudiesTotal   int        `json:"studies_total"`
	StudiesOK      int        `json:"studies_ok"`
	StudiesFailed  int        `json:"studies_failed"`
	StudiesSkipped int        `json:"studies_skipped"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}
