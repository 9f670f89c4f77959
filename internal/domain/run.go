package domain

import "time"

// RunStatus is the outcome of a loader run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// RunStats counts what a loader run read, reconciled and wrote.
type RunStats struct {
	SurfaceRead        int            `json:"surfaceRead"`
	BottomHoleRead     int            `json:"bottomHoleRead"`
	WellsReconciled    int            `json:"wellsReconciled"`
	BottomHoleMerged   int            `json:"bottomHoleMerged"`
	SidetracksInferred int            `json:"sidetracksInferred"`
	OrphansDropped     int            `json:"orphansDropped"`
	Inserted           map[string]int `json:"inserted"` // table -> rows inserted
}

// RunLog is a historical record of a loader run.
type RunLog struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"` // "manual" | "schedule" | "file_watch" | "mcp"
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Status     RunStatus `json:"status"`
	Stats      RunStats  `json:"stats"`
	Sources    []string  `json:"sources,omitempty"` // dataset files the run read
	Error      string    `json:"error,omitempty"`
}
