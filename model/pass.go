package model

import (
	"time"
)

// PassStatus represents the status of a scan pass
type PassStatus string

const (
	PassStatusRunning   PassStatus = "running"
	PassStatusCompleted PassStatus = "completed"
	PassStatusFailed    PassStatus = "failed"
	PassStatusAborted   PassStatus = "aborted"
)

// PassKind represents the type of scan being executed
type PassKind string

const (
	PassKindFull          PassKind = "full"
	PassKindIncremental   PassKind = "incremental"
	PassKindHighFrequency PassKind = "high_frequency"
)

// ScanPass records one run of the scan pipeline, from local collection to render.
type ScanPass struct {
	ID          string            `json:"id"`
	Kind        PassKind          `json:"kind"`
	Status      PassStatus        `json:"status"`
	Progress    *PassProgress     `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PassProgress tracks what a pass collected and rendered
type PassProgress struct {
	Units          int `json:"units"`
	Candidates     int `json:"candidates"`
	LemmasQueried  int `json:"lemmas_queried"`
	EntriesCreated int `json:"entries_created"`
	Dropped        int `json:"dropped"`
}

// Duration returns how long the pass ran, or zero while it is still running.
func (p *ScanPass) Duration() time.Duration {
	if p.CompletedAt == nil {
		return 0
	}
	return p.CompletedAt.Sub(p.CreatedAt)
}

// Finished reports whether the pass reached a terminal status.
func (p *ScanPass) Finished() bool {
	return p.Status == PassStatusCompleted || p.Status == PassStatusFailed || p.Status == PassStatusAborted
}
