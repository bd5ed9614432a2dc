package model

import "time"

// RunStatus represents the current state of a scene ranking run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusScoring   RunStatus = "scoring"
	RunStatusVerifying RunStatus = "verifying"
	RunStatusSelecting RunStatus = "selecting"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one RankAndSelect invocation for a scene.
type Run struct {
	ID        string       `json:"id"`
	Scene     SceneRequest `json:"scene"`
	Status    RunStatus    `json:"status"`
	Result    *RunResult   `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Candidates int              `json:"candidates"`
	Verified   int              `json:"verified"`
	Selected   int              `json:"selected"`
	TopScore   float64          `json:"top_score"`
	Selection  *RankedSelection `json:"selection,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}
