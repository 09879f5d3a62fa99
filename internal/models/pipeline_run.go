package models

import "time"

// Run statuses. A run is "degraded" when it completed but skipped files or
// fell back to the unverified draft diff.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusDegraded  = "degraded"
	RunStatusFailed    = "failed"
)

// PipelineRun is the persisted record of one (repoUrl, prompt) request.
// The pipeline itself is stateless between requests; this ledger exists so
// completed diffs can be reloaded and degradations audited.
type PipelineRun struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	RunKey       string `gorm:"size:64;not null;uniqueIndex" json:"runKey"`
	RepoURL      string `gorm:"size:2048;not null" json:"repoUrl"`
	Prompt       string `gorm:"type:text;not null" json:"prompt"`
	Provider     string `gorm:"size:64" json:"provider"`
	ModelKey     string `gorm:"size:255" json:"modelKey"`
	Status       string `gorm:"size:32;not null;index" json:"status"`
	Diff         string `gorm:"type:text" json:"diff,omitempty"`
	Degradations string `gorm:"type:text" json:"degradations,omitempty"`
	SkippedFiles string `gorm:"type:text" json:"skippedFiles,omitempty"`
	ErrorMessage string `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
