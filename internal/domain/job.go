package domain

import "time"

// JobStatus enumerates slideshow job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// VideoJob tracks one slideshow generation request through its lifecycle.
// The queue worker is the sole writer; every other party reads snapshots
// by id and must branch on Status, not on the presence of VideoURL.
type VideoJob struct {
	ID         string
	OwnerID    string
	CategoryID string
	Status     JobStatus
	Progress   int
	VideoURL   string
	RemoteID   string
	Error      string
	Options    RenderOptions
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
