// Package events defines the outbound event surface. Terminal import and
// smart-list transitions are published so other systems can react without
// polling the API.
package events

import (
	"context"
	"time"
)

// Event kinds carried in the "kind" message attribute.
const (
	KindImportFinished       = "import.finished"
	KindSmartListJobFinished = "smartlist.job.finished"
)

// ImportFinished is emitted once when an import reaches a terminal status.
type ImportFinished struct {
	ImportID   string    `json:"import_id"`
	RecipeID   string    `json:"recipe_id"`
	SourceURL  string    `json:"source_url"`
	Status     string    `json:"status"`
	ErrorText  string    `json:"error_text,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// SmartListJobFinished is emitted once when a generation job reaches a
// terminal status.
type SmartListJobFinished struct {
	JobID       string    `json:"job_id"`
	WorkspaceID string    `json:"workspace_id"`
	WeekID      string    `json:"week_id"`
	Status      string    `json:"status"`
	SmartListID string    `json:"smart_list_id,omitempty"`
	ErrorText   string    `json:"error_text,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Publisher sends one event. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, kind string, payload any) (string, error)
}

// Noop drops events. Used when no topic is configured.
type Noop struct{}

// Publish discards the event and returns an empty message ID.
func (Noop) Publish(_ context.Context, _ string, _ any) (string, error) {
	return "", nil
}
