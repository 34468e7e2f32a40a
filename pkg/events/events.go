// Package events publishes harness run progress to Kafka
package events

import (
	"context"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Event types
const (
	TypeCaseCompleted = "case.completed"
	TypeRunCompleted  = "run.completed"
)

// CaseCompletedEvent is emitted after each case finishes
type CaseCompletedEvent struct {
	EventType  string        `json:"event_type"`
	RunID      string        `json:"run_id"`
	Suite      string        `json:"suite"`
	Mode       string        `json:"mode"`
	Case       string        `json:"case"`
	SearchTerm string        `json:"search_term"`
	Status     models.Status `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Timestamp  time.Time     `json:"timestamp"`
}

// RunCompletedEvent is emitted once per run
type RunCompletedEvent struct {
	EventType  string        `json:"event_type"`
	RunID      string        `json:"run_id"`
	Suite      string        `json:"suite"`
	Mode       string        `json:"mode"`
	Status     models.Status `json:"status"`
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Warned     int           `json:"warned"`
	Failed     int           `json:"failed"`
	DurationMs int64         `json:"duration_ms"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Publisher emits run events
type Publisher interface {
	PublishCase(ctx context.Context, event *CaseCompletedEvent) error
	PublishRun(ctx context.Context, event *RunCompletedEvent) error
	Close() error
}

// Noop discards every event
type Noop struct{}

// NewNoop creates a publisher that discards events
func NewNoop() Noop {
	return Noop{}
}

func (Noop) PublishCase(context.Context, *CaseCompletedEvent) error { return nil }

func (Noop) PublishRun(context.Context, *RunCompletedEvent) error { return nil }

func (Noop) Close() error { return nil }
