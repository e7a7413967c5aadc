package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"personal-info-parser/internal/model"
)

// SubjectExtracted is the subject every extraction event is published on.
const SubjectExtracted = "personal_info.extracted"

// Event describes one finished extraction. It never carries extracted values.
type Event struct {
	ID           uuid.UUID           `json:"id"`
	Source       model.SourceType    `json:"source_type"`
	Confidence   float64             `json:"confidence"`
	FilledFields int                 `json:"filled_fields"`
	TotalFields  int                 `json:"total_fields"`
	Failure      model.FailureReason `json:"failure_reason,omitempty"`
	Cached       bool                `json:"cached"`
	DurationMS   int64               `json:"duration_ms"`
	At           time.Time           `json:"at"`
}

// Publisher exposes a minimal contract to emit extraction events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoOpPublisher drops every event. Used when EVENTS_PROVIDER=none.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(context.Context, Event) error { return nil }
func (NoOpPublisher) Close() error                         { return nil }
