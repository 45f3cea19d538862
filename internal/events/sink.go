package events

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the envelope handed to the analytics sink. Payload keys are
// free-form; consumers downstream own the schema.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ActorID    int64          `json:"actor_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sink receives domain events fire-and-forget. Implementations must
// never block the caller or surface errors into the request path.
type Sink interface {
	Emit(name string, actorID int64, payload map[string]any)
}

// ZapSink writes events to the structured log. It stands in for the
// real analytics pipeline; swapping it out is a wiring change in main.
type ZapSink struct {
	logger *zap.SugaredLogger
}

func NewZapSink(logger *zap.SugaredLogger) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Emit(name string, actorID int64, payload map[string]any) {
	ev := Event{
		ID:         uuid.NewString(),
		Name:       name,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	go s.logger.Infow("event",
		"event_id", ev.ID,
		"name", ev.Name,
		"actor_id", ev.ActorID,
		"payload", ev.Payload,
	)
}

// NopSink discards everything. Used in tests.
type NopSink struct{}

func (NopSink) Emit(string, int64, map[string]any) {}
