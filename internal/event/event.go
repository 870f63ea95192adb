// Package event defines the typed events produced per tick and the single
// wire frame a batch is delivered in.
package event

import (
	"encoding/json"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/alert"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

// Kind discriminates the event union.
type Kind string

const (
	KindSampleBatch Kind = "sample_batch"
	KindReminderDue Kind = "reminder_due"
	KindInsight     Kind = "insight"
	KindAlert       Kind = "alert"
)

// Frame type discriminators. One frame per tick; empty ticks send nothing,
// except the connect-time handshake which is deliberately an empty frame.
const (
	FrameTypeUpdate    = "health-update"
	FrameTypeHandshake = "subscription-confirmed"
)

// Event is one entry in a tick's batch. Events are transient value objects;
// nothing is carried over between ticks.
type Event struct {
	Kind       Kind      `json:"kind"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
	OwnerID    string    `json:"owner_id,omitempty"` // empty for global scope
}

// CategorySummary is the per-category rollup inside a SampleBatch payload.
type CategorySummary struct {
	Count      int           `json:"count"`
	MostRecent *store.Sample `json:"most_recent,omitempty"`
}

// SampleBatchPayload summarizes the samples seen in the tick's window.
type SampleBatchPayload struct {
	Count   int                        `json:"count"`
	Latest  *store.Sample              `json:"latest,omitempty"`
	Summary map[string]CategorySummary `json:"summary"`
}

// ReminderDuePayload lists reminders due this wall-clock minute, ordered by
// time of day ascending.
type ReminderDuePayload struct {
	Reminders []store.Reminder `json:"reminders"`
	Next      *store.Reminder  `json:"next,omitempty"`
}

// InsightPayload carries generated (or fallback) advice text.
type InsightPayload struct {
	Text    string `json:"text"`
	BasedOn int    `json:"based_on"` // sample count the text was derived from
}

// AlertPayload carries the tick's alerts and their aggregate severity.
type AlertPayload struct {
	Alerts   []alert.Alert  `json:"alerts"`
	Severity alert.Severity `json:"severity"`
}

// Frame is the single message delivered per tick.
type Frame struct {
	Type      string    `json:"type"`
	Events    []Event   `json:"events"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeFrame serializes a batch into one wire message.
func EncodeFrame(frameType string, events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(Frame{
		Type:      frameType,
		Events:    events,
		Timestamp: time.Now().UTC(),
	})
}
