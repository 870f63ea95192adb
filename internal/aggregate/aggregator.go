// Package aggregate assembles the per-tick event batch: it reads the snapshot
// window, runs trend/alert/insight analysis and returns an ordered batch.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/alert"
	"github.com/vitalwatch/vitalwatch/internal/event"
	"github.com/vitalwatch/vitalwatch/internal/insight"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

// SnapshotStore is the read surface the aggregator queries each tick.
type SnapshotStore interface {
	SamplesSince(ctx context.Context, owner string, since time.Time) ([]store.Sample, error)
	DueReminders(ctx context.Context, owner, nowMinute string) ([]store.Reminder, error)
}

// Lookback window defaults: global ticks look back one hour, per-user ticks a
// full day. This governs recency filtering, not tick cadence.
const (
	DefaultGlobalLookback = time.Hour
	DefaultUserLookback   = 24 * time.Hour
)

type Aggregator struct {
	snap           SnapshotStore
	insight        *insight.Requester
	globalLookback time.Duration
	userLookback   time.Duration
	now            func() time.Time
}

func New(snap SnapshotStore, req *insight.Requester) *Aggregator {
	return &Aggregator{
		snap:           snap,
		insight:        req,
		globalLookback: DefaultGlobalLookback,
		userLookback:   DefaultUserLookback,
		now:            time.Now,
	}
}

// SetLookback overrides the window policy. Zero values keep the defaults.
func (a *Aggregator) SetLookback(global, user time.Duration) {
	if global > 0 {
		a.globalLookback = global
	}
	if user > 0 {
		a.userLookback = user
	}
}

// SetClock injects the time source. Tests use this to pin "today".
func (a *Aggregator) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Aggregate produces one tick's batch for the given scope (empty owner =
// global). Events appear in the fixed order SampleBatch, ReminderDue,
// Insight, Alert, omitting any step that produced nothing; an empty batch is
// valid and the caller sends nothing for it. A failure in any single step is
// logged and yields no event for that kind; it never aborts the other steps.
func (a *Aggregator) Aggregate(ctx context.Context, owner string) []event.Event {
	now := a.now()
	lookback := a.globalLookback
	if owner != "" {
		lookback = a.userLookback
	}

	samples, err := a.snap.SamplesSince(ctx, owner, now.Add(-lookback))
	if err != nil {
		slog.Warn("Aggregate: sample window query failed", "owner", owner, "error", err)
		samples = nil
	}

	var events []event.Event
	if len(samples) > 0 {
		events = append(events, event.Event{
			Kind:       event.KindSampleBatch,
			Payload:    buildSampleBatch(samples),
			OccurredAt: now,
			OwnerID:    owner,
		})
	}

	nowMinute := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	due, err := a.snap.DueReminders(ctx, owner, nowMinute)
	if err != nil {
		slog.Warn("Aggregate: due reminder query failed", "owner", owner, "error", err)
	} else if len(due) > 0 {
		payload := event.ReminderDuePayload{Reminders: due, Next: &due[0]}
		events = append(events, event.Event{
			Kind:       event.KindReminderDue,
			Payload:    payload,
			OccurredAt: now,
			OwnerID:    owner,
		})
	}

	if len(samples) > 0 {
		// Insight substitution on provider failure happens inside the
		// requester; this step never fails the tick.
		events = append(events, event.Event{
			Kind: event.KindInsight,
			Payload: event.InsightPayload{
				Text:    a.insight.Summary(ctx, samples),
				BasedOn: len(samples),
			},
			OccurredAt: now,
			OwnerID:    owner,
		})
	}

	if alerts := alert.Detect(samples, now); len(alerts) > 0 {
		events = append(events, event.Event{
			Kind: event.KindAlert,
			Payload: event.AlertPayload{
				Alerts:   alerts,
				Severity: alert.Max(alerts),
			},
			OccurredAt: now,
			OwnerID:    owner,
		})
	}

	return events
}

func buildSampleBatch(samples []store.Sample) event.SampleBatchPayload {
	summary := make(map[string]event.CategorySummary, 4)
	for i := range samples {
		s := samples[i]
		cs := summary[s.Category]
		cs.Count++
		// Samples are ordered oldest first, so the last write wins.
		cs.MostRecent = &samples[i]
		summary[s.Category] = cs
	}
	return event.SampleBatchPayload{
		Count:   len(samples),
		Latest:  &samples[len(samples)-1],
		Summary: summary,
	}
}
