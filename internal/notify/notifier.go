// Package notify is the outbound message channel for reminder delivery
// outside the live-stream path.
package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers one message to one target. Implementations are
// best-effort: failures are logged by callers, never retried here.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, targetID, message string) error
}

// Hub fans one notification out to every registered notifier.
type Hub struct {
	notifiers []Notifier
}

func NewHub(notifiers ...Notifier) *Hub {
	return &Hub{notifiers: notifiers}
}

// Add registers another notifier.
func (h *Hub) Add(n Notifier) {
	h.notifiers = append(h.notifiers, n)
}

// Notify sends through every notifier. Individual failures are logged and do
// not stop the remaining notifiers.
func (h *Hub) Notify(ctx context.Context, targetID, message string) {
	for _, n := range h.notifiers {
		if err := n.Notify(ctx, targetID, message); err != nil {
			slog.Warn("Notifier delivery failed", "notifier", n.Name(), "target", targetID, "error", err)
		}
	}
}

// LogNotifier writes notifications to the log. It backs development setups
// where no chat channel is configured.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(_ context.Context, targetID, message string) error {
	slog.Info("Notification", "target", targetID, "message", message)
	return nil
}
