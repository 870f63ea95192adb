package fanout

import (
	"context"
	"log/slog"

	"github.com/vitalwatch/vitalwatch/internal/event"
)

// Dispatcher turns one subscription tick into at most one transport write.
// It is transport-agnostic: pull streams and push rooms both sit behind the
// Transport interface.
type Dispatcher struct {
	agg Aggregator
	reg *Registry
}

// Dispatch aggregates the subscription's scope and delivers the batch as a
// single frame. Empty batches are suppressed entirely: no frame crosses the
// wire for a tick that produced nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *Subscription) {
	events := d.agg.Aggregate(ctx, sub.Scope.OwnerID)
	if len(events) == 0 {
		return
	}
	d.deliver(sub, event.FrameTypeUpdate, events)
}

// handshake confirms liveness to a freshly registered transport with an
// empty confirmation frame before streaming begins.
func (d *Dispatcher) handshake(sub *Subscription) {
	d.deliver(sub, event.FrameTypeHandshake, nil)
}

// deliver encodes and writes one frame. A write failure is best-effort: it
// logs and unsubscribes this subscription without disturbing any other.
func (d *Dispatcher) deliver(sub *Subscription, frameType string, events []event.Event) {
	frame, err := event.EncodeFrame(frameType, events)
	if err != nil {
		slog.Error("Frame encoding failed", "id", sub.ID, "error", err)
		return
	}
	// Liveness check immediately before the write: an unsubscribe that
	// raced this tick must win.
	if !d.reg.Alive(sub.ID) {
		return
	}
	if err := sub.Transport.Send(frame); err != nil {
		slog.Warn("Transport write failed, unsubscribing", "id", sub.ID, "error", err)
		d.reg.Unsubscribe(sub.ID)
	}
}
