// Package fanout owns live subscriptions and delivers per-tick event batches
// to their transports. The Registry is the only component holding long-lived
// mutable state (the subscriber set) and the sole authority over each
// subscription's timer.
package fanout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vitalwatch/vitalwatch/internal/event"
)

// MinCadence is the lowest accepted tick interval.
const MinCadence = time.Second

// ErrInvalidCadence rejects subscriptions ticking faster than MinCadence.
var ErrInvalidCadence = errors.New("fanout: cadence below 1s minimum")

// Transport is the write side of one subscriber, pull or push alike.
// Send delivers one serialized frame; an error means the subscriber is gone.
type Transport interface {
	Send(frame []byte) error
}

// Scope is the sample/reminder subset a subscription is entitled to see.
// An empty OwnerID means system-wide.
type Scope struct {
	OwnerID string
}

// Subscription is one live subscriber. Owned exclusively by the Registry;
// destroyed on unsubscribe or shutdown.
type Subscription struct {
	ID        string
	Scope     Scope
	Cadence   time.Duration
	Transport Transport
	CreatedAt time.Time
}

// Aggregator produces the event batch for one tick of one scope.
type Aggregator interface {
	Aggregate(ctx context.Context, owner string) []event.Event
}

type entry struct {
	sub    *Subscription
	cancel context.CancelFunc
	// busy guards against overlapping ticks of the same subscription.
	busy atomic.Bool
}

// Registry tracks active subscriptions and runs one timer per subscription.
type Registry struct {
	disp *Dispatcher

	mu   sync.RWMutex
	subs map[string]*entry

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry creates a registry and its dispatcher bound to the aggregator.
func NewRegistry(agg Aggregator) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		subs:   make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}
	r.disp = &Dispatcher{agg: agg, reg: r}
	return r
}

// Dispatcher returns the registry's dispatcher.
func (r *Registry) Dispatcher() *Dispatcher { return r.disp }

// Subscribe registers a subscriber and starts its timer. The transport
// receives an immediate handshake frame confirming liveness before the
// first streamed batch.
func (r *Registry) Subscribe(scope Scope, cadence time.Duration, t Transport) (string, error) {
	if cadence < MinCadence {
		return "", ErrInvalidCadence
	}

	sub := &Subscription{
		ID:        uuid.NewString(),
		Scope:     scope,
		Cadence:   cadence,
		Transport: t,
		CreatedAt: time.Now(),
	}
	ctx, cancel := context.WithCancel(r.ctx)
	e := &entry{sub: sub, cancel: cancel}

	r.mu.Lock()
	r.subs[sub.ID] = e
	r.mu.Unlock()

	slog.Info("Subscription registered", "id", sub.ID, "owner", scope.OwnerID, "cadence", cadence)
	r.disp.handshake(sub)
	go r.run(ctx, e)
	return sub.ID, nil
}

// run drives one subscription's ticks until its context is cancelled.
// Ticks of different subscriptions are independent; within this subscription
// a firing that lands while the previous tick is still running is skipped,
// never queued.
func (r *Registry) run(ctx context.Context, e *entry) {
	ticker := time.NewTicker(e.sub.Cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.busy.CompareAndSwap(false, true) {
				slog.Warn("Tick skipped: previous tick still running", "id", e.sub.ID)
				continue
			}
			go func() {
				defer e.busy.Store(false)
				r.disp.Dispatch(ctx, e.sub)
			}()
		}
	}
}

// Unsubscribe cancels the subscription's timer and removes it. Idempotent:
// unknown IDs are a no-op, never an error.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	e, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	e.cancel()
	slog.Info("Subscription removed", "id", id)
}

// Alive reports whether the subscription is still registered. The dispatcher
// checks this immediately before writing so an in-flight tick cannot deliver
// to a released transport.
func (r *Registry) Alive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[id]
	return ok
}

// Active returns a snapshot of the current subscriptions.
func (r *Registry) Active() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscription, 0, len(r.subs))
	for _, e := range r.subs {
		out = append(out, *e.sub)
	}
	return out
}

// Close cancels every subscription timer and clears the set.
func (r *Registry) Close() {
	r.cancel()
	r.mu.Lock()
	r.subs = make(map[string]*entry)
	r.mu.Unlock()
}
