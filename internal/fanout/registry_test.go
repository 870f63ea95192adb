package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/event"
)

// stubAgg returns a fixed batch and counts invocations.
type stubAgg struct {
	calls  atomic.Int64
	events []event.Event
}

func (s *stubAgg) Aggregate(_ context.Context, owner string) []event.Event {
	s.calls.Add(1)
	return s.events
}

// memTransport records every frame it receives.
type memTransport struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (t *memTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.frames = append(t.frames, frame)
	return nil
}

func (t *memTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

func (t *memTransport) frame(i int) event.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	var f event.Frame
	json.Unmarshal(t.frames[i], &f)
	return f
}

func sampleEvents() []event.Event {
	return []event.Event{{Kind: event.KindInsight, Payload: event.InsightPayload{Text: "ok"}, OccurredAt: time.Now()}}
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSubscribeRejectsFastCadence(t *testing.T) {
	reg := NewRegistry(&stubAgg{})
	defer reg.Close()

	_, err := reg.Subscribe(Scope{}, 500*time.Millisecond, &memTransport{})
	if !errors.Is(err, ErrInvalidCadence) {
		t.Fatalf("err = %v, want ErrInvalidCadence", err)
	}
}

func TestSubscribeSendsHandshakeFirst(t *testing.T) {
	reg := NewRegistry(&stubAgg{events: sampleEvents()})
	defer reg.Close()

	tr := &memTransport{}
	if _, err := reg.Subscribe(Scope{OwnerID: "u1"}, time.Hour, tr); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if tr.count() != 1 {
		t.Fatalf("frames = %d, want 1 handshake", tr.count())
	}
	f := tr.frame(0)
	if f.Type != event.FrameTypeHandshake {
		t.Errorf("frame type = %q, want handshake", f.Type)
	}
	if f.Events == nil || len(f.Events) != 0 {
		t.Errorf("handshake events = %v, want empty list", f.Events)
	}
}

func TestTickDeliversUpdateFrames(t *testing.T) {
	reg := NewRegistry(&stubAgg{events: sampleEvents()})
	defer reg.Close()

	tr := &memTransport{}
	if _, err := reg.Subscribe(Scope{OwnerID: "u1"}, time.Second, tr); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return tr.count() >= 2 })
	f := tr.frame(1)
	if f.Type != event.FrameTypeUpdate {
		t.Errorf("frame type = %q, want update", f.Type)
	}
	if len(f.Events) != 1 {
		t.Errorf("events = %d, want 1", len(f.Events))
	}
}

func TestEmptyBatchSuppressed(t *testing.T) {
	agg := &stubAgg{} // no events
	reg := NewRegistry(agg)
	defer reg.Close()

	tr := &memTransport{}
	if _, err := reg.Subscribe(Scope{}, time.Second, tr); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return agg.calls.Load() >= 1 })
	time.Sleep(100 * time.Millisecond)
	if tr.count() != 1 { // handshake only
		t.Fatalf("frames = %d, want handshake only", tr.count())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	agg := &stubAgg{events: sampleEvents()}
	reg := NewRegistry(agg)
	defer reg.Close()

	tr := &memTransport{}
	id, err := reg.Subscribe(Scope{}, time.Second, tr)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	reg.Unsubscribe(id)

	if reg.Alive(id) {
		t.Error("subscription still alive after unsubscribe")
	}
	calls := agg.calls.Load()
	frames := tr.count()
	time.Sleep(1500 * time.Millisecond)
	if agg.calls.Load() != calls {
		t.Error("aggregation continued after unsubscribe")
	}
	if tr.count() != frames {
		t.Error("delivery continued after unsubscribe")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	reg := NewRegistry(&stubAgg{})
	defer reg.Close()

	id, _ := reg.Subscribe(Scope{}, time.Hour, &memTransport{})
	reg.Unsubscribe(id)
	reg.Unsubscribe(id) // second removal is a no-op
	reg.Unsubscribe("never-existed")
}

func TestTransportFailureAutoUnsubscribes(t *testing.T) {
	reg := NewRegistry(&stubAgg{events: sampleEvents()})
	defer reg.Close()

	tr := &memTransport{err: errors.New("peer gone")}
	id, err := reg.Subscribe(Scope{}, time.Second, tr)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// The handshake write already fails, so removal happens immediately.
	waitFor(t, 3*time.Second, func() bool { return !reg.Alive(id) })
}

func TestSubscriptionIsolation(t *testing.T) {
	// A failing subscriber must not disturb a healthy one.
	reg := NewRegistry(&stubAgg{events: sampleEvents()})
	defer reg.Close()

	bad := &memTransport{err: errors.New("broken pipe")}
	good := &memTransport{}
	reg.Subscribe(Scope{}, time.Second, bad)
	goodID, err := reg.Subscribe(Scope{OwnerID: "u1"}, time.Second, good)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return good.count() >= 2 })
	if !reg.Alive(goodID) {
		t.Error("healthy subscription was removed")
	}
}

func TestActiveSnapshot(t *testing.T) {
	reg := NewRegistry(&stubAgg{})
	defer reg.Close()

	id1, _ := reg.Subscribe(Scope{}, time.Hour, &memTransport{})
	id2, _ := reg.Subscribe(Scope{OwnerID: "u1"}, time.Hour, &memTransport{})

	if got := len(reg.Active()); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
	reg.Unsubscribe(id1)
	active := reg.Active()
	if len(active) != 1 || active[0].ID != id2 {
		t.Fatalf("active = %+v, want just %s", active, id2)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	agg := &stubAgg{events: sampleEvents()}
	reg := NewRegistry(agg)

	tr := &memTransport{}
	reg.Subscribe(Scope{}, time.Second, tr)
	reg.Close()

	calls := agg.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	if agg.calls.Load() != calls {
		t.Error("ticks continued after close")
	}
	if got := len(reg.Active()); got != 0 {
		t.Errorf("active after close = %d", got)
	}
}
