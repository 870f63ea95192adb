package gateway

import (
	"fmt"
	"net/http"
	"sync"
)

// sseTransport writes frames as server-sent events. The mutex serializes the
// handshake write with tick writes from the dispatcher goroutine.
type sseTransport struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (t *sseTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "data: %s\n\n", frame); err != nil {
		return fmt.Errorf("sse write: %w", err)
	}
	t.flusher.Flush()
	return nil
}
