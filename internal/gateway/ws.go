package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitalwatch/vitalwatch/internal/fanout"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Push frame types beyond the streamed batches.
const (
	pushConnectionConfirmed = "connection-confirmed"
	pushRecordSaved         = "health-record-saved"
	pushSystemActivity      = "system-activity"
	pushError               = "error"
)

// envelope is the push-side message shape for non-stream frames.
type envelope struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// inbound is a client control message.
type inbound struct {
	Type       string `json:"type"`
	Room       string `json:"room,omitempty"`
	Owner      string `json:"owner,omitempty"`
	IntervalMS int    `json:"interval_ms,omitempty"`
	Category   string `json:"category,omitempty"`
	Value      string `json:"value,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Hub tracks socket clients by room. Each user gets a personal room
// ("user-<id>"); ad hoc rooms are joinable by name.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*wsClient]struct{})}
}

// UserRoom returns the personal room name for an owner.
func UserRoom(owner string) string { return "user-" + owner }

func (h *Hub) join(room string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*wsClient]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) leaveAll(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends a typed frame to every client in the room. Write failures
// are the read loop's problem; broadcast never blocks on a dead peer.
func (h *Hub) Broadcast(room, msgType string, payload any) {
	data, err := json.Marshal(envelope{Type: msgType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		slog.Warn("Broadcast encoding failed", "room", room, "error", err)
		return
	}
	h.mu.RLock()
	members := make([]*wsClient, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		if err := c.write(data); err != nil {
			slog.Debug("Broadcast write failed", "room", room, "error", err)
		}
	}
}

// wsClient is one socket connection. The write mutex serializes stream
// frames, room broadcasts and control replies onto the single connection.
type wsClient struct {
	conn    *websocket.Conn
	owner   string
	writeMu sync.Mutex

	mu     sync.Mutex
	subIDs []string
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) send(msgType string, payload any) {
	data, err := json.Marshal(envelope{Type: msgType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := c.write(data); err != nil {
		slog.Debug("Socket write failed", "owner", c.owner, "error", err)
	}
}

func (c *wsClient) addSub(id string) {
	c.mu.Lock()
	c.subIDs = append(c.subIDs, id)
	c.mu.Unlock()
}

func (c *wsClient) takeSubs() []string {
	c.mu.Lock()
	ids := c.subIDs
	c.subIDs = nil
	c.mu.Unlock()
	return ids
}

// wsTransport adapts a socket client to the fan-out transport. Stream frames
// are already complete wire messages and pass through untouched.
type wsTransport struct {
	client *wsClient
}

func (t *wsTransport) Send(frame []byte) error {
	return t.client.write(frame)
}

// handleSocket upgrades the connection and runs the control-message loop.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Socket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, owner: r.URL.Query().Get("user")}
	s.hub.join("global", client)
	if client.owner != "" {
		s.hub.join(UserRoom(client.owner), client)
	}

	counts, _ := s.store.Counts(r.Context())
	client.send(pushConnectionConfirmed, map[string]any{
		"owner": client.owner,
		"statistics": map[string]any{
			"totalUsers":      counts.Users,
			"totalRecords":    counts.Samples,
			"activeReminders": counts.ActiveReminders,
		},
	})
	slog.Info("Socket connected", "owner", client.owner)

	defer func() {
		for _, id := range client.takeSubs() {
			s.reg.Unsubscribe(id)
		}
		s.hub.leaveAll(client)
		conn.Close()
		slog.Info("Socket disconnected", "owner", client.owner)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			client.send(pushError, map[string]string{"message": "malformed message"})
			continue
		}
		s.dispatchControl(r, client, msg)
	}
}

func (s *Server) dispatchControl(r *http.Request, client *wsClient, msg inbound) {
	switch msg.Type {
	case "subscribe-health-updates":
		owner := msg.Owner
		if owner == "" {
			owner = client.owner
		}
		cadence := s.globalInterval
		if owner != "" {
			cadence = s.userInterval
		}
		if msg.IntervalMS > 0 {
			cadence = time.Duration(msg.IntervalMS) * time.Millisecond
		}
		id, err := s.reg.Subscribe(fanout.Scope{OwnerID: owner}, cadence, &wsTransport{client: client})
		if err != nil {
			client.send(pushError, map[string]string{"message": err.Error()})
			return
		}
		client.addSub(id)

	case "unsubscribe-health-updates":
		for _, id := range client.takeSubs() {
			s.reg.Unsubscribe(id)
		}

	case "join-room":
		if msg.Room == "" {
			client.send(pushError, map[string]string{"message": "room is required"})
			return
		}
		s.hub.join(msg.Room, client)

	case "add-health-record":
		s.handleRecordAdded(r, client, msg)

	default:
		client.send(pushError, map[string]string{"message": fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// handleRecordAdded persists a pushed sample, echoes the save to the owner's
// room and announces activity globally.
func (s *Server) handleRecordAdded(r *http.Request, client *wsClient, msg inbound) {
	owner := msg.Owner
	if owner == "" {
		owner = client.owner
	}
	sample, err := s.store.AddSample(r.Context(), &store.Sample{
		OwnerID:  owner,
		Category: strings.TrimSpace(msg.Category),
		Value:    strings.TrimSpace(msg.Value),
		Notes:    msg.Notes,
	})
	if err != nil {
		client.send(pushError, map[string]string{"message": err.Error()})
		return
	}

	advice := s.insight.Summary(r.Context(), []store.Sample{*sample})
	s.hub.Broadcast(UserRoom(owner), pushRecordSaved, map[string]any{
		"record": sample,
		"advice": advice,
	})
	s.hub.Broadcast("global", pushSystemActivity, map[string]any{
		"activity": "record-added",
		"category": sample.Category,
	})
}
