// Package feed broadcasts committed draws to websocket subscribers, one
// room per table.
package feed

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

const (
	maxRoomHistory         = 20
	maxDecodeErrorsPerConn = 3
	maxFrameBytes          = 16 * 1024
	maxFramesPerSecond     = 40
)

// Frame is the envelope of every websocket message.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Announcement describes one committed draw.
type Announcement struct {
	Sequence    int64     `json:"sequence"`
	TableID     string    `json:"table_id"`
	TableName   string    `json:"table_name"`
	Results     []string  `json:"results"`
	Samples     []int     `json:"samples"`
	Seed        int64     `json:"seed"`
	CommittedAt time.Time `json:"committed_at"`
}

type joinedPayload struct {
	TableID string         `json:"table_id"`
	Latest  int64          `json:"latest_sequence"`
	History []Announcement `json:"history"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *peer) write(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// Hub owns the rooms. The zero value is not usable; call NewHub.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
	clock func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room), clock: time.Now}
}

func (h *Hub) room(tableID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[tableID]
	if !ok {
		r = &room{tableID: tableID, subscribers: make(map[*peer]struct{})}
		h.rooms[tableID] = r
	}
	return r
}

// Publish assigns the next sequence of the table's room to a and sends it
// to every subscriber. It returns the stored announcement.
func (h *Hub) Publish(a Announcement) Announcement {
	if a.CommittedAt.IsZero() {
		a.CommittedAt = h.clock().UTC()
	}
	stored, subscribers := h.room(a.TableID).append(a)

	frame, err := newFrame("draw.committed", "", stored)
	if err != nil {
		log.Printf("feed: marshal announcement for %s: %v", a.TableID, err)
		return stored
	}
	for _, p := range subscribers {
		if err := p.write(frame); err != nil {
			log.Printf("feed: write to subscriber of %s: %v", a.TableID, err)
		}
	}
	return stored
}

// Subscribers reports how many connections follow tableID.
func (h *Hub) Subscribers(tableID string) int {
	r := h.room(tableID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// Handler serves the websocket feed of tableID.
func (h *Hub) Handler(tableID string) websocket.Handler {
	return func(conn *websocket.Conn) {
		h.serve(conn, tableID)
	}
}

func (h *Hub) serve(conn *websocket.Conn, tableID string) {
	defer func() {
		_ = conn.Close()
	}()

	p := &peer{encoder: json.NewEncoder(conn)}
	r := h.room(tableID)
	latest, history := r.join(p)
	defer r.leave(p)

	joined, err := newFrame("feed.joined", "", joinedPayload{TableID: tableID, Latest: latest, History: history})
	if err != nil || p.write(joined) != nil {
		return
	}

	conn.MaxPayloadBytes = maxFrameBytes
	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0
	for {
		var frame Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			message := "invalid frame payload"
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				message = "frame too large"
			}
			_ = writeError(p, "", "INVALID_ARGUMENT", message)
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeError(p, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		switch frame.Type {
		case "feed.ping":
			pong, _ := newFrame("feed.pong", frame.RequestID, nil)
			_ = p.write(pong)
		default:
			_ = writeError(p, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

type room struct {
	mu          sync.Mutex
	tableID     string
	sequence    int64
	history     []Announcement
	subscribers map[*peer]struct{}
}

func (r *room) join(p *peer) (int64, []Announcement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[p] = struct{}{}
	history := make([]Announcement, len(r.history))
	copy(history, r.history)
	return r.sequence, history
}

func (r *room) leave(p *peer) {
	r.mu.Lock()
	delete(r.subscribers, p)
	r.mu.Unlock()
}

func (r *room) append(a Announcement) (Announcement, []*peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	a.Sequence = r.sequence
	r.history = append(r.history, a)
	if len(r.history) > maxRoomHistory {
		r.history = r.history[len(r.history)-maxRoomHistory:]
	}

	subscribers := make([]*peer, 0, len(r.subscribers))
	for p := range r.subscribers {
		subscribers = append(subscribers, p)
	}
	return a, subscribers
}

func newFrame(frameType, requestID string, payload any) (Frame, error) {
	frame := Frame{Type: frameType, RequestID: requestID}
	if payload == nil {
		return frame, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	frame.Payload = raw
	return frame, nil
}

func writeError(p *peer, requestID, code, message string) error {
	frame, err := newFrame("error", requestID, errorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return p.write(frame)
}
