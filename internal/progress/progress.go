// Package progress implements the optional live progress feed
// SPEC_FULL.md's domain stack describes: JSON events pushed over
// WebSocket to any observer watching a running search (a dashboard, or
// just `websocat` at a terminal). Grounded on the teacher's
// internal/network.WebSocketServer (websocket.go) — the upgrade handler,
// per-client connection map, and fan-out-on-write pattern are carried
// over directly; narrowed to a write-only broadcast (observers never
// need to send anything back) and to a fixed Event payload instead of
// WebSocketServer's raw []byte API.
//
// A Broadcaster is entirely optional: internal/search's drivers accept a
// plain callback (evolutionary.Driver.OnGeneration,
// adaptive.Driver.OnTestResult) and never import this package, so a run
// with no broadcaster configured is silent, exactly as spec.md describes.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one progress update, serialised as JSON to every connected
// observer. Kind distinguishes the two event families SPEC_FULL.md §4.7/
// §4.8 name: "generation" (evolutionary/exhaustive: a completed
// generation's best fitness) and "test" (adaptive: one streamed test's
// outcome, exposing which tests are currently "hot").
type Event struct {
	Kind      string    `json:"kind"`
	RunID     uuid.UUID `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	// Generation-kind fields.
	Generation  int     `json:"generation,omitempty"`
	BestFitness float64 `json:"best_fitness,omitempty"`
	PopSize     int     `json:"pop_size,omitempty"`

	// Test-kind fields.
	CandidateKey string `json:"candidate_key,omitempty"`
	Test         string `json:"test,omitempty"`
	Passed       bool   `json:"passed,omitempty"`
}

// Broadcaster accepts WebSocket observers on its Handler and fans every
// Published Event out to all of them. Safe for concurrent Publish and
// connection-handling calls.
type Broadcaster struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewBroadcaster builds a Broadcaster ready to accept connections on its
// Handler. Mirrors WebSocketServer's permissive CheckOrigin: progress
// observers are trusted local/sidecar tooling, not public clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler upgrades incoming HTTP requests to WebSocket connections and
// registers each as an observer until it disconnects. Mount it on
// whatever address/mux the caller (cmd/mendr) chooses.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := uuid.New().String()
		c := &client{conn: conn}

		b.mu.Lock()
		b.clients[id] = c
		b.mu.Unlock()

		defer func() {
			b.mu.Lock()
			delete(b.clients, id)
			b.mu.Unlock()
			conn.Close()
		}()

		// Observers never send data; read only to notice disconnects and
		// respond to control frames, discarding anything received.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// Publish marshals event to JSON and writes it to every currently
// connected observer. A write failure drops that observer silently; it
// never propagates as an error to the search driver that called Publish.
func (b *Broadcaster) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	targets := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	for _, c := range targets {
		c.mu.Lock()
		c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
	}
	return nil
}

// ClientCount reports how many observers are currently connected, mostly
// useful for tests and CLI status output.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every connected observer.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.clients {
		c.conn.Close()
		delete(b.clients, id)
	}
}
