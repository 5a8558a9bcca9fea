package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/observability"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only feed, no credentials
	},
}

// Hub keeps the latest published batch and pushes new batches to every
// connected WebSocket subscriber.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*sync.Mutex // per-connection write lock
	snapshot Snapshot
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(metrics *observability.Metrics) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		metrics: metrics,
		now:     time.Now,
	}
}

// WithClock sets the clock used to stamp published batches.
func (h *Hub) WithClock(now func() time.Time) *Hub {
	h.now = now
	return h
}

// Publish replaces the snapshot with the filtered signals of a run and pushes
// them to every subscriber. Subscribers that fail a write are dropped.
func (h *Hub) Publish(runID string, signals []*domain.PairSignal) {
	wire := make([]Signal, 0, len(signals))
	for _, p := range signals {
		wire = append(wire, ToSignal(p))
	}

	h.mu.Lock()
	h.snapshot = Snapshot{RunID: runID, PublishedAt: h.now().UTC(), Signals: wire}
	snap := h.snapshot
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		clients[conn] = mu
	}
	h.mu.Unlock()

	data, err := json.Marshal(snap.message(TypeBatch))
	if err != nil {
		log.Error().Str("component", "feed").Err(err).Msg("failed to marshal batch")
		return
	}

	for conn, mu := range clients {
		if err := write(conn, mu, data); err != nil {
			log.Warn().Str("component", "feed").Err(err).Msg("dropping subscriber after failed write")
			h.remove(conn)
		}
	}
	h.metrics.RecordBroadcast()
	log.Info().Str("component", "feed").
		Str("run_id", runID).
		Int("signals", len(wire)).
		Int("subscribers", len(clients)).
		Msg("batch published")
}

// Snapshot returns the latest published batch.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleStream upgrades the request, replays the current snapshot and keeps
// the connection registered until the client goes away.
func (h *Hub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "feed").Err(err).Msg("websocket upgrade failed")
		return
	}

	// The write lock is held from registration until the snapshot is out, so a
	// concurrent Publish queues its batch behind the snapshot.
	mu := &sync.Mutex{}
	mu.Lock()
	h.mu.Lock()
	h.clients[conn] = mu
	snap := h.snapshot
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetSubscribers(count)
	log.Debug().Str("component", "feed").Int("subscribers", count).Msg("subscriber connected")

	defer h.remove(conn)

	data, err := json.Marshal(snap.message(TypeSnapshot))
	if err != nil {
		mu.Unlock()
		log.Error().Str("component", "feed").Err(err).Msg("failed to marshal snapshot")
		return
	}
	err = writeLocked(conn, data)
	mu.Unlock()
	if err != nil {
		return
	}

	// Read until the client closes; inbound frames are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Str("component", "feed").Err(err).Msg("subscriber read error")
			}
			return
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mu.Unlock()

	for conn, mu := range clients {
		mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		mu.Unlock()
		conn.Close()
	}
	h.metrics.SetSubscribers(0)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.metrics.SetSubscribers(count)
		log.Debug().Str("component", "feed").Int("subscribers", count).Msg("subscriber disconnected")
	}
}

func write(conn *websocket.Conn, mu *sync.Mutex, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	return writeLocked(conn, data)
}

// writeLocked writes one frame; the caller holds the connection's write lock.
func writeLocked(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
