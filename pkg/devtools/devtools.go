package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumen-dev/lumen/pkg/store"
)

// Event is one change notification on the stream.
// The first event after connecting is a snapshot: seq is the current
// version and diff is empty.
type Event struct {
	Seq   uint64      `json:"seq"`
	Diff  store.Diff  `json:"diff,omitempty"`
	State store.State `json:"state"`
}

// Option configures the inspector.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Server) {
		d.logger = logger
	}
}

// WithMetrics mounts the default Prometheus handler at /metrics.
func WithMetrics() Option {
	return func(d *Server) {
		d.metrics = promhttp.Handler()
	}
}

// WithMetricsRegistry mounts a handler for the given registry at /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(d *Server) {
		d.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
}

// Server is the inspector: a store listener plus an HTTP handler.
type Server struct {
	id     uint64
	store  *store.Store
	logger *slog.Logger
	router chi.Router
	hub    *hub

	metrics http.Handler
	closed  atomic.Bool

	// seq numbers stream events. Seeded from the store version at
	// construction so it lines up with snapshot seqs.
	seq atomic.Uint64

	upgrader websocket.Upgrader
}

// New creates an inspector attached to the store.
// Close detaches it and disconnects all stream clients.
func New(s *store.Store, opts ...Option) *Server {
	d := &Server{
		id:     store.NextListenerID(),
		store:  s,
		logger: slog.Default(),
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seq.Store(s.Version())

	r := chi.NewRouter()
	r.Get("/state", d.handleState)
	r.Get("/stream", d.handleStream)
	if d.metrics != nil {
		r.Handle("/metrics", d.metrics)
	}
	d.router = r

	s.Subscribe(d)
	return d
}

// Handler returns the inspector's HTTP handler.
func (d *Server) Handler() http.Handler {
	return d.router
}

// OnChange implements store.Listener: encode the event and hand it to the
// stream clients. Encoding and broadcasting stay cheap on the update path;
// slow clients are dropped rather than awaited.
func (d *Server) OnChange(diff store.Diff, prior store.State) {
	if d.closed.Load() {
		return
	}
	seq := d.seq.Add(1)
	if d.hub.empty() {
		return
	}

	// Build the event's state from the dispatch arguments rather than
	// the live store: a concurrent or reentrant Set may have advanced
	// it past the update this event reports.
	state := make(store.State, len(prior)+len(diff))
	for k, v := range prior {
		state[k] = v
	}
	for k, v := range diff {
		state[k] = v
	}

	msg, err := json.Marshal(Event{
		Seq:   seq,
		Diff:  diff,
		State: state,
	})
	if err != nil {
		d.logger.Warn("devtools: event not encodable", "error", err)
		return
	}
	d.hub.broadcast(msg)
}

// ID implements store.Listener.
func (d *Server) ID() uint64 { return d.id }

// Close detaches the inspector from the store and disconnects clients.
func (d *Server) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.store.Unsubscribe(d)
	d.hub.closeAll()
}

// handleState serves the current state and version as JSON.
func (d *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(Event{
		Seq:   d.store.Version(),
		State: d.store.State(),
	})
	if err != nil {
		d.logger.Warn("devtools: state not encodable", "error", err)
		http.Error(w, "state not encodable", http.StatusInternalServerError)
	}
}

// handleStream upgrades to WebSocket and feeds change events.
func (d *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Error("devtools: upgrade failed", "error", err)
		return
	}

	c := newClient(conn)
	d.hub.add(c)

	// Initial snapshot so the inspector starts from the live state.
	if snap, err := json.Marshal(Event{
		Seq:   d.store.Version(),
		State: d.store.State(),
	}); err == nil {
		c.enqueue(snap)
	}

	go c.writeLoop()
	c.readLoop(d.hub, d.logger)
}
