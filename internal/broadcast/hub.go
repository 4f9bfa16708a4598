package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/djmonitor/internal/adapter/metrics"
	"github.com/pscheid92/djmonitor/internal/domain"
)

const (
	commandTimeout     = 5 * time.Second
	stopTimeout        = 10 * time.Second
	commandChannelSize = 256
	defaultMaxClients  = 1000
	defaultSendTimeout = 5 * time.Second
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection *websocket.Conn
	reply      chan registerResult
}

type registerResult struct {
	sessionID uuid.UUID
	err       error
}

type unregisterCmd struct {
	baseHubCmd
	sessionID uuid.UUID
}

type sendStateCmd struct {
	baseHubCmd
	sessionID uuid.UUID
}

type broadcastCmd struct {
	baseHubCmd
	event string
	frame []byte
}

type clientCountCmd struct {
	baseHubCmd
	reply chan int
}

type stopCmd struct {
	baseHubCmd
	sessions chan int // buffered; receives the session count the actor is closing
}

// Options tunes the hub. Zero values fall back to defaults.
type Options struct {
	MaxClients  int
	SendTimeout time.Duration
	Metrics     *metrics.HubMetrics
}

// Hub manages display sessions and pushes publication state to them.
type Hub struct {
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	source      domain.StateSource
	clients     map[uuid.UUID]*clientWriter
	metrics     *metrics.HubMetrics
	maxClients  int
	sendTimeout time.Duration
	done        chan struct{}
	stopTimeout time.Duration
}

var _ domain.Broadcaster = (*Hub)(nil)

// NewHub starts the hub actor. source is read whenever a full state push is needed.
func NewHub(source domain.StateSource, clock clockwork.Clock, opts Options) *Hub {
	if opts.MaxClients <= 0 {
		opts.MaxClients = defaultMaxClients
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}

	h := &Hub{
		cmdCh:       make(chan hubCmd, commandChannelSize),
		clock:       clock,
		source:      source,
		clients:     make(map[uuid.UUID]*clientWriter),
		metrics:     opts.Metrics,
		maxClients:  opts.MaxClients,
		sendTimeout: opts.SendTimeout,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go h.run()
	return h
}

// Register adds a display connection and immediately queues the current state for it.
// The snapshot is taken inside the actor, after every broadcast queued before it,
// so a late joiner can never miss an update.
func (h *Hub) Register(conn *websocket.Conn) (uuid.UUID, error) {
	reply := make(chan registerResult, 1)
	if !h.enqueue(registerCmd{connection: conn, reply: reply}) {
		return uuid.Nil, domain.ErrHubStopped
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case res := <-reply:
		return res.sessionID, res.err
	case <-h.done:
		return uuid.Nil, domain.ErrHubStopped
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a session. Unknown or already removed sessions are ignored.
func (h *Hub) Unregister(sessionID uuid.UUID) {
	h.enqueue(unregisterCmd{sessionID: sessionID})
}

// SendState pushes the current state to one session only.
func (h *Hub) SendState(sessionID uuid.UUID) {
	h.enqueue(sendStateCmd{sessionID: sessionID})
}

// BroadcastState pushes the committed state to every session. The snapshot is
// read synchronously so it is the one produced by the caller's last mutation.
func (h *Hub) BroadcastState() {
	frame, err := domain.NewEnvelope(domain.EventUpdatePublication, h.source.Get())
	if err != nil {
		slog.Error("Failed to encode publication state", "error", err)
		h.recordFailure(metrics.ReasonEncode)
		return
	}
	h.enqueue(broadcastCmd{event: domain.EventUpdatePublication, frame: frame})
}

// BroadcastBlink pushes a transient blink pulse to every session.
func (h *Hub) BroadcastBlink(color string) {
	frame, err := domain.NewEnvelope(domain.EventBlink, domain.BlinkPulse{Color: color})
	if err != nil {
		slog.Error("Failed to encode blink pulse", "error", err)
		h.recordFailure(metrics.ReasonEncode)
		return
	}
	h.enqueue(broadcastCmd{event: domain.EventBlink, frame: frame})
}

// ClientCount returns the number of registered sessions, or -1 on timeout.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	if !h.enqueue(clientCountCmd{reply: reply}) {
		return 0
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-reply:
		return count
	case <-h.done:
		return 0
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop closes every session with a close frame and waits for the actor to exit.
func (h *Hub) Stop() {
	cmd := stopCmd{sessions: make(chan int, 1)}
	if !h.enqueue(cmd) {
		return
	}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		attrs := []any{"timeout", h.stopTimeout}
		select {
		case n := <-cmd.sessions:
			attrs = append(attrs, "sessions", n)
		default:
		}
		slog.Warn("Hub stop timeout exceeded", attrs...)
	}
}

// enqueue hands cmd to the actor. It reports false once the hub has stopped.
func (h *Hub) enqueue(cmd hubCmd) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.cmdCh <- cmd:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub failure")
		}
	}()

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.sessionID)
		case sendStateCmd:
			h.handleSendState(c.sessionID)
		case broadcastCmd:
			h.handleBroadcast(c)
		case clientCountCmd:
			c.reply <- len(h.clients)
		case stopCmd:
			c.sessions <- len(h.clients)
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting display client: max clients reached", "max_clients", h.maxClients)
		if h.metrics != nil {
			h.metrics.RejectedConnections.Inc()
		}
		_ = c.connection.Close()
		c.reply <- registerResult{err: fmt.Errorf("%w: limit is %d", domain.ErrTooManyClients, h.maxClients)}
		return
	}

	sessionID := uuid.New()
	cw := newClientWriter(c.connection, h.clock, h.sendTimeout, func(err error) {
		slog.Debug("Display writer exited", "session_id", sessionID.String(), "error", err)
		h.recordFailure(metrics.ReasonWriteError)
		go h.Unregister(sessionID)
	})
	h.clients[sessionID] = cw

	if h.metrics != nil {
		h.metrics.ConnectedClients.Inc()
	}
	slog.Debug("Display client registered", "session_id", sessionID.String(), "total_clients", len(h.clients))

	h.handleSendState(sessionID)
	c.reply <- registerResult{sessionID: sessionID}
}

func (h *Hub) handleUnregister(sessionID uuid.UUID) {
	cw, exists := h.clients[sessionID]
	if !exists {
		return
	}

	delete(h.clients, sessionID)
	cw.stop()

	if h.metrics != nil {
		h.metrics.ConnectedClients.Dec()
	}
	slog.Debug("Display client unregistered", "session_id", sessionID.String(), "remaining_clients", len(h.clients))
}

func (h *Hub) handleSendState(sessionID uuid.UUID) {
	cw, exists := h.clients[sessionID]
	if !exists {
		return
	}

	frame, err := domain.NewEnvelope(domain.EventUpdatePublication, h.source.Get())
	if err != nil {
		slog.Error("Failed to encode publication state", "error", err)
		h.recordFailure(metrics.ReasonEncode)
		return
	}
	h.deliver(sessionID, cw, domain.EventUpdatePublication, frame)
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	for sessionID, cw := range h.clients {
		h.deliver(sessionID, cw, c.event, c.frame)
	}
}

// deliver queues frame on one session. A full buffer means the display is not
// keeping up; it is evicted and will resync through pull-on-join when it reconnects.
func (h *Hub) deliver(sessionID uuid.UUID, cw *clientWriter, event string, data []byte) {
	select {
	case cw.sendChannel <- data:
		if h.metrics != nil {
			h.metrics.MessagesQueued.WithLabelValues(event).Inc()
		}
	default:
		slog.Warn("Disconnecting slow display client", "session_id", sessionID.String(), "event", event)
		h.recordFailure(metrics.ReasonSlowClient)
		h.handleUnregister(sessionID)
	}
}

func (h *Hub) handleStop() {
	total := len(h.clients)
	slog.Info("Hub shutting down", "clients", total)
	h.closeAllClients("server shutting down")
	slog.Info("Hub shutdown complete", "disconnected_clients", total)
}

func (h *Hub) closeAllClients(reason string) {
	for sessionID, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, sessionID)
	}
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(0)
	}
}

func (h *Hub) recordFailure(reason string) {
	if h.metrics != nil {
		h.metrics.DeliveryFailures.WithLabelValues(reason).Inc()
	}
}
