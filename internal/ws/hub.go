// Package ws implements the live progress transport: a WebSocket endpoint
// that authenticates with an in-band token frame, replays history on request,
// and forwards per-user progress events fanned in from the message queue.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Application close codes, from the private range reserved by RFC 6455.
const (
	// CloseAuthTimeout is sent when no auth frame arrives within the deadline.
	CloseAuthTimeout = 4001
	// CloseAuthFailed is sent when the auth frame carries an invalid token.
	CloseAuthFailed = 4003
	// CloseBackpressure is sent when a terminal event cannot be delivered to a
	// slow consumer. Intermediate events are silently dropped instead.
	CloseBackpressure = 4008
)

// TokenValidator checks a bearer token and returns the user it belongs to.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// HistorySource replays persisted progress events for reconnecting clients.
type HistorySource interface {
	EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, videoIDs []uuid.UUID) ([]*models.ProgressEvent, error)
}

// The upgrader allows any origin: the endpoint grants nothing until a signed
// token arrives in-band, so browser-origin checks add no protection here.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub routes live progress events to the connections of the owning user.
// Registration, removal, and routing all happen on the Run goroutine, so the
// client map needs no lock.
type Hub struct {
	validator TokenValidator
	history   HistorySource
	cfg       config.WSConfig

	register   chan *Client
	unregister chan *Client
	events     chan *mq.ProgressMessage
	stopped    chan struct{}

	clients map[uuid.UUID]map[*Client]struct{}
}

// NewHub creates a Hub. Zero config values fall back to working defaults so
// tests can pass a partial config.
func NewHub(validator TokenValidator, history HistorySource, cfg config.WSConfig) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.AuthDeadline <= 0 {
		cfg.AuthDeadline = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	return &Hub{
		validator:  validator,
		history:    history,
		cfg:        cfg,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *mq.ProgressMessage, 256),
		stopped:    make(chan struct{}),
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Run owns the client map until ctx is canceled, then closes every connection
// with a going-away frame.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					go c.kick(websocket.CloseGoingAway, "server shutting down")
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			metrics.WSConnections.Set(0)
			return
		case c := <-h.register:
			conns, ok := h.clients[c.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[c.userID] = conns
			}
			conns[c] = struct{}{}
			metrics.WSConnections.Inc()
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.events:
			h.route(msg)
		}
	}
}

// Publish hands a live event to the routing loop. It never blocks past hub
// shutdown; the durable history ring covers anything dropped here.
func (h *Hub) Publish(msg *mq.ProgressMessage) {
	select {
	case h.events <- msg:
	case <-h.stopped:
		metrics.ProgressEventsDroppedTotal.WithLabelValues("no_subscriber").Inc()
	}
}

// ServeWS upgrades the request and serves the connection until it closes. The
// handler blocks for the connection's lifetime so the request context stays
// usable for history queries.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	newClient(h, conn).serve(c.Request.Context())
}

func (h *Hub) remove(c *Client) {
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	metrics.WSConnections.Dec()
}

// route delivers one event to every connection of the owning user. A full
// send buffer drops intermediate events; a terminal event that cannot be
// queued evicts the connection instead, because terminals must never be
// silently lost.
func (h *Hub) route(msg *mq.ProgressMessage) {
	conns := h.clients[msg.UserID]
	if len(conns) == 0 {
		metrics.ProgressEventsDroppedTotal.WithLabelValues("no_subscriber").Inc()
		return
	}

	out := outbound{payload: progressFromMessage(msg), terminal: msg.Terminal()}
	for c := range conns {
		if c.trySend(out) {
			continue
		}
		if out.terminal {
			h.remove(c)
			go c.kick(CloseBackpressure, "send buffer overflow")
			logger.Log.Warn("Evicting slow WebSocket consumer",
				zap.String("userId", msg.UserID.String()),
				zap.String("videoId", msg.VideoID.String()))
		} else {
			metrics.ProgressEventsDroppedTotal.WithLabelValues("backpressure").Inc()
		}
	}
}
