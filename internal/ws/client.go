package ws

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/mq"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Frame types exchanged over the socket.
const (
	MessageTypeAuth       = "auth"
	MessageTypeAuthOK     = "auth_ok"
	MessageTypeAuthFailed = "auth_failed"
	MessageTypeHistory    = "history"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeProgress   = "progress"
	MessageTypeError      = "error"
)

const maxMessageSize = 64 * 1024

// inboundFrame is the union of every client-to-server frame. Video ids arrive
// as strings so one malformed id rejects the history request instead of the
// connection.
type inboundFrame struct {
	Type     string    `json:"type"`
	Token    string    `json:"token,omitempty"`
	Since    time.Time `json:"since,omitempty"`
	VideoIDs []string  `json:"video_ids,omitempty"`
}

type ackFrame struct {
	Type string `json:"type"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type progressFrame struct {
	Type      string    `json:"type"`
	VideoID   uuid.UUID `json:"video_id"`
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	Message   *string   `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func progressFromMessage(m *mq.ProgressMessage) progressFrame {
	return progressFrame{
		Type:      MessageTypeProgress,
		VideoID:   m.VideoID,
		Stage:     m.Stage,
		Progress:  m.Progress,
		Message:   m.Message,
		Timestamp: m.Timestamp,
	}
}

func progressFromEvent(e *models.ProgressEvent) progressFrame {
	return progressFrame{
		Type:      MessageTypeProgress,
		VideoID:   e.VideoID,
		Stage:     e.Stage,
		Progress:  e.Progress,
		Message:   e.Message,
		Timestamp: e.Timestamp,
	}
}

// outbound is one queued server-to-client frame. Terminal frames are exempt
// from backpressure drops.
type outbound struct {
	payload  any
	terminal bool
}

// Client is one authenticated WebSocket connection. The send channel is never
// closed; teardown happens by closing done and the underlying connection,
// which unblocks both pumps and any waiting sender.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	send chan outbound
	done chan struct{}
	once sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan outbound, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

// serve runs the connection to completion: auth handshake, then the read and
// write pumps until either side closes. Registration selects against hub
// shutdown so a connection racing a stop never blocks on a dead loop.
func (c *Client) serve(ctx context.Context) {
	if !c.authenticate() {
		return
	}

	select {
	case c.hub.register <- c:
	case <-c.hub.stopped:
		c.kick(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.teardown()
	}()

	go c.writePump()
	c.readPump(ctx)
}

// authenticate waits for one auth frame within the configured deadline. Until
// it succeeds only this goroutine touches the connection, so frames are
// written directly.
func (c *Client) authenticate() bool {
	deadline := time.Now().Add(c.hub.cfg.AuthDeadline)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		_ = c.conn.Close()
		return false
	}

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				c.kick(CloseAuthTimeout, "auth timeout")
			} else {
				_ = c.conn.Close()
			}
			return false
		}

		switch frame.Type {
		case MessageTypeAuth:
			userID, err := c.hub.validator.Validate(frame.Token)
			if err != nil {
				c.writeDirect(ackFrame{Type: MessageTypeAuthFailed})
				c.kick(CloseAuthFailed, "auth failed")
				return false
			}
			c.userID = userID
			c.writeDirect(ackFrame{Type: MessageTypeAuthOK})
			return true
		case MessageTypePing:
			c.writeDirect(ackFrame{Type: MessageTypePong})
		default:
			c.writeDirect(errorFrame{
				Type:    MessageTypeError,
				Code:    "auth_required",
				Message: "authenticate before sending other frames",
			})
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("WebSocket read ended",
					zap.String("userId", c.userID.String()),
					zap.Error(err))
			}
			return
		}

		switch frame.Type {
		case MessageTypePing:
			c.trySend(outbound{payload: ackFrame{Type: MessageTypePong}})
		case MessageTypeHistory:
			c.replay(ctx, &frame)
		case MessageTypeAuth:
			c.trySend(outbound{payload: errorFrame{
				Type:    MessageTypeError,
				Code:    "validation_error",
				Message: "connection is already authenticated",
			}})
		default:
			c.trySend(outbound{payload: errorFrame{
				Type:    MessageTypeError,
				Code:    "validation_error",
				Message: "unknown frame type",
			}})
		}
	}
}

// replay streams history events strictly newer than since, oldest first. Live
// events keep flowing during the replay and the history append always happens
// before the live publish, so clients deduplicate overlap by (video_id,
// timestamp) and lose nothing.
func (c *Client) replay(ctx context.Context, frame *inboundFrame) {
	videoIDs := make([]uuid.UUID, 0, len(frame.VideoIDs))
	for _, raw := range frame.VideoIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.trySend(outbound{payload: errorFrame{
				Type:    MessageTypeError,
				Code:    "validation_error",
				Message: "invalid video id: " + raw,
			}})
			return
		}
		videoIDs = append(videoIDs, id)
	}

	events, err := c.hub.history.EventsSince(ctx, c.userID, frame.Since, videoIDs)
	if err != nil {
		logger.Log.Warn("History replay failed",
			zap.String("userId", c.userID.String()),
			zap.Error(err))
		c.trySend(outbound{payload: errorFrame{
			Type:    MessageTypeError,
			Code:    "history_failed",
			Message: "could not load progress history",
		}})
		return
	}

	for _, e := range events {
		if !c.sendWait(outbound{payload: progressFromEvent(e), terminal: e.Terminal()}) {
			return
		}
	}
}

func (c *Client) writePump() {
	pingInterval := c.hub.cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case out := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(out.payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// trySend queues a frame without blocking. Callers decide what a full buffer
// means; the hub treats it as backpressure.
func (c *Client) trySend(out outbound) bool {
	select {
	case c.send <- out:
		return true
	default:
		return false
	}
}

// sendWait queues a frame, waiting for buffer space until the connection dies.
func (c *Client) sendWait(out outbound) bool {
	select {
	case c.send <- out:
		return true
	case <-c.done:
		return false
	}
}

// kick sends a close frame with the given code and tears the connection down.
// WriteControl is safe to call concurrently with the write pump.
func (c *Client) kick(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.teardown()
}

func (c *Client) teardown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) writeDirect(payload any) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
	_ = c.conn.WriteJSON(payload)
}
