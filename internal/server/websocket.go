package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
	"github.com/kode4food/flowchart/pkg/util"
)

type (
	// Hub publishes committed lesson changes on a topic that every
	// WebSocket client consumes
	Hub struct {
		producer    topic.Producer[*api.Event]
		newConsumer func() topic.Consumer[*api.Event]
		done        chan struct{}
		seq         int64
		closed      bool
		mu          sync.Mutex
	}

	// Client represents a WebSocket client connection following one lesson
	Client struct {
		hub      *Hub
		conn     *websocket.Conn
		consumer topic.Consumer[*api.Event]
		filter   util.Set[api.EventType]
		getState StateFunc
		lesson   api.LessonID
		minSeq   int64
	}

	// StateFunc retrieves the current snapshot of a lesson
	StateFunc func(context.Context, api.LessonID) (*api.Lesson, error)
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 512
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a Hub with no clients
func NewHub() *Hub {
	t := caravan.NewTopic[*api.Event]()
	return &Hub{
		producer:    t.NewProducer(),
		newConsumer: t.NewConsumer,
		done:        make(chan struct{}),
	}
}

// Notify publishes a committed change to the clients following the lesson
func (h *Hub) Notify(
	ctx context.Context, id api.LessonID, typ api.EventType, data any,
) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal event",
			log.LessonID(id),
			slog.String("type", string(typ)),
			log.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.seq++
	h.producer.Send() <- &api.Event{
		Type:      typ,
		LessonID:  id,
		Data:      raw,
		Timestamp: time.Now().UnixMilli(),
		Sequence:  h.seq,
	}
}

// Sequence returns the sequence of the most recent event
func (h *Hub) Sequence() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Close disconnects every client and stops publishing. Clients that
// connect afterward are closed immediately
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	h.producer.Close()
}

// HandleWebSocket upgrades an HTTP connection to WebSocket and starts
// streaming the lesson's change events. The client starts consuming before
// the upgrade completes, so no event committed after the handshake is
// missed
func HandleWebSocket(
	hub *Hub, w http.ResponseWriter, r *http.Request, id api.LessonID,
	st StateFunc,
) {
	client := &Client{
		hub:      hub,
		consumer: hub.newConsumer(),
		getState: st,
		lesson:   id,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		client.consumer.Close()
		slog.Error("WebSocket upgrade failed",
			log.LessonID(id),
			log.Error(err))
		return
	}
	client.conn = conn

	go client.run()
}

func (s *Server) handleWebSocket(c *gin.Context) {
	HandleWebSocket(s.hub, c.Writer, c.Request, lessonID(c), s.store.Lesson)
}

func (c *Client) run() {
	defer func() {
		c.consumer.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	incoming := make(chan []byte, incomingBufferSize)
	go c.readMessages(incoming)

	for {
		select {
		case message, ok := <-incoming:
			if !ok {
				return
			}
			c.handleSubscribe(message)

		case ev, ok := <-c.consumer.Receive():
			if !ok {
				return
			}
			if !c.sendEventIfMatched(ev) {
				return
			}

		case <-c.hub.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			if !c.sendPing() {
				return
			}
		}
	}
}

func (c *Client) readMessages(incoming chan []byte) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			close(incoming)
			return
		}
		incoming <- message
	}
}

func (c *Client) handleSubscribe(message []byte) {
	var sub api.SubscribeRequest
	if err := json.Unmarshal(message, &sub); err != nil {
		slog.Error("Failed to parse WebSocket message",
			log.Error(err))
		return
	}

	if sub.Type != api.MessageSubscribe {
		return
	}

	c.filter = nil
	if len(sub.Data.EventTypes) > 0 {
		c.filter = util.SetOf(sub.Data.EventTypes...)
	}
	c.sendSubscribeState()
}

func (c *Client) sendSubscribeState() {
	if c.getState == nil {
		return
	}

	seq := c.hub.Sequence()
	l, err := c.getState(context.Background(), c.lesson)
	if err != nil {
		slog.Error("Failed to get state for subscription",
			log.LessonID(c.lesson),
			log.Error(err))
		return
	}

	data, err := json.Marshal(l)
	if err != nil {
		slog.Error("Failed to marshal state",
			log.LessonID(c.lesson),
			log.Error(err))
		return
	}

	c.minSeq = seq + 1

	msg := api.SubscribedResult{
		Type:     api.MessageSubscribed,
		LessonID: c.lesson,
		Data:     data,
		Sequence: seq,
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		slog.Error("WebSocket write failed",
			slog.String("context", "subscribed"),
			log.Error(err))
	}
}

func (c *Client) sendEventIfMatched(ev *api.Event) bool {
	if ev.LessonID != c.lesson || ev.Sequence < c.minSeq {
		return true
	}
	if c.filter != nil && !c.filter.Contains(ev.Type) {
		return true
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(ev); err != nil {
		slog.Error("WebSocket write failed",
			log.Error(err))
		return false
	}
	return true
}

func (c *Client) sendPing() bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}
