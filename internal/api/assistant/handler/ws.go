package assistantHandler

import (
	"ShowroomGolang/internal/entity"
	"ShowroomGolang/pkg/log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// wsEvent is the envelope for every outbound frame.
type wsEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// inputFrame is one keystroke-submit report from the composer. Enter without
// shift submits; shift+enter inserts a newline client-side and reaches us
// only as state, never as a command.
type inputFrame struct {
	Text  string `json:"text"`
	Enter bool   `json:"enter"`
	Shift bool   `json:"shift"`
}

// parseInputFrame decides whether a frame submits a command. Whitespace-only
// text on enter is a no-op, and shift+enter never submits.
func parseInputFrame(f inputFrame) (string, bool) {
	if !f.Enter || f.Shift {
		return "", false
	}

	text := strings.TrimSpace(f.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

// wsConn serializes writes; fiber's websocket connection is not safe for
// concurrent writers.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans dialog events out to every connection a user has open. It is the
// event publisher the assistant service talks to.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*wsConn]bool
	log   *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[*wsConn]bool),
		log:   logger,
	}
}

func (h *Hub) register(userID string, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*wsConn]bool)
	}
	h.conns[userID][conn] = true
}

func (h *Hub) unregister(userID string, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

func (h *Hub) broadcast(userID string, event wsEvent) {
	h.mu.RLock()
	targets := make([]*wsConn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.writeJSON(event); err != nil {
			h.log.WithFields(log.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("[Hub] failed to write event, dropping connection")
			h.unregister(userID, conn)
			conn.conn.Close()
		}
	}
}

func (h *Hub) PublishTurn(userID string, turn entity.ConversationTurn) {
	h.broadcast(userID, wsEvent{Type: "turn", Payload: turn, SentAt: time.Now()})
}

func (h *Hub) PublishSpeaking(userID string, speaking bool) {
	h.broadcast(userID, wsEvent{Type: "speaking", Payload: speaking, SentAt: time.Now()})
}

func (h *Hub) PublishAction(userID string, action string, payload map[string]interface{}) {
	h.broadcast(userID, wsEvent{
		Type: "action",
		Payload: map[string]interface{}{
			"action":  action,
			"payload": payload,
		},
		SentAt: time.Now(),
	})
}

// ServeWS is the read loop for one client connection. Inbound frames are
// composer reports; submit frames run through the same command pipeline as
// the REST endpoint and are serialized per connection by the loop itself.
func (h *AssistantHandler) ServeWS(conn *websocket.Conn) {
	user, ok := conn.Locals("user").(entity.UserLoginData)
	if !ok {
		conn.Close()
		return
	}

	wc := &wsConn{conn: conn}
	h.hub.register(user.ID, wc)
	defer func() {
		h.hub.unregister(user.ID, wc)
		conn.Close()
	}()

	for {
		var frame inputFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		text, submit := parseInputFrame(frame)
		if !submit {
			continue
		}

		c, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if _, err := h.assistantService.ProcessTextCommand(c, user.ID, text); err != nil {
			h.log.WithFields(log.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Warn("[Hub] command from websocket failed")
			wc.writeJSON(wsEvent{
				Type:    "error",
				Payload: err.Error(),
				SentAt:  time.Now(),
			})
		}
		cancel()
	}
}
