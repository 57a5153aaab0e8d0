package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatHandler "github.com/zhouzirui/lgt-bot/backend/internal/handler/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	chatService "github.com/zhouzirui/lgt-bot/backend/internal/service/chat"
	"github.com/zhouzirui/lgt-bot/backend/pkg/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Event types sent to the browser.
const (
	EventHistory = "history"
	EventTyping  = "typing"
	EventMessage = "message"
	EventError   = "error"
)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Event is one frame sent to the client.
type Event struct {
	Type      string         `json:"type"`
	Message   *chat.Message  `json:"message,omitempty"`
	Messages  []chat.Message `json:"messages,omitempty"`
	Session   *chat.Session  `json:"session,omitempty"`
	Pending   bool           `json:"pending,omitempty"`
	Error     string         `json:"error,omitempty"`
	Code      int            `json:"code,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Handler runs the chat over a WebSocket.
type Handler struct {
	chatSvc  *chatService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a WebSocket chat handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes mounts the socket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(ev Event) error {
	ev.Timestamp = time.Now().Unix()

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(ev)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return
	}
	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	logger := h.logger.With(zap.String("session", sessionID))
	logger.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	c := &conn{ws: ws}

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.pingLoop(ctx, c)
	}()

	if err := c.send(Event{Type: EventHistory, Messages: messages, Session: &session}); err != nil {
		return
	}

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Info("websocket read error", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		if msg.Type != EventMessage {
			h.sendError(c, http.StatusBadRequest, "unsupported message type: "+msg.Type)
			continue
		}

		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			h.handleText(ctx, c, sessionID, text)
		}(msg.Text)
	}
}

// handleText runs one turn. It runs off the read loop so a second turn sent
// while the first is pending is rejected by the service rather than queued.
// The user message and typing indicator go out as soon as the turn is
// accepted; the reply follows when the model answers.
func (h *Handler) handleText(ctx context.Context, c *conn, sessionID, text string) {
	exchange, err := h.chatSvc.SendNotify(ctx, sessionID, text, func(user chat.Message) {
		if err := c.send(Event{Type: EventMessage, Message: &user}); err != nil {
			return
		}
		_ = c.send(Event{Type: EventTyping, Pending: true})
	})
	if err != nil {
		h.sendError(c, chatHandler.StatusFor(err), err.Error())
		return
	}

	_ = c.send(Event{Type: EventMessage, Message: &exchange.Reply, Session: &exchange.Session})
}

func (h *Handler) sendError(c *conn, code int, message string) {
	if err := c.send(Event{Type: EventError, Error: message, Code: code}); err != nil {
		h.logger.Debug("write error event failed", zap.Error(err))
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
