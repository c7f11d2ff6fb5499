package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/adapters/browser"
	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/repositories"
	"github.com/rishithkoduri/web-translator/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Time allowed for the session to process a user command.
	commandTimeout = 5 * time.Second
)

var errClientClosed = errors.New("client connection closed")

// SessionDeps are the providers bound to one connection. Browser is set when
// recognition runs in the browser and its callbacks arrive on the socket.
type SessionDeps struct {
	Recognizers repositories.SpeechRecognizerFactory
	Speech      repositories.SpeechOutput
	Browser     *browser.Bridge
}

// SessionProvider builds the providers for a new connection. The sink sends
// provider events and audio to that connection.
type SessionProvider func(clientID string, sink repositories.AudioSink) SessionDeps

// Hub maintains the set of active clients, each running its own voice session.
type Hub struct {
	// Registered clients, keyed by connection ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	translator    repositories.Translator
	sessionConfig usecase.VoiceSessionConfig
	provider      SessionProvider
	validator     *MessageValidator

	upgrader       websocket.Upgrader
	allowedOrigins []string

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. sessionConfig is the template for every
// session; its ID is replaced per connection.
func NewHub(
	translator repositories.Translator,
	sessionConfig usecase.VoiceSessionConfig,
	provider SessionProvider,
	logger *zap.Logger,
) *Hub {
	h := &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		translator:    translator,
		sessionConfig: sessionConfig,
		provider:      provider,
		validator:     NewMessageValidator(),
		logger:        logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

// SetAllowedOrigins restricts which browser origins may open a socket. An
// empty list or "*" allows any origin. Call before serving requests.
func (h *Hub) SetAllowedOrigins(origins []string) {
	h.allowedOrigins = origins
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.Warn("Rejected websocket origin", zap.String("origin", origin))
	return false
}

// Run starts the hub's main loop. When ctx is done every client is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("clientID", client.clientID),
				zap.String("connectionID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered",
				zap.String("clientID", client.clientID),
				zap.String("connectionID", client.id))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ActiveClients returns the client IDs of all connections
func (h *Hub) ActiveClients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for _, client := range h.clients {
		ids = append(ids, client.clientID)
	}
	return ids
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and its voice session.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Connection ID, also used as the session ID
	id string

	// Authenticated client ID from the token
	clientID string

	session *usecase.VoiceSession
	bridge  *browser.Bridge
	cancel  context.CancelFunc

	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// HandleWebSocketWithAuth upgrades the request and starts a voice session for
// the pre-authenticated client.
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, clientID string) error {
	conn, err := hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	id := uuid.New().String()
	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		id:       id,
		clientID: clientID,
		logger:   hub.logger.With(zap.String("clientID", clientID), zap.String("connectionID", id)),
	}

	var deps SessionDeps
	if hub.provider != nil {
		deps = hub.provider(clientID, client)
	}
	client.bridge = deps.Browser

	config := hub.sessionConfig
	config.ID = id
	client.session = usecase.NewVoiceSession(config, deps.Recognizers, hub.translator, deps.Speech, hub.logger)

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return errClientClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	client.cancel = cancel

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.session.Run(ctx)
	go client.forwardState(ctx)
	go client.writePump()
	go client.readPump()

	return nil
}

// SendEvent implements repositories.AudioSink
func (c *Client) SendEvent(eventType string, payload map[string]interface{}) error {
	return c.sendJSON(CreateEventMessage(eventType, payload))
}

// SendAudio implements repositories.AudioSink
func (c *Client) SendAudio(data []byte) error {
	return c.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: data})
}

func (c *Client) sendJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

func (c *Client) sendError(code, message, details string) {
	if err := c.sendJSON(CreateErrorMessage(code, message, details)); err != nil {
		c.logger.Debug("Failed to send error message", zap.Error(err))
	}
}

func (c *Client) enqueue(data WriteData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- data:
		return nil
	case <-time.After(writeWait):
		return errors.New("client send buffer full")
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// forwardState pushes every session state change to the client
func (c *Client) forwardState(ctx context.Context) {
	updates, unsubscribe := c.session.Subscribe()
	defer unsubscribe()

	if err := c.sendJSON(CreateStateMessage(c.session.State())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := c.sendJSON(CreateStateMessage(state)); err != nil {
				c.logger.Debug("Stopped forwarding state", zap.Error(err))
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.closeSend()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.session.FeedAudio(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the send buffer to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes a control message from the client
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Invalid message", zap.Error(err))
		c.sendError(ErrorCodeInvalidMessage, "Invalid message", err.Error())
		return
	}

	switch m := msg.(type) {
	case *CommandMessage:
		if m.Type == MessageTypeToggle {
			c.runCommand(string(m.Type), c.session.Toggle)
		} else {
			c.runCommand(string(m.Type), c.session.Replay)
		}

	case *SelectLanguageMessage:
		c.runCommand(string(m.Type), func(ctx context.Context) error {
			return c.session.SelectLanguage(ctx, m.Language)
		})

	case *RecognitionResultMessage:
		if c.requireBridge(m.Type) {
			c.bridge.HandleResult(m.Generation, m.Transcript)
		}

	case *RecognitionEndMessage:
		if c.requireBridge(m.Type) {
			c.bridge.HandleEnd(m.Generation)
		}

	case *RecognitionErrorMessage:
		if c.requireBridge(m.Type) {
			c.bridge.HandleError(m.Generation, m.Error)
		}

	case *PingMessage:
		if err := c.sendJSON(CreatePongMessage(m.Data)); err != nil {
			c.logger.Debug("Failed to send pong", zap.Error(err))
		}
	}
}

func (c *Client) requireBridge(t MessageType) bool {
	if c.bridge != nil {
		return true
	}
	c.logger.Warn("Recognition event from client without browser recognition", zap.String("type", string(t)))
	c.sendError(ErrorCodeInvalidMessage, "Recognition is not performed by this client", string(t))
	return false
}

func (c *Client) runCommand(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		code := errorCode(err)
		c.logger.Info("Command rejected",
			zap.String("command", name),
			zap.String("code", code),
			zap.Error(err))
		c.sendError(code, err.Error(), name)
	}
}

func errorCode(err error) string {
	var recErr *domain.RecognitionError
	switch {
	case errors.Is(err, domain.ErrUnsupportedHost):
		return ErrorCodeUnsupportedHost
	case errors.As(err, &recErr):
		return ErrorCodeRecognition
	case errors.Is(err, domain.ErrUnknownLanguage):
		return ErrorCodeUnknownLanguage
	case errors.Is(err, domain.ErrEmptyText):
		return ErrorCodeNothingToReplay
	default:
		return ErrorCodeInternal
	}
}
