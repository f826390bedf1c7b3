package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// monitors are native clients, not browsers
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// EventAccessChanged tells a client its access schedule changed
const EventAccessChanged = "access_changed"

// Event is a message pushed to connected clients
type Event struct {
	Type string `json:"type"`
}

// pushConn serialises writes to one websocket connection
type pushConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *pushConn) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// WebSocketManager manages WebSocket connections of access monitors
type WebSocketManager struct {
	connections map[string]map[*pushConn]struct{} // userID -> connections
	mu          sync.RWMutex
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		connections: make(map[string]map[*pushConn]struct{}),
	}
}

// Register adds a connection to the manager
func (m *WebSocketManager) Register(userID string, conn *pushConn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[userID]; !exists {
		m.connections[userID] = make(map[*pushConn]struct{})
	}
	m.connections[userID][conn] = struct{}{}
	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a connection from the manager
func (m *WebSocketManager) Unregister(userID string, conn *pushConn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, exists := m.connections[userID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.connections, userID)
		}
	}
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// ConnectionCount returns the number of open connections for userID
func (m *WebSocketManager) ConnectionCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[userID])
}

// NotifyUsers pushes an access_changed event to every connection of the given users
func (m *WebSocketManager) NotifyUsers(userIDs ...string) {
	data, _ := json.Marshal(Event{Type: EventAccessChanged})

	m.mu.RLock()
	var targets []*pushConn
	for _, id := range userIDs {
		for conn := range m.connections[id] {
			targets = append(targets, conn)
		}
	}
	m.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.write(data); err != nil {
			log.Warn().Err(err).Msg("Failed to push access change")
		}
	}
	log.Debug().Strs("user_ids", userIDs).Int("connections", len(targets)).Msg("Access change pushed")
}

// HandleWebSocketToken godoc
//
//	@Summary		Access change stream
//	@Description	Upgrades to a websocket that receives {"type":"access_changed"} whenever the caller's access schedule changes
//	@Tags			access
//	@Param			token	query	string	true	"Access token"
//	@Success		101
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Router			/ws [get]
func (h *Handler) HandleWebSocketToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	user, _, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade connection (token)")
		return
	}
	pc := &pushConn{conn: conn}
	h.wsManager.Register(user.ID, pc)
	defer func() {
		h.wsManager.Unregister(user.ID, pc)
		conn.Close()
	}()

	// Keep connection alive and listen for close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Info().Str("user_id", user.ID).Msg("WebSocket connection closed")
			break
		}
	}
}
