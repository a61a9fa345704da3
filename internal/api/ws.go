package api

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketManager tracks open alert-stream connections per user and pushes
// alert state transitions to the alert owner.
type WebSocketManager struct {
	connections map[int64]map[*websocket.Conn]bool
	mutex       sync.RWMutex
	logger      *logging.Logger
}

func NewWebSocketManager(logger *logging.Logger) *WebSocketManager {
	return &WebSocketManager{
		connections: make(map[int64]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

func (m *WebSocketManager) AddConnection(userID int64, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.connections[userID] == nil {
		m.connections[userID] = make(map[*websocket.Conn]bool)
	}
	m.connections[userID][conn] = true
	m.logger.Infof("websocket connected for user %d (%d active)", userID, len(m.connections[userID]))
}

func (m *WebSocketManager) RemoveConnection(userID int64, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if conns, ok := m.connections[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.connections, userID)
		}
	}
	conn.Close()
}

// BroadcastAlert pushes an alert snapshot to every open connection of the
// alert owner. Failed writes drop the connection.
func (m *WebSocketManager) BroadcastAlert(alert models.Alert) {
	m.mutex.RLock()
	conns := make([]*websocket.Conn, 0, len(m.connections[alert.OwnerUserID]))
	for conn := range m.connections[alert.OwnerUserID] {
		conns = append(conns, conn)
	}
	m.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(alert); err != nil {
			m.logger.Errorf("websocket write for user %d failed: %v", alert.OwnerUserID, err)
			m.RemoveConnection(alert.OwnerUserID, conn)
		}
	}
}

// HandleAlertStream upgrades the request and keeps the connection registered
// until the peer closes it.
func (m *WebSocketManager) HandleAlertStream(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		m.logger.Errorf("websocket upgrade for user %d failed: %v", userID, err)
		return
	}

	m.AddConnection(userID, conn)
	defer m.RemoveConnection(userID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
