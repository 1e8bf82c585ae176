package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yatrasecure/safetyscore/server/predictor"
	"go.uber.org/zap"
)

// WebSocketHandler streams predictions back to a moving client: each
// "point" message carries a coordinate and hour, each reply a full
// prediction payload.
type WebSocketHandler struct {
	service  *predictor.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

type ClientMessage struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewWebSocketHandler(service *predictor.Service, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket connection", zap.Error(err))
		return
	}
	defer conn.Close()

	clientIP := c.ClientIP()
	h.logger.Info("WebSocket client connected", zap.String("client_ip", clientIP))

	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }

	go h.pingRoutine(conn, ticker, done, closeDone)

	for {
		select {
		case <-done:
			return
		default:
			var message ClientMessage
			err := conn.ReadJSON(&message)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Error("Websocket error", zap.Error(err))
				}
				closeDone()
				return
			}
			h.handleMessage(conn, &message)
		}
	}
}

func (h *WebSocketHandler) handleMessage(conn *websocket.Conn, message *ClientMessage) {
	switch message.Type {
	case "point":
		h.scorePoint(conn, message)
	case "ping":
		h.sendMessage(conn, "pong", map[string]any{"timestamp": time.Now().Unix()})
	default:
		h.logger.Warn("Unknown message type received", zap.String("type", message.Type))
		h.sendError(conn, "Unknown message type: "+message.Type)
	}
}

func (h *WebSocketHandler) scorePoint(conn *websocket.Conn, message *ClientMessage) {
	var request PredictRequest
	if err := json.Unmarshal([]byte(message.Data), &request); err != nil {
		h.logger.Error("Invalid point payload", zap.Error(err))
		h.sendError(conn, "invalid point payload")
		return
	}

	hour := 12
	if request.Hour != nil {
		hour = *request.Hour
	}

	prediction := h.service.Predict(request.Latitude, request.Longitude, hour, request.Overrides)

	h.sendMessage(conn, "prediction", map[string]any{
		"prediction": prediction,
		"degraded":   h.service.Degraded(),
		"timestamp":  message.Timestamp,
	})
}

func (h *WebSocketHandler) sendMessage(conn *websocket.Conn, messageType string, data interface{}) {
	message := ServerMessage{
		Type: messageType,
		Data: data,
	}

	if err := conn.WriteJSON(message); err != nil {
		h.logger.Error("Failed to send WebSocket message", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, errorMsg string) {
	h.sendMessage(conn, "error", map[string]interface{}{
		"message":   errorMsg,
		"timestamp": time.Now().Unix(),
	})
}

func (h *WebSocketHandler) pingRoutine(conn *websocket.Conn, ticker *time.Ticker, done chan struct{}, closeDone func()) {
	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Error("Failed to send ping", zap.Error(err))
				closeDone()
				return
			}
		case <-done:
			return
		}
	}
}
