package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vehicast/service/internal/models"
	"github.com/vehicast/service/internal/services"
)

// =============================================================================
// WebSocket流式聊天处理器
// =============================================================================

// WebSocketHandler 流式聊天处理器
type WebSocketHandler struct {
	chatService *services.ChatService
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler 创建流式聊天处理器
func NewWebSocketHandler(chatService *services.ChatService) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 跨域校验交给CORS中间件，这里放行
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// wsConn 序列化并发写入的连接包装
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) sendJSON(msg models.WSServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// HandleWebSocket 处理WebSocket连接
// 事件流：connected → (session_created) → delta* → complete；ping应答pong
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] 升级连接失败: %v", err)
		return
	}
	defer rawConn.Close()

	conn := &wsConn{conn: rawConn}
	clientID := uuid.New().String()
	log.Printf("[WebSocket] 客户端接入: %s", clientID)

	conn.sendJSON(models.WSServerMessage{
		Type:     models.WSTypeConnected,
		ClientID: clientID,
		Message:  "Connected to WebSocket server",
	})

	for {
		var msg models.WSClientMessage
		if err := rawConn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] 客户端%s异常断开: %v", clientID, err)
			} else {
				log.Printf("[WebSocket] 客户端%s断开连接", clientID)
			}
			return
		}

		switch msg.Type {
		case models.WSTypeMessage:
			h.handleChatMessage(c, conn, msg, nil)

		case models.WSTypeMessageWithHistory:
			history := msg.History
			if history == nil {
				history = []models.ChatMessage{}
			}
			h.handleChatMessage(c, conn, msg, history)

		case models.WSTypePing:
			conn.sendJSON(models.WSServerMessage{
				Type:      models.WSTypePong,
				Timestamp: msg.Timestamp,
			})

		default:
			conn.sendJSON(models.WSServerMessage{
				Type:    models.WSTypeError,
				Message: "Unknown message type: " + msg.Type,
			})
		}
	}
}

// handleChatMessage 处理一条聊天消息并流式回推
// history为nil时使用会话存储的历史，非nil时使用客户端携带的历史
func (h *WebSocketHandler) handleChatMessage(c *gin.Context, conn *wsConn, msg models.WSClientMessage, history []models.ChatMessage) {
	if msg.Message == "" {
		conn.sendJSON(models.WSServerMessage{
			Type:    models.WSTypeError,
			Message: "No message provided",
		})
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = models.GenerateSessionID()
		conn.sendJSON(models.WSServerMessage{
			Type:      models.WSTypeSessionCreated,
			SessionID: sessionID,
		})
	}

	onDelta := func(delta, buffer string) {
		conn.sendJSON(models.WSServerMessage{
			Type:   models.WSTypeDelta,
			Delta:  delta,
			Buffer: buffer,
		})
	}

	response, err := h.chatService.StreamResponse(c.Request.Context(), msg.Message, sessionID, history, onDelta)
	if err != nil {
		log.Printf("[WebSocket] 会话%s流式补全失败: %v", sessionID, err)
		conn.sendJSON(models.WSServerMessage{
			Type:    models.WSTypeError,
			Message: "Error generating response",
		})
		return
	}

	conn.sendJSON(models.WSServerMessage{
		Type:    models.WSTypeComplete,
		Message: response,
	})
}
