package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rentmate/internal/models"
)

const maxFrameSize = 64 * 1024

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSReply WebSocket 回复帧
type WSReply struct {
	Reply  string `json:"reply"`
	Status int    `json:"status"`
}

// HandleWebSocket 处理 GET /ws/chat，升级时确定会话，之后每个文本帧都是一次对话
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	sessionID := h.resolver.Resolve(c)

	// 新会话的 Cookie 需要随升级响应一起返回
	header := http.Header{}
	if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header["Set-Cookie"] = cookies
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		log.Printf("[ERROR] 升级 WebSocket 连接失败: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] 读取 WebSocket 消息错误: session=%s, err=%v", sessionID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			req.Message = ""
		}

		status, ex := h.reply(c.Request.Context(), sessionID, req.Message)
		if err := conn.WriteJSON(WSReply{Reply: ex.Reply, Status: status}); err != nil {
			log.Printf("[ERROR] 发送 WebSocket 回复失败: session=%s, err=%v", sessionID, err)
			return
		}
		if status == http.StatusOK {
			h.service.Audit(ex)
		}
	}
}
