// Package handlers 提供对话服务的HTTP和WebSocket处理器
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"rentmate/internal/models"
	"rentmate/internal/session"

	"github.com/gin-gonic/gin"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	service  models.ChatService
	resolver *session.Resolver
}

// NewChatHandler 创建对话处理器
func NewChatHandler(service models.ChatService, resolver *session.Resolver) *ChatHandler {
	return &ChatHandler{
		service:  service,
		resolver: resolver,
	}
}

// Health 健康检查
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// HandleChat 处理 POST /chat
func (h *ChatHandler) HandleChat(c *gin.Context) {
	sessionID := h.resolver.Resolve(c)

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 请求体无法解析时按空消息处理
		req.Message = ""
	}

	status, ex := h.reply(c.Request.Context(), sessionID, req.Message)
	c.JSON(status, models.ChatResponse{Reply: ex.Reply})

	// 响应写出后再记录
	if status == http.StatusOK {
		h.service.Audit(ex)
	}
}

// HandleReset 处理 POST /reset，没有会话时同样返回成功
func (h *ChatHandler) HandleReset(c *gin.Context) {
	if sessionID, ok := h.resolver.Lookup(c); ok {
		h.service.Reset(sessionID)
	}
	c.JSON(http.StatusOK, models.ResetResponse{OK: true, Message: models.ResetAck})
}

// reply 调用对话服务并把错误映射为状态码和回复文本
func (h *ChatHandler) reply(ctx context.Context, sessionID, message string) (int, *models.Exchange) {
	ex, err := h.service.Chat(ctx, sessionID, message)
	switch {
	case err == nil:
		return http.StatusOK, ex
	case errors.Is(err, models.ErrEmptyMessage):
		return http.StatusBadRequest, &models.Exchange{SessionID: sessionID, Reply: models.ReplyEmptyMessage}
	default:
		log.Printf("[ERROR] 对话处理失败: session=%s, err=%v", sessionID, err)
		return http.StatusInternalServerError, &models.Exchange{SessionID: sessionID, Reply: models.ReplyFailure}
	}
}
