package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"rentmate/internal/audit"
	"rentmate/internal/models"
	"rentmate/internal/prompt"
	"rentmate/internal/session"
	"rentmate/internal/tone"
)

// resetKeywords 整条消息等于这些词时视为重置命令（不区分大小写）
var resetKeywords = []string{"reset", "リセット"}

// Auditor 审计记录投递接口
type Auditor interface {
	Dispatch(rec audit.Record)
}

// ChatConfig 对话服务配置
type ChatConfig struct {
	MaxTokens         int           // 最大生成token数
	Temperature       float64       // 默认温度
	SimpleTemperature float64       // simple口吻时的温度
	Timeout           time.Duration // 补全请求超时
}

// ChatService 处理对话服务
type ChatService struct {
	config    ChatConfig
	store     *session.Store
	assembler *prompt.Assembler
	completer models.Completer
	auditor   Auditor
}

// NewChatService 创建新的对话服务
func NewChatService(config ChatConfig, store *session.Store, assembler *prompt.Assembler, completer models.Completer, auditor Auditor) *ChatService {
	if config.MaxTokens <= 0 {
		config.MaxTokens = 800
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if auditor == nil {
		auditor = audit.NewDispatcher(audit.Noop{}, 0)
	}
	return &ChatService{
		config:    config,
		store:     store,
		assembler: assembler,
		completer: completer,
		auditor:   auditor,
	}
}

// Chat 处理用户消息
//
// 只有补全成功后才写入历史，失败时历史保持不变。
func (s *ChatService) Chat(ctx context.Context, sessionID string, message string) (*models.Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.ErrEmptyMessage
	}

	if isResetCommand(message) {
		s.Reset(sessionID)
		return &models.Exchange{
			SessionID: sessionID,
			Message:   message,
			Reply:     models.ReplyResetDone,
			Command:   true,
		}, nil
	}

	// 确定本次口吻并取得历史快照
	directive := tone.Classify(message)
	applied, history := s.store.Snapshot(sessionID, func(current models.Tone) (models.Tone, models.Tone) {
		return tone.Resolve(current, directive)
	})

	req := models.CompletionRequest{
		Messages:    s.assembler.Build(history, applied, message),
		Temperature: s.temperature(applied),
		MaxTokens:   s.config.MaxTokens,
	}

	// 客户端断开不中断上游请求，只受超时限制
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Timeout)
	defer cancel()

	reply, err := s.completer.Complete(callCtx, req)
	if err != nil {
		log.Printf("[ERROR] 调用补全接口失败: session=%s, err=%v", sessionID, err)
		return nil, fmt.Errorf("%w: %v", models.ErrCompletionFailed, err)
	}
	if reply == "" {
		reply = models.ReplyNoContent
	}

	s.store.AppendExchange(sessionID, message, reply)

	return &models.Exchange{
		SessionID: sessionID,
		Message:   message,
		Reply:     reply,
	}, nil
}

// Audit 异步记录问答，重置命令不记录
func (s *ChatService) Audit(ex *models.Exchange) {
	if ex == nil || ex.Command {
		return
	}
	s.auditor.Dispatch(audit.NewRecord(ex.SessionID, ex.Message, ex.Reply))
}

// Reset 清除会话历史并恢复默认口吻
func (s *ChatService) Reset(sessionID string) {
	s.store.Reset(sessionID)
}

// temperature simple口吻使用更低的温度
func (s *ChatService) temperature(applied models.Tone) float64 {
	if applied == models.ToneSimple {
		return s.config.SimpleTemperature
	}
	return s.config.Temperature
}

func isResetCommand(message string) bool {
	for _, keyword := range resetKeywords {
		if strings.EqualFold(message, keyword) {
			return true
		}
	}
	return false
}
