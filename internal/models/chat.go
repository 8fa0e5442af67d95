// Package models 定义对话服务共用的数据结构和接口
package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Role 消息角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn 一条对话消息，创建后不再修改
type Turn struct {
	Role    Role   `json:"role"`    // 消息角色：system/user/assistant
	Content string `json:"content"` // 消息内容
}

// Tone 回复口吻
type Tone string

const (
	TonePolite Tone = "polite" // 丁寧
	ToneFrank  Tone = "frank"  // フランク
	ToneSimple Tone = "simple" // シンプル
)

// DefaultTone 新会话和重置后的口吻
const DefaultTone = TonePolite

// Valid 判断口吻是否为已定义的值
func (t Tone) Valid() bool {
	switch t {
	case TonePolite, ToneFrank, ToneSimple:
		return true
	}
	return false
}

// ToneDirective 从用户消息中识别出的口吻变更请求
type ToneDirective struct {
	Tone    Tone
	Persist bool // true: 写入会话；false: 只作用于本次回复
}

// ChatRequest POST /chat 请求体
type ChatRequest struct {
	Message string `json:"message"`
}

// UnmarshalJSON message 接受字符串、数字和布尔值
//
// null、false 和 0 视为空消息，对象和数组返回错误。
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Message = ""
	msg := bytes.TrimSpace(raw.Message)
	if len(msg) == 0 {
		return nil
	}

	switch msg[0] {
	case '"':
		return json.Unmarshal(msg, &r.Message)
	case '{', '[':
		return fmt.Errorf("message 不能是 %s", msg[:1])
	case 'n', 'f':
		// null / false
		return nil
	case 't':
		r.Message = "true"
		return nil
	}

	n, err := strconv.ParseFloat(string(msg), 64)
	if err != nil {
		return fmt.Errorf("无效的 message: %w", err)
	}
	if n != 0 {
		r.Message = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return nil
}

// ChatResponse POST /chat 响应体
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ResetResponse POST /reset 响应体
type ResetResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// CompletionRequest 发送给补全接口的参数
type CompletionRequest struct {
	Messages    []Turn
	Temperature float64
	MaxTokens   int
}

// Completer 对话补全接口
type Completer interface {
	// Complete 返回模型生成的文本
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Exchange 一次处理完成的问答
type Exchange struct {
	SessionID string
	Message   string // 去除首尾空白后的用户消息
	Reply     string
	Command   bool // 重置命令，未调用补全接口
}

// ChatService 对话服务接口
type ChatService interface {
	// Chat 处理用户消息并返回回复
	Chat(ctx context.Context, sessionID string, message string) (*Exchange, error)

	// Audit 在响应已返回后异步记录问答，不等待结果
	Audit(ex *Exchange)

	// Reset 清除会话历史并恢复默认口吻
	Reset(sessionID string)
}
