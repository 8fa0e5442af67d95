// Package openai 基于OpenAI Chat Completions接口实现对话补全
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"rentmate/internal/models"
)

// Config OpenAI客户端配置
type Config struct {
	APIKey     string        // API密钥
	BaseURL    string        // 可选，兼容OpenAI的服务地址
	Model      string        // 模型名称
	Timeout    time.Duration // 单次请求超时
	MaxRetries int           // SDK内部的重试次数
}

// Client OpenAI补全客户端
type Client struct {
	config Config
	client openai.Client
}

// NewClient 创建新的OpenAI客户端
func NewClient(config Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &Client{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// Complete 调用Chat Completions并返回第一条候选的文本
func (c *Client) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if c.config.APIKey == "" {
		return "", errors.New("未配置OpenAI API密钥")
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.config.Model),
		Messages:    toMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("调用OpenAI接口失败: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// toMessages 转换为SDK的消息类型，保持原有顺序
func toMessages(turns []models.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return messages
}
