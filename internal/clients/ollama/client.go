// Package ollama 基于本地Ollama服务的/api/chat接口实现对话补全
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rentmate/internal/models"
)

// Config Ollama客户端配置
type Config struct {
	Host    string        // Ollama服务器地址（完整URL）
	Model   string        // 使用的模型名称
	Timeout time.Duration // 单次请求超时
}

// Client Ollama客户端
type Client struct {
	config Config
	client *http.Client
}

// Message 对话消息
type Message struct {
	Role    string `json:"role"`    // system/user/assistant
	Content string `json:"content"` // 消息内容
}

// ChatRequest 对话请求参数
type ChatRequest struct {
	Model    string    `json:"model"`             // 模型名称
	Messages []Message `json:"messages"`          // 按顺序排列的消息
	Stream   bool      `json:"stream"`            // 是否流式输出
	Options  Options   `json:"options,omitempty"` // 可选参数
}

// Options 生成选项
type Options struct {
	Temperature float64 `json:"temperature"`           // 温度参数
	NumPredict  int     `json:"num_predict,omitempty"` // 最大生成token数
}

// ChatResponse 对话响应
type ChatResponse struct {
	Model           string  `json:"model"`             // 模型名称
	CreatedAt       string  `json:"created_at"`        // 创建时间
	Message         Message `json:"message"`           // 生成的消息
	Done            bool    `json:"done"`              // 是否完成
	TotalDuration   int64   `json:"total_duration"`    // 总耗时(纳秒)
	PromptEvalCount int     `json:"prompt_eval_count"` // 提示词评估数量
	EvalCount       int     `json:"eval_count"`        // 评估数量
}

// NewClient 创建新的Ollama客户端
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Chat 发送对话请求
func (c *Client) Chat(ctx context.Context, messages []Message, options Options) (*ChatResponse, error) {
	// 准备请求体
	reqBody := ChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	}

	// 序列化请求体
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	// 构建请求URL
	url := fmt.Sprintf("%s/api/chat", strings.TrimRight(c.config.Host, "/"))

	// 创建请求
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	// 设置请求头
	req.Header.Set("Content-Type", "application/json")

	// 发送请求
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 检查响应状态码
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("服务器返回错误: %d %s", resp.StatusCode, string(body))
	}

	// 解析响应
	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	return &response, nil
}

// Complete 实现models.Completer
func (c *Client) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	messages := make([]Message, 0, len(req.Messages))
	for _, turn := range req.Messages {
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}

	resp, err := c.Chat(ctx, messages, Options{
		Temperature: req.Temperature,
		NumPredict:  req.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message.Content), nil
}
