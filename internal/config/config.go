// Package config 提供配置加载和管理功能
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var globalConfig *Config

// 补全服务类型
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// 审计日志类型
const (
	SinkAuto   = "auto"
	SinkNone   = "none"
	SinkSheets = "sheets"
	SinkFile   = "file"
	SinkSQLite = "sqlite"
)

// Config 应用程序配置结构
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Completion CompletionConfig `yaml:"completion"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Session    SessionConfig    `yaml:"session"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Audit      AuditConfig      `yaml:"audit"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Host            string        `yaml:"host"`             // 服务器监听地址
	Port            int           `yaml:"port"`             // 服务器监听端口
	StaticDir       string        `yaml:"static_dir"`       // 前端静态文件目录
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // 优雅退出等待时间
	TrustedProxies  []string      `yaml:"trusted_proxies"`  // 可信代理，为空时不信任X-Forwarded-For
}

// CompletionConfig 补全接口配置
type CompletionConfig struct {
	Provider          string        `yaml:"provider"`           // openai 或 ollama
	APIKey            string        `yaml:"api_key"`            // OpenAI API密钥
	BaseURL           string        `yaml:"base_url"`           // 可选，兼容OpenAI的服务地址
	Model             string        `yaml:"model"`              // 模型名称
	MaxTokens         int           `yaml:"max_tokens"`         // 最大生成token数
	Temperature       float64       `yaml:"temperature"`        // 默认温度
	SimpleTemperature float64       `yaml:"simple_temperature"` // simple口吻时的温度
	Timeout           time.Duration `yaml:"timeout"`            // 单次请求超时
}

// OllamaConfig Ollama配置
type OllamaConfig struct {
	Host  string `yaml:"host"`  // Ollama服务器地址
	Model string `yaml:"model"` // 模型名称，为空时使用completion.model
}

// SessionConfig 会话配置
type SessionConfig struct {
	CookieName   string        `yaml:"cookie_name"`    // 会话Cookie名称
	CookieMaxAge time.Duration `yaml:"cookie_max_age"` // Cookie有效期
	CookieSecure bool          `yaml:"cookie_secure"`  // 仅HTTPS发送
	Secret       string        `yaml:"secret"`         // Cookie签名密钥
	MaxTurns     int           `yaml:"max_turns"`      // 保留的最大往返轮数
	Capacity     int           `yaml:"capacity"`       // 内存中最多保留的会话数
	IdleTTL      time.Duration `yaml:"idle_ttl"`       // 会话闲置过期时间
}

// PromptConfig 提示词配置
type PromptConfig struct {
	PolicyFile  string `yaml:"policy_file"`  // 可选，替换内置的基础方针
	WatchPolicy bool   `yaml:"watch_policy"` // 文件变更时自动重新加载
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	Sink            string        `yaml:"sink"`             // auto/none/sheets/file/sqlite
	SpreadsheetID   string        `yaml:"spreadsheet_id"`   // Google表格ID
	Range           string        `yaml:"range"`            // 追加范围
	CredentialsJSON string        `yaml:"credentials_json"` // 服务账号JSON
	FilePath        string        `yaml:"file_path"`        // JSON Lines文件路径
	SQLitePath      string        `yaml:"sqlite_path"`      // SQLite数据库路径
	TimeZone        string        `yaml:"time_zone"`        // 记录时间使用的时区
	Timeout         time.Duration `yaml:"timeout"`          // 单条记录写入超时
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"` // 是否启用
	RPS     float64 `yaml:"rps"`     // 每个客户端每秒请求数
	Burst   int     `yaml:"burst"`   // 突发容量
}

// GetConfig 获取全局配置实例
func GetConfig() *Config {
	return globalConfig
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			StaticDir:       "public",
			ShutdownTimeout: 10 * time.Second,
		},
		Completion: CompletionConfig{
			Provider:          ProviderOpenAI,
			Model:             "gpt-4o",
			MaxTokens:         800,
			Temperature:       0.4,
			SimpleTemperature: 0.2,
			Timeout:           60 * time.Second,
		},
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		Session: SessionConfig{
			CookieName:   "rm_sid",
			CookieMaxAge: 30 * 24 * time.Hour,
			MaxTurns:     8,
			Capacity:     10000,
			IdleTTL:      24 * time.Hour,
		},
		Audit: AuditConfig{
			Sink:     SinkAuto,
			Range:    "A:C",
			TimeZone: "Asia/Tokyo",
			Timeout:  10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     1,
			Burst:   5,
		},
	}
}

// Load 从文件加载配置，文件不存在时使用默认值，最后应用环境变量
func Load(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("[INFO] 配置文件 %s 不存在，使用默认配置", filename)
		case err != nil:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("读取环境变量失败: %w", err)
	}

	// 验证配置
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	// 设置全局配置
	globalConfig = config

	return config, nil
}

// applyEnv 用环境变量覆盖配置
func applyEnv(config *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT=%q: %w", v, err)
		}
		config.Server.Port = port
	}
	setString("STATIC_DIR", &config.Server.StaticDir)
	if v, ok := os.LookupEnv("TRUSTED_PROXIES"); ok && v != "" {
		config.Server.TrustedProxies = nil
		for _, proxy := range strings.Split(v, ",") {
			if proxy = strings.TrimSpace(proxy); proxy != "" {
				config.Server.TrustedProxies = append(config.Server.TrustedProxies, proxy)
			}
		}
	}
	setString("COMPLETION_PROVIDER", &config.Completion.Provider)
	setString("OPENAI_API_KEY", &config.Completion.APIKey)
	setString("OPENAI_MODEL", &config.Completion.Model)
	setString("OPENAI_BASE_URL", &config.Completion.BaseURL)
	setString("OLLAMA_HOST", &config.Ollama.Host)
	setString("OLLAMA_MODEL", &config.Ollama.Model)
	setString("SESSION_SECRET", &config.Session.Secret)
	setString("POLICY_FILE", &config.Prompt.PolicyFile)
	setString("AUDIT_SINK", &config.Audit.Sink)
	setString("SPREADSHEET_ID", &config.Audit.SpreadsheetID)
	setString("GOOGLE_SERVICE_ACCOUNT_JSON", &config.Audit.CredentialsJSON)
	setString("AUDIT_FILE", &config.Audit.FilePath)
	setString("AUDIT_SQLITE", &config.Audit.SQLitePath)
	return nil
}

// validateConfig 验证配置是否有效，并补全缺省值
func validateConfig(config *Config) error {
	// 验证服务器配置
	if config.Server.Port <= 0 {
		return ErrInvalidPort
	}
	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	// 验证补全配置
	switch config.Completion.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidProvider, config.Completion.Provider)
	}
	if config.Completion.Model == "" && config.Ollama.Model == "" {
		return ErrEmptyModel
	}
	if config.Completion.MaxTokens <= 0 {
		config.Completion.MaxTokens = 800
	}
	if config.Completion.SimpleTemperature >= config.Completion.Temperature {
		return fmt.Errorf("%w: temperature=%v, simple_temperature=%v",
			ErrInvalidTemperature, config.Completion.Temperature, config.Completion.SimpleTemperature)
	}
	if config.Completion.Timeout <= 0 {
		config.Completion.Timeout = 60 * time.Second
	}

	// 验证会话配置
	if config.Session.MaxTurns <= 0 {
		return ErrInvalidMaxTurns
	}
	if config.Session.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if config.Session.CookieName == "" {
		config.Session.CookieName = "rm_sid"
	}
	if config.Session.CookieMaxAge <= 0 {
		config.Session.CookieMaxAge = 30 * 24 * time.Hour
	}

	// 验证审计日志配置
	switch config.Audit.Sink {
	case SinkAuto, SinkNone, SinkSheets, SinkFile, SinkSQLite:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidSink, config.Audit.Sink)
	}
	if config.Audit.Range == "" {
		config.Audit.Range = "A:C"
	}
	if config.Audit.Timeout <= 0 {
		config.Audit.Timeout = 10 * time.Second
	}

	// 验证限流配置
	if config.RateLimit.Enabled && config.RateLimit.RPS <= 0 {
		config.RateLimit.Enabled = false
	}
	if config.RateLimit.Burst <= 0 {
		config.RateLimit.Burst = 1
	}

	return nil
}

// Addr 返回监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CheckCredentials 检查补全服务凭据，缺失时只返回错误，不阻止启动
func (c *Config) CheckCredentials() error {
	if c.Completion.Provider == ProviderOpenAI && c.Completion.APIKey == "" {
		return ErrEmptyAPIKey
	}
	return nil
}
