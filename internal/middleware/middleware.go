// Package middleware 提供HTTP中间件
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"rentmate/internal/models"
)

const (
	// RequestIDHeader 请求ID头
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID 为每个请求分配ID，已有的X-Request-ID原样沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 返回当前请求的ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger 日志中间件，在gin默认格式上附加请求ID
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		id, _ := param.Keys[requestIDKey].(string)
		return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v | %s\n%s",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
			id,
			param.ErrorMessage,
		)
	})
}

// Recovery 恢复中间件
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}

// CORS CORS中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RPS      float64       // 每个客户端每秒请求数
	Burst    int           // 突发容量
	Capacity int           // 最多跟踪的客户端数
	IdleTTL  time.Duration // 客户端闲置后丢弃其计数
}

// RateLimit 按客户端IP做令牌桶限流，超出时返回429
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if config.Capacity <= 0 {
		config.Capacity = 10000
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	var mu sync.Mutex
	limiters := expirable.NewLRU[string, *rate.Limiter](config.Capacity, nil, config.IdleTTL)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters.Get(key)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(config.RPS), config.Burst)
		}
		limiters.Add(key, limiter)
		return limiter
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ChatResponse{Reply: models.ReplyRateLimited})
			return
		}
		c.Next()
	}
}

// Setup 设置中间件
//
// trustedProxies 为空时不信任任何代理，ClientIP 只取连接对端地址。
func Setup(r *gin.Engine, trustedProxies []string) error {
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return fmt.Errorf("设置可信代理失败: %w", err)
	}

	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(CORS())
	return nil
}
