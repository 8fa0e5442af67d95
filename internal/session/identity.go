// Package session 负责会话标识和会话状态（口吻、对话历史）的管理
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// tokenBytes 会话标识的随机字节数
	tokenBytes = 16
	contextKey = "rentmate.session_id"
)

// ResolverConfig 会话Cookie配置
type ResolverConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
	Secret     []byte
}

// Resolver 从带签名的Cookie中解析会话标识，不存在或签名无效时签发新标识
type Resolver struct {
	config ResolverConfig
}

// NewResolver 创建会话标识解析器，未提供密钥时生成进程内随机密钥
func NewResolver(config ResolverConfig) *Resolver {
	if config.CookieName == "" {
		config.CookieName = "rm_sid"
	}
	if len(config.Secret) == 0 {
		config.Secret = randomBytes(32)
	}
	return &Resolver{config: config}
}

// Resolve 返回当前请求的会话标识，必要时写入新的Cookie
func (r *Resolver) Resolve(c *gin.Context) string {
	if sid, ok := r.Lookup(c); ok {
		return sid
	}

	sid := NewToken()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     r.config.CookieName,
		Value:    r.sign(sid),
		Path:     "/",
		MaxAge:   int(r.config.MaxAge / time.Second),
		Expires:  time.Now().Add(r.config.MaxAge),
		HttpOnly: true,
		Secure:   r.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	// 同一请求内后续的Lookup也能拿到新标识
	c.Set(contextKey, sid)
	return sid
}

// Lookup 只读取有效的会话标识，不签发新标识
func (r *Resolver) Lookup(c *gin.Context) (string, bool) {
	if sid := c.GetString(contextKey); sid != "" {
		return sid, true
	}
	value, err := c.Cookie(r.config.CookieName)
	if err != nil || value == "" {
		return "", false
	}
	return r.verify(value)
}

func (r *Resolver) sign(sid string) string {
	return sid + "." + base64.RawURLEncoding.EncodeToString(r.mac(sid))
}

func (r *Resolver) verify(value string) (string, bool) {
	sid, sig, ok := strings.Cut(value, ".")
	if !ok || len(sid) != tokenBytes*2 {
		return "", false
	}
	if _, err := hex.DecodeString(sid); err != nil {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, r.mac(sid)) {
		return "", false
	}
	return sid, true
}

func (r *Resolver) mac(sid string) []byte {
	h := hmac.New(sha256.New, r.config.Secret)
	h.Write([]byte(sid))
	return h.Sum(nil)
}

// NewToken 生成新的会话标识（16字节随机数的十六进制）
func NewToken() string {
	return hex.EncodeToString(randomBytes(tokenBytes))
}

// randomBytes 随机源不可用时直接panic，进程无法继续提供会话
func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("读取随机数失败: %v", err))
	}
	return b
}
