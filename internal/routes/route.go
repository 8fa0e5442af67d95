// Package routes 注册对话服务的路由
package routes

import (
	"net/http"

	"rentmate/internal/handlers"

	"github.com/gin-gonic/gin"
)

// Options 路由选项
type Options struct {
	StaticDir string          // 前端页面目录，为空时不提供静态文件
	Limiter   gin.HandlerFunc // 对话接口的限流中间件，可为空
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, chat *handlers.ChatHandler, opts Options) {
	r.GET("/health", handlers.Health)
	r.POST("/reset", chat.HandleReset)

	// 对话接口
	dialog := r.Group("")
	if opts.Limiter != nil {
		dialog.Use(opts.Limiter)
	}
	dialog.POST("/chat", chat.HandleChat)
	dialog.GET("/ws/chat", chat.HandleWebSocket)

	if opts.StaticDir != "" {
		registerStatic(r, opts.StaticDir)
	}
}

// registerStatic 未匹配的 GET/HEAD 请求交给静态文件目录处理
func registerStatic(r *gin.Engine, dir string) {
	files := http.FileServer(http.Dir(dir))
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}
