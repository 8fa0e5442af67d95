package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"rentmate/internal/audit"
	"rentmate/internal/clients/ollama"
	"rentmate/internal/clients/openai"
	"rentmate/internal/config"
	"rentmate/internal/handlers"
	"rentmate/internal/middleware"
	"rentmate/internal/models"
	"rentmate/internal/prompt"
	"rentmate/internal/routes"
	"rentmate/internal/services"
	"rentmate/internal/session"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[INFO] RentMate 对话服务启动中...")

	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := cfg.CheckCredentials(); err != nil {
		log.Printf("[WARN] %v，对话请求将返回错误", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 审计日志
	// 审计写入在退出信号之后仍可能进行，不使用信号ctx
	auditLogger, err := audit.New(context.Background(), cfg.Audit)
	if err != nil {
		log.Printf("[WARN] 审计日志未启用: %v", err)
	}
	dispatcher := audit.NewDispatcher(auditLogger, cfg.Audit.Timeout)

	// 会话
	if cfg.Session.Secret == "" {
		log.Printf("[WARN] 未配置 SESSION_SECRET，使用随机密钥，重启后现有会话失效")
	}
	resolver := session.NewResolver(session.ResolverConfig{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.CookieMaxAge,
		Secure:     cfg.Session.CookieSecure,
		Secret:     []byte(cfg.Session.Secret),
	})
	store := session.NewStore(session.StoreConfig{
		MaxTurns: cfg.Session.MaxTurns,
		Capacity: cfg.Session.Capacity,
		IdleTTL:  cfg.Session.IdleTTL,
	})

	// 提示词
	assembler, err := newAssembler(ctx, cfg.Prompt)
	if err != nil {
		log.Fatalf("加载基础方针失败: %v", err)
	}

	chatService := services.NewChatService(services.ChatConfig{
		MaxTokens:         cfg.Completion.MaxTokens,
		Temperature:       cfg.Completion.Temperature,
		SimpleTemperature: cfg.Completion.SimpleTemperature,
		Timeout:           cfg.Completion.Timeout,
	}, store, assembler, newCompleter(cfg), dispatcher)

	// 路由
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if err := middleware.Setup(r, cfg.Server.TrustedProxies); err != nil {
		log.Fatalf("初始化中间件失败: %v", err)
	}

	opts := routes.Options{StaticDir: cfg.Server.StaticDir}
	if cfg.RateLimit.Enabled {
		opts.Limiter = middleware.RateLimit(middleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
	}
	routes.RegisterRoutes(r, handlers.NewChatHandler(chatService, resolver), opts)

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] 服务器监听 %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("启动服务器失败: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[INFO] 收到退出信号，正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] 关闭服务器失败: %v", err)
	}
	if err := dispatcher.Close(); err != nil {
		log.Printf("[ERROR] 关闭审计日志失败: %v", err)
	}
	log.Println("[INFO] 服务器已退出")
}

// newCompleter 根据配置选择补全服务
func newCompleter(cfg *config.Config) models.Completer {
	switch cfg.Completion.Provider {
	case config.ProviderOllama:
		model := cfg.Ollama.Model
		if model == "" {
			model = cfg.Completion.Model
		}
		log.Printf("[INFO] 使用 Ollama 补全: host=%s, model=%s", cfg.Ollama.Host, model)
		return ollama.NewClient(ollama.Config{
			Host:    cfg.Ollama.Host,
			Model:   model,
			Timeout: cfg.Completion.Timeout,
		})
	default:
		log.Printf("[INFO] 使用 OpenAI 补全: model=%s", cfg.Completion.Model)
		return openai.NewClient(openai.Config{
			APIKey:     cfg.Completion.APIKey,
			BaseURL:    cfg.Completion.BaseURL,
			Model:      cfg.Completion.Model,
			Timeout:    cfg.Completion.Timeout,
			MaxRetries: 2,
		})
	}
}

// newAssembler 创建提示词组装器，配置了方针文件时加载并按需监听变更
func newAssembler(ctx context.Context, cfg config.PromptConfig) (*prompt.Assembler, error) {
	if cfg.PolicyFile == "" {
		return prompt.NewAssembler(""), nil
	}

	policy, err := prompt.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	assembler := prompt.NewAssembler(policy)

	if cfg.WatchPolicy {
		watcher, err := prompt.NewPolicyWatcher(cfg.PolicyFile, assembler)
		if err != nil {
			log.Printf("[WARN] 方针文件监听未启用: %v", err)
			return assembler, nil
		}
		go watcher.Run(ctx)
		log.Printf("[INFO] 监听方针文件变更: %s", cfg.PolicyFile)
	}
	return assembler, nil
}
