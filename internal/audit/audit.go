// Package audit 以尽力而为的方式记录每一次问答
//
// 写入在独立的goroutine中进行，失败只记录到进程日志，不影响已经返回的响应。
package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentmate/internal/config"
)

// ErrNotConfigured 审计日志所需的配置缺失
var ErrNotConfigured = errors.New("审计日志未配置")

// Record 一条问答记录
type Record struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user"`
	BotReply    string    `json:"bot"`
}

// NewRecord 创建带唯一ID的记录
func NewRecord(sessionID, userMessage, botReply string) Record {
	return Record{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Time:        time.Now(),
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotReply:    botReply,
	}
}

// Logger 审计日志写入接口，实现必须可并发调用
type Logger interface {
	Log(ctx context.Context, rec Record) error
	Close() error
}

// Noop 丢弃所有记录
type Noop struct{}

func (Noop) Log(context.Context, Record) error { return nil }
func (Noop) Close() error                      { return nil }

// New 根据配置创建审计日志
//
// 返回错误时Logger为Noop，调用方只需记录一次警告后继续运行。
func New(ctx context.Context, cfg config.AuditConfig) (Logger, error) {
	loc := loadLocation(cfg.TimeZone)

	switch cfg.Sink {
	case config.SinkNone:
		return Noop{}, nil

	case config.SinkAuto:
		if cfg.SpreadsheetID == "" || cfg.CredentialsJSON == "" {
			return Noop{}, fmt.Errorf("%w: 缺少SPREADSHEET_ID或GOOGLE_SERVICE_ACCOUNT_JSON", ErrNotConfigured)
		}
		fallthrough

	case config.SinkSheets:
		logger, err := NewSheetsLogger(ctx, SheetsConfig{
			SpreadsheetID:   cfg.SpreadsheetID,
			Range:           cfg.Range,
			CredentialsJSON: cfg.CredentialsJSON,
			Location:        loc,
		})
		if err != nil {
			return Noop{}, err
		}
		return logger, nil

	case config.SinkFile:
		logger, err := NewFileLogger(cfg.FilePath)
		if err != nil {
			return Noop{}, err
		}
		return logger, nil

	case config.SinkSQLite:
		logger, err := NewSQLiteLogger(ctx, cfg.SQLitePath)
		if err != nil {
			return Noop{}, err
		}
		return logger, nil
	}

	return Noop{}, fmt.Errorf("%w: %s", config.ErrInvalidSink, cfg.Sink)
}

// Dispatcher 异步投递审计记录，调用方不等待结果
type Dispatcher struct {
	logger  Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher 创建异步投递器
func NewDispatcher(logger Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = Noop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{logger: logger, timeout: timeout}
}

// Dispatch 在独立goroutine中写入记录，失败只记录日志，不重试
func (d *Dispatcher) Dispatch(rec Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[ERROR] 审计日志写入异常: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.logger.Log(ctx, rec); err != nil {
			log.Printf("[ERROR] 审计日志写入失败: id=%s, err=%v", rec.ID, err)
		}
	}()
}

// Close 等待进行中的写入完成后关闭底层Logger
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	return d.logger.Close()
}

// loadLocation 加载时区，系统缺少时区数据时对东京时间使用固定偏移
func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	if name == "Asia/Tokyo" {
		return time.FixedZone("JST", 9*60*60)
	}
	log.Printf("[WARN] 加载时区%s失败，使用UTC: %v", name, err)
	return time.UTC
}
