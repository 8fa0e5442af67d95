package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // 纯Go实现的SQLite驱动
)

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_log (
		id           TEXT PRIMARY KEY,
		created_at   TEXT NOT NULL,
		session_id   TEXT NOT NULL,
		user_message TEXT NOT NULL,
		bot_reply    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_session ON audit_log(session_id)`,
}

// SQLiteLogger 写入本地SQLite数据库
type SQLiteLogger struct {
	db *sql.DB
}

// NewSQLiteLogger 打开数据库并建表
func NewSQLiteLogger(ctx context.Context, path string) (*SQLiteLogger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: 缺少数据库路径", ErrNotConfigured)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单连接串行写入，避免SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, stmt := range auditSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("创建审计表失败: %w", err)
		}
	}
	return &SQLiteLogger{db: db}, nil
}

// Log 插入一条记录
func (l *SQLiteLogger) Log(ctx context.Context, rec Record) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, created_at, session_id, user_message, bot_reply) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UTC().Format(time.RFC3339Nano), rec.SessionID, rec.UserMessage, rec.BotReply,
	)
	if err != nil {
		return fmt.Errorf("写入审计表失败: %w", err)
	}
	return nil
}

// Count 返回已记录的条数
func (l *SQLiteLogger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("查询审计表失败: %w", err)
	}
	return n, nil
}

// Close 关闭数据库
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}
