package audit

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig Google表格配置
type SheetsConfig struct {
	SpreadsheetID   string         // 表格ID
	Range           string         // 追加范围，A:日時, B:ユーザー, C:Bot
	CredentialsJSON string         // 服务账号JSON
	Location        *time.Location // 日期列使用的时区
}

// SheetsLogger 追加记录到Google表格
type SheetsLogger struct {
	config  SheetsConfig
	service *sheets.Service
}

// NewSheetsLogger 创建Google表格审计日志，opts用于覆盖默认的认证和地址
func NewSheetsLogger(ctx context.Context, config SheetsConfig, opts ...option.ClientOption) (*SheetsLogger, error) {
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: 缺少表格ID", ErrNotConfigured)
	}
	if config.Range == "" {
		config.Range = "A:C"
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	if len(opts) == 0 {
		if config.CredentialsJSON == "" {
			return nil, fmt.Errorf("%w: 缺少服务账号凭据", ErrNotConfigured)
		}
		opts = []option.ClientOption{
			option.WithCredentialsJSON([]byte(config.CredentialsJSON)),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建Sheets客户端失败: %w", err)
	}

	return &SheetsLogger{config: config, service: service}, nil
}

// Log 追加一行：时间、用户消息、回复
func (l *SheetsLogger) Log(ctx context.Context, rec Record) error {
	values := &sheets.ValueRange{
		Values: [][]interface{}{{
			sheetsTimestamp(rec.Time.In(l.config.Location)),
			rec.UserMessage,
			rec.BotReply,
		}},
	}

	_, err := l.service.Spreadsheets.Values.
		Append(l.config.SpreadsheetID, l.config.Range, values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("追加表格行失败: %w", err)
	}
	return nil
}

// sheetsTimestamp 与表格中已有数据一致的日期格式，月、日、时不补零
func sheetsTimestamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Close 无需释放资源
func (l *SheetsLogger) Close() error {
	return nil
}
