package config

import "errors"

// 配置相关错误
var (
	ErrInvalidPort        = errors.New("服务器端口必须大于0")
	ErrInvalidProvider    = errors.New("未知的补全服务类型")
	ErrInvalidSink        = errors.New("未知的审计日志类型")
	ErrInvalidMaxTurns    = errors.New("最大保留轮数必须大于0")
	ErrInvalidCapacity    = errors.New("会话容量必须大于0")
	ErrEmptyModel         = errors.New("模型名称不能为空")
	ErrEmptyAPIKey        = errors.New("OpenAI API密钥不能为空")
	ErrInvalidTemperature = errors.New("simple口吻的温度必须低于默认温度")
)
