package models

import "errors"

// 对话相关错误
var (
	ErrEmptyMessage     = errors.New("消息内容为空")
	ErrCompletionFailed = errors.New("生成回复失败")
)

// 返回给用户的固定文案
const (
	ReplyEmptyMessage = "メッセージが空のようです。内容を入力してください。"
	ReplyResetDone    = "会話履歴をリセットしました。引き続きご相談ください。"
	ReplyFailure      = "エラーが発生しました。しばらくしてからお試しください。"
	ReplyNoContent    = "回答を生成できませんでした。"
	ReplyRateLimited  = "リクエストが多すぎます。少し時間をおいてからお試しください。"
	ResetAck          = "リセットしました。"
)
