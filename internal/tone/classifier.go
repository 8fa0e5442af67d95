// Package tone 根据用户消息识别口吻变更请求
//
// 识别只依赖固定的正则表达式，不做任何I/O，按优先级顺序匹配，先命中者生效。
package tone

import (
	"regexp"

	"rentmate/internal/models"
)

var (
	// persistPattern 表示"今后都这样"的措辞
	persistPattern = regexp.MustCompile(`(?i)これから|今後|以降|ずっと|デフォルト設定に|以後|from now on|henceforth|by default|going forward`)

	frankPattern   = regexp.MustCompile(`(?i)フランク|ため口|ﾀﾒ口|タメ口|カジュアル|砕けた|\bcasual(ly)?\b|\bfrank\b`)
	simplePattern  = regexp.MustCompile(`(?i)シンプルに|簡単に|要点だけ|短く|端的に|\bsimply\b|\bbriefly\b|keep it short`)
	politePattern  = regexp.MustCompile(`(?i)丁寧に|敬語で|丁寧な口調で|\bpolitely\b|\bformal(ly)?\b`)
	restorePattern = regexp.MustCompile(`(?i)元に戻して|デフォルトに戻して|普通で|back to normal|reset (the )?tone`)
)

// rule 一条口吻规则
type rule struct {
	pattern *regexp.Regexp
	tone    models.Tone
	always  bool // 无论是否出现持续性措辞都写入会话
}

// rules 的顺序即优先级，不可调整
var rules = []rule{
	{pattern: frankPattern, tone: models.ToneFrank},
	{pattern: simplePattern, tone: models.ToneSimple},
	{pattern: politePattern, tone: models.TonePolite},
	{pattern: restorePattern, tone: models.TonePolite, always: true},
}

// Classify 识别消息中的口吻请求，未命中时返回nil
func Classify(text string) *models.ToneDirective {
	for _, r := range rules {
		if !r.pattern.MatchString(text) {
			continue
		}
		return &models.ToneDirective{
			Tone:    r.tone,
			Persist: r.always || persistPattern.MatchString(text),
		}
	}
	return nil
}

// Resolve 结合会话当前口吻和识别结果，返回本次使用的口吻以及需要写回会话的口吻
func Resolve(current models.Tone, directive *models.ToneDirective) (applied models.Tone, persisted models.Tone) {
	if !current.Valid() {
		current = models.DefaultTone
	}
	if directive == nil {
		return current, current
	}
	if directive.Persist {
		return directive.Tone, directive.Tone
	}
	return directive.Tone, current
}
