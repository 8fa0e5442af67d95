package prompt

import (
	"strings"
	"sync/atomic"

	"rentmate/internal/models"
)

// Assembler 按固定顺序组装指令：基础方针、口吻、连续性、历史、本次消息
type Assembler struct {
	policy atomic.Pointer[string]
}

// NewAssembler 创建指令组装器，policy为空时使用内置方针
func NewAssembler(policy string) *Assembler {
	a := &Assembler{}
	a.SetPolicy(policy)
	return a
}

// SetPolicy 替换基础方针，可在运行中调用
func (a *Assembler) SetPolicy(policy string) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		policy = BasePolicy
	}
	a.policy.Store(&policy)
}

// Policy 返回当前的基础方针
func (a *Assembler) Policy() string {
	return *a.policy.Load()
}

// Build 组装本次请求的指令列表，history按时间顺序排列
func (a *Assembler) Build(history []models.Turn, tone models.Tone, userMessage string) []models.Turn {
	messages := make([]models.Turn, 0, len(history)+4)
	messages = append(messages,
		models.Turn{Role: models.RoleSystem, Content: a.Policy()},
		models.Turn{Role: models.RoleSystem, Content: ToneInstruction(tone)},
		models.Turn{Role: models.RoleSystem, Content: ContinuityInstruction},
	)
	messages = append(messages, history...)
	messages = append(messages, models.Turn{Role: models.RoleUser, Content: userMessage})
	return messages
}
