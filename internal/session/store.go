package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"rentmate/internal/models"
)

// StoreConfig 会话存储配置
type StoreConfig struct {
	MaxTurns int           // 保留的最大往返轮数，历史上限为 2*MaxTurns 条
	Capacity int           // 最多保留的会话数，超出时淘汰最久未使用的
	IdleTTL  time.Duration // 会话闲置过期时间，<=0 表示不过期
}

// Session 单个会话的状态
type Session struct {
	mu      sync.Mutex
	tone    models.Tone
	history []models.Turn
}

// Store 按会话标识保存口吻和对话历史
//
// 表级锁只在查找/创建时持有，会话内的修改由各自的锁串行化，
// 不同会话之间互不阻塞。
type Store struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, *Session]
	maxTurns int
}

// NewStore 创建会话存储
func NewStore(config StoreConfig) *Store {
	if config.MaxTurns <= 0 {
		config.MaxTurns = 8
	}
	if config.Capacity <= 0 {
		config.Capacity = 10000
	}
	return &Store{
		cache:    expirable.NewLRU[string, *Session](config.Capacity, nil, config.IdleTTL),
		maxTurns: config.MaxTurns,
	}
}

// get 获取或创建会话，并刷新其过期时间
func (s *Store) get(sid string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.cache.Get(sid); ok {
		s.cache.Add(sid, sess)
		return sess
	}
	sess := &Session{tone: models.DefaultTone}
	s.cache.Add(sid, sess)
	return sess
}

// maxMessages 历史消息条数上限
func (s *Store) maxMessages() int {
	return s.maxTurns * 2
}

// History 返回会话历史的副本，会话不存在时创建空会话
func (s *Store) History(sid string) []models.Turn {
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return cloneTurns(sess.history)
}

// AppendTurn 追加一条消息，超出上限时从最旧的开始丢弃
func (s *Store) AppendTurn(sid string, role models.Role, content string) {
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.append(models.Turn{Role: role, Content: content}, s.maxMessages())
}

// AppendExchange 在同一临界区内追加一问一答
func (s *Store) AppendExchange(sid string, userMessage, reply string) {
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	limit := s.maxMessages()
	sess.append(models.Turn{Role: models.RoleUser, Content: userMessage}, limit)
	sess.append(models.Turn{Role: models.RoleAssistant, Content: reply}, limit)
}

// Reset 清空历史并恢复默认口吻
func (s *Store) Reset(sid string) {
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.history = nil
	sess.tone = models.DefaultTone
}

// Tone 返回会话当前口吻
func (s *Store) Tone(sid string) models.Tone {
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.tone
}

// SetTone 设置会话口吻，无效值被忽略
func (s *Store) SetTone(sid string, tone models.Tone) {
	if !tone.Valid() {
		return
	}
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.tone = tone
}

// Snapshot 在同一临界区内更新口吻并取得历史副本
//
// resolve 接收会话当前口吻，返回本次使用的口吻和需要写回的口吻。
func (s *Store) Snapshot(sid string, resolve func(current models.Tone) (applied, persisted models.Tone)) (models.Tone, []models.Turn) {
	sess := s.get(sid)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	applied, persisted := resolve(sess.tone)
	if persisted.Valid() {
		sess.tone = persisted
	}
	return applied, cloneTurns(sess.history)
}

// Exists 判断会话是否仍在存储中，不刷新过期时间
func (s *Store) Exists(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Contains(sid)
}

// Len 返回当前保留的会话数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

func (sess *Session) append(turn models.Turn, limit int) {
	sess.history = append(sess.history, turn)
	if over := len(sess.history) - limit; over > 0 {
		// 重新分配，避免底层数组无限增长
		sess.history = append([]models.Turn(nil), sess.history[over:]...)
	}
}

func cloneTurns(turns []models.Turn) []models.Turn {
	copied := make([]models.Turn, len(turns))
	copy(copied, turns)
	return copied
}
