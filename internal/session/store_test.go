package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/models"
)

func TestStore_GetOrCreate(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})

	assert.False(t, store.Exists("a"))
	assert.Empty(t, store.History("a"))
	assert.True(t, store.Exists("a"))
	assert.Equal(t, models.TonePolite, store.Tone("a"))
}

func TestStore_HistoryCap(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})

	for i := 0; i < 12; i++ {
		store.AppendExchange("sid", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history := store.History("sid")
	require.Len(t, history, 16)
	// 最旧的4轮被丢弃
	assert.Equal(t, models.Turn{Role: models.RoleUser, Content: "q4"}, history[0])
	assert.Equal(t, models.Turn{Role: models.RoleAssistant, Content: "a4"}, history[1])
	assert.Equal(t, models.Turn{Role: models.RoleAssistant, Content: "a11"}, history[15])
}

func TestStore_AppendTurnTruncatesOneAtATime(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 1, Capacity: 10})

	store.AppendTurn("sid", models.RoleUser, "1")
	store.AppendTurn("sid", models.RoleAssistant, "2")
	store.AppendTurn("sid", models.RoleUser, "3")

	assert.Equal(t, []models.Turn{
		{Role: models.RoleAssistant, Content: "2"},
		{Role: models.RoleUser, Content: "3"},
	}, store.History("sid"))
}

func TestStore_HistoryIsCopy(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})
	store.AppendExchange("sid", "q", "a")

	history := store.History("sid")
	history[0].Content = "changed"

	assert.Equal(t, "q", store.History("sid")[0].Content)
}

func TestStore_Reset(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})
	store.AppendExchange("sid", "q", "a")
	store.SetTone("sid", models.ToneFrank)

	store.Reset("sid")

	assert.Empty(t, store.History("sid"))
	assert.Equal(t, models.TonePolite, store.Tone("sid"))

	// 对不存在的会话重置也是安全的
	store.Reset("unknown")
	assert.Empty(t, store.History("unknown"))
}

func TestStore_SetToneIgnoresInvalid(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})
	store.SetTone("sid", models.ToneSimple)
	store.SetTone("sid", "shouting")
	assert.Equal(t, models.ToneSimple, store.Tone("sid"))
}

func TestStore_Snapshot(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})
	store.AppendExchange("sid", "q", "a")

	applied, history := store.Snapshot("sid", func(current models.Tone) (models.Tone, models.Tone) {
		assert.Equal(t, models.TonePolite, current)
		return models.ToneSimple, models.ToneFrank
	})

	assert.Equal(t, models.ToneSimple, applied)
	assert.Len(t, history, 2)
	assert.Equal(t, models.ToneFrank, store.Tone("sid"))
}

func TestStore_Isolation(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10})
	store.AppendExchange("a", "qa", "aa")
	store.SetTone("a", models.ToneFrank)

	assert.Empty(t, store.History("b"))
	assert.Equal(t, models.TonePolite, store.Tone("b"))
}

func TestStore_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 2})
	store.AppendExchange("a", "q", "a")
	store.AppendExchange("b", "q", "a")
	// 访问a，使b成为最久未使用
	store.History("a")
	store.AppendExchange("c", "q", "a")

	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Exists("a"))
	assert.False(t, store.Exists("b"))
	assert.True(t, store.Exists("c"))
}

func TestStore_IdleTTL(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 8, Capacity: 10, IdleTTL: 50 * time.Millisecond})
	store.AppendExchange("sid", "q", "a")

	// Exists 不刷新过期时间
	assert.Eventually(t, func() bool {
		return !store.Exists("sid")
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, store.History("sid"))
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := NewStore(StoreConfig{MaxTurns: 100, Capacity: 100})

	var wg sync.WaitGroup
	for s := 0; s < 4; s++ {
		sid := fmt.Sprintf("sid-%d", s)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				store.AppendExchange(sid, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
			}(i)
		}
	}
	wg.Wait()

	for s := 0; s < 4; s++ {
		history := store.History(fmt.Sprintf("sid-%d", s))
		require.Len(t, history, 50)
		// 一问一答总是相邻
		for i := 0; i < len(history); i += 2 {
			assert.Equal(t, models.RoleUser, history[i].Role)
			assert.Equal(t, models.RoleAssistant, history[i+1].Role)
			assert.Equal(t, history[i].Content[1:], history[i+1].Content[1:])
		}
	}
}
