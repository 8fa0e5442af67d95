package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/models"
)

func TestToneInstruction_DistinctPerTone(t *testing.T) {
	polite := ToneInstruction(models.TonePolite)
	frank := ToneInstruction(models.ToneFrank)
	simple := ToneInstruction(models.ToneSimple)

	assert.NotEqual(t, polite, frank)
	assert.NotEqual(t, polite, simple)
	assert.NotEqual(t, frank, simple)
	// 未知口吻按丁寧处理
	assert.Equal(t, polite, ToneInstruction("unknown"))
}

func TestAssembler_BuildOrder(t *testing.T) {
	a := NewAssembler("")
	history := []models.Turn{
		{Role: models.RoleUser, Content: "こんにちは"},
		{Role: models.RoleAssistant, Content: "ご相談をどうぞ"},
	}

	got := a.Build(history, models.ToneFrank, "賃料相場を教えて")

	want := []models.Turn{
		{Role: models.RoleSystem, Content: BasePolicy},
		{Role: models.RoleSystem, Content: ToneInstruction(models.ToneFrank)},
		{Role: models.RoleSystem, Content: ContinuityInstruction},
		{Role: models.RoleUser, Content: "こんにちは"},
		{Role: models.RoleAssistant, Content: "ご相談をどうぞ"},
		{Role: models.RoleUser, Content: "賃料相場を教えて"},
	}
	assert.Equal(t, want, got)
}

func TestAssembler_BuildDoesNotAliasHistory(t *testing.T) {
	a := NewAssembler("")
	history := make([]models.Turn, 1, 10)
	history[0] = models.Turn{Role: models.RoleUser, Content: "q"}

	got := a.Build(history, models.TonePolite, "next")
	got[3].Content = "changed"

	assert.Equal(t, "q", history[0].Content)
}

func TestAssembler_SetPolicy(t *testing.T) {
	a := NewAssembler("  custom policy \n")
	assert.Equal(t, "custom policy", a.Policy())

	a.SetPolicy("")
	assert.Equal(t, BasePolicy, a.Policy())
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("file policy"), 0o600))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "file policy", policy)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestPolicyWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	a := NewAssembler("v1")
	w, err := NewPolicyWatcher(path, a)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))

	assert.Eventually(t, func() bool {
		return a.Policy() == "v2"
	}, 2*time.Second, 20*time.Millisecond)

	// 其他文件的变更不影响方针
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("v3"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "v2", a.Policy())
}
