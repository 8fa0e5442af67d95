package prompt

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// LoadPolicy 从文件读取基础方针
func LoadPolicy(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取方针文件失败: %w", err)
	}
	return string(data), nil
}

// PolicyWatcher 监听方针文件，变更后重新加载到Assembler
type PolicyWatcher struct {
	path      string
	assembler *Assembler
	watcher   *fsnotify.Watcher
}

// NewPolicyWatcher 创建方针文件监听器
//
// 监听的是文件所在目录，编辑器以重命名方式保存时也能收到事件。
func NewPolicyWatcher(path string, assembler *Assembler) (*PolicyWatcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("解析方针文件路径失败: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听失败: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}

	return &PolicyWatcher{
		path:      path,
		assembler: assembler,
		watcher:   watcher,
	}, nil
}

// Run 处理文件事件直到ctx结束
func (w *PolicyWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] 方针文件监听错误: %v", err)
		}
	}
}

// reload 读取失败时保留原有方针
func (w *PolicyWatcher) reload() {
	policy, err := LoadPolicy(w.path)
	if err != nil {
		log.Printf("[WARN] %v，继续使用当前方针", err)
		return
	}
	w.assembler.SetPolicy(policy)
	log.Printf("[INFO] 已重新加载方针文件: %s", w.path)
}
