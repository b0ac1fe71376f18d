package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 监听配置文件，写入/创建后重新加载并回调。
// 监听的是所在目录，编辑器以 rename 方式保存时也能收到事件。
type Watcher struct {
	Path      string
	Cooldown  time.Duration // 冷却时间，避免一次保存触发多次
	Overrides []Override    // 每次重新加载后、校验前应用
	Log       *zap.Logger
}

// Start 阻塞直到 ctx 结束；只有通过校验的配置才会传给 onUpdate。
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	target := filepath.Clean(w.Path)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// 只处理写入和创建事件
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.Cooldown > 0 && time.Since(last) < w.Cooldown {
				continue
			}
			cfg, err := LoadWithEnvOverrides(target, w.Overrides...)
			if err != nil {
				log.Warn("config_reload_rejected", zap.String("path", target), zap.Error(err))
				continue
			}
			last = time.Now()
			log.Info("config_reloaded", zap.String("path", target))
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			// 记录错误但继续监听
			log.Warn("config_watch_error", zap.Error(err))
		}
	}
}
