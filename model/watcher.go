package model

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 监听本地模型文件，文件被覆盖/替换后重新加载并回调 onReload。
// 加载或校验失败时保留旧模型，只记录日志。
type Watcher struct {
	path     string
	loader   ArtifactLoader
	onReload func(*Artifact)
	debounce time.Duration
	logger   *zap.Logger
}

// WatcherOption 配置 Watcher。
type WatcherOption func(*Watcher)

// WithDebounce 设置合并连续文件事件的等待时间。
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger 设置日志。
func WithWatcherLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher 创建文件监听器。
func NewWatcher(path string, onReload func(*Artifact), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		loader:   NewFileLoader(),
		onReload: onReload,
		debounce: 500 * time.Millisecond,
		logger:   zap.L(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run 阻塞监听直到 ctx 结束。监听的是文件所在目录，以兼容“写临时文件再 rename”的发布方式。
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching artifact file", zap.String("path", w.path))

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("artifact watcher error", zap.Error(err))
		case <-timerC:
			timerC = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	a, err := w.loader.Load(ctx, w.path)
	if err != nil {
		w.logger.Error("reload artifact failed, keeping current model", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("artifact reloaded",
		zap.String("path", w.path),
		zap.String("version", a.Version()),
		zap.Int("features", a.FeatureVectorLen()),
	)
	if w.onReload != nil {
		w.onReload(a)
	}
}
