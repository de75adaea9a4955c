package persona

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the personas file whenever it changes on disk and passes the
// merged registry to onChange. It blocks until ctx is done. Invalid files are
// logged and skipped so the last good registry stays in effect.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*Registry)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create personas watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve personas file: %w", err)
	}
	// Editors often replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch personas dir: %w", err)
	}
	logger.Debug("watching personas file", zap.String("path", abs))

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("personas watcher error", zap.Error(err))
		case <-timer.C:
			reg, err := Load(abs)
			if err != nil {
				logger.Warn("personas reload failed", zap.String("path", abs), zap.Error(err))
				continue
			}
			logger.Info("personas reloaded", zap.String("path", abs), zap.Int("count", len(reg.personas)))
			onChange(reg)
		}
	}
}
