package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "startright/internal/log"
)

const defaultReloadDebounce = 500 * time.Millisecond

// Watch reloads the config at path whenever it changes on disk and hands the
// new value to onChange. The parent directory is watched rather than the
// file itself so editors that replace files via rename are picked up too.
// A config that fails to load, or a file that disappears, is logged and
// skipped; onChange is not called.
//
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer w.Close()

	if debounce <= 0 {
		debounce = defaultReloadDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		// Load writes defaults for a missing file; a file that was moved
		// or deleted away must not be replaced behind the operator's back.
		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("config file is gone; keeping previous config", "path", abs)
			return
		}
		cfg, err := Load(abs)
		if err != nil {
			appLog.Error("config reload failed; keeping previous config", err, "path", abs)
			return
		}
		appLog.Info("config reloaded", "path", abs)
		onChange(cfg)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
