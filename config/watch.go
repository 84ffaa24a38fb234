package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Time the file has to stay quiet before a reload. Editors write in bursts,
// one save can produce several events.
const settleDelay = 3 * time.Second

type Watcher struct {
	cfgs chan *Config
	err  error
}

// Configs delivers a fresh config after the file settles. The channel is
// closed when the watcher stops, Err tells why.
func (w *Watcher) Configs() <-chan *Config {
	return w.cfgs
}

func (w *Watcher) Err() error {
	return w.err
}

// Watch reports changes to the config file at path. It watches the
// directory holding the file rather than the file itself: editors that
// save by renaming a temp file over the original would orphan a watch
// on the old inode.
func Watch(ctx context.Context, path string) *Watcher {
	w := &Watcher{cfgs: make(chan *Config)}

	go func() {
		defer close(w.cfgs)

		name := filepath.Clean(path)
		watcher, err := createWatcher(filepath.Dir(name))
		if err != nil {
			w.err = fmt.Errorf("failed to create file watcher: %v", err)
			return
		}
		defer watcher.Close()

		var debounce <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				w.err = ctx.Err()
				return

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watcher error", "error", err)

			case event, ok := <-watcher.Events:
				if !ok {
					slog.Debug("watcher events closed")
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				slog.Debug("watcher event", "event", event)
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				debounce = time.After(settleDelay)

			case <-debounce:
				debounce = nil
				cfg, err := ReadConfig(path)
				if err != nil {
					slog.Warn("failed to read config", "error", err)
					continue
				}
				slog.Debug("sending config")
				w.cfgs <- cfg
			}
		}
	}()

	return w
}

func createWatcher(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %v", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %v", dir, err)
	}
	return watcher, nil
}
