package resolver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"autopress/internal/logging"
)

// Watcher reloads the resolver when either artifact file changes on disk.
// Edits are debounced because editors fire several events per save; a bad
// edit keeps the previous snapshot live and logs the parse error.
type Watcher struct {
	resolver *Resolver
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	done     chan struct{}
}

const debounceWindow = 500 * time.Millisecond

// Watch starts watching the resolver's artifact files.
func Watch(r *Resolver) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch parent directories: editors replace files on save, which drops
	// a watch registered on the file itself.
	dirs := map[string]struct{}{
		filepath.Dir(r.selectorPath):    {},
		filepath.Dir(r.instructionPath): {},
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{resolver: r, watcher: fsw, cancel: cancel, done: make(chan struct{})}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	targets := map[string]struct{}{
		filepath.Clean(w.resolver.selectorPath):    {},
		filepath.Clean(w.resolver.instructionPath): {},
	}

	var pending time.Time
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, watched := targets[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.Now()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.ResolverWarn("artifact watch error: %v", err)
		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounceWindow {
				continue
			}
			pending = time.Time{}
			if err := w.resolver.Reload(); err != nil {
				logging.ResolverWarn("artifact reload failed, keeping previous snapshot: %v", err)
			} else {
				logging.Resolver("artifacts reloaded after edit")
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}
