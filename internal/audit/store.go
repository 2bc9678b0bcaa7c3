package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ScreenshotStore persists screenshot bytes under a task-scoped key and
// returns a stable path for the trail.
type ScreenshotStore interface {
	Save(taskID, label string, png []byte) (string, error)
}

// NopStore silently discards screenshots. Used when no audit directory is
// configured; discarding is not a failure, so no trail event results.
type NopStore struct{}

func (NopStore) Save(taskID, label string, png []byte) (string, error) {
	return "", nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FSStore writes screenshots under root/<task>/<seq>_<label>.png. The
// sequence prefix keeps directory listings in capture order.
type FSStore struct {
	root string

	mu  sync.Mutex
	seq map[string]int
}

// NewFSStore creates a filesystem-backed store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &FSStore{root: dir, seq: make(map[string]int)}, nil
}

func (s *FSStore) Save(taskID, label string, png []byte) (string, error) {
	task := unsafeChars.ReplaceAllString(taskID, "_")
	dir := filepath.Join(s.root, task)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create task dir: %w", err)
	}
	s.mu.Lock()
	s.seq[task]++
	n := s.seq[task]
	s.mu.Unlock()
	name := fmt.Sprintf("%03d_%s.png", n, unsafeChars.ReplaceAllString(label, "_"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}
