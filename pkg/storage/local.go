package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Local implements Storage on the local filesystem. Writes go through a
// temp file plus rename so readers never observe a half-written document.
type Local struct {
	root string
	mu   sync.RWMutex
}

// NewLocal creates a Local store rooted at root, creating the directory
// if needed.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, dirMode); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory of the store.
func (s *Local) Root() string {
	return s.root
}

func (s *Local) resolve(path string) string {
	return filepath.Join(s.root, filepath.Clean(path))
}

func (s *Local) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (s *Local) Write(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), dirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file for %s: %w", path, err)
	}
	return nil
}

func (s *Local) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.resolve(path)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *Local) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.resolve(prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		paths = append(paths, strings.TrimPrefix(filepath.Join(prefix, entry.Name()), "/"))
	}
	return paths, nil
}

func (s *Local) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.resolve(path)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}
