package rules

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
)

// debounceInterval is the delay after an fsnotify event before checking
// the file checksum, letting rapid event bursts (editor write + rename)
// settle into a single notification.
const debounceInterval = 100 * time.Millisecond

// Watcher observes the rule file on disk and publishes a rules_changed
// event when its content actually changes, so evaluations pick up hand
// edits without a restart and the UI can refresh.
type Watcher struct {
	path     string
	bus      *eventbus.Bus
	lastHash [sha256.Size]byte
}

func NewWatcher(path string, bus *eventbus.Bus) *Watcher {
	return &Watcher{path: path, bus: bus}
}

// Run blocks until ctx is canceled. A missing file is fine: the create
// event fires once the repository seeds it.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory, not the file itself. Editors and the
	// local storage backend do atomic replace (write temp file, rename),
	// which changes the inode; watching the directory catches the rename.
	watchDir := filepath.Dir(w.path)
	fileName := filepath.Base(w.path)
	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("watch directory %s: %w", watchDir, err)
	}

	if h, err := hashFile(w.path); err == nil {
		w.lastHash = h
	}
	slog.InfoContext(ctx, "watching rule file", slog.String("path", w.path))

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, func() {
				w.checkChanged(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "rule file watcher error", slog.String("error", err.Error()))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) checkChanged(ctx context.Context) {
	newHash, err := hashFile(w.path)
	if err != nil {
		slog.WarnContext(ctx, "failed to hash rule file", slog.String("error", err.Error()))
		return
	}
	if newHash == w.lastHash {
		return
	}
	w.lastHash = newHash
	slog.InfoContext(ctx, "rule file changed on disk", slog.String("path", w.path))
	w.bus.PublishNew(eventbus.EventTypeRulesChanged, filepath.Base(w.path), "", nil)
}

func hashFile(path string) ([sha256.Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [sha256.Size]byte{}, err
	}
	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result, nil
}
