package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watcher waits for a burst of writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher signals on C when the snapshot file changes. Bursts of events
// within the debounce window produce one signal; signals never queue beyond
// one.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   logging.Logger
	fs       *fsnotify.Watcher
	c        chan struct{}
}

// NewWatcher watches the directory holding path, so files replaced by rename
// are still noticed.
func NewWatcher(path string, debounce time.Duration, logger logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		logger:   logger.With("snapshot", abs),
		fs:       fw,
		c:        make(chan struct{}, 1),
	}, nil
}

// C delivers change signals.
func (w *Watcher) C() <-chan struct{} { return w.c }

// Run processes events until ctx is done, then closes the watcher. It
// returns an error only if the event stream ends unexpectedly.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
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

		case ev, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("snapshot watcher closed")
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.logger.Debug(ctx, "snapshot file changed")
			select {
			case w.c <- struct{}{}:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("snapshot watcher closed")
			}
			w.logger.Warn(ctx, "snapshot watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
