// Package watcher provides file system watching with debouncing for mapping directories.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/entityreg/internal/log"
)

// ErrNothingToWatch is returned by Start when none of the directories exist.
var ErrNothingToWatch = errors.New("no existing directory to watch")

// Change reports the directories whose mapping files changed during one debounce window.
type Change struct {
	Dirs []string
}

// Watcher monitors mapping directories for changes and sends notifications.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dirs      []string
	suffix    string
	debounce  time.Duration
	onChange  chan Change
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Dirs        []string
	Suffix      string // only files ending in Suffix are relevant; empty matches all
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(suffix string, dirs ...string) Config {
	return Config{
		Dirs:        dirs,
		Suffix:      suffix,
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a new mapping directory watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dirs:      append([]string(nil), cfg.Dirs...),
		suffix:    cfg.Suffix,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan Change, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching every existing directory. Missing directories are
// skipped. Returns a channel that receives a Change after each burst of events.
func (w *Watcher) Start() (<-chan Change, error) {
	watched := 0
	for _, dir := range w.dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			log.Warn(log.CatWatcher, "skipping missing directory", "dir", dir)
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		watched++
		log.Debug(log.CatWatcher, "watching", "dir", dir)
	}
	if watched == 0 {
		return nil, ErrNothingToWatch
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var timer *time.Timer
	pending := make(map[string]bool)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.Dir(event.Name)] = true

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) == 0 {
				continue
			}
			change := Change{Dirs: make([]string, 0, len(pending))}
			for dir := range pending {
				change.Dirs = append(change.Dirs, dir)
			}
			sort.Strings(change.Dirs)
			pending = make(map[string]bool)

			// Non-blocking send - drop if channel full
			select {
			case w.onChange <- change:
			default:
				log.Debug(log.CatWatcher, "change dropped, consumer busy", "dirs", change.Dirs)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a reload.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.suffix == "" || strings.HasSuffix(filepath.Base(event.Name), w.suffix)
}
