// Package watch follows schema and instance files on disk and turns their
// changes into cache invalidations.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/propinspect/pkg/inspector"
)

// DefaultDebounce is used when no debounce option is given.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoTargets is returned by New when there is nothing to watch.
var ErrNoTargets = errors.New("no files to watch")

// Kind says what a watched file holds.
type Kind int

const (
	KindSchema Kind = iota
	KindInstance
)

func (k Kind) String() string {
	if k == KindSchema {
		return "schema"
	}
	return "instance"
}

// Target is one watched file and the cache id it feeds.
type Target struct {
	Path string
	Kind Kind
	ID   string
}

// Event reports a settled change to a target. Removed is set when the file
// no longer exists once the burst has settled.
type Event struct {
	Target
	Removed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period per file.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// Watcher delivers debounced change events for a fixed set of files. The
// containing directories are watched so editors that replace files on save
// are followed.
type Watcher struct {
	targets  map[string]Target
	dirs     []string
	debounce time.Duration
	log      logr.Logger

	mu      sync.Mutex
	started bool
}

// New prepares a watcher for targets.
func New(targets []Target, opts ...Option) (*Watcher, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	w := &Watcher{
		targets:  make(map[string]Target, len(targets)),
		debounce: DefaultDebounce,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	seen := make(map[string]bool)
	for _, t := range targets {
		abs, err := filepath.Abs(t.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", t.Path, err)
		}
		t.Path = abs
		w.targets[abs] = t
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Run watches until ctx is done, calling handle for every settled change.
// handle runs on the caller's goroutine, one event at a time.
func (w *Watcher) Run(ctx context.Context, handle func(Event)) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.started = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.log.V(1).Info("watching directory", "dir", dir)
	}

	settled := make(chan string)
	deb := NewDebouncer(w.debounce, func(path string) {
		select {
		case settled <- path:
		case <-ctx.Done():
		}
	})
	defer deb.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if _, watched := w.targets[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.log.V(2).Info("file event", "path", ev.Name, "op", ev.Op.String())
			deb.Trigger(filepath.Clean(ev.Name))
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "file watcher error")
		case path := <-settled:
			t := w.targets[path]
			_, statErr := os.Stat(path)
			handle(Event{Target: t, Removed: errors.Is(statErr, os.ErrNotExist)})
		}
	}
}

// Apply forwards an event to the cache: schema edits mark the schema
// changed, instance edits mark the instance dirty, and removals close the
// matching entry.
func Apply(c *inspector.Cache, ev Event) {
	switch {
	case ev.Kind == KindSchema && ev.Removed:
		c.OnSchemaDeleted(ev.ID)
	case ev.Kind == KindSchema:
		c.OnSchemaChanged(ev.ID)
	case ev.Removed:
		c.OnInstanceClosed(ev.ID)
	default:
		c.MarkInstanceDirty(ev.ID)
	}
}
