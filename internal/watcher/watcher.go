// Package watcher triggers automatic snapshot captures when a watched
// project's lockfile changes on disk.
//
// Package managers and editors rarely write a lockfile in one event:
// installs produce a burst of writes, renames and chmods. The watcher
// therefore debounces per project and fires one capture per quiet
// period instead of one per filesystem event.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/depsnap/internal/snapshot"
)

// DefaultDebounce is how long a project's lockfile must stay quiet
// before a capture fires.
const DefaultDebounce = 2 * time.Second

// lockfileNames are the filenames whose changes trigger a capture.
var lockfileNames = map[string]bool{
	"pnpm-lock.yaml":    true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"bun.lockb":         true,
}

// Watcher monitors project directories and fires lockfile-change
// captures through a snapshot Manager.
type Watcher struct {
	manager  *snapshot.Manager
	fsw      *fsnotify.Watcher
	debounce time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*time.Timer // project path -> pending debounce timer
}

// New creates a Watcher that captures through the given manager.
func New(manager *snapshot.Manager) (*Watcher, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager cannot be nil")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	return &Watcher{
		manager:  manager,
		fsw:      fsw,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// SetDebounce overrides the quiet period. Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// AddProject registers a project directory for lockfile watching.
func (w *Watcher) AddProject(projectPath string) error {
	info, err := os.Stat(projectPath)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", projectPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch %s: not a directory", projectPath)
	}

	if err := w.fsw.Add(projectPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", projectPath, err)
	}

	return nil
}

// Start begins processing filesystem events in a background goroutine.
func (w *Watcher) Start() error {
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop halts event processing and cancels any pending captures.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if isLockfileEvent(event) {
				w.schedule(filepath.Dir(event.Name))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "depsnap watch: filesystem error: %v\n", err)

		case <-w.stopCh:
			return
		}
	}
}

// isLockfileEvent reports whether an event is a content-affecting
// change to one of the supported lockfiles.
func isLockfileEvent(event fsnotify.Event) bool {
	if !lockfileNames[filepath.Base(event.Name)] {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// schedule (re)arms the debounce timer for a project. Every new event
// pushes the capture back until the lockfile has been quiet for the
// full debounce window.
func (w *Watcher) schedule(projectPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[projectPath]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.timers[projectPath] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, projectPath)
		w.mu.Unlock()

		select {
		case <-w.stopCh:
			return
		default:
		}

		snap, err := w.manager.CaptureOnLockfileChange(context.Background(), projectPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depsnap watch: capture of %s failed: %v\n", projectPath, err)
			return
		}
		fmt.Printf("depsnap watch: captured %s (snapshot %s, %d dependencies)\n",
			projectPath, snap.ID, snap.TotalDependencies)
	})
}
