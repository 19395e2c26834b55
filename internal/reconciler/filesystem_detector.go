package reconciler

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hawk/pkg/logging"
)

// DefaultDebounce is how long the detector waits for further changes to a path.
const DefaultDebounce = 500 * time.Millisecond

// FilesystemDetector implements ChangeDetector with fsnotify.
//
// fsnotify watches single directories, so every directory below an added path
// is watched individually and directories created later are added as they
// appear. Changes to the same path within the debounce interval collapse into
// one event.
type FilesystemDetector struct {
	mu sync.RWMutex

	// roots are the paths passed to AddPath.
	roots []string

	// ignore filters paths that never trigger a sync.
	ignore func(path string) bool

	watcher          *fsnotify.Watcher
	debounceInterval time.Duration
	pending          map[string]*debounceEntry
	stopCh           chan struct{}
	running          bool
}

type debounceEntry struct {
	event ChangeEvent
	timer *time.Timer
}

// NewFilesystemDetector creates a detector. ignore may be nil; temporary files
// written by the engine are always ignored.
func NewFilesystemDetector(debounceInterval time.Duration, ignore func(path string) bool) *FilesystemDetector {
	if debounceInterval == 0 {
		debounceInterval = DefaultDebounce
	}
	return &FilesystemDetector{
		ignore:           ignore,
		debounceInterval: debounceInterval,
		pending:          make(map[string]*debounceEntry),
		stopCh:           make(chan struct{}),
	}
}

// IgnoreBelow returns an ignore filter for everything at or below the given paths.
func IgnoreBelow(paths ...string) func(string) bool {
	return func(p string) bool {
		for _, root := range paths {
			if within(root, p) {
				return true
			}
		}
		return false
	}
}

// Start begins watching every added path.
func (d *FilesystemDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	roots := append([]string(nil), d.roots...)
	d.mu.Unlock()

	for _, root := range roots {
		if err := d.watchTree(root); err != nil {
			logging.Warn("FilesystemDetector", "Failed to watch %s: %v", root, err)
		}
	}

	go d.processEvents(ctx, changes)

	logging.Info("FilesystemDetector", "Watching %d path(s) for changes", len(roots))
	return nil
}

// AddPath watches path and every directory below it.
func (d *FilesystemDetector) AddPath(path string) error {
	d.mu.Lock()
	d.roots = append(d.roots, filepath.Clean(path))
	running := d.running
	d.mu.Unlock()

	if running {
		return d.watchTree(path)
	}
	return nil
}

// watchTree adds a watch for root and each directory below it.
func (d *FilesystemDetector) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if d.ignored(path) {
			return filepath.SkipDir
		}
		d.mu.RLock()
		watcher := d.watcher
		d.mu.RUnlock()
		if watcher == nil {
			return filepath.SkipAll
		}
		if err := watcher.Add(path); err != nil {
			return err
		}
		logging.Debug("FilesystemDetector", "Watching directory: %s", path)
		return nil
	})
}

func (d *FilesystemDetector) ignored(path string) bool {
	if strings.Contains(filepath.Base(path), tempInfix) {
		return true
	}
	return d.ignore != nil && d.ignore(path)
}

func (d *FilesystemDetector) processEvents(ctx context.Context, changes chan<- ChangeEvent) {
	d.mu.RLock()
	watcher, stopCh := d.watcher, d.stopCh
	d.mu.RUnlock()
	defer d.dropPending()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if d.ignored(ev.Name) {
				continue
			}
			op, ok := classify(ev.Op)
			if !ok {
				continue
			}
			if op == OperationCreate {
				// A new directory needs its own watch; files fail the walk harmlessly.
				if err := d.watchTree(ev.Name); err != nil {
					logging.Debug("FilesystemDetector", "Not watching %s: %v", ev.Name, err)
				}
			}
			d.schedule(ChangeEvent{Path: ev.Name, Operation: op, Timestamp: time.Now()}, changes)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("FilesystemDetector", err, "Watcher error")
		}
	}
}

// classify maps an fsnotify op to a change operation. Chmod-only events are
// dropped. A rename reports the old name as deleted; the new name arrives as
// a create.
func classify(op fsnotify.Op) (ChangeOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OperationCreate, true
	case op.Has(fsnotify.Write):
		return OperationUpdate, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OperationDelete, true
	}
	return "", false
}

// schedule holds ev back until its path has been quiet for the debounce
// interval, folding it into any event already waiting for that path.
func (d *FilesystemDetector) schedule(ev ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[ev.Path]; ok {
		prev.timer.Stop()
		ev.Operation = mergeOperations(prev.event.Operation, ev.Operation)
	}
	path := ev.Path
	d.pending[path] = &debounceEntry{
		event: ev,
		timer: time.AfterFunc(d.debounceInterval, func() { d.emit(path, changes) }),
	}
}

func (d *FilesystemDetector) emit(path string, changes chan<- ChangeEvent) {
	d.mu.Lock()
	entry, ok := d.pending[path]
	delete(d.pending, path)
	d.mu.Unlock()
	if !ok {
		return
	}

	select {
	case changes <- entry.event:
		logging.Debug("FilesystemDetector", "%s %s", entry.event.Operation, path)
	default:
		// The consumer re-resolves everything on any event, so one lost
		// event is covered by the next.
		logging.Warn("FilesystemDetector", "Change queue full, dropped %s", path)
	}
}

// mergeOperations folds a later operation on a path into an earlier one. A
// file that was created and then written is still new; anything else takes
// the later operation.
func mergeOperations(earlier, later ChangeOperation) ChangeOperation {
	if earlier == OperationCreate && later != OperationDelete {
		return OperationCreate
	}
	return later
}

func (d *FilesystemDetector) dropPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, path)
	}
}

// Stop closes the watcher. It is safe to call more than once.
func (d *FilesystemDetector) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	watcher := d.watcher
	d.watcher = nil
	d.mu.Unlock()

	if err := watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	logging.Debug("FilesystemDetector", "Stopped")
	return nil
}
