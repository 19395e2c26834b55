package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"hawk/internal/adapter"
)

// tempInfix marks in-flight temporary files so watchers can ignore them.
const tempInfix = ".hawk-tmp-"

// markerWindow is how much of a file is read to find the generated marker.
const markerWindow = 512

func fileMode(m os.FileMode) os.FileMode {
	if m == 0 {
		return 0644
	}
	return m.Perm()
}

// Filesystem writes of the engine; tests replace them.
var (
	linkArtifact  = atomicSymlink
	writeArtifact = atomicWrite
)

// errAbandoned marks a write that was still running when its timeout fired.
var errAbandoned = errors.New("write abandoned")

// withTimeout runs fn and gives up waiting once ctx or the timeout expires.
// The returned error then wraps errAbandoned: fn keeps running in the
// background, so the caller must not start another write in the same tree.
// An abandoned write still completes with a rename, so the destination is
// never left half written.
func withTimeout(ctx context.Context, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w after %s: %w", errAbandoned, timeout, ctx.Err())
	}
}

// atomicSymlink points path at source by renaming a fresh link over it.
func atomicSymlink(source, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+tempInfix+uuid.NewString())
	if err := os.Symlink(source, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// atomicWrite writes content to a temporary sibling and renames it over path.
func atomicWrite(path string, content []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+tempInfix+"*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	cleanup := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if _, err := f.Write(content); err != nil {
		return cleanup(err)
	}
	if err := f.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// hasMarker reports whether the head of the file at path carries the generated marker.
func hasMarker(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, markerWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return adapter.IsGenerated(head[:n]), nil
}
