package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hawk/internal/config"
	"hawk/internal/reconciler"
	"hawk/pkg/logging"
)

// RunOnce performs a single sync of req.
func (a *Application) RunOnce(ctx context.Context, req reconciler.SyncRequest) (*reconciler.SyncResult, error) {
	return a.services.Manager.Sync(ctx, req)
}

// RunWatch syncs req and re-syncs after every change to its inputs until
// SIGINT, SIGTERM or ctx cancellation. Each outcome is passed to onResult.
//
// The sync cache and the lock file live in the hawk home as well; changes to
// them never trigger a sync.
func (a *Application) RunWatch(ctx context.Context, req reconciler.SyncRequest, onResult func(*reconciler.SyncResult, error)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	home := a.services.Home
	detector := reconciler.NewFilesystemDetector(reconciler.DefaultDebounce,
		reconciler.IgnoreBelow(config.CachePath(home), config.LockPath(home)))

	logging.Info("Watch", "Watching inputs of %s. Press Ctrl+C to stop.", req.Dir)
	if err := a.services.Manager.Watch(ctx, req, detector, onResult); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	logging.Info("Watch", "Stopped watching %s", req.Dir)
	return nil
}
