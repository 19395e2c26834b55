package app

import (
	"fmt"

	"hawk/internal/adapter"
	"hawk/internal/component"
	"hawk/internal/config"
	"hawk/internal/reconciler"
	"hawk/internal/resolver"
	"hawk/pkg/logging"
)

// Services holds every component a command needs, wired from one hawk home.
//
// Services are created in dependency order:
//  1. Store and config loader (shared inputs)
//  2. Resolver with its resolved-set memo
//  3. Adapter registry, sync cache and metrics
//  4. Sync manager over all of the above
type Services struct {
	// Home is the hawk home directory all paths derive from.
	Home string

	Loader   *config.Loader
	Store    component.Store
	Resolver *resolver.Resolver
	Adapters *adapter.Registry

	// Cache persists the outcome of clean sync passes per (directory, tool).
	Cache *reconciler.SyncCache

	// Metrics are the in-process sync counters surfaced by status.
	Metrics *reconciler.SyncMetrics

	Manager *reconciler.Manager

	// Lock serialises writing operations across processes.
	Lock *FileLock
}

// InitializeServices wires the services of cfg.
func InitializeServices(cfg *Config) (*Services, error) {
	home, err := resolveHome(cfg.Home)
	if err != nil {
		return nil, err
	}

	store := cfg.Store
	if store == nil {
		store = component.NewFSStore(config.RegistryPath(home))
	}

	s := &Services{
		Home:     home,
		Loader:   config.NewLoader(home),
		Store:    store,
		Resolver: resolver.New(store, resolver.NewCache(cfg.CacheSize)),
		Adapters: adapter.Default(),
		Cache:    reconciler.NewSyncCache(home),
		Metrics:  reconciler.GetSyncMetrics(),
		Lock:     NewFileLock(config.LockPath(home), cfg.LockWait),
	}
	s.Manager = reconciler.NewManager(reconciler.ManagerConfig{
		Loader:   s.Loader,
		Resolver: s.Resolver,
		Adapters: s.Adapters,
		Cache:    s.Cache,
		Metrics:  s.Metrics,
		Locker:   s.Lock,
	})

	logging.Debug("Bootstrap", "Initialized services for home %s (store %s, tools %v)",
		home, store.Root(), s.Adapters.Names())
	return s, nil
}

func resolveHome(home string) (string, error) {
	if home == "" {
		h, err := config.DefaultHome()
		if err != nil {
			return "", fmt.Errorf("failed to locate hawk home: %w", err)
		}
		return h, nil
	}
	h, err := config.ExpandHome(home)
	if err != nil {
		return "", fmt.Errorf("invalid hawk home %q: %w", home, err)
	}
	return h, nil
}
