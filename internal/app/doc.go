// Package app wires hawk together and exposes the operations the commands run.
//
// # Bootstrap
//
// NewApplication configures logging for the CLI (debug or info to stderr,
// nothing when Silent is set) and builds a Services value:
//
//   - Loader reads the global, profile and directory layers from the hawk home
//   - Store is the component registry under <home>/registry
//   - Resolver folds layers into the per-tool component sets
//   - Adapters plans the artifacts for claude, codex and gemini
//   - Cache and Metrics back the sync Manager
//
// The home is taken from Config.Home, then HAWK_HOME, then ~/.config/hawk.
//
// # Modes
//
// RunOnce performs a single sync. RunWatch syncs, then re-syncs whenever the
// hawk home or the directory layers change, until interrupted.
//
// # Maintenance
//
// Services also carries the editing operations used by enable, disable,
// register, unregister, remove and check:
//
//	path, changed, err := services.SetEnabled(ctx, scope, component.TypeSkill, "tidy", true)
//
// Edits go through config.Loader.Save so documents are written atomically.
// Remove refuses to delete a component that any layer still names unless
// scrubbing was requested, in which case every naming layer is rewritten first.
package app
