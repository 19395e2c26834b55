// Package reconciler synchronizes resolved component sets into the
// configuration directories of destination tools.
//
// # Overview
//
// For each tool the Manager materializes a Plan through the tool's adapter
// and hands it to the Engine, which compares it with what is on disk and
// converges the destination tree:
//
//   - absent: the artifact is created
//   - stale: a hawk-managed entry that differs is replaced
//   - unmanaged: a foreign entry at a desired path is reported and left alone
//   - orphaned: a hawk-managed entry nothing desires any more is removed
//   - correct: nothing happens
//
// Hawk-managed entries are recognized on disk, never remembered: a symlink
// pointing into the component store, a file carrying the generated marker,
// or a key owned inside an aggregate document.
//
// # Concurrency
//
// Tools own disjoint destination roots and run in parallel workers bounded by
// the number of tools. Writes within one tool are serial. Each write is atomic
// and bounded by a timeout, so an interrupted pass leaves every applied
// artifact intact and a re-run converges the rest.
//
// # Caching
//
// After a clean pass the SyncCache records a fingerprint of every input
// (layers, store mapping, tool and destination root) together with digests of
// what was written. A later run whose fingerprint matches and whose recorded
// artifacts still verify on disk reports the tool as up to date without
// resolving or diffing. Forced runs bypass the cache.
//
// # Watch mode
//
// The FilesystemDetector watches the hawk home and every contributing .hawk
// directory with fsnotify and debounces changes into re-syncs.
package reconciler
