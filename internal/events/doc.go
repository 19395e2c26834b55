// Package events defines hawk's canonical event vocabulary and the contract
// that maps each canonical event onto every destination tool.
//
// A mapping is one of three tiers:
//
//   - Native: the host tool has an equivalent event; the script is registered
//     under the host's own event name.
//   - Bridged: the host has no equivalent event but exposes a mechanism that
//     can carry it (for example a notify program); a generated wrapper
//     normalises the calling convention and re-dispatches to the script.
//   - Unsupported: there is no mechanism. Callers must surface a warning and
//     wire nothing for that tool.
//
// The table is fixed at compile time. Adding a destination tool means adding
// one column here and one adapter implementation.
package events
