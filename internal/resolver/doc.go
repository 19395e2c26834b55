// Package resolver computes the effective component set of a directory.
//
// Resolution is a left fold over the ordered layers of a config.LayerSet. For
// every component type, each layer unions its enabled list into the running set
// and then subtracts its disabled list. The global layer comes first, then the
// profiles, then the registered directories from the outermost to the nearest.
// Per-tool extra/exclude overrides are applied afterwards: the union of every
// layer's extras, minus every layer's excludes.
//
// References are normalised through the component store before folding, so
// "reviewer" and "pkg/reviewer" cancel each other out when they name the same
// entry. References that cannot be resolved are kept under their raw spelling
// and dropped with a warning if they are still present after the fold.
//
// Resolution is pure: the same layers and the same store produce the same set,
// in the same order, with the same warnings. Cache memoises results by the hash
// of those inputs.
package resolver
