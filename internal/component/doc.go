// Package component implements the hawk Component Store.
//
// The store is a directory of typed items addressed by name. It holds no
// resolution logic: callers ask it to list identities of a type or to resolve
// a reference to a single source path.
//
// # Layout
//
//	<root>/skills/<name>/SKILL.md        behavior text (directory form)
//	<root>/skills/<name>.md              behavior text (single file form)
//	<root>/hooks/<name>.<ext>            event scripts
//	<root>/prompts/<name>.md             prompt templates
//	<root>/agents/<name>.md              agent definitions
//	<root>/mcp/<name>.yaml               RPC server descriptors (.yml/.json too)
//	<root>/packages/<pkg>/<type>/...     the same tree, owned by package <pkg>
//
// An unqualified reference must match exactly one entry across the root and
// all packages; otherwise Resolve returns an *AmbiguousError. A qualified
// reference ("pkg/name") only searches that package.
//
// # Event Script Metadata
//
// Hooks declare their canonical events in a header comment within the first
// lines of the script:
//
//	#!/usr/bin/env bash
//	# hawk-hook: events=pre_tool_use matcher=Bash blocking=true timeout=30
package component
