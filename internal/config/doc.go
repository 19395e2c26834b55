// Package config loads and writes hawk's layered configuration.
//
// # Layers
//
// Three kinds of YAML document contribute to a resolution, applied in order:
//
//   - the global config, <home>/config.yaml
//   - profiles, <home>/profiles/<name>.yaml, referenced by name from other layers
//   - directory layers, <dir>/.hawk/config.yaml, for every registered directory
//     that is an ancestor of (or equal to) the working directory
//
// Home is $HAWK_HOME, or ~/.config/hawk when unset.
//
// Every layer carries per-type enabled/disabled lists, optional per-hook event
// bindings and per-tool extra/exclude overrides. The global config additionally
// holds the registered directories, destination tool settings and sync tuning:
//
//	profile: work
//	skills:  {enabled: [code-review], disabled: [legacy]}
//	hooks:   {enabled: [block-secrets]}
//	mcp:     {enabled: [github]}
//	bindings:
//	  block-secrets: {events: [pre_tool_use], matcher: Bash}
//	tools:
//	  codex:
//	    hooks: {exclude: [block-secrets]}
//	directories: [~/src/app]
//	destinations:
//	  gemini: {enabled: false}
//	sync:
//	  timeout: 10s
//
// # Legacy vocabulary
//
// Older documents used different key names. They are still read when the new
// key is absent (commands, mcp_servers, enable/disable, dirs, tool_overrides,
// and bare lists in a type slot meaning "enabled"). Documents written by hawk
// only ever use the current vocabulary.
//
// # Errors
//
// A missing file is an empty layer. A file that cannot be parsed or fails
// validation is a *LayerParseError and fails the whole load; no partial set of
// layers is ever returned.
package config
