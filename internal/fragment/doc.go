// Package fragment edits aggregate host configuration documents in which hawk
// owns only some entries.
//
// Two encodings are supported. JSON documents (settings.json, .claude.json,
// .mcp.json) record the keys hawk owns under a "_hawk" marker object; hook
// groups are recognised by provenance instead, since every command they run
// lives under the tool's hooks/hawk directory. TOML documents (codex
// config.toml) keep every hawk entry between two marker comment lines. Text
// outside the markers is never touched.
//
// Documents are edited in memory and rendered with Bytes. Rendering validates
// the result; a document that cannot be rendered must not be written.
package fragment
