package fragment

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hookDir = "/home/me/.claude/hooks/hawk"

func hookGroup(matcher, command string) map[string]any {
	return map[string]any{
		"matcher": matcher,
		"hooks":   []map[string]any{{"type": "command", "command": command, "timeout": 30}},
	}
}

func TestJSONDocument_MCPServers(t *testing.T) {
	doc, err := ParseJSON("settings.json", []byte(`{
  "theme": "dark",
  "mcpServers": {"mine": {"command": "my-server"}},
  "big": 12345678901234567890
}`), hookDir)
	require.NoError(t, err)

	require.NoError(t, doc.Set("mcpServers", "github", map[string]any{"command": "gh-mcp", "args": []string{"serve"}}))
	assert.True(t, doc.Owned("mcpServers", "github"))
	assert.False(t, doc.Owned("mcpServers", "mine"))
	assert.Equal(t, []string{"github"}, doc.Managed("mcpServers"))
	assert.Equal(t, []string{"mcpServers"}, doc.Sections())

	v, ok := doc.Get("mcpServers", "mine")
	require.True(t, ok)
	assert.True(t, Equal(v, map[string]any{"command": "my-server"}))

	assert.False(t, doc.Delete("mcpServers", "mine"), "user keys are never deleted")

	out, err := doc.Bytes()
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(out, &parsed))
	assert.Equal(t, "dark", parsed["theme"])
	assert.Contains(t, string(out), "12345678901234567890")
	assert.Contains(t, string(out), `"_hawk"`)

	reparsed, err := ParseJSON("settings.json", out, hookDir)
	require.NoError(t, err)
	assert.True(t, reparsed.Owned("mcpServers", "github"))
	assert.True(t, reparsed.Delete("mcpServers", "github"))
	assert.Empty(t, reparsed.Sections())

	out, err = reparsed.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "_hawk")
	assert.Contains(t, string(out), "mine")
}

func TestJSONDocument_HookGroupsByProvenance(t *testing.T) {
	doc, err := ParseJSON("settings.json", []byte(`{
  "hooks": {
    "PreToolUse": [
      {"matcher": "Bash", "hooks": [{"type": "command", "command": "/usr/local/bin/audit"}]}
    ]
  }
}`), hookDir)
	require.NoError(t, err)

	key := HookKey("PreToolUse", hookDir+"/guard.sh")
	require.NoError(t, doc.Set(SectionHooks, key, hookGroup("Bash", hookDir+"/guard.sh")))
	assert.True(t, doc.Owned(SectionHooks, key))
	assert.Equal(t, []string{key}, doc.Managed(SectionHooks))

	userKey := HookKey("PreToolUse", "/usr/local/bin/audit")
	assert.False(t, doc.Owned(SectionHooks, userKey))
	_, ok := doc.Get(SectionHooks, userKey)
	assert.True(t, ok)

	// Replacing keeps a single group.
	require.NoError(t, doc.Set(SectionHooks, key, hookGroup("Edit", hookDir+"/guard.sh")))
	v, _ := doc.Get(SectionHooks, key)
	assert.True(t, Equal(v, hookGroup("Edit", hookDir+"/guard.sh")))

	assert.Error(t, doc.Set(SectionHooks, HookKey("Stop", "/tmp/x.sh"), hookGroup("", "/tmp/x.sh")))

	assert.True(t, doc.Delete(SectionHooks, key))
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "/usr/local/bin/audit")
	assert.NotContains(t, string(out), "guard.sh")
}

func TestJSONDocument_EmptyAndMalformed(t *testing.T) {
	doc, err := ParseJSON("x.json", nil, hookDir)
	require.NoError(t, err)
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(out))

	_, err = ParseJSON("x.json", []byte("{nope"), hookDir)
	assert.True(t, errors.Is(err, ErrMalformed))

	doc, err = ParseJSON("x.json", []byte(`{"mcpServers": []}`), hookDir)
	require.NoError(t, err)
	assert.Error(t, doc.Set("mcpServers", "a", map[string]any{}))
}

func TestHookKey(t *testing.T) {
	event, cmd := SplitHookKey(HookKey("Stop", "/a/b.sh"))
	assert.Equal(t, "Stop", event)
	assert.Equal(t, "/a/b.sh", cmd)
}
