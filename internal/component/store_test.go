package component

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "skills", "tdd", "SKILL.md"), "# tdd\n")
	writeFile(t, filepath.Join(root, "skills", "style.md"), "# style\n")
	writeFile(t, filepath.Join(root, "hooks", "block-secrets.sh"),
		"#!/usr/bin/env bash\n# hawk-hook: events=pre_tool_use matcher=Bash blocking=true\nexit 0\n")
	writeFile(t, filepath.Join(root, "prompts", "commit-message.md"), "Write a commit message\n")
	writeFile(t, filepath.Join(root, "prompts", ".hidden.md"), "x")
	writeFile(t, filepath.Join(root, "prompts", "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "mcp", "github.yaml"), "command: gh-mcp\nargs: [serve]\n")
	writeFile(t, filepath.Join(root, "packages", "pkgA", "agents", "reviewer.md"), "A\n")
	writeFile(t, filepath.Join(root, "packages", "pkgB", "agents", "reviewer.md"), "B\n")
	return NewFSStore(root), root
}

func TestFSStore_List(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	skills, err := store.List(ctx, TypeSkill)
	require.NoError(t, err)
	assert.Equal(t, []Identity{
		{Type: TypeSkill, Name: "style"},
		{Type: TypeSkill, Name: "tdd"},
	}, skills)

	prompts, err := store.List(ctx, TypePrompt)
	require.NoError(t, err)
	assert.Len(t, prompts, 1, "hidden and non-markdown files are ignored")

	agents, err := store.List(ctx, TypeAgent)
	require.NoError(t, err)
	assert.Equal(t, "pkgA/reviewer", agents[0].String())
	assert.Equal(t, "pkgB/reviewer", agents[1].String())
}

func TestFSStore_Resolve(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		typ      Type
		ref      string
		wantPath string
		wantErr  error
	}{
		{name: "directory skill", typ: TypeSkill, ref: "tdd", wantPath: filepath.Join(root, "skills", "tdd")},
		{name: "file skill", typ: TypeSkill, ref: "style", wantPath: filepath.Join(root, "skills", "style.md")},
		{name: "qualified agent", typ: TypeAgent, ref: "pkgA/reviewer", wantPath: filepath.Join(root, "packages", "pkgA", "agents", "reviewer.md")},
		{name: "ambiguous agent", typ: TypeAgent, ref: "reviewer", wantErr: ErrAmbiguous},
		{name: "missing prompt", typ: TypePrompt, ref: "nope", wantErr: ErrNotFound},
		{name: "wrong package", typ: TypeAgent, ref: "pkgC/reviewer", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := store.Resolve(ctx, tt.typ, tt.ref)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, c.Path)
		})
	}
}

func TestFSStore_ResolveAmbiguousListsCandidates(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Resolve(context.Background(), TypeAgent, "reviewer")
	var amb *AmbiguousError
	require.ErrorAs(t, err, &amb)
	require.Len(t, amb.Candidates, 2)
	assert.Contains(t, err.Error(), "pkgA/reviewer")
	assert.Contains(t, err.Error(), "pkgB/reviewer")
}

func TestFSStore_ResolveLoadsMetadata(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	hook, err := store.Resolve(ctx, TypeHook, "block-secrets")
	require.NoError(t, err)
	require.NotNil(t, hook.Hook)
	assert.Equal(t, []string{"pre_tool_use"}, hook.Hook.Events)
	assert.Equal(t, "Bash", hook.Hook.Matcher)
	assert.True(t, hook.Hook.Blocking)

	server, err := store.Resolve(ctx, TypeMCP, "github")
	require.NoError(t, err)
	require.NotNil(t, server.Server)
	assert.Equal(t, "gh-mcp", server.Server.Command)
	assert.Equal(t, []string{"serve"}, server.Server.Args)
	assert.Equal(t, "stdio", server.Server.Transport)
}

func TestFSStore_InvalidDescriptor(t *testing.T) {
	store, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "mcp", "broken.yaml"), "args: [x]\n")

	_, err := store.Resolve(context.Background(), TypeMCP, "broken")
	var metaErr *MetadataError
	assert.ErrorAs(t, err, &metaErr)
}

func TestFSStore_MappingChangesWithMetadata(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()

	before, err := store.Mapping(ctx)
	require.NoError(t, err)
	assert.Contains(t, before, "agents/pkgA/reviewer")

	writeFile(t, filepath.Join(root, "hooks", "block-secrets.sh"),
		"#!/usr/bin/env bash\n# hawk-hook: events=stop\n")
	after, err := store.Mapping(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before["hooks/block-secrets"], after["hooks/block-secrets"])
	assert.Equal(t, before["skills/tdd"], after["skills/tdd"])

	writeFile(t, filepath.Join(root, "prompts", "commit-message.md"), "Write a short commit message\n")
	edited, err := store.Mapping(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, after["prompts/commit-message"], edited["prompts/commit-message"],
		"prompt content feeds generated command files")
}

func TestFSStore_Remove(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Remove(ctx, Identity{Type: TypeSkill, Name: "tdd"}))
	_, err := os.Stat(filepath.Join(root, "skills", "tdd"))
	assert.True(t, os.IsNotExist(err))

	err = store.Remove(ctx, Identity{Type: TypeSkill, Name: "tdd"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_MissingRootIsEmpty(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background(), TypeHook)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParseRef(t *testing.T) {
	pkg, name, err := ParseRef("pkgA/reviewer")
	require.NoError(t, err)
	assert.Equal(t, "pkgA", pkg)
	assert.Equal(t, "reviewer", name)

	_, _, err = ParseRef("a/b/c")
	assert.Error(t, err)
	_, _, err = ParseRef("/x")
	assert.Error(t, err)
	_, _, err = ParseRef("  ")
	assert.Error(t, err)
}
