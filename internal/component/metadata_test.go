package component

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHookHeader(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    HookMeta
		wantErr bool
	}{
		{
			name:   "shell header",
			script: "#!/bin/sh\n# hawk-hook: events=pre_tool_use,post_tool_use matcher=Edit|Write timeout=15\n",
			want:   HookMeta{Events: []string{"pre_tool_use", "post_tool_use"}, Matcher: "Edit|Write", Timeout: 15},
		},
		{
			name:   "js header split over two lines",
			script: "// hawk-hook: events=stop\n// hawk-hook: blocking=true\nconsole.log(1)\n",
			want:   HookMeta{Events: []string{"stop"}, Blocking: true},
		},
		{
			name:   "no header",
			script: "#!/bin/sh\necho hi\n",
			want:   HookMeta{},
		},
		{
			name:    "bad field",
			script:  "# hawk-hook: colour=red\n",
			wantErr: true,
		},
		{
			name:    "bad timeout",
			script:  "# hawk-hook: timeout=-1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseHookHeader(strings.NewReader(tt.script))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *meta)
		})
	}
}

func TestParseHookHeader_OnlyScansLeadingLines(t *testing.T) {
	script := strings.Repeat("echo\n", hookHeaderLines) + "# hawk-hook: events=stop\n"
	meta, err := ParseHookHeader(strings.NewReader(script))
	require.NoError(t, err)
	assert.Empty(t, meta.Events)
}

func TestParseServerDescriptor(t *testing.T) {
	desc, err := ParseServerDescriptor([]byte(`{"url": "https://mcp.example.com", "headers": {"X-Key": "k"}}`))
	require.NoError(t, err)
	assert.True(t, desc.Remote())
	assert.Equal(t, "http", desc.Transport)

	_, err = ParseServerDescriptor([]byte("command: a\nurl: b\n"))
	assert.Error(t, err)

	_, err = ParseServerDescriptor([]byte("command: a\nunknown: 1\n"))
	assert.Error(t, err, "unknown fields are rejected")
}
