package adapter

import (
	"fmt"
	"path/filepath"
	"sort"

	"hawk/internal/events"
	"hawk/internal/template"
)

const bridgeMode = 0755

// bridgeScript is one script a bridge wrapper re-dispatches to.
type bridgeScript struct {
	Component string
	Path      string
	Blocking  bool
}

// bridgeData feeds the wrapper template.
type bridgeData struct {
	Marker    string
	Tool      string
	Event     string
	Mechanism string
	// Filter, when set, restricts the wrapper to payloads containing it.
	Filter  string
	Scripts []bridgeScript
}

// bridgeTemplate re-dispatches a host payload to each bound script. The payload
// arrives as the first argument (or on stdin when absent) and every script
// receives it on stdin. Exit code 2 from a blocking script is propagated.
const bridgeTemplate = `#!/bin/sh
# {{ .Marker }}: {{ .Mechanism }} bridge for {{ .Event }} on {{ .Tool }}
# Generated by hawk; edits are overwritten on sync.
payload="${1-}"
if [ -z "$payload" ] && [ ! -t 0 ]; then
  payload="$(cat)"
fi
{{- if .Filter }}
case "$payload" in
  *{{ .Filter | squote }}*) ;;
  *) exit 0 ;;
esac
{{- end }}
export HAWK_EVENT={{ .Event | squote }}
export HAWK_TOOL={{ .Tool | squote }}
{{ range .Scripts }}
# {{ .Component }}
printf '%s' "$payload" | {{ .Path | squote }}
{{- if .Blocking }}
[ $? -eq 2 ] && exit 2
{{- end }}
{{ end }}
exit 0
`

// renderBridge renders the wrapper of one bridged event and returns its path.
func renderBridge(engine *template.Engine, target Target, event events.Event, mechanism, filter string, scripts []bridgeScript) (string, []byte, error) {
	sort.SliceStable(scripts, func(i, j int) bool { return scripts[i].Path < scripts[j].Path })
	data := bridgeData{
		Marker:    Marker,
		Tool:      target.Tool,
		Event:     string(event),
		Mechanism: mechanism,
		Filter:    filter,
		Scripts:   scripts,
	}
	content, err := engine.Render("bridge", bridgeTemplate, data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to render %s bridge for %s: %w", event, target.Tool, err)
	}
	path := filepath.Join(target.HookRoot(), "bridge-"+string(event)+".sh")
	return path, content, nil
}
