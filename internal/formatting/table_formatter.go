package formatting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hawk/internal/component"
	"hawk/internal/events"
	"hawk/internal/reconciler"
	"hawk/internal/resolver"
	hawkstrings "hawk/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	w       io.Writer
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer, options Options) Formatter {
	return &TableFormatter{w: w, options: options}
}

func (f *TableFormatter) wide() bool { return f.options.Format == FormatWide }

// paint colours s when colour output is enabled.
func (f *TableFormatter) paint(c text.Colors, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(headers ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.w)
	t.SetStyle(table.StyleRounded)
	if !f.options.Color {
		t.SetStyle(table.StyleLight)
	}
	if !f.options.NoHeaders {
		row := make(table.Row, len(headers))
		for i, h := range headers {
			row[i] = f.paint(text.Colors{text.FgHiCyan, text.Bold}, fmt.Sprint(h))
		}
		t.AppendHeader(row)
	}
	return t
}

// SyncResult prints one row per tool, then artifacts, diffs and warnings.
func (f *TableFormatter) SyncResult(res *reconciler.SyncResult) error {
	if res == nil {
		return ErrNilResult
	}

	t := f.createTable("TOOL", "SCOPE", "ROOT", "CREATED", "UPDATED", "REMOVED", "CONFLICTS", "FAILED", "STATE")
	for i := range res.Tools {
		tr := &res.Tools[i]
		t.AppendRow(table.Row{
			tr.Tool, tr.Scope, tr.Root,
			tr.Counts.Created, tr.Counts.Updated, tr.Counts.Removed,
			tr.Counts.Conflicts, tr.Counts.Failed,
			f.toolState(tr),
		})
	}
	t.Render()

	var diffs []string
	if rows := artifactRows(res); len(rows) > 0 {
		at := f.createTable("TOOL", "ARTIFACT", "KIND", "STATE", "ACTION", "ERROR")
		for _, r := range rows {
			at.AppendRow(r.row)
			if r.diff != "" {
				diffs = append(diffs, r.diff)
			}
		}
		at.Render()
	}
	for _, d := range diffs {
		fmt.Fprintln(f.w, d)
	}

	var warnings []string
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}
	for i := range res.Tools {
		tr := &res.Tools[i]
		if tr.Error != "" {
			warnings = append(warnings, fmt.Sprintf("[error] %s: %s", tr.Tool, tr.Error))
		}
		for _, w := range tr.Warnings {
			warnings = append(warnings, w.String())
		}
	}
	f.warnings(warnings)

	status := res.ExitStatus()
	fmt.Fprintf(f.w, "%s %s in %s\n", f.statusLabel(status), res.Dir, res.Duration.Round(time.Millisecond))
	return nil
}

type artifactRow struct {
	row  table.Row
	diff string
}

func artifactRows(res *reconciler.SyncResult) []artifactRow {
	var rows []artifactRow
	for i := range res.Tools {
		tr := &res.Tools[i]
		for _, a := range tr.Artifacts {
			rows = append(rows, artifactRow{
				row:  table.Row{tr.Tool, a.ID, a.Kind, a.State, a.Action, a.Error},
				diff: a.Diff,
			})
		}
	}
	return rows
}

func (f *TableFormatter) toolState(tr *reconciler.ToolResult) string {
	switch {
	case tr.Failed():
		return f.paint(text.Colors{text.FgRed}, "failed")
	case tr.Cached:
		return f.paint(text.Colors{text.FgGreen}, "up to date (cached)")
	case tr.DryRun && tr.Counts.Changes() > 0:
		return f.paint(text.Colors{text.FgYellow}, "would change")
	case tr.UpToDate:
		return f.paint(text.Colors{text.FgGreen}, "up to date")
	case tr.Counts.Conflicts > 0:
		return f.paint(text.Colors{text.FgYellow}, "conflicts")
	}
	return f.paint(text.Colors{text.FgGreen}, "synced")
}

func (f *TableFormatter) statusLabel(s reconciler.ExitStatus) string {
	switch s {
	case reconciler.StatusFailure:
		return f.paint(text.Colors{text.FgRed, text.Bold}, "Failed")
	case reconciler.StatusWarnings:
		return f.paint(text.Colors{text.FgYellow, text.Bold}, "Synced with warnings")
	}
	return f.paint(text.Colors{text.FgGreen, text.Bold}, "Synced")
}

func (f *TableFormatter) warnings(lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(f.w, f.paint(text.Colors{text.FgYellow}, "Warnings:"))
	for _, l := range lines {
		fmt.Fprintf(f.w, "  - %s\n", l)
	}
}

// Resolved prints the effective components of each tool.
func (f *TableFormatter) Resolved(v Resolved) error {
	headers := []interface{}{"TOOL", "TYPE", "COMPONENT", "DETAIL"}
	if f.wide() {
		headers = append(headers, "SOURCE")
	}
	t := f.createTable(headers...)
	count := 0
	for _, ts := range v.Tools {
		for _, typ := range component.AllTypes() {
			for _, e := range ts.Entries(typ) {
				detail := entryDetail(e)
				if !f.wide() {
					detail = hawkstrings.TruncateDescription(detail, hawkstrings.DefaultDescriptionMaxLen)
				}
				row := table.Row{ts.Tool, typ.Singular(), e.Identity.String(), detail}
				if f.wide() {
					row = append(row, e.Path)
				}
				t.AppendRow(row)
				count++
			}
		}
		t.AppendSeparator()
	}
	if count == 0 {
		fmt.Fprintln(f.w, f.paint(text.Colors{text.FgYellow}, "No components enabled for "+v.Dir))
	} else {
		t.Render()
	}
	f.warnings(v.Warnings)
	return nil
}

// entryDetail summarises what a component will be wired as.
func entryDetail(e resolver.Entry) string {
	switch {
	case len(e.Bindings) > 0:
		parts := make([]string, 0, len(e.Bindings))
		for _, b := range e.Bindings {
			s := string(b.Event)
			if b.Matcher != "" {
				s += "(" + b.Matcher + ")"
			}
			if b.Blocking {
				s += " blocking"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", ")
	case e.Server != nil && e.Server.Remote():
		return e.Server.URL
	case e.Server != nil:
		return strings.TrimSpace(e.Server.Command + " " + strings.Join(e.Server.Args, " "))
	case e.Dir:
		return "directory"
	}
	return ""
}

// Events prints the contract as an event by tool matrix.
func (f *TableFormatter) Events(mappings []events.Mapping) error {
	tools := events.Tools()
	headers := []interface{}{"EVENT"}
	for _, tool := range tools {
		headers = append(headers, strings.ToUpper(tool))
	}
	t := f.createTable(headers...)

	byEvent := map[events.Event]map[string]events.Mapping{}
	var order []events.Event
	for _, m := range mappings {
		if byEvent[m.Event] == nil {
			byEvent[m.Event] = map[string]events.Mapping{}
			order = append(order, m.Event)
		}
		byEvent[m.Event][m.Tool] = m
	}
	for _, ev := range order {
		row := table.Row{string(ev)}
		for _, tool := range tools {
			row = append(row, f.tierCell(byEvent[ev][tool]))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

func (f *TableFormatter) tierCell(m events.Mapping) string {
	switch m.Tier {
	case events.TierNative:
		return f.paint(text.Colors{text.FgGreen}, m.Target)
	case events.TierBridged:
		return f.paint(text.Colors{text.FgYellow}, "via "+m.Target)
	}
	return f.paint(text.Colors{text.FgHiBlack}, "-")
}

// Status prints the managed outputs recorded in the sync cache.
func (f *TableFormatter) Status(s Status) error {
	fmt.Fprintf(f.w, "%s %s\n", f.paint(text.Colors{text.FgHiBlue}, "Home:"), s.Home)
	fmt.Fprintf(f.w, "%s %d registered\n", f.paint(text.Colors{text.FgHiBlue}, "Directories:"), len(s.Directories))

	if len(s.Managed) == 0 {
		fmt.Fprintln(f.w, f.paint(text.Colors{text.FgYellow}, "Nothing synced yet"))
	} else {
		t := f.createTable("DIRECTORY", "TOOL", "ARTIFACTS", "WARNINGS", "LAST SYNC")
		for _, e := range s.Managed {
			t.AppendRow(table.Row{
				e.Directory, e.Tool, len(e.Artifacts), len(e.Warnings) + len(e.Shared),
				e.UpdatedAt.Local().Format(time.DateTime),
			})
		}
		t.Render()
	}

	m := s.Metrics
	if m.TotalRuns == 0 {
		return nil
	}
	fmt.Fprintf(f.w, "%s %d runs, %d cached, %d failed (%.0f%%)\n",
		f.paint(text.Colors{text.FgHiBlue}, "Session:"),
		m.TotalRuns, m.TotalCacheHits, m.TotalFailures, m.FailureRate*100)
	t := f.createTable("TOOL", "RUNS", "CACHED", "CREATED", "UPDATED", "REMOVED", "CONFLICTS", "FAILURES")
	for _, tm := range m.PerTool {
		t.AppendRow(table.Row{tm.Tool, tm.Runs, tm.CacheHits, tm.Created, tm.Updated, tm.Removed, tm.Conflicts, tm.Failures})
	}
	t.Render()
	return nil
}

// Check prints every problem found, or a single confirmation line.
func (f *TableFormatter) Check(c Check) error {
	if c.OK() {
		fmt.Fprintln(f.w, f.paint(text.Colors{text.FgGreen}, "Configuration and registry are valid"))
		return nil
	}
	for _, e := range c.Layers {
		fmt.Fprintln(f.w, f.paint(text.Colors{text.FgRed}, e.DetailedError()))
	}
	if len(c.Components) > 0 {
		fmt.Fprintln(f.w, f.paint(text.Colors{text.FgRed}, "Invalid components:"))
		for _, e := range c.Components {
			fmt.Fprintf(f.w, "  - %s\n", e)
		}
	}
	fmt.Fprintf(f.w, "%d problem(s) found\n", len(c.Layers)+len(c.Components))
	return nil
}
