package reconciler

import (
	"errors"
	"testing"

	"hawk/internal/report"
)

func TestSyncMetrics_RecordRun(t *testing.T) {
	m := NewSyncMetrics()

	m.RecordRun(&ToolResult{Tool: "codex", Counts: Counts{Created: 2, Removed: 1}})
	m.RecordRun(&ToolResult{Tool: "claude", Counts: Counts{Updated: 1, Conflicts: 1}})
	m.RecordRun(&ToolResult{Tool: "claude", Err: errors.New("boom")})
	m.RecordRun(&ToolResult{Tool: "claude", DryRun: true, Counts: Counts{Created: 9}})
	m.RecordCacheHit("codex")

	s := m.Summary()
	if s.TotalRuns != 5 {
		t.Errorf("TotalRuns = %d, want 5", s.TotalRuns)
	}
	if s.TotalFailures != 1 {
		t.Errorf("TotalFailures = %d, want 1", s.TotalFailures)
	}
	if s.TotalCacheHits != 1 {
		t.Errorf("TotalCacheHits = %d, want 1", s.TotalCacheHits)
	}
	if s.FailureRate != 0.2 {
		t.Errorf("FailureRate = %v, want 0.2", s.FailureRate)
	}
	if len(s.PerTool) != 2 || s.PerTool[0].Tool != "claude" || s.PerTool[1].Tool != "codex" {
		t.Fatalf("PerTool not sorted by tool: %+v", s.PerTool)
	}

	claude := s.PerTool[0]
	if claude.Runs != 3 || claude.Updated != 1 || claude.Conflicts != 1 || claude.Failures != 1 {
		t.Errorf("unexpected claude metrics: %+v", claude)
	}
	if claude.Created != 0 {
		t.Errorf("dry runs must not count changes, got Created = %d", claude.Created)
	}
	if claude.LastFailureAt.IsZero() {
		t.Error("LastFailureAt not set")
	}

	codex := s.PerTool[1]
	if codex.Created != 2 || codex.Removed != 1 || codex.CacheHits != 1 {
		t.Errorf("unexpected codex metrics: %+v", codex)
	}
	if codex.LastSuccessAt.IsZero() {
		t.Error("LastSuccessAt not set")
	}
}

func TestSyncMetrics_Reset(t *testing.T) {
	m := NewSyncMetrics()
	m.RecordCacheHit("gemini")
	m.Reset()

	s := m.Summary()
	if s.TotalRuns != 0 || len(s.PerTool) != 0 {
		t.Errorf("metrics not reset: %+v", s)
	}
}

func TestGetSyncMetrics_Singleton(t *testing.T) {
	if GetSyncMetrics() != GetSyncMetrics() {
		t.Error("GetSyncMetrics should return the same instance")
	}
}

func TestSyncResult_ExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		result SyncResult
		want   ExitStatus
	}{
		{"clean", SyncResult{Tools: []ToolResult{{Tool: "claude"}}}, StatusSuccess},
		{"conflict", SyncResult{Tools: []ToolResult{{Tool: "claude", Counts: Counts{Conflicts: 1}}}}, StatusWarnings},
		{"shared warning", SyncResult{Warnings: []report.Warning{report.Newf(report.CodeUnresolvable, "global", "x", "missing")}, Tools: []ToolResult{{Tool: "claude"}}}, StatusWarnings},
		{"artifact failure", SyncResult{Tools: []ToolResult{{Tool: "claude"}, {Tool: "codex", Counts: Counts{Failed: 1}}}}, StatusFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.ExitStatus(); got != tt.want {
				t.Errorf("ExitStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
