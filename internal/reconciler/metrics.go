package reconciler

import (
	"sort"
	"sync"
	"time"

	"hawk/pkg/logging"
)

// SyncMetrics tracks sync outcomes per tool for the lifetime of the process.
//
// A one-shot sync records a single pass per tool; watch mode accumulates one
// pass per detected change, which is what makes the failure rate meaningful.
type SyncMetrics struct {
	mu sync.RWMutex

	tools map[string]*toolMetrics

	totalRuns      int64
	totalCacheHits int64
	totalFailures  int64
}

// toolMetrics holds sync metrics for a single tool.
type toolMetrics struct {
	Tool          string
	Runs          int64
	CacheHits     int64
	Created       int64
	Updated       int64
	Removed       int64
	Conflicts     int64
	Failures      int64
	LastRunAt     time.Time
	LastSuccessAt time.Time
	LastFailureAt time.Time
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{tools: make(map[string]*toolMetrics)}
}

func (m *SyncMetrics) getOrCreate(tool string) *toolMetrics {
	if tm, ok := m.tools[tool]; ok {
		return tm
	}
	tm := &toolMetrics{Tool: tool}
	m.tools[tool] = tm
	return tm
}

// RecordRun records the outcome of one pass.
func (m *SyncMetrics) RecordRun(res *ToolResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	tm := m.getOrCreate(res.Tool)
	tm.Runs++
	tm.LastRunAt = now
	m.totalRuns++

	if res.DryRun {
		return
	}
	tm.Created += int64(res.Counts.Created)
	tm.Updated += int64(res.Counts.Updated)
	tm.Removed += int64(res.Counts.Removed)
	tm.Conflicts += int64(res.Counts.Conflicts)

	if res.Failed() {
		tm.Failures++
		tm.LastFailureAt = now
		m.totalFailures++
		logging.Warn("SyncMetrics", "Sync failure for %s (failures: %d)", res.Tool, tm.Failures)
		return
	}
	tm.LastSuccessAt = now
}

// RecordCacheHit records a pass skipped because the tool was up to date.
func (m *SyncMetrics) RecordCacheHit(tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tm := m.getOrCreate(tool)
	tm.Runs++
	tm.CacheHits++
	tm.LastRunAt = time.Now()
	tm.LastSuccessAt = tm.LastRunAt
	m.totalRuns++
	m.totalCacheHits++

	logging.Debug("SyncMetrics", "Cache hit for %s", tool)
}

// SyncMetricsSummary is a point-in-time copy of the metrics.
type SyncMetricsSummary struct {
	TotalRuns      int64            `json:"totalRuns" yaml:"totalRuns"`
	TotalCacheHits int64            `json:"totalCacheHits" yaml:"totalCacheHits"`
	TotalFailures  int64            `json:"totalFailures" yaml:"totalFailures"`
	FailureRate    float64          `json:"failureRate" yaml:"failureRate"`
	PerTool        []ToolMetricView `json:"perTool" yaml:"perTool"`
}

// ToolMetricView is a read-only view of one tool's metrics.
type ToolMetricView struct {
	Tool          string    `json:"tool" yaml:"tool"`
	Runs          int64     `json:"runs" yaml:"runs"`
	CacheHits     int64     `json:"cacheHits" yaml:"cacheHits"`
	Created       int64     `json:"created" yaml:"created"`
	Updated       int64     `json:"updated" yaml:"updated"`
	Removed       int64     `json:"removed" yaml:"removed"`
	Conflicts     int64     `json:"conflicts" yaml:"conflicts"`
	Failures      int64     `json:"failures" yaml:"failures"`
	LastRunAt     time.Time `json:"lastRunAt,omitempty" yaml:"lastRunAt,omitempty"`
	LastSuccessAt time.Time `json:"lastSuccessAt,omitempty" yaml:"lastSuccessAt,omitempty"`
	LastFailureAt time.Time `json:"lastFailureAt,omitempty" yaml:"lastFailureAt,omitempty"`
}

// Summary returns a copy of the metrics, tools sorted by name.
func (m *SyncMetrics) Summary() SyncMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := SyncMetricsSummary{
		TotalRuns:      m.totalRuns,
		TotalCacheHits: m.totalCacheHits,
		TotalFailures:  m.totalFailures,
	}
	if m.totalRuns > 0 {
		s.FailureRate = float64(m.totalFailures) / float64(m.totalRuns)
	}
	for _, tm := range m.tools {
		s.PerTool = append(s.PerTool, ToolMetricView(*tm))
	}
	sort.Slice(s.PerTool, func(i, j int) bool { return s.PerTool[i].Tool < s.PerTool[j].Tool })
	return s
}

// Reset clears all metrics.
func (m *SyncMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tools = make(map[string]*toolMetrics)
	m.totalRuns = 0
	m.totalCacheHits = 0
	m.totalFailures = 0
}

var (
	globalSyncMetrics     *SyncMetrics
	globalSyncMetricsOnce sync.Once
)

// GetSyncMetrics returns the process-wide metrics instance.
func GetSyncMetrics() *SyncMetrics {
	globalSyncMetricsOnce.Do(func() {
		globalSyncMetrics = NewSyncMetrics()
	})
	return globalSyncMetrics
}
