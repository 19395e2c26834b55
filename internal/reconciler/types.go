package reconciler

import (
	"context"
	"time"

	"hawk/internal/adapter"
	"hawk/internal/report"
)

// State is the classification of one destination path.
type State string

const (
	// StateAbsent means nothing exists at the path.
	StateAbsent State = "absent"

	// StateStale means a hawk-managed entry exists but differs from the desired one.
	StateStale State = "stale"

	// StateUnmanaged means a foreign entry occupies the path. It is never touched.
	StateUnmanaged State = "unmanaged"

	// StateOrphaned means a hawk-managed entry exists that nothing desires any more.
	StateOrphaned State = "orphaned"

	// StateCorrect means the entry already matches.
	StateCorrect State = "correct"
)

// Action is what a pass did (or would do) about one artifact.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionSkip   Action = "skip"
	ActionNone   Action = "none"
	ActionFailed Action = "failed"
)

// actionFor maps a state to the action that converges it.
func actionFor(s State) Action {
	switch s {
	case StateAbsent:
		return ActionCreate
	case StateStale:
		return ActionUpdate
	case StateOrphaned:
		return ActionRemove
	case StateUnmanaged:
		return ActionSkip
	default:
		return ActionNone
	}
}

// Options tune a single pass.
type Options struct {
	// DryRun computes the result without writing anything.
	DryRun bool

	// Verbose records per-artifact detail and, with DryRun, content diffs.
	Verbose bool

	// Force bypasses the sync cache.
	Force bool

	// Timeout bounds each artifact write. Zero uses DefaultArtifactTimeout.
	Timeout time.Duration
}

// DefaultArtifactTimeout bounds one artifact write when Options.Timeout is unset.
const DefaultArtifactTimeout = 10 * time.Second

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultArtifactTimeout
	}
	return o.Timeout
}

// ArtifactResult is the verbose record of one artifact.
type ArtifactResult struct {
	ID        string       `json:"id" yaml:"id"`
	Kind      adapter.Kind `json:"kind" yaml:"kind"`
	Component string       `json:"component,omitempty" yaml:"component,omitempty"`
	State     State        `json:"state" yaml:"state"`
	Action    Action       `json:"action" yaml:"action"`
	Error     string       `json:"error,omitempty" yaml:"error,omitempty"`
	// Diff is a unified-style content diff, filled for dry runs in verbose mode.
	Diff string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Counts summarises a pass for one tool.
type Counts struct {
	Created     int `json:"created" yaml:"created"`
	Updated     int `json:"updated" yaml:"updated"`
	Removed     int `json:"removed" yaml:"removed"`
	Unchanged   int `json:"unchanged" yaml:"unchanged"`
	Conflicts   int `json:"conflicts" yaml:"conflicts"`
	Unsupported int `json:"unsupported" yaml:"unsupported"`
	Failed      int `json:"failed" yaml:"failed"`
}

// Changes is the number of writes the pass performed (or would perform).
func (c Counts) Changes() int {
	return c.Created + c.Updated + c.Removed
}

func (c *Counts) record(a Action) {
	switch a {
	case ActionCreate:
		c.Created++
	case ActionUpdate:
		c.Updated++
	case ActionRemove:
		c.Removed++
	case ActionSkip:
		c.Conflicts++
	case ActionFailed:
		c.Failed++
	default:
		c.Unchanged++
	}
}

// ToolResult is the outcome of syncing one tool.
type ToolResult struct {
	Tool   string        `json:"tool" yaml:"tool"`
	Scope  adapter.Scope `json:"scope" yaml:"scope"`
	Root   string        `json:"root" yaml:"root"`
	Counts Counts        `json:"counts" yaml:"counts"`
	// UpToDate is set when nothing needed writing; Cached when the pass was skipped.
	UpToDate bool `json:"upToDate" yaml:"upToDate"`
	Cached   bool `json:"cached,omitempty" yaml:"cached,omitempty"`
	DryRun   bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	// Err is a tool-level failure. Artifact failures are counted, not returned.
	Err       error            `json:"-" yaml:"-"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
	Artifacts []ArtifactResult `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Warnings  []report.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Failed reports whether the tool did not fully converge because of an error.
func (r *ToolResult) Failed() bool {
	return r.Err != nil || r.Counts.Failed > 0
}

func (r *ToolResult) fail(err error) {
	if r.Err == nil {
		r.Err = err
		r.Error = err.Error()
	}
}

// ExitStatus is the overall outcome of a run.
type ExitStatus string

const (
	StatusSuccess  ExitStatus = "success"
	StatusWarnings ExitStatus = "warnings"
	StatusFailure  ExitStatus = "failure"
)

// SyncRequest selects what one run syncs.
type SyncRequest struct {
	// Dir is the directory whose configuration is resolved.
	Dir string
	// Tools restricts the run; empty means every enabled destination.
	Tools []string

	DryRun  bool
	Verbose bool
	Force   bool
}

// SyncResult is the outcome of one run across tools.
type SyncResult struct {
	RunID     string        `json:"runId" yaml:"runId"`
	Dir       string        `json:"dir" yaml:"dir"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Tools     []ToolResult  `json:"tools" yaml:"tools"`
	// Warnings are resolution warnings shared by every tool.
	Warnings []report.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ExitStatus folds every tool outcome into one status.
func (r *SyncResult) ExitStatus() ExitStatus {
	status := StatusSuccess
	if len(r.Warnings) > 0 {
		status = StatusWarnings
	}
	for i := range r.Tools {
		t := &r.Tools[i]
		if t.Failed() {
			return StatusFailure
		}
		if len(t.Warnings) > 0 || t.Counts.Conflicts > 0 {
			status = StatusWarnings
		}
	}
	return status
}

// ChangeEvent is a detected change to a sync input.
type ChangeEvent struct {
	// Path is the file that changed.
	Path string

	// Operation describes what kind of change occurred.
	Operation ChangeOperation

	// Timestamp is when the change was detected.
	Timestamp time.Time
}

// ChangeOperation represents the type of change detected.
type ChangeOperation string

const (
	OperationCreate ChangeOperation = "Create"
	OperationUpdate ChangeOperation = "Update"
	OperationDelete ChangeOperation = "Delete"
)

// ChangeDetector reports changes to the files a sync depends on.
type ChangeDetector interface {
	// Start begins watching. Change events are sent to changes.
	Start(ctx context.Context, changes chan<- ChangeEvent) error

	// Stop gracefully stops the detector.
	Stop() error

	// AddPath watches path and, for directories, everything below it.
	AddPath(path string) error
}
