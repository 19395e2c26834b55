package formatting

import (
	"encoding/json"
	"io"

	"hawk/internal/events"
	"hawk/internal/reconciler"
)

// JSONFormatter writes every view as one indented JSON document.
type JSONFormatter struct {
	w io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) Formatter {
	return &JSONFormatter{w: w}
}

func (f *JSONFormatter) encode(v interface{}) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SyncResult writes res with its exit status.
func (f *JSONFormatter) SyncResult(res *reconciler.SyncResult) error {
	if res == nil {
		return ErrNilResult
	}
	return f.encode(struct {
		reconciler.SyncResult
		Status reconciler.ExitStatus `json:"status"`
	}{*res, res.ExitStatus()})
}

func (f *JSONFormatter) Resolved(v Resolved) error { return f.encode(v) }

func (f *JSONFormatter) Events(mappings []events.Mapping) error {
	return f.encode(map[string]interface{}{"mappings": mappings})
}

func (f *JSONFormatter) Status(s Status) error { return f.encode(s) }

func (f *JSONFormatter) Check(c Check) error {
	return f.encode(struct {
		Check
		OK bool `json:"ok"`
	}{c, c.OK()})
}
