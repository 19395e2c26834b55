package formatting

import (
	"io"

	"gopkg.in/yaml.v3"

	"hawk/internal/events"
	"hawk/internal/reconciler"
)

// YAMLFormatter writes every view as one YAML document.
type YAMLFormatter struct {
	w io.Writer
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(w io.Writer) Formatter {
	return &YAMLFormatter{w: w}
}

func (f *YAMLFormatter) encode(v interface{}) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// SyncResult writes res with its exit status.
func (f *YAMLFormatter) SyncResult(res *reconciler.SyncResult) error {
	if res == nil {
		return ErrNilResult
	}
	return f.encode(struct {
		reconciler.SyncResult `yaml:",inline"`
		Status                reconciler.ExitStatus `yaml:"status"`
	}{*res, res.ExitStatus()})
}

func (f *YAMLFormatter) Resolved(v Resolved) error { return f.encode(v) }

func (f *YAMLFormatter) Events(mappings []events.Mapping) error {
	return f.encode(map[string]interface{}{"mappings": mappings})
}

func (f *YAMLFormatter) Status(s Status) error { return f.encode(s) }

func (f *YAMLFormatter) Check(c Check) error {
	return f.encode(struct {
		Check `yaml:",inline"`
		OK    bool `yaml:"ok"`
	}{c, c.OK()})
}
