// Package template renders generated host files from text/template sources
// extended with the sprig function library.
package template

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine parses templates once and renders them on demand.
type Engine struct {
	mu     sync.Mutex
	parsed map[string]*template.Template
}

// New creates a new template engine
func New() *Engine {
	return &Engine{parsed: make(map[string]*template.Template)}
}

// Render executes the template text registered under name with data.
// Missing keys are errors rather than "<no value>".
func (e *Engine) Render(name, text string, data any) ([]byte, error) {
	tmpl, err := e.lookup(name, text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) lookup(name, text string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.parsed[name]; ok {
		return t, nil
	}
	t, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	e.parsed[name] = t
	return t, nil
}
