package adapter

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// frontmatter is the subset of prompt metadata hawk carries across tools.
type frontmatter struct {
	Description string `yaml:"description"`
}

// splitFrontmatter separates a leading "---" YAML block from the body.
func splitFrontmatter(content []byte) (frontmatter, string) {
	var fm frontmatter
	text := string(content)
	if !strings.HasPrefix(text, "---\n") {
		return fm, text
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, text
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return frontmatter{}, text
	}
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return fm, body
}

type commandFile struct {
	Description string `toml:"description,omitempty"`
	Prompt      string `toml:"prompt,multiline"`
}

// renderCommandTOML converts a markdown prompt into a TOML command file.
// Positional "$ARGUMENTS" placeholders become "{{args}}".
func renderCommandTOML(source string) ([]byte, error) {
	content, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	fm, body := splitFrontmatter(content)
	cmd := commandFile{
		Description: fm.Description,
		Prompt:      strings.ReplaceAll(body, "$ARGUMENTS", "{{args}}"),
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s: generated from %s\n", Marker, source)
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cmd); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", source, err)
	}
	return buf.Bytes(), nil
}
