package component

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

const (
	hookHeaderTag   = "hawk-hook:"
	hookHeaderLines = 20
)

var commentLeaders = []string{"#", "//", "--"}

// ParseHookHeader reads hawk-hook header lines from the start of a script.
// A script without a header yields empty metadata, not an error.
func ParseHookHeader(r io.Reader) (*HookMeta, error) {
	meta := &HookMeta{}
	scanner := bufio.NewScanner(r)
	for line := 0; line < hookHeaderLines && scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		body, ok := stripComment(text)
		if !ok {
			continue
		}
		idx := strings.Index(body, hookHeaderTag)
		if idx < 0 {
			continue
		}
		if err := parseHookFields(meta, body[idx+len(hookHeaderTag):]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return meta, nil
}

func stripComment(line string) (string, bool) {
	for _, leader := range commentLeaders {
		if strings.HasPrefix(line, leader) {
			return strings.TrimSpace(strings.TrimPrefix(line, leader)), true
		}
	}
	return "", false
}

func parseHookFields(meta *HookMeta, fields string) error {
	for _, field := range strings.Fields(fields) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", field)
		}
		switch key {
		case "events", "event":
			for _, ev := range strings.Split(value, ",") {
				if ev = strings.TrimSpace(ev); ev != "" {
					meta.Events = append(meta.Events, ev)
				}
			}
		case "matcher":
			meta.Matcher = value
		case "blocking":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("blocking: %w", err)
			}
			meta.Blocking = b
		case "timeout":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return fmt.Errorf("timeout must be a non-negative number of seconds, got %q", value)
			}
			meta.Timeout = n
		default:
			return fmt.Errorf("unknown hook header field %q", key)
		}
	}
	return nil
}

// ParseServerDescriptor decodes a YAML or JSON MCP server descriptor.
func ParseServerDescriptor(data []byte) (*ServerDescriptor, error) {
	var desc ServerDescriptor
	if err := yaml.UnmarshalStrict(data, &desc); err != nil {
		return nil, err
	}
	switch {
	case desc.Command == "" && desc.URL == "":
		return nil, fmt.Errorf("descriptor needs either command or url")
	case desc.Command != "" && desc.URL != "":
		return nil, fmt.Errorf("descriptor cannot set both command and url")
	}
	if desc.Transport == "" {
		if desc.Remote() {
			desc.Transport = "http"
		} else {
			desc.Transport = "stdio"
		}
	}
	return &desc, nil
}

// digest returns the fingerprint of the parts of c that adapters transform.
func digest(c Component, raw []byte) string {
	h := sha256.New()
	switch {
	case c.Hook != nil:
		fmt.Fprintf(h, "events=%s;matcher=%s;blocking=%t;timeout=%d",
			strings.Join(c.Hook.Events, ","), c.Hook.Matcher, c.Hook.Blocking, c.Hook.Timeout)
	case raw != nil:
		h.Write(raw)
	default:
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
