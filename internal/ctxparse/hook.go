// Package ctxparse decodes the records agent hooks hand over into a
// CommandContext. Both the nested {"tool_input":{"command":...}} shape and a
// flat {"command":...} object are accepted; every other field is kept as extra
// context so detectors can scan it.
package ctxparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	yaml "gopkg.in/yaml.v3"

	"github.com/varalys/cmdguard/internal/types"
)

var (
	// ErrEmpty means the payload held no data at all.
	ErrEmpty = errors.New("empty input")
	// ErrNotObject means the payload decoded to something other than an object.
	ErrNotObject = errors.New("input is not an object")
)

const toolInput = "tool_input"

// Hook decodes a JSON hook payload.
func Hook(b []byte) (types.CommandContext, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return types.CommandContext{}, ErrEmpty
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return types.CommandContext{}, fmt.Errorf("decode hook input: %w", err)
	}
	return fromValue(v)
}

// YAML decodes a YAML record, used for fixture files and manual testing.
func YAML(b []byte) (types.CommandContext, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return types.CommandContext{}, ErrEmpty
	}
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return types.CommandContext{}, fmt.Errorf("decode yaml input: %w", err)
	}
	return fromValue(normalize(v))
}

// Command wraps a bare shell string.
func Command(s string) types.CommandContext {
	return types.CommandContext{Command: s}
}

func fromValue(v any) (types.CommandContext, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return types.CommandContext{}, ErrNotObject
	}
	if len(m) == 0 {
		return types.CommandContext{}, ErrEmpty
	}
	var ctx types.CommandContext
	extra := make(map[string]any, len(m))
	for k, val := range m {
		extra[k] = val
	}
	if ti, ok := m[toolInput].(map[string]any); ok {
		if s, ok := ti["command"].(string); ok {
			ctx.Command = s
			rest := make(map[string]any, len(ti))
			for k, val := range ti {
				if k != "command" {
					rest[k] = val
				}
			}
			if len(rest) == 0 {
				delete(extra, toolInput)
			} else {
				extra[toolInput] = rest
			}
		}
	}
	if ctx.Command == "" {
		if s, ok := m["command"].(string); ok {
			ctx.Command = s
			delete(extra, "command")
		}
	}
	if len(extra) > 0 {
		ctx.Extra = extra
	}
	return ctx, nil
}

// normalize converts yaml.v3 maps into map[string]any so the result looks
// like decoded JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, c := range t {
			t[k] = normalize(c)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[fmt.Sprint(k)] = normalize(c)
		}
		return out
	case []any:
		for i, c := range t {
			t[i] = normalize(c)
		}
		return t
	}
	return v
}
