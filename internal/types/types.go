package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Severity is a coarse-grained risk level for a finding.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// ParseSeverity maps a config or flag value to a Severity. Only the three
// enumerated levels are accepted.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SevLow:
		return SevLow, true
	case SevMed:
		return SevMed, true
	case SevHigh:
		return SevHigh, true
	}
	return "", false
}

// Valid reports whether s is one of the enumerated levels.
func (s Severity) Valid() bool {
	switch s {
	case SevLow, SevMed, SevHigh:
		return true
	}
	return false
}

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SevHigh:
		return 3
	case SevMed:
		return 2
	case SevLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// Finding is the result of one detector matching one command.
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Detector string   `json:"detectorId"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Detector, f.Message)
}

// CommandContext is the input record handed over by the hook layer. Command is
// the shell text; Extra keeps every other field of the record so that detectors
// can scan it as well.
type CommandContext struct {
	Command string
	Extra   map[string]any
}

func (c CommandContext) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.Command != "" {
		out["command"] = c.Command
	}
	return json.Marshal(out)
}

func (c *CommandContext) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Command = ""
	c.Extra = nil
	for k, v := range raw {
		if k == "command" {
			if s, ok := v.(string); ok {
				c.Command = s
				continue
			}
		}
		if c.Extra == nil {
			c.Extra = map[string]any{}
		}
		c.Extra[k] = v
	}
	return nil
}

// Canonical serializes the whole context into the single string detectors scan.
// The command comes first; extra fields follow one per line as key=value in
// sorted key order, nested objects flattened with dotted keys. The result is
// NFKC-normalized so fullwidth and compatibility forms match ASCII rules.
func (c CommandContext) Canonical() string {
	cmd, extra := c.CanonicalCommand(), c.CanonicalExtra()
	if extra == "" {
		return cmd
	}
	return cmd + "\n" + extra
}

// CanonicalCommand is the NFKC-normalized command alone.
func (c CommandContext) CanonicalCommand() string {
	return norm.NFKC.String(c.Command)
}

// CanonicalExtra is the NFKC-normalized extra fields, one key=value per line
// in sorted order. It is empty when the context has no extra fields.
func (c CommandContext) CanonicalExtra() string {
	var lines []string
	flatten("", c.Extra, &lines)
	sort.Strings(lines)
	return norm.NFKC.String(strings.Join(lines, "\n"))
}

func flatten(prefix string, v any, out *[]string) {
	switch t := v.(type) {
	case nil:
		if prefix != "" {
			*out = append(*out, prefix+"=")
		}
	case map[string]any:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []any:
		for i, child := range t {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), child, out)
		}
	case string:
		*out = append(*out, prefix+"="+t)
	default:
		*out = append(*out, fmt.Sprintf("%s=%v", prefix, t))
	}
}
