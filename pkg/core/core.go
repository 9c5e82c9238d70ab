package core

import (
	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/engine"
	"github.com/varalys/cmdguard/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config          = config.Config
	DetectorConfig  = config.DetectorConfig
	GlobalSettings  = config.GlobalSettings
	ValidationError = config.ValidationError
	Finding         = types.Finding
	Severity        = types.Severity
	CommandContext  = types.CommandContext
)

const (
	SevLow  = types.SevLow
	SevMed  = types.SevMed
	SevHigh = types.SevHigh
)

// ErrNotAnalyzable is returned by AnalyzeInput for empty or malformed input.
var ErrNotAnalyzable = engine.ErrNotAnalyzable

// Analyze classifies a command context. A Config may be shared by concurrent
// callers.
func Analyze(ctx CommandContext, cfg Config) []Finding {
	return engine.Analyze(ctx, cfg)
}

// AnalyzeCommand classifies bare shell text.
func AnalyzeCommand(command string, cfg Config) []Finding {
	return engine.Analyze(CommandContext{Command: command}, cfg)
}

// AnalyzeInput classifies a raw hook payload.
func AnalyzeInput(raw []byte, cfg Config) ([]Finding, error) {
	return engine.AnalyzeInput(raw, cfg)
}

// Blocking returns the findings at or above settings.MinSeverity.
func Blocking(findings []Finding, settings GlobalSettings) []Finding {
	return engine.Blocking(findings, settings)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return config.Default() }

// ResolveConfig merges a partial JSON-shaped override onto the defaults and
// validates the result. Validation failures are *ValidationError.
func ResolveConfig(override map[string]any) (Config, error) {
	return config.Resolve(override)
}

// DetectorIDs returns the detector IDs in registration order.
func DetectorIDs() []string { return engine.DetectorIDs() }
