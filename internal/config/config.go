package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/varalys/cmdguard/internal/types"
)

// DetectorConfig is the validated per-detector configuration. Fields a
// detector does not use stay at their zero value.
type DetectorConfig struct {
	Enabled  bool           `json:"enabled"`
	Severity types.Severity `json:"severity,omitempty"`

	CustomPatterns     []string `json:"customPatterns,omitempty"`
	MinEntropy         float64  `json:"minEntropy,omitempty"`
	IgnorePlaceholders bool     `json:"ignorePlaceholders,omitempty"`

	SafePaths []string `json:"safePaths,omitempty"`

	ProtectedBranches   []string `json:"protectedBranches,omitempty"`
	AllowForceWithLease bool     `json:"allowForceWithLease,omitempty"`

	TrustedDomains     []string `json:"trustedDomains,omitempty"`
	TrustedRegistries  []string `json:"trustedRegistries,omitempty"`
	CheckTyposquatting bool     `json:"checkTyposquatting,omitempty"`

	AllowedVariables []string `json:"allowedVariables,omitempty"`

	AllowPrivilegedForCI bool `json:"allowPrivilegedForCI,omitempty"`
}

// GlobalSettings controls how the boundary layer acts on findings.
type GlobalSettings struct {
	MinSeverity     types.Severity `json:"minSeverity"`
	ExitOnDetection bool           `json:"exitOnDetection"`
	JSONOutput      bool           `json:"jsonOutput"`
}

// Config is the merged and validated configuration. It is never mutated after
// Resolve returns and may be shared across goroutines.
type Config struct {
	Detectors      map[string]DetectorConfig `json:"detectors"`
	GlobalSettings GlobalSettings            `json:"globalSettings"`
}

// Detector returns the configuration for id and whether it is present.
func (c Config) Detector(id string) (DetectorConfig, bool) {
	d, ok := c.Detectors[id]
	return d, ok
}

// ValidationError reports the first invalid field found, addressed by a
// dotted path such as "detectors.credential-leak.minEntropy".
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration at %s: %s", e.Path, e.Message)
}

func invalid(path, format string, args ...any) error {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Default returns the built-in configuration.
func Default() Config {
	cfg, err := Resolve(nil)
	if err != nil {
		panic("config: built-in defaults do not validate: " + err.Error())
	}
	return cfg
}

// Resolve merges override onto the defaults, validates the result and decodes
// it. No configuration is returned when validation fails.
func Resolve(override map[string]any) (Config, error) {
	merged := Merge(DefaultMap(), override)
	if err := Validate(merged); err != nil {
		return Config{}, err
	}
	return decode(merged)
}

func decode(m map[string]any) (Config, error) {
	var cfg Config
	b, err := json.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encode merged config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode merged config: %w", err)
	}
	return cfg, nil
}

// Merge returns base with override applied. Nested objects merge key by key;
// any other override value, arrays included, replaces the base value wholly.
// Neither argument is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, ov := range override {
		if om, ok := ov.(map[string]any); ok {
			if bm, ok := out[k].(map[string]any); ok {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = cloneValue(ov)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = cloneValue(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = cloneValue(c)
		}
		return out
	case []string:
		return genericValue(t)
	}
	return v
}

// Validate checks a merged configuration map and returns the first violation.
func Validate(m map[string]any) error {
	for _, k := range sortedKeys(m) {
		if k != "detectors" && k != "globalSettings" {
			return invalid(k, "unknown top-level key")
		}
	}
	rawDetectors, ok := m["detectors"]
	if !ok {
		return invalid("detectors", "is required")
	}
	detectors, ok := rawDetectors.(map[string]any)
	if !ok {
		return invalid("detectors", "must be an object")
	}
	rawGlobal, ok := m["globalSettings"]
	if !ok {
		return invalid("globalSettings", "is required")
	}

	for _, id := range sortedKeys(detectors) {
		if !IsKnownDetector(id) {
			return invalid("detectors."+id, "unknown detector id (known: %s)", strings.Join(DetectorIDs(), ", "))
		}
	}
	for _, s := range schemas {
		raw, ok := detectors[s.id]
		if !ok {
			return invalid("detectors."+s.id, "is required")
		}
		if err := validateDetector(&s, raw); err != nil {
			return err
		}
	}
	return validateGlobal(rawGlobal)
}

func validateDetector(s *detectorSchema, raw any) error {
	base := "detectors." + s.id
	d, ok := raw.(map[string]any)
	if !ok {
		return invalid(base, "must be an object")
	}
	enabled, ok := d["enabled"]
	if !ok {
		return invalid(base+".enabled", "is required")
	}
	if _, ok := enabled.(bool); !ok {
		return invalid(base+".enabled", "must be a boolean")
	}
	if sev, ok := d["severity"]; ok && sev != nil {
		if err := validateSeverity(base+".severity", sev); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(d) {
		if k == "enabled" || k == "severity" {
			continue
		}
		if s.field(k) == nil {
			return invalid(base+"."+k, "unknown field for detector %s", s.id)
		}
	}
	for _, f := range s.fields {
		v, ok := d[f.name]
		if !ok {
			return invalid(base+"."+f.name, "is required")
		}
		if !checkKind(f.kind, v) {
			return invalid(base+"."+f.name, "must be %s", f.kind)
		}
	}
	return nil
}

func validateGlobal(raw any) error {
	g, ok := raw.(map[string]any)
	if !ok {
		return invalid("globalSettings", "must be an object")
	}
	for _, k := range sortedKeys(g) {
		switch k {
		case "minSeverity", "exitOnDetection", "jsonOutput":
		default:
			return invalid("globalSettings."+k, "unknown setting")
		}
	}
	sev, ok := g["minSeverity"]
	if !ok {
		return invalid("globalSettings.minSeverity", "is required")
	}
	if err := validateSeverity("globalSettings.minSeverity", sev); err != nil {
		return err
	}
	for _, name := range []string{"exitOnDetection", "jsonOutput"} {
		v, ok := g[name]
		if !ok {
			return invalid("globalSettings."+name, "is required")
		}
		if !checkKind(kindBool, v) {
			return invalid("globalSettings."+name, "must be a boolean")
		}
	}
	return nil
}

func validateSeverity(path string, v any) error {
	s, ok := v.(string)
	if !ok || !types.Severity(s).Valid() {
		return invalid(path, "must be one of low, medium, high (got %v)", v)
	}
	return nil
}

func checkKind(k fieldKind, v any) bool {
	switch k {
	case kindBool:
		_, ok := v.(bool)
		return ok
	case kindStringList:
		switch t := v.(type) {
		case []string:
			return true
		case []any:
			for _, e := range t {
				if _, ok := e.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	case kindNonNegativeNumber:
		n, ok := toFloat(v)
		return ok && !math.IsNaN(n) && !math.IsInf(n, 0) && n >= 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
