package detectors

import (
	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

// severity resolves the final level: an explicit config severity wins, then
// the detector's escalation policy, then the category default.
func (d *Detector) severity(text string, c *Category, cfg config.DetectorConfig) types.Severity {
	if cfg.Severity.Valid() {
		return cfg.Severity
	}
	if d.Escalate != nil {
		if s := d.Escalate(text, c, cfg); s.Valid() {
			return s
		}
	}
	return clamp(c.Severity)
}

// clamp keeps authored severities inside the enum. Anything unknown is
// treated as the highest level.
func clamp(s types.Severity) types.Severity {
	if s.Valid() {
		return s
	}
	return types.SevHigh
}
