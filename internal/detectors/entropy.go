package detectors

import (
	"regexp"
	"strings"

	"github.com/varalys/cmdguard/internal/config"
	v "github.com/varalys/cmdguard/internal/validate"
)

// Inline secret candidates: assignments to secret-looking names, secret
// flags, mysql style -p<password> and Authorization headers.
var reSecretValue = []*regexp.Regexp{
	re(`(?i)\b[\w.-]*(?:password|passwd|pwd|secret|token|api[_-]?key|apikey|access[_-]?key|private[_-]?key|credential)[\w.-]*\s*[=:]\s*["']?([^\s"';&|]{8,})`),
	re(`(?i)--(?:password|passwd|token|api-key|apikey|secret|access-key|auth-token)(?:=|\s+)["']?([^\s"';&|]{8,})`),
	re(`\b(?:mysql|mysqldump|mariadb)\b[^;&|\n]*\s-p([^\s"';&|]{8,})`),
	re(`(?i)authorization:\s*(?:bearer|basic|token)\s+([A-Za-z0-9._~+/=-]{8,})`),
}

// inlineSecret finds the first candidate whose value is neither a placeholder
// (when ignorePlaceholders is set) nor below the entropy floor.
func inlineSecret(text string, cfg config.DetectorConfig) (string, bool) {
	for _, r := range reSecretValue {
		for _, m := range r.FindAllStringSubmatch(text, -1) {
			val := strings.Trim(m[1], `"'`)
			if cfg.IgnorePlaceholders && v.LooksLikePlaceholder(val) {
				continue
			}
			if v.Entropy(val) < cfg.MinEntropy {
				continue
			}
			return val, true
		}
	}
	return "", false
}
