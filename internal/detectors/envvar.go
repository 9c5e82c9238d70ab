package detectors

import (
	"regexp"
	"slices"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

const sensitiveName = `[A-Za-z0-9_]*(?i:SECRET|TOKEN|PASSWORD|PASSWD|API_?KEY|APIKEY|PRIVATE_?KEY|ACCESS_?KEY|CREDENTIALS?)[A-Za-z0-9_]*|[A-Za-z0-9_]+_(?i:KEY|PAT)`

var (
	reSensitiveRef    = re(`\$\{?(` + sensitiveName + `)\b`)
	reSensitiveAssign = re(`(?:^|[\s;&|(])(?:export\s+|set\s+|setenv\s+|local\s+|declare\s+(?:-\w+\s+)?)?(` + sensitiveName + `)=`)
	// Echoing, printing, network transfer or version control turns a
	// reference into exposure.
	reExposure = re(`(?i)\b(?:echo|printf|print|println|cat|tee|logger|puts|console\.log|write-host|curl|wget|nc|ncat|netcat|socat|scp|rsync|sftp|ftp|telnet|ssh|http|git\s+(?:commit|add|push|tag)|gh\s+(?:gist|issue|pr|secret\s+set\s+[^;&|\n]*--body))\b`)
)

// Names that match the sensitive shape but carry no secret.
var benignVariables = []string{"TOKENIZERS_PARALLELISM", "GPG_TTY", "SSH_AUTH_SOCK", "KEY_PATH"}

func sensitiveVariable(text string, cfg config.DetectorConfig) (string, bool) {
	for _, r := range []*regexp.Regexp{reSensitiveRef, reSensitiveAssign} {
		for _, m := range r.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if slices.Contains(cfg.AllowedVariables, name) || slices.Contains(benignVariables, name) {
				continue
			}
			return name, true
		}
	}
	return "", false
}

var envVarLeak = newDetector(Detector{
	ID:          "env-var-leak",
	Description: "Exposure of secret environment variables",
	Safe: []*regexp.Regexp{
		re(`\A\s*unset\s+[A-Za-z0-9_ ]+\z`),
		re(`\A\s*\[\[?\s+-[nz]\s+"?\$\{?[A-Za-z0-9_]+\}?"?\s*\]\]?\s*\z`),
	},
	Categories: []Category{
		{
			Name:     "environment-dump-exfiltration",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Environment dump sent off host ({token})",
			Rules: rules(
				re(`\b((?:env|printenv|set|export\s+-p|declare\s+-x)\b[^;&\n]*\|[^;&\n]*\b(?:curl|wget|nc|ncat|netcat|socat|ssh|scp|telnet|openssl\s+s_client))\b`),
				re(`\b((?:env|printenv)\b[^;&|\n]*>\s*/dev/(?:tcp|udp)/\S+)`),
				re(`(/proc/(?:self|\d+|\$\$|\*)/environ)\b`),
			),
		},
		{
			Name:     "sensitive-variable",
			Priority: 90,
			Severity: types.SevMed,
			Message:  "Sensitive environment variable {token} referenced",
			Match:    sensitiveVariable,
		},
		{
			Name:     "environment-dump",
			Priority: 80,
			Severity: types.SevMed,
			Message:  "Full environment dump ({token})",
			Rules: rules(
				cmd(`env|printenv`, `[ \t]*(?:$|[\n;&|>)])`),
				cmd(`export`, `\s+-p\b`),
				cmd(`declare`, `\s+-x\s*(?:$|[\n;&|>)])`),
			),
		},
	},
	// A sensitive reference is high when the value is echoed, printed, sent
	// over the network or committed; otherwise it keeps the category default.
	Escalate: func(text string, c *Category, _ config.DetectorConfig) types.Severity {
		if c.Name != "sensitive-variable" {
			return c.Severity
		}
		if reExposure.MatchString(text) {
			return types.SevHigh
		}
		return types.SevMed
	},
})
