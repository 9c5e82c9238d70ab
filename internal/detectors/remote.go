package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

const (
	fetcher     = `(?:curl|wget|fetch|aria2c|http|https|iwr|Invoke-WebRequest|irm|Invoke-RestMethod)`
	interpreter = `(?:sudo\s+(?:-\S+\s+)*)?(?:env\s+(?:\S+=\S+\s+)*)?(?:\S*/)?(?:(?:ba|z|da|k|c|tc|fi|a)?sh|python[\d.]*|perl|ruby|node|php|pwsh|powershell|iex|Invoke-Expression)\b`
)

var (
	rePipeShell   = re(`\b` + fetcher + `\b[^;&\n]*?\|\s*` + interpreter)
	reProcSubst   = re(`(?:(?:\b(?:ba|z|k)?sh|\bsource|(?:^|[\s;&])\.)\s+<\(\s*` + fetcher + `\b[^)]*\)|\b(?:ba|z)?sh\s+-c\s+["']?\$\(\s*` + fetcher + `\b[^)]*\)|\beval\s+["']?\$\(\s*` + fetcher + `\b[^)]*\))`)
	reDownloadRun = re(`\b(?:curl|wget)\b[^\n]*?(?:\s-[a-zA-Z]*[oO]\b|\s--output(?:-document)?\b)[^\n]*?(?:&&|;|\n)\s*(?:(?:sudo\s+)?chmod\s+(?:[ugoa]*\+x|[0-7]*[1357])\b[^\n]*?(?:&&|;|\n)\s*)?(?:sudo\s+)?(?:(?:ba|z)?sh\s+\S+|\./\S+|python[\d.]*\s+\S+|/tmp/\S+)`)
)

// untrustedMatch returns the first untrusted host among all matches of r.
// Matches where every fetched host is trusted are ignored.
func untrustedMatch(r *regexp.Regexp) func(string, config.DetectorConfig) (string, bool) {
	return func(text string, cfg config.DetectorConfig) (string, bool) {
		for _, seg := range r.FindAllString(text, -1) {
			if h, ok := untrustedHost(seg, cfg.TrustedDomains); ok {
				return h, true
			}
		}
		return "", false
	}
}

var remoteExecution = newDetector(Detector{
	ID:          "remote-execution",
	Description: "Running code fetched from the network",
	Categories: []Category{
		{
			Name:     "pipe-to-shell",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Remote script from {token} piped into an interpreter",
			Match:    untrustedMatch(rePipeShell),
		},
		{
			Name:     "process-substitution",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Remote script from {token} executed through substitution",
			Match:    untrustedMatch(reProcSubst),
		},
		{
			Name:     "download-then-execute",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "File downloaded from {token} and executed",
			Match:    untrustedMatch(reDownloadRun),
		},
		{
			Name:     "insecure-transport",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "TLS verification disabled ({token})",
			Rules: rules(
				re(`\bcurl\b[^;&|\n]*\s(-k|--insecure)\b`),
				re(`\bwget\b[^;&|\n]*\s(--no-check-certificate)\b`),
				re(`\bgit\s+(?:-c\s+|config\s+(?:--global\s+)?)(http\.sslVerify[= ]\s*false)\b`),
				re(`\b(GIT_SSL_NO_VERIFY=(?:1|true))\b`),
				re(`\b(NODE_TLS_REJECT_UNAUTHORIZED=0)\b`),
				re(`\b(PYTHONHTTPSVERIFY=0)\b`),
			),
		},
	},
})
