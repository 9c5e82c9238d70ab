package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

const sensitivePath = `\S*(?:\.ssh/|\.aws/|\.env\b|\.kube/|\.gnupg|/etc/(?:passwd|shadow)|\.netrc|\.npmrc|\.pypirc|\.git-credentials|id_rsa|id_ed25519|id_ecdsa|credentials|\.pem\b|\.key\b|\.p12\b|\.pfx\b)\S*`

var (
	reUpload = re(`\b(?:curl\b[^;&|\n]*(?:\s-F\s*|\s--form\s+|\s-d\s*|\s--data(?:-binary|-raw|-urlencode)?[= ]\s*|\s-T\s*|\s--upload-file\s+|\s-X\s*["']?(?:POST|PUT|PATCH)\b)|wget\b[^;&|\n]*--post-(?:file|data)\b)[^;&|\n]*`)
	// stdin piped into an uploading client
	rePipeUpload = re(`\|\s*curl\b[^;&|\n]*(?:@-|-T\s*-|--upload-file\s+-)[^;&|\n]*`)
)

func untrustedUpload(text string, cfg config.DetectorConfig) (string, bool) {
	for _, r := range []*regexp.Regexp{reUpload, rePipeUpload} {
		for _, seg := range r.FindAllString(text, -1) {
			hs := hosts(seg)
			for _, h := range hs {
				if !hostTrusted(h, cfg.TrustedDomains) {
					return h, true
				}
			}
		}
	}
	return "", false
}

var dataExfiltration = newDetector(Detector{
	ID:          "data-exfiltration",
	Description: "Sending local data to remote hosts",
	Categories: []Category{
		{
			Name:     "sensitive-file-upload",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Sensitive file {token} sent to a remote host",
			Rules: rules(
				re(`\bcurl\b[^;&|\n]*(?:-F\s*["']?[\w-]+=[<@]|--data(?:-binary|-raw|-urlencode)?[= ]\s*["']?@|-d\s*["']?@|-T\s*|--upload-file\s+)["']?(`+sensitivePath+`)`),
				re(`\bwget\b[^;&|\n]*--post-file[= ]["']?(`+sensitivePath+`)`),
				re(`\b(?:scp|rsync|sftp)\b[^;&|\n]*\s["']?(`+sensitivePath+`)["']?\s+\S*@?[\w.-]+:`),
				re(`\bcat\s+["']?(`+sensitivePath+`)["']?[^;&\n]*\|\s*(?:curl|nc|ncat|netcat|socat|ssh)\b`),
			),
		},
		{
			Name:     "dns-exfiltration",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Data encoded into DNS lookups ({token})",
			Rules: rules(
				cmd(`dig|nslookup|host|drill`, `[^;&|\n]*(\$\(|`+"`"+`)`),
				cmd(`ping`, `[^;&|\n]*(\$\(|`+"`"+`)[^;&|\n]*\.`),
			),
		},
		{
			Name:     "pipe-to-socket",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Output streamed to a raw network socket ({token})",
			Rules: rules(
				re(`\|\s*((?:nc|ncat|netcat|socat|telnet)\b[^;&|\n]*)`),
				re(`>\s*(/dev/(?:tcp|udp)/\S+)`),
				re(`\b(openssl\s+s_client\b[^;&\n]*)<`),
			),
		},
		{
			Name:     "exfiltration-service",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "Request to a paste, webhook or tunnel service ({token})",
			Rules: rules(
				re(`(?i)\b((?:pastebin\.com|paste\.ee|hastebin\.com|ghostbin\.\w+|transfer\.sh|file\.io|0x0\.st|termbin\.com|webhook\.site|requestbin\.\w+|pipedream\.net|ngrok\.io|ngrok-free\.app|interact\.sh|oast\.\w+|burpcollaborator\.net|canarytokens\.com)|discord(?:app)?\.com/api/webhooks)\b`),
			),
		},
		{
			Name:     "untrusted-upload",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "Data uploaded to untrusted host {token}",
			Match:    untrustedUpload,
		},
	},
})
