package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
	v "github.com/varalys/cmdguard/internal/validate"
)

// tokenFormat is a provider token shape with an optional structural check.
type tokenFormat struct {
	re    *regexp.Regexp
	check func(string) bool
}

var tokenFormats = []tokenFormat{
	{re(`\b((?:AKIA|ASIA)[0-9A-Z]{16})\b`), v.LooksLikeAWSAccessKey},
	{re(`\b(gh[pousr]_[A-Za-z0-9]{36})\b`), v.LooksLikeGitHubToken},
	{re(`\b(github_pat_[A-Za-z0-9_]{82})\b`), nil},
	{re(`\b(glpat-[A-Za-z0-9_-]{20,})\b`), nil},
	{re(`\b(xox[baprs]-[A-Za-z0-9-]{10,})\b`), nil},
	{re(`\b([sr]k_live_[A-Za-z0-9]{24,})\b`), nil},
	{re(`\b(whsec_[A-Za-z0-9]{32,})\b`), nil},
	{re(`\b(sk-ant-(?:api03-|admin01-)?[A-Za-z0-9_-]{32,})`), nil},
	{re(`\b(sk-(?:proj-)?[A-Za-z0-9_-]{40,})`), v.LooksLikeOpenAIKey},
	{re(`\b(npm_[A-Za-z0-9]{36})\b`), nil},
	{re(`\b(AIza[0-9A-Za-z_-]{35})\b`), nil},
	{re(`\b(pypi-AgEIcHlwaS5vcmc[A-Za-z0-9_-]{50,})`), nil},
	{re(`\b(hf_[A-Za-z0-9]{34,})\b`), nil},
	{re(`\b(gsk_[A-Za-z0-9]{48,})\b`), nil},
	{re(`\b(dop_v1_[a-f0-9]{64})\b`), nil},
	{re(`\b(SG\.[A-Za-z0-9_-]{22}\.[A-Za-z0-9_-]{43})`), nil},
	{re(`(https://hooks\.slack\.com/services/T[A-Z0-9]+/B[A-Z0-9]+/[A-Za-z0-9]+)`), nil},
	{re(`\b(eyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]*)`), v.IsJWTStructure},
}

func knownToken(text string, cfg config.DetectorConfig) (string, bool) {
	for _, f := range tokenFormats {
		for _, m := range f.re.FindAllStringSubmatch(text, -1) {
			tok := m[1]
			if f.check != nil && !f.check(tok) {
				continue
			}
			if cfg.IgnorePlaceholders && v.LooksLikePlaceholder(tok) {
				continue
			}
			return tok, true
		}
	}
	return "", false
}

func customPattern(text string, cfg config.DetectorConfig) (string, bool) {
	for _, expr := range cfg.CustomPatterns {
		r := compileCustom(expr)
		if r == nil {
			continue
		}
		if m := r.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

var reURLCreds = re(`\b([a-zA-Z][a-zA-Z0-9+.-]*://)([^\s:/@'"]+):([^\s@/'"]+)@([^\s/'"]+)`)

func urlCredentials(text string, cfg config.DetectorConfig) (string, bool) {
	for _, m := range reURLCreds.FindAllStringSubmatch(text, -1) {
		pass := m[3]
		if cfg.IgnorePlaceholders && v.LooksLikePlaceholder(pass) {
			continue
		}
		return m[1] + m[2] + ":****@" + m[4], true
	}
	return "", false
}

const credentialFiles = `((?:~|\$HOME|\$\{HOME\}|/home/[^/\s]+|/root|/Users/[^/\s]+)?/?(?:` +
	`\.ssh/(?:id_[a-z0-9_]+|identity)|` +
	`\.aws/credentials|` +
	`\.config/gcloud/(?:credentials\.db|application_default_credentials\.json|legacy_credentials\S*)|` +
	`\.azure/(?:accessTokens\.json|msal_token_cache\S*)|` +
	`\.kube/config|\.docker/config\.json|\.netrc|\.npmrc|\.pypirc|\.git-credentials|` +
	`\.gnupg/private-keys\S*|/etc/shadow|/etc/gshadow|` +
	`\.env(?:\.(?:local|production|prod|development|dev|staging))?` +
	`))(?:\s|$|["';&|)])`

var reCredentialReader = re(`\b(?:cat|less|more|head|tail|cp|scp|mv|base64|xxd|od|strings|grep|awk|sed|tar|zip|curl|wget|nc|rsync|gpg|openssl|python\d?|node|type|bat|source|vi|vim|nano|code)\b|<\s*\S`)

var credentialLeak = newDetector(Detector{
	ID:          "credential-leak",
	Description: "Secrets in command text and reads of credential stores",
	Categories: []Category{
		{
			Name:     "private-key-material",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Private key material in command ({token})",
			Rules: rules(
				re(`(-----BEGIN (?:[A-Z]+ )*PRIVATE KEY(?: BLOCK)?-----)`),
				re(`(PuTTY-User-Key-File-\d)`),
			),
		},
		{
			Name:     "known-token-format",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Provider credential in command ({token})",
			Redact:   true,
			Match:    knownToken,
		},
		{
			Name:     "custom-pattern",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Command matches custom secret pattern ({token})",
			Redact:   true,
			Match:    customPattern,
		},
		{
			Name:     "credential-file-access",
			Priority: 70,
			Severity: types.SevHigh,
			Message:  "Access to credential store {token}",
			Rules:    []Rule{{Pattern: re(credentialFiles), Requires: reCredentialReader}},
		},
		{
			Name:     "credential-in-url",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "Credentials embedded in URL ({token})",
			Match:    urlCredentials,
		},
		{
			Name:     "inline-secret",
			Priority: 50,
			Severity: types.SevMed,
			Message:  "High-entropy secret passed inline ({token})",
			Redact:   true,
			Match:    inlineSecret,
		},
	},
})

