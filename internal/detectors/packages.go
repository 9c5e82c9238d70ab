package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

var reRegistryURL = []*regexp.Regexp{
	re(`\b(?:npm|pnpm|yarn|bun|npx)\b[^;&|\n]*--registry[= ]["']?([^\s"']+)`),
	re(`\b(?:npm|pnpm|yarn)\s+config\s+set\s+(?:@\S+:)?registry\s+["']?([^\s"']+)`),
	re(`\b(?:pip\d?|uv\s+pip|pipx)\b[^;&|\n]*(?:--index-url|--extra-index-url|\s-i)[= ]\s*["']?([^\s"']+)`),
	re(`\b(?:PIP_INDEX_URL|PIP_EXTRA_INDEX_URL|NPM_CONFIG_REGISTRY|npm_config_registry|UV_INDEX_URL)=["']?([^\s"']+)`),
	re(`\bgem\b[^;&|\n]*--source[= ]["']?([^\s"']+)`),
	re(`\bcargo\b[^;&|\n]*--index[= ]["']?([^\s"']+)`),
	re(`\bGOPROXY=["']?([^\s"',]+)`),
}

func untrustedRegistry(text string, cfg config.DetectorConfig) (string, bool) {
	for _, r := range reRegistryURL {
		for _, m := range r.FindAllStringSubmatch(text, -1) {
			switch m[1] {
			case "direct", "off":
				continue
			}
			h := hostOf(m[1])
			if h == "" || !hostTrusted(h, cfg.TrustedRegistries) {
				return m[1], true
			}
		}
	}
	return "", false
}

var packagePoisoning = newDetector(Detector{
	ID:          "package-poisoning",
	Description: "Untrusted registries, typosquats and unsafe installs",
	Safe: []*regexp.Regexp{
		re(`\A\s*(?:npm|pnpm|yarn|bun)(?:\s+(?:ci|install|i))?(?:\s+(?:--frozen-lockfile|--immutable|--prefer-offline|--ignore-scripts))*\s*\z`),
		re(`\A\s*(?:npm|pnpm|yarn)\s+(?:ls|list|outdated|audit|view|info|why|test|run\s+\S+)\b[^;&|\n]*\z`),
		re(`\A\s*pip\d?\s+(?:list|show|freeze|check)\b[^;&|\n]*\z`),
		re(`\A\s*pip\d?\s+install\s+(?:-r|--requirement)\s+\S+\s*\z`),
	},
	Categories: []Category{
		{
			Name:     "untrusted-registry",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Packages installed from untrusted registry {token}",
			Match:    untrustedRegistry,
		},
		{
			Name:     "typosquat",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Possible typosquat: {token}",
			When: func(_ string, cfg config.DetectorConfig) bool {
				return cfg.CheckTyposquatting
			},
			Match: func(text string, _ config.DetectorConfig) (string, bool) {
				return typosquat(text)
			},
		},
		{
			Name:     "install-from-url",
			Priority: 80,
			Severity: types.SevMed,
			Message:  "Package installed directly from {token}",
			Rules: rules(
				re(`\b(?:npm|pnpm|yarn|bun)\s+(?:install|i|add)\b[^;&|\n]*\s((?:https?://|git\+|github:|gitlab:|bitbucket:)\S+)`),
				re(`\b(?:pip\d?|uv\s+pip|pipx)\s+install\b[^;&|\n]*\s((?:https?://|git\+)\S+)`),
				re(`\bgem\s+install\b[^;&|\n]*\s(https?://\S+)`),
				re(`\bcargo\s+install\b[^;&|\n]*--git\s+(\S+)`),
				re(`\bgo\s+install\b[^;&|\n]*\s(\S+@(?:master|main|HEAD))\b`),
			),
		},
		{
			Name:     "insecure-install-flags",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "Install weakens package verification ({token})",
			Rules: rules(
				re(`\bpip\d?\b[^;&|\n]*\s(--trusted-host(?:[= ]\S+)?)`),
				re(`\bnpm\b[^;&|\n]*\s(--unsafe-perm(?:=true)?)\b`),
				re(`\b(?:npm|yarn|pnpm)\b[^;&|\n]*(strict-ssl\s*(?:=\s*|\s+)false)\b`),
				re(`\b(npm_config_strict_ssl=false)\b`),
				re(`\bapt(?:-get)?\b[^;&|\n]*\s(--allow-unauthenticated)\b`),
				re(`\b(GOINSECURE=\S+|GONOSUMDB=\S+|GONOSUMCHECK=\S+|GOSUMDB=off)`),
				re(`\bpip\d?\s+install\b[^;&|\n]*\s(--break-system-packages)\b`),
			),
		},
	},
})
