package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

// extractCmd matches an extraction invocation. Old style tar bundles the
// mode into the first argument, so tar xzf and tar -xzf both count.
const extractCmd = `(?:\b(?:bsd)?tar\s+(?:-?[a-zA-Z]*x[a-zA-Z]*|(?:[^;&|\n]*\s)?-[a-zA-Z]*x[a-zA-Z]*|(?:[^;&|\n]*\s)?--(?:extract|get))\b|\b(?:unzip|funzip|unrar\s+[xe]|7za?\s+[xe]|cpio\s+-[a-zA-Z]*i[a-zA-Z]*|jar\s+-?x[a-zA-Z]*)\b)`

var (
	reSafetyFlags = re(`\A\s*(?:sudo\s+)?tar\s+[^;&|\n]*(?:--no-same-owner\b[^;&|\n]*--no-same-permissions|--no-same-permissions\b[^;&|\n]*--no-same-owner)\b[^;&|\n]*\z`)
	reTraversal   = re(`\s(?:-P|--absolute-names)\b|\.\./`)
)

var archiveExtraction = newDetector(Detector{
	ID:          "archive-extraction",
	Description: "Unsafe archive extraction and archives of sensitive files",
	Safe: []*regexp.Regexp{
		re(`\A\s*(?:(?:bsd)?tar\s+(?:-?[a-zA-Z]*t[a-zA-Z]*\s|[^;&|\n]*--list\b)|unzip\s+-[lvZt]+\b|zipinfo\b|7za?\s+l\b|unrar\s+[lv]\b)[^;&|\n]*\z`),
	},
	SafeFunc: func(line string, _ config.DetectorConfig) bool {
		return reSafetyFlags.MatchString(line) && !reTraversal.MatchString(line)
	},
	Categories: []Category{
		{
			Name:     "path-traversal",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Extraction may write outside the target directory ({token})",
			Rules: rules(
				re(extractCmd+`[^;&|\n]*\s(-P|--absolute-names)\b`),
				re(`\b((?:bsd)?tar\s+(?:[^;&|\n]*\s)?-?(?:[a-zA-Z]*x[a-zA-Z]*P|[a-zA-Z]*P[a-zA-Z]*x)[a-zA-Z]*)\b`),
				re(`\bunzip\b[^;&|\n]*\s(-[a-zA-Z]*:)`),
				re(extractCmd+`[^;&|\n]*\s(\S*\.\./\.\./\S*)`),
			),
		},
		{
			Name:     "sensitive-destination",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Archive extracted into sensitive location {token}",
			Rules: rules(
				re(extractCmd+`[^;&|\n]*(?:\s-C\s*|\s--directory[= ]|\s-d\s+|\s-o)["']?(/|/etc|/usr|/bin|/sbin|/lib|/lib64|/boot|/root|~/?|\$HOME/?|~/\.ssh|\$HOME/\.ssh|~/\.config|/var/spool/cron|/etc/cron\S*|/Library/\S+)["']?(?:/|\s|$)`),
				re(`\bcd\s+(/|/etc|/usr|/root|~)\s*(?:&&|;)\s*(?:sudo\s+)?`+extractCmd),
			),
		},
		{
			Name:     "untrusted-source",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Archive streamed from {token} straight into an extractor",
			Match:    untrustedMatch(re(`\b(?:curl|wget)\b[^;&\n]*\|\s*(?:sudo\s+)?(?:(?:bsd)?tar|unzip|funzip|gunzip|cpio|busybox\s+(?:tar|unzip))\b`)),
		},
		{
			Name:     "recursive-bomb",
			Priority: 70,
			Severity: types.SevMed,
			Message:  "Recursive or nested extraction ({token})",
			Rules: rules(
				re(`\b(find\b[^;&|\n]*\*\.(?:zip|tar|tgz|gz|bz2|xz|7z|rar|jar)\b[^;&|\n]*-exec\s+(?:unzip|tar|7z|gunzip))\b`),
				re(`\b(for\s+\w+\s+in\b[^;\n]*\*\.(?:zip|tar|tgz|gz)\b[^\n]*\bdo\s+(?:unzip|tar|7z))\b`),
				re(`\b(find\b[^;&\n]*\.(?:zip|tar|tgz|gz|7z)\b[^;&\n]*\|\s*xargs\b[^;&|\n]*\b(?:unzip|tar|7z))\b`),
				re(`\b(42\.zip)\b`),
			),
		},
		{
			Name:     "zip-slip-in-code",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "Library extraction without path checks ({token})",
			Rules: []Rule{
				{Pattern: re(`\b((?:zipfile|tarfile|ZipFile|TarFile)\b[^\n]*\.extractall\()`), Unless: re(`filter\s*=\s*["'](?:data|tar)["']`)},
				{Pattern: re(`\b(shutil\.unpack_archive\()`)},
				{Pattern: re(`\b(extractAllTo\(|unzipper\.Extract\b|AdmZip\b)`)},
			},
		},
		{
			Name:     "missing-safety-flag",
			Priority: 50,
			Severity: types.SevLow,
			Message:  "Extraction without ownership or overwrite protection ({token})",
			Rules: []Rule{
				{Pattern: re(`\b(sudo\s+(?:bsd)?tar\s+(?:-?[a-zA-Z]*x[a-zA-Z]*|[^;&|\n]*\s-[a-zA-Z]*x[a-zA-Z]*))\b`), Unless: re(`--no-same-owner\b`)},
				{Pattern: re(`\b(unzip\s+(?:[^;&|\n]*\s)?-[a-zA-Z]*o[a-zA-Z]*)\b`)},
			},
		},
		{
			Name:     "sensitive-files-referenced",
			Priority: 40,
			Severity: types.SevMed,
			Message:  "Archive includes sensitive files ({token})",
			Rules: rules(
				re(`\b(?:tar\s+(?:-?[a-zA-Z]*c[a-zA-Z]*|[^;&|\n]*\s-[a-zA-Z]*c[a-zA-Z]*)|zip\s+(?:-\S+\s+)*\S+|7za?\s+a\s+\S+)\b[^;&|\n]*?(\.ssh\b|\.aws\b|\.gnupg\b|\.env\b|\.kube\b|\.docker/config\S*|/etc/shadow|/etc/passwd|id_rsa|id_ed25519|\.netrc|\.git-credentials|credentials\.json)`),
			),
		},
	},
})
