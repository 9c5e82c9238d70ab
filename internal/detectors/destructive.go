package detectors

import (
	"regexp"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

// rm with a recursive flag anywhere in its arguments. Group 1 is the argument
// list up to the next shell operator.
var reRmRecursive = cmd(`rm`, `((?:\s+[^;&|\n)]*)?\s-(?:[a-zA-Z]*[rR][a-zA-Z]*|-recursive)\b[^;&|\n)]*)`)

const rmRecursiveFlags = `\s+(?:-\S+\s+)*-(?:[a-zA-Z]*[rR][a-zA-Z]*|-recursive)\s+(?:-\S+\s+)*(?:--\s+)?`

var destructiveCommand = newDetector(Detector{
	ID:          "destructive-command",
	Description: "Irreversible deletion, disk overwrite and infrastructure teardown",
	Safe: []*regexp.Regexp{
		re(`\A\s*(?:terraform|tofu)\s+(?:plan|validate|fmt|show)\b[^;&|\n]*\z`),
		re(`\A\s*kubectl\s+delete\b[^;&|\n]*--dry-run\b[^;&|\n]*\z`),
	},
	Categories: []Category{
		{
			Name:     "root-wipe",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Recursive delete of the filesystem root or home directory ({token})",
			Rules: []Rule{
				{Pattern: cmd(`rm`, rmRecursiveFlags+`["']?(/|/\*|~/?|~/\*|\$HOME/?|\$\{HOME\}/?|\$HOME/\*)["']?(?:\s|$|[;&|)])`)},
				{Pattern: cmd(`rm`, `[^;&|\n]*(--no-preserve-root)`)},
			},
		},
		{
			Name:     "disk-overwrite",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Raw write to a block device or filesystem format ({token})",
			Rules: rules(
				re(`\bdd\b[^;&|\n]*\bof=(/dev/(?:sd|hd|vd|xvd|nvme|disk|rdisk|mmcblk|mapper/)\S*)`),
				cmd(`mkfs(?:\.\w+)?|mke2fs|mkswap`, `[^;&|\n]*`),
				re(`>\s*(/dev/(?:sd[a-z]|hd[a-z]|vd[a-z]|nvme\d|disk\d|rdisk\d|mmcblk\d)\S*)`),
				cmd(`shred|wipefs`, `[^;&|\n]*(/dev/\S+)`),
				cmd(`sgdisk`, `[^;&|\n]*(?:--zap-all|-Z)\b`),
				cmd(`parted`, `[^;&|\n]*\b(?:mklabel|rm)\b`),
			),
		},
		{
			Name:     "fork-bomb",
			Priority: 80,
			Severity: types.SevHigh,
			Message:  "Fork bomb will exhaust process table ({token})",
			Rules: rules(
				re(`:\s*\(\s*\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;?\s*:`),
				re(`\b\w+\s*\(\s*\)\s*\{\s*\w+\s*\|\s*\w+\s*&\s*\}\s*;\s*\w+`),
				re(`\bfork\s+while\s+fork\b`),
				re(`os\.fork\(\)[^\n]*while\s+True|while\s+True:[^\n]*os\.fork\(\)`),
			),
		},
		{
			Name:     "system-directory-removal",
			Priority: 70,
			Severity: types.SevHigh,
			Message:  "Recursive delete of system directory {token}",
			Rules: []Rule{
				{Pattern: cmd(`rm`, rmRecursiveFlags+`["']?(/(?:etc|usr|bin|sbin|lib|lib32|lib64|boot|var|opt|root|home|srv|dev|proc|sys|System|Library|Applications|Users)(?:/[^/\s"';&|)]*)?/?)["']?(?:\s|$|[;&|)])`)},
				{Pattern: cmd(`chmod|chown`, `\s+(?:-\S+\s+)*-R\s+\S+\s+(/(?:etc|usr|bin|sbin|lib|var|boot)?)(?:\s|$)`)},
			},
		},
		{
			Name:     "database-destruction",
			Priority: 60,
			Severity: types.SevHigh,
			Message:  "Destructive database operation ({token})",
			Rules: rules(
				re(`(?i)\b(drop\s+(?:database|schema|table|keyspace)\b(?:\s+if\s+exists)?\s*[\w."` + "`" + `-]*)`),
				re(`(?i)\b(truncate\s+table\s+[\w."` + "`" + `-]+)`),
				re(`(?i)\b(delete\s+from\s+[\w."` + "`" + `-]+)\s*(?:;|"|'|$)`),
				cmd(`dropdb|dropuser`, `[^;&|\n]*`),
				re(`(?i)\b(flushall|flushdb)\b`),
				re(`\b(db\.dropDatabase\(\)|\.drop\(\))`),
				re(`\brails\s+db:(?:drop|reset|schema:load)\b`),
				re(`\b(?:prisma\s+migrate\s+reset|manage\.py\s+flush)\b`),
			),
		},
		{
			Name:     "infrastructure-destruction",
			Priority: 50,
			Severity: types.SevHigh,
			Message:  "Infrastructure teardown ({token})",
			Rules: rules(
				cmd(`terraform|tofu|pulumi`, `\s+(?:-\S+\s+)*destroy\b[^;&|\n]*`),
				re(`\b(?:terraform|tofu)\s+apply\b[^;&|\n]*\s-destroy\b`),
				re(`\bkubectl\s+delete\s+(?:ns|namespaces?|nodes?|pv|pvc|persistentvolumes?|crd|customresourcedefinitions?|all)\b[^;&|\n]*`),
				re(`\bkubectl\s+delete\b[^;&|\n]*\s--all\b`),
				re(`\bhelm\s+(?:uninstall|delete)\b[^;&|\n]*`),
				re(`\baws\s+s3\s+rb\b[^;&|\n]*--force\b`),
				re(`\baws\s+s3\s+rm\b[^;&|\n]*--recursive\b`),
				re(`\baws\s+[\w-]+\s+(?:delete-(?:db-instance|db-cluster|stack|cluster|bucket|table|function|vpc)|terminate-instances)\b[^;&|\n]*`),
				re(`\bgcloud\s+(?:projects|sql\s+instances|container\s+clusters|compute\s+instances)\s+delete\b[^;&|\n]*`),
				re(`\baz\s+(?:group|aks|vm|sql\s+server)\s+delete\b[^;&|\n]*`),
				re(`\bgsutil\s+(?:-m\s+)?rm\s+-r\b[^;&|\n]*`),
				re(`\bdocker\s+(?:system\s+prune\b[^;&|\n]*(?:-a|--all|--volumes)\b|volume\s+(?:rm|prune)\b)[^;&|\n]*`),
			),
		},
		{
			Name:     "recursive-delete",
			Priority: 40,
			Severity: types.SevMed,
			Message:  "Recursive delete of {token}",
			Rules:    rules(re(`\b(find\b[^;&|\n]*\s-delete)\b`)),
			Match:    recursiveDeleteTarget,
		},
	},
})

// recursiveDeleteTarget reports the first rm -r operand that is not covered by
// safePaths.
func recursiveDeleteTarget(text string, cfg config.DetectorConfig) (string, bool) {
	for _, m := range reRmRecursive.FindAllStringSubmatch(text, -1) {
		targets := operands(m[1])
		if len(targets) == 0 {
			continue
		}
		for _, t := range targets {
			if !pathSafe(t, cfg.SafePaths) {
				return t, true
			}
		}
	}
	return "", false
}
