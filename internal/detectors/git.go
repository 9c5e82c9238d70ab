package detectors

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

var (
	reGitPush    = re(`\bgit\b[^;&|\n]*?\spush\b([^;&|\n]*)`)
	reForceFlag  = re(`(?:^|\s)(?:--force|-[a-zA-Z]*f[a-zA-Z]*)(?:\s|$)|\s\+\S`)
	reLeaseFlag  = re(`(?:^|\s)--force-with-lease\b`)
	reRefsPrefix = regexp.MustCompile(`^refs/heads/`)
)

type pushSpec struct {
	force    bool
	lease    bool
	branches []string
}

func parsePushes(text string) []pushSpec {
	var out []pushSpec
	for _, m := range reGitPush.FindAllStringSubmatch(text, -1) {
		args := m[1]
		p := pushSpec{force: reForceFlag.MatchString(args), lease: reLeaseFlag.MatchString(args)}
		ops := operands(args)
		if len(ops) > 1 {
			for _, ref := range ops[1:] {
				ref = strings.TrimPrefix(ref, "+")
				if i := strings.LastIndex(ref, ":"); i >= 0 {
					ref = ref[i+1:]
				}
				if ref = reRefsPrefix.ReplaceAllString(ref, ""); ref != "" {
					p.branches = append(p.branches, ref)
				}
			}
		}
		out = append(out, p)
	}
	return out
}

// rewrites reports whether a push overwrites remote history under cfg.
func (p pushSpec) rewrites(cfg config.DetectorConfig) bool {
	return p.force || (p.lease && !cfg.AllowForceWithLease)
}

func protectedBranch(branch string, protected []string) bool {
	for _, pattern := range protected {
		if ok, err := doublestar.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

var gitForceOperation = newDetector(Detector{
	ID:          "git-force-operation",
	Description: "Force pushes, history rewrites and discarded work",
	Safe: []*regexp.Regexp{
		re(`\A\s*git\s+(?:status|log|diff|show|fetch|blame|remote\s+-v|reflog\s+show|branch(?:\s+-[alrv]+)*)\b[^;&|\n]*\z`),
	},
	Categories: []Category{
		{
			Name:     "force-push-protected",
			Priority: 100,
			Severity: types.SevHigh,
			Message:  "Force push to protected branch {token} rewrites shared history",
			Match: func(text string, cfg config.DetectorConfig) (string, bool) {
				for _, p := range parsePushes(text) {
					if !p.rewrites(cfg) {
						continue
					}
					for _, b := range p.branches {
						if protectedBranch(b, cfg.ProtectedBranches) {
							return b, true
						}
					}
				}
				return "", false
			},
		},
		{
			// Unprotected targets keep the same severity; the category only
			// changes the explanation.
			Name:     "force-push",
			Priority: 90,
			Severity: types.SevHigh,
			Message:  "Force push rewrites remote history ({token})",
			Match: func(text string, cfg config.DetectorConfig) (string, bool) {
				for _, p := range parsePushes(text) {
					if p.force {
						return "git push --force", true
					}
				}
				return "", false
			},
		},
		{
			Name:     "force-with-lease",
			Priority: 80,
			Severity: types.SevMed,
			Message:  "Force push with lease still rewrites remote history ({token})",
			When: func(_ string, cfg config.DetectorConfig) bool {
				return !cfg.AllowForceWithLease
			},
			Rules: rules(re(`\bgit\b[^;&|\n]*?\spush\b[^;&|\n]*\s(--force-with-lease)\b`)),
		},
		{
			Name:     "remote-ref-deletion",
			Priority: 70,
			Severity: types.SevHigh,
			Message:  "Deleting or mirroring remote refs ({token})",
			Rules: rules(
				re(`\bgit\b[^;&|\n]*?\spush\b[^;&|\n]*\s(--delete|-d|--mirror|--prune)\b`),
				re(`\bgit\b[^;&|\n]*?\spush\s+\S+\s+(:\S+)`),
			),
		},
		{
			Name:     "history-rewrite",
			Priority: 60,
			Severity: types.SevMed,
			Message:  "History rewrite ({token})",
			Rules: []Rule{
				{Pattern: re(`\bgit\s+(filter-branch|filter-repo)\b`)},
				{Pattern: re(`\bgit\s+(reflog\s+expire)\b`)},
				{Pattern: re(`\bgit\s+(update-ref\s+-d)\b`)},
				{Pattern: re(`\bgit\s+(gc\s+[^;&|\n]*--prune=now)\b`)},
				{Pattern: re(`\bgit\s+(commit\s+[^;&|\n]*--amend)\b`)},
				{Pattern: re(`\bgit\s+(rebase)\b`), Unless: re(`\bgit\s+rebase\s+[^;&|\n]*(?:-i|--interactive)\b`)},
			},
		},
		{
			Name:     "discard-changes",
			Priority: 50,
			Severity: types.SevMed,
			Message:  "Uncommitted work will be discarded ({token})",
			Rules: rules(
				re(`\bgit\s+(reset\s+[^;&|\n]*--hard)\b`),
				re(`\bgit\s+(clean\s+[^;&|\n]*-[a-zA-Z]*f[a-zA-Z]*)\b`),
				re(`\bgit\s+(checkout\s+(?:-f\b|--force\b|--\s+\.|\.(?:\s|$)))`),
				re(`\bgit\s+(restore\s+(?:--staged\s+--worktree\s+)?\.(?:\s|$))`),
				re(`\bgit\s+(stash\s+(?:clear|drop))\b`),
				re(`\bgit\s+(branch\s+(?:-D|--delete\s+--force))\b`),
			),
		},
		{
			Name:     "interactive-rebase",
			Priority: 40,
			Severity: types.SevLow,
			Message:  "Interactive rebase rewrites local history ({token})",
			Rules:    rules(re(`\bgit\s+(rebase\s+[^;&|\n]*(?:-i|--interactive))\b`)),
		},
	},
})
