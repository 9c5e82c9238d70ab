package detectors

import (
	"regexp"
	"sort"
	"strings"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/types"
)

// Rule is one pattern inside a category. Pattern must match; Requires, when
// set, must also match somewhere in the text; Unless, when set, must not.
// The reported token is the first non-empty capture group, or the whole match.
type Rule struct {
	Pattern  *regexp.Regexp
	Requires *regexp.Regexp
	Unless   *regexp.Regexp
}

func (r Rule) match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if r.Requires != nil && !r.Requires.MatchString(text) {
		return "", false
	}
	if r.Unless != nil && r.Unless.MatchString(text) {
		return "", false
	}
	tok := m[0]
	for _, g := range m[1:] {
		if g != "" {
			tok = g
			break
		}
	}
	return strings.TrimSpace(tok), true
}

// Category groups rules that share one explanation and default severity.
// Categories of a detector are evaluated by descending Priority and the first
// one that matches decides the finding.
type Category struct {
	Name     string
	Priority int
	Severity types.Severity
	// Message may contain {token}, replaced by the matched text.
	Message string
	// Redact masks the token in the message; used when it may be a secret.
	Redact bool
	Rules  []Rule
	// When gates the whole category on the detector config.
	When func(text string, cfg config.DetectorConfig) bool
	// Match covers checks that need the detector config. It runs after Rules.
	Match func(text string, cfg config.DetectorConfig) (string, bool)
}

func (c *Category) match(text string, cfg config.DetectorConfig) (string, bool) {
	if c.When != nil && !c.When(text, cfg) {
		return "", false
	}
	for _, r := range c.Rules {
		if tok, ok := r.match(text); ok {
			return tok, true
		}
	}
	if c.Match != nil {
		return c.Match(text, cfg)
	}
	return "", false
}

func (c *Category) message(tok string) string {
	if c.Redact {
		tok = mask(tok)
	}
	return strings.ReplaceAll(c.Message, "{token}", truncate(tok, 80))
}

// Detector is one classification unit: a safe list, an ordered taxonomy and an
// optional severity policy.
type Detector struct {
	ID          string
	Description string
	// Safe suppresses the command when every non-blank line of it matches one
	// of these patterns or SafeFunc. Patterns see a single trimmed line.
	Safe     []*regexp.Regexp
	SafeFunc func(line string, cfg config.DetectorConfig) bool
	// Categories are sorted by descending Priority when the detector is built.
	Categories []Category
	// Escalate computes the severity when the config does not set one.
	Escalate func(text string, c *Category, cfg config.DetectorConfig) types.Severity
}

// Input is a canonicalized command context. Command is checked against the
// safe list; Command and Extra together are scanned by the categories.
type Input struct {
	Command string
	Extra   string
}

// NewInput canonicalizes ctx.
func NewInput(ctx types.CommandContext) Input {
	return Input{Command: ctx.CanonicalCommand(), Extra: ctx.CanonicalExtra()}
}

// Text is the full scanned text, equal to CommandContext.Canonical.
func (in Input) Text() string {
	if in.Extra == "" {
		return in.Command
	}
	return in.Command + "\n" + in.Extra
}

func newDetector(d Detector) *Detector {
	sort.SliceStable(d.Categories, func(i, j int) bool {
		return d.Categories[i].Priority > d.Categories[j].Priority
	})
	return &d
}

// Classify canonicalizes ctx and evaluates it.
func (d *Detector) Classify(ctx types.CommandContext, cfg config.DetectorConfig) *types.Finding {
	return d.Evaluate(NewInput(ctx), cfg)
}

// Evaluate runs the detector over canonical input. It returns nil when the
// detector is disabled or nothing matches. A safe command drops out of the
// scan; its extra fields are still checked.
func (d *Detector) Evaluate(in Input, cfg config.DetectorConfig) *types.Finding {
	if !cfg.Enabled {
		return nil
	}
	text := in.Text()
	if d.suppressed(in.Command, cfg) {
		if strings.TrimSpace(in.Extra) == "" {
			return nil
		}
		text = in.Extra
	}
	for i := range d.Categories {
		c := &d.Categories[i]
		tok, ok := c.match(text, cfg)
		if !ok {
			continue
		}
		return &types.Finding{
			Severity: d.severity(text, c, cfg),
			Message:  c.message(tok),
			Detector: d.ID,
		}
	}
	return nil
}

func (d *Detector) suppressed(command string, cfg config.DetectorConfig) bool {
	if len(d.Safe) == 0 && d.SafeFunc == nil {
		return false
	}
	seen := false
	for _, line := range strings.Split(command, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !d.safeLine(line, cfg) {
			return false
		}
		seen = true
	}
	return seen
}

func (d *Detector) safeLine(line string, cfg config.DetectorConfig) bool {
	for _, re := range d.Safe {
		if re.MatchString(line) {
			return true
		}
	}
	return d.SafeFunc != nil && d.SafeFunc(line, cfg)
}

func mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
