package detectors

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"github.com/varalys/cmdguard/internal/logger"
)

var log = logger.New("detectors")

// cmdPos anchors a program name at a command position: start of text or
// line, after a shell operator, or after a wrapper such as sudo, xargs or
// find -exec. An optional directory prefix (/bin/rm) is allowed.
const cmdPos = `(?:^|[\n;&|({` + "`" + `]|\$\(|\b(?:sudo|doas)\s+(?:-\S+\s+)*|\bxargs\s+(?:-\S+\s+)*|-exec(?:dir)?\s+|\b(?:command|env|exec|nohup|time|nice)\s+)\s*(?:\S*/)?`

// cmd compiles a pattern for program names at a command position followed by
// rest.
func cmd(names, rest string) *regexp.Regexp {
	return regexp.MustCompile(cmdPos + `(?:` + names + `)\b` + rest)
}

// re is shorthand for one MustCompile per line in rule tables.
func re(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }

// rules wraps plain patterns into rules without extra conditions.
func rules(res ...*regexp.Regexp) []Rule {
	out := make([]Rule, len(res))
	for i, r := range res {
		out[i] = Rule{Pattern: r}
	}
	return out
}

var customCache sync.Map // pattern -> *regexp.Regexp, nil when invalid

// compileCustom compiles a user supplied pattern once. Invalid patterns are
// logged a single time and skipped afterwards.
func compileCustom(expr string) *regexp.Regexp {
	if v, ok := customCache.Load(expr); ok {
		r, _ := v.(*regexp.Regexp)
		return r
	}
	r, err := regexp.Compile(expr)
	if err != nil {
		log.Warn("skipping invalid custom pattern %q: %v", expr, err)
		r = nil
	}
	customCache.Store(expr, r)
	return r
}

var globCache sync.Map // pattern -> glob.Glob, nil when invalid

func compileGlob(pattern string) glob.Glob {
	if v, ok := globCache.Load(pattern); ok {
		g, _ := v.(glob.Glob)
		return g
	}
	g, err := glob.Compile(strings.ToLower(pattern), '.')
	if err != nil {
		log.Warn("skipping invalid host pattern %q: %v", pattern, err)
		g = nil
	}
	globCache.Store(pattern, g)
	return g
}

// hostTrusted reports whether host matches one of the trusted patterns.
// A leading "*." matches exactly one extra label.
func hostTrusted(host string, trusted []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	for _, p := range trusted {
		if g := compileGlob(p); g != nil && g.Match(host) {
			return true
		}
	}
	return false
}

var reURL = regexp.MustCompile(`(?i)\b(?:https?|ftp)://[^\s"'<>|;&)]+`)

// hosts returns the host of every URL in s, lower-cased and without port or
// user info.
func hosts(s string) []string {
	var out []string
	for _, raw := range reURL.FindAllString(s, -1) {
		if h := hostOf(raw); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// untrustedHost returns the first host in s that is not trusted. A segment
// without any URL has no host to vouch for and is reported as "unknown host".
func untrustedHost(s string, trusted []string) (string, bool) {
	hs := hosts(s)
	if len(hs) == 0 {
		return "unknown host", true
	}
	for _, h := range hs {
		if !hostTrusted(h, trusted) {
			return h, true
		}
	}
	return "", false
}

// pathSafe reports whether p matches one of the safe path globs. Leading "./"
// and trailing slashes are ignored.
func pathSafe(p string, safe []string) bool {
	p = strings.Trim(p, `"'`)
	p = strings.TrimPrefix(p, "./")
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	if p == "" || p == "." || p == "/" {
		return false
	}
	for _, pattern := range safe {
		ok, err := doublestar.Match(pattern, p)
		if err != nil {
			log.Debug("bad safe path pattern %q: %v", pattern, err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// operands splits an argument string and drops flags.
func operands(args string) []string {
	var out []string
	for _, f := range strings.Fields(args) {
		if f == "--" || strings.HasPrefix(f, "-") {
			continue
		}
		out = append(out, f)
	}
	return out
}
