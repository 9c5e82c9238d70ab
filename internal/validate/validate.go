package validate

import (
	"encoding/base64"
	"math"
	"regexp"
	"strings"
)

const base62 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// lengthBetween returns true if n is within [min,max].
func lengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// isAlphabet returns true if all characters in s are in allowed set.
func isAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// isBase64URLNoPad reports whether s is valid base64url (no padding) for JWT segments.
func isBase64URLNoPad(s string) bool {
	if s == "" {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

// LooksLikeGitHubToken accepts ghp_, gho_, ghu_, ghs_ and ghr_ followed by 36
// base62 chars.
func LooksLikeGitHubToken(s string) bool {
	if len(s) != 40 {
		return false
	}
	switch s[:4] {
	case "ghp_", "gho_", "ghu_", "ghs_", "ghr_":
		return isAlphabet(s[4:], base62)
	}
	return false
}

// LooksLikeOpenAIKey checks the sk- prefix and a long base62 tail. Project keys
// (sk-proj-) also allow - and _.
func LooksLikeOpenAIKey(s string) bool {
	if tail, ok := strings.CutPrefix(s, "sk-proj-"); ok {
		return len(tail) >= 40 && isAlphabet(tail, base62+"-_")
	}
	tail, ok := strings.CutPrefix(s, "sk-")
	if !ok {
		return false
	}
	return lengthBetween(tail, 40, 64) && isAlphabet(tail, base62)
}

// LooksLikeAWSAccessKey checks for AKIA/ASIA + 16 uppercase alnum.
func LooksLikeAWSAccessKey(s string) bool {
	if !(strings.HasPrefix(s, "AKIA") || strings.HasPrefix(s, "ASIA")) {
		return false
	}
	if len(s) != 20 {
		return false
	}
	return isAlphabet(s[4:], "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
}

// IsJWTStructure verifies 3 segments with base64url header and payload.
func IsJWTStructure(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	return isBase64URLNoPad(parts[0]) && isBase64URLNoPad(parts[1])
}

// Entropy returns the Shannon entropy of s in bits per character.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	count := map[rune]int{}
	n := 0
	for _, r := range s {
		count[r]++
		n++
	}
	h := 0.0
	for _, c := range count {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

var (
	reVarRef      = regexp.MustCompile(`^\$(?:\{[^}]*\}|\(|[A-Za-z_])`)
	reTemplate    = regexp.MustCompile(`^(?:\{\{.*\}\}|<[^>]+>|%[A-Za-z_]+%|\[[A-Za-z_ -]+\])$`)
	reRepeated    = regexp.MustCompile(`^(?:x+|X+|\*+|0+|\.+|-+|_+)$`)
	placeholderRe = regexp.MustCompile(`(?i)(?:example|placeholder|changeme|change_me|your[_-]?|dummy|redacted|sample|fake|test[_-]?(?:key|token|secret)|xxxx|<|>|\.\.\.)`)
)

var placeholderWords = map[string]bool{
	"password": true, "secret": true, "token": true, "apikey": true, "api_key": true,
	"null": true, "none": true, "undefined": true, "true": true, "false": true,
	"changeit": true, "letmein": true, "admin": true, "root": true, "pass": true,
}

// LooksLikePlaceholder reports values that are variable references, template
// slots, masked text or documentation examples rather than real secrets.
func LooksLikePlaceholder(s string) bool {
	s = strings.Trim(s, `"'`)
	if s == "" {
		return true
	}
	if reVarRef.MatchString(s) || reTemplate.MatchString(s) || reRepeated.MatchString(s) {
		return true
	}
	if placeholderWords[strings.ToLower(s)] {
		return true
	}
	return placeholderRe.MatchString(s)
}
