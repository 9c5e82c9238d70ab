package config

type fieldKind int

const (
	kindBool fieldKind = iota
	kindStringList
	kindNonNegativeNumber
)

func (k fieldKind) String() string {
	switch k {
	case kindBool:
		return "a boolean"
	case kindStringList:
		return "an array of strings"
	case kindNonNegativeNumber:
		return "a number >= 0"
	}
	return "unknown"
}

type field struct {
	name string
	kind fieldKind
	def  any
}

type detectorSchema struct {
	id     string
	fields []field
}

// schemas lists every known detector in registration order together with its
// detector-specific fields and their defaults. "enabled" and "severity" are
// common to all detectors and not repeated here.
var schemas = []detectorSchema{
	{id: "destructive-command", fields: []field{
		{name: "safePaths", kind: kindStringList, def: []string{
			"node_modules", "**/node_modules", "dist", "build", "coverage",
			".next", "target", "__pycache__", "**/__pycache__", ".cache", "/tmp/**",
		}},
	}},
	{id: "git-force-operation", fields: []field{
		{name: "protectedBranches", kind: kindStringList, def: []string{"main", "master", "develop", "production", "release/*"}},
		{name: "allowForceWithLease", kind: kindBool, def: false},
	}},
	{id: "credential-leak", fields: []field{
		{name: "customPatterns", kind: kindStringList, def: []string{}},
		{name: "minEntropy", kind: kindNonNegativeNumber, def: 3.5},
		{name: "ignorePlaceholders", kind: kindBool, def: true},
	}},
	{id: "env-var-leak", fields: []field{
		{name: "allowedVariables", kind: kindStringList, def: []string{}},
	}},
	{id: "data-exfiltration", fields: []field{
		{name: "trustedDomains", kind: kindStringList, def: []string{
			"github.com", "*.github.com", "gitlab.com", "bitbucket.org",
		}},
	}},
	{id: "remote-execution", fields: []field{
		{name: "trustedDomains", kind: kindStringList, def: []string{
			"sh.rustup.rs", "get.docker.com", "deb.nodesource.com", "bun.sh",
			"get.pnpm.io", "install.python-poetry.org", "astral.sh",
		}},
	}},
	{id: "code-injection"},
	{id: "package-poisoning", fields: []field{
		{name: "trustedRegistries", kind: kindStringList, def: []string{
			"registry.npmjs.org", "registry.yarnpkg.com", "pypi.org", "*.pypi.org",
			"files.pythonhosted.org", "rubygems.org", "crates.io", "proxy.golang.org",
		}},
		{name: "checkTyposquatting", kind: kindBool, def: true},
	}},
	{id: "archive-extraction", fields: []field{
		{name: "trustedDomains", kind: kindStringList, def: []string{
			"github.com", "*.github.com", "*.githubusercontent.com", "nodejs.org",
			"go.dev", "dl.google.com", "registry.npmjs.org", "files.pythonhosted.org",
		}},
	}},
	{id: "container-escape", fields: []field{
		{name: "allowPrivilegedForCI", kind: kindBool, def: false},
	}},
	{id: "privilege-escalation"},
	{id: "backdoor-persistence"},
	{id: "process-manipulation"},
}

// DetectorIDs returns the known detector ids in registration order.
func DetectorIDs() []string {
	ids := make([]string, 0, len(schemas))
	for _, s := range schemas {
		ids = append(ids, s.id)
	}
	return ids
}

// IsKnownDetector reports whether id names a registered detector.
func IsKnownDetector(id string) bool {
	return schemaFor(id) != nil
}

func schemaFor(id string) *detectorSchema {
	for i := range schemas {
		if schemas[i].id == id {
			return &schemas[i]
		}
	}
	return nil
}

func (s *detectorSchema) field(name string) *field {
	for i := range s.fields {
		if s.fields[i].name == name {
			return &s.fields[i]
		}
	}
	return nil
}

// DefaultMap returns the default configuration in its generic JSON shape.
// Each call returns a fresh value.
func DefaultMap() map[string]any {
	detectors := make(map[string]any, len(schemas))
	for _, s := range schemas {
		d := map[string]any{"enabled": true}
		for _, f := range s.fields {
			d[f.name] = genericValue(f.def)
		}
		detectors[s.id] = d
	}
	return map[string]any{
		"detectors": detectors,
		"globalSettings": map[string]any{
			"minSeverity":     "low",
			"exitOnDetection": true,
			"jsonOutput":      false,
		},
	}
}

func genericValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case int:
		return float64(t)
	}
	return v
}
