package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by the discovery helpers when no file exists.
var ErrNoConfig = errors.New("no config file found")

var localNames = []string{".cmdguard.json", ".cmdguard.yml", ".cmdguard.yaml"}

// LoadOptions selects where configuration is discovered.
type LoadOptions struct {
	// Path is an explicit config file; it must exist when set.
	Path string
	// ProjectDir is searched for a project-local file.
	ProjectDir string
}

// Load discovers one configuration file (explicit path > project file > user
// file), merges it onto the defaults and validates it. It returns the path of
// the file used, or "" when the defaults apply.
func Load(opts LoadOptions) (Config, string, error) {
	path, err := discover(opts)
	if errors.Is(err, ErrNoConfig) {
		cfg, err := Resolve(nil)
		return cfg, "", err
	}
	if err != nil {
		return Config{}, "", err
	}
	override, err := LoadFile(path)
	if err != nil {
		return Config{}, path, err
	}
	cfg, err := Resolve(override)
	if err != nil {
		return Config{}, path, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

func discover(opts LoadOptions) (string, error) {
	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return opts.Path, nil
	}
	if opts.ProjectDir != "" {
		if p, err := FindLocal(opts.ProjectDir); err == nil {
			return p, nil
		}
	}
	return FindGlobal()
}

// FindLocal searches dir for a project-local config file.
func FindLocal(dir string) (string, error) {
	for _, name := range localNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", ErrNoConfig
}

// FindGlobal looks for the user config under XDG_CONFIG_HOME or ~/.config.
func FindGlobal() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", ErrNoConfig
	}
	for _, name := range []string{"config.json", "config.yml", "config.yaml"} {
		p := filepath.Join(base, "cmdguard", name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", ErrNoConfig
}

// LoadFile reads a JSON or YAML config file into its generic shape.
func LoadFile(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	m, err := Parse(b, ext == ".yml" || ext == ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes config bytes. JSON is tried first unless yamlInput is set;
// YAML numbers and maps are normalized to the JSON shapes.
func Parse(b []byte, yamlInput bool) (map[string]any, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]any{}, nil
	}
	if !yamlInput {
		var m map[string]any
		err := json.Unmarshal(b, &m)
		if err == nil {
			return m, nil
		}
		if bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, errors.New("config root must be an object")
	}
	return m, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = normalize(c)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[fmt.Sprint(k)] = normalize(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = normalize(c)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
