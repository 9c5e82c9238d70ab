package cmdguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/varalys/cmdguard/internal/config"
)

var (
	cfgFormat string
	cfgOutput string
	cfgForce  bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with every detector and its defaults",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	initCmd.Flags().StringVar(&cfgFormat, "format", "json", "file format: json | yaml")
	initCmd.Flags().StringVarP(&cfgOutput, "output", "o", "", "output file path (default .cmdguard.json or .cmdguard.yml)")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after merging defaults",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	showCmd.Flags().StringVar(&cfgFormat, "format", "json", "output format: json | yaml")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a config file (default: the discovered one)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	})
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(cfgFormat)
	out := cfgOutput
	switch format {
	case "json":
		if out == "" {
			out = ".cmdguard.json"
		}
	case "yaml", "yml":
		format = "yaml"
		if out == "" {
			out = ".cmdguard.yml"
		}
	default:
		return fmt.Errorf("unknown format %q (valid: json, yaml)", cfgFormat)
	}
	if _, err := os.Stat(out); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}
	b, err := encode(config.DefaultMap(), format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Round-trip through JSON so YAML output uses the same field names.
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	b, err := encode(generic, strings.ToLower(cfgFormat))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		wd, _ := os.Getwd()
		p, err := config.FindLocal(wd)
		if errors.Is(err, config.ErrNoConfig) {
			p, err = config.FindGlobal()
		}
		if errors.Is(err, config.ErrNoConfig) {
			fmt.Fprintln(cmd.OutOrStdout(), "No config file found; built-in defaults apply")
			return nil
		}
		if err != nil {
			return err
		}
		path = p
	}
	override, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := config.Resolve(override); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	return nil
}

func encode(v any, format string) ([]byte, error) {
	switch format {
	case "json", "":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml", "yml":
		var sb strings.Builder
		enc := yaml.NewEncoder(&sb)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	}
	return nil, fmt.Errorf("unknown format %q (valid: json, yaml)", format)
}
