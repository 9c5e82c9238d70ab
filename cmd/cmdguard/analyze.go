package cmdguard

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varalys/cmdguard/internal/engine"
	"github.com/varalys/cmdguard/internal/types"
)

var (
	analyzeFile    string
	analyzeThreads int
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze [command...]",
		Short: "Classify a command given as arguments or one per line from a file",
		Example: `  cmdguard analyze 'curl https://example.com/install.sh | sh'
  cmdguard analyze --file commands.txt --json
  history | cut -c8- | cmdguard analyze --file -`,
		RunE: runAnalyze,
	}
	cmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "read commands from a file, one per line (- for stdin)")
	cmd.Flags().IntVar(&analyzeThreads, "threads", 0, "worker count for --file (0 = GOMAXPROCS)")
	rootCmd.AddCommand(cmd)
}

type analysis struct {
	Command  string          `json:"command"`
	Findings []types.Finding `json:"findings"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	commands, err := collectCommands(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	ctxs := make([]types.CommandContext, len(commands))
	for i, c := range commands {
		ctxs[i] = types.CommandContext{Command: c}
	}
	results := engine.AnalyzeBatch(ctxs, cfg, analyzeThreads)

	blocked := false
	for _, fs := range results {
		if engine.ShouldBlock(fs, cfg.GlobalSettings) {
			blocked = true
		}
	}

	out := cmd.OutOrStdout()
	format := selectFormat(cfg)
	switch {
	case len(commands) == 1:
		err = render(out, commands[0], results[0], format)
	case format == formatJSON:
		batch := make([]analysis, len(commands))
		for i := range commands {
			batch[i] = analysis{Command: commands[i], Findings: results[i]}
			if batch[i].Findings == nil {
				batch[i].Findings = []types.Finding{}
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(batch)
	case format == formatSARIF:
		var all []types.Finding
		for _, fs := range results {
			all = append(all, fs...)
		}
		err = render(out, "", all, formatSARIF)
	default:
		for i := range commands {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err = render(out, commands[i], results[i], format); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}
	if blocked {
		return exitBlocked
	}
	return nil
}

func collectCommands(stdin io.Reader, args []string) ([]string, error) {
	if analyzeFile == "" {
		c := strings.TrimSpace(strings.Join(args, " "))
		if c == "" {
			return nil, errors.New("nothing to analyze: pass a command or --file")
		}
		return []string{c}, nil
	}
	if len(args) > 0 {
		return nil, errors.New("--file cannot be combined with command arguments")
	}
	r := stdin
	if analyzeFile != "-" {
		f, err := os.Open(analyzeFile)
		if err != nil {
			return nil, fmt.Errorf("open commands file: %w", err)
		}
		defer f.Close()
		r = f
	}
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxHookInput)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("nothing to analyze: no commands in input")
	}
	return out, nil
}
