package cmdguard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/cmdguard/internal/logger"
)

var (
	flagConfig     string
	flagJSON       bool
	flagTable      bool
	flagSARIF      bool
	flagNoColor    bool
	flagLogLevel   string
	flagSelfUpdate bool

	version = "0.1.0"
)

var log = logger.New("cli")

// exitCode carries a process exit status out of a command without calling
// os.Exit inside it.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// exitBlocked is returned when a command should not run.
const exitBlocked = exitCode(2)

// rootCmd is the base Cobra command for the cmdguard CLI.
var rootCmd = &cobra.Command{
	Use:   "cmdguard",
	Short: "Classify shell commands from coding agents before they run",
	Long: "cmdguard inspects shell commands proposed by agentic coding tools and reports\n" +
		"destructive, exfiltrating or otherwise risky patterns. Use it as a pre-execution\n" +
		"hook (cmdguard check) or ad hoc (cmdguard analyze).",
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagSelfUpdate {
			return selfUpdate()
		}
		return cmd.Help()
	},
}

// Execute runs the cmdguard CLI. It should be called by the main package.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to a process exit code: 0 allowed,
// 2 blocked, 1 any other error.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}

func setup(cmd *cobra.Command, _ []string) error {
	lvl, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	logger.SetGlobalLevel(lvl)
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetColored(!flagNoColor && isTerminal(cmd.ErrOrStderr()))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: .cmdguard.json in the project, then ~/.config/cmdguard)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "emit a table")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: trace|debug|info|warn|error")
	rootCmd.Flags().BoolVar(&flagSelfUpdate, "self-update", false, "update cmdguard to the latest release")
}
