package cmdguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/varalys/cmdguard/internal/audit"
	"github.com/varalys/cmdguard/internal/engine"
	"github.com/varalys/cmdguard/internal/report"
	"github.com/varalys/cmdguard/internal/types"
)

// maxHookInput bounds how much of stdin is read.
const maxHookInput = 8 << 20

var (
	checkAudit    bool
	checkNoReport bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Classify a hook payload read from stdin",
		Long: "check reads a pre-execution hook payload ({\"tool_input\":{\"command\":...}} or\n" +
			"{\"command\":...}) from stdin. Findings at or above globalSettings.minSeverity are\n" +
			"printed to stderr and, with exitOnDetection, the process exits with status 2.\n" +
			"Input that cannot be analyzed is allowed with a warning.",
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
	cmd.Flags().BoolVar(&checkAudit, "audit", false, "append detections to the local audit log")
	cmd.Flags().BoolVar(&checkNoReport, "no-report", false, "do not send detections to CMDGUARD_REPORT_URL")
	rootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxHookInput))
	if err != nil {
		return fmt.Errorf("read hook input: %w", err)
	}
	ctx, err := engine.ParseInput(raw)
	if errors.Is(err, engine.ErrNotAnalyzable) {
		log.Warn("%v; allowing command", err)
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	findings := engine.Analyze(ctx, cfg)
	blocking := engine.Blocking(findings, cfg.GlobalSettings)
	blocked := engine.ShouldBlock(findings, cfg.GlobalSettings)
	log.Debug("analyzed in %s: %d finding(s), %d at or above %s", time.Since(start), len(findings), len(blocking), cfg.GlobalSettings.MinSeverity)

	if len(blocking) > 0 {
		if f := selectFormat(cfg); f == formatJSON || f == formatSARIF {
			if err := render(cmd.OutOrStdout(), ctx.Command, blocking, f); err != nil {
				return err
			}
		} else {
			report.PrintText(cmd.ErrOrStderr(), blocking, report.PrintOptions{NoColor: flagNoColor || !isTerminal(cmd.ErrOrStderr())})
		}
	}
	if !checkNoReport {
		sendReport(cmd.Context(), ctx.Command, blocking, blocked)
	}
	if checkAudit && len(findings) > 0 {
		wd, _ := os.Getwd()
		if err := audit.NewAuditLog(wd).Log(audit.NewRecord(ctx.Command, findings, blocked)); err != nil {
			log.Warn("audit log: %v", err)
		}
	}
	if blocked {
		return exitBlocked
	}
	return nil
}

// sendReport uploads a hashed detection when CMDGUARD_REPORT_URL is set.
// Failures are logged and never change the outcome.
func sendReport(ctx context.Context, command string, findings []types.Finding, blocked bool) {
	if len(findings) == 0 {
		return
	}
	rc, err := report.LoadClientConfig()
	if errors.Is(err, report.ErrReportingDisabled) {
		return
	}
	if err != nil {
		log.Warn("%v", err)
		return
	}
	client, err := report.NewClient(rc)
	if err != nil {
		log.Warn("%v", err)
		return
	}
	if err := client.Send(ctx, report.NewDetection(command, findings, blocked, version)); err != nil {
		log.Warn("report upload failed: %v", err)
		return
	}
	log.Debug("detection reported")
}
