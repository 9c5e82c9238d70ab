package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/varalys/cmdguard/internal/types"
)

type PrintOptions struct {
	NoColor bool
	// Command is echoed above the findings when set.
	Command  string
	Duration time.Duration
}

var (
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	medStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// PrintText writes findings one per line in registration order.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Command != "" {
		cmd := opts.Command
		if !opts.NoColor {
			cmd = highlightCommand(cmd)
		}
		fmt.Fprintf(w, "$ %s\n", cmd)
	}
	if len(findings) == 0 {
		fmt.Fprintln(w, "No risky patterns found ✅")
	} else {
		maxDet := 8
		for _, f := range findings {
			if l := len(f.Detector); l > maxDet {
				maxDet = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			sev := fmt.Sprintf("%-6s", f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity, sev)
			}
			fmt.Fprintf(w, "%s %-*s %s\n", sev, maxDet, f.Detector, f.Message)
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable renders findings as a bordered table.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	if opts.Command != "" {
		fmt.Fprintf(w, "$ %s\n", opts.Command)
	}
	if len(findings) == 0 {
		fmt.Fprintln(w, "No risky patterns found ✅")
		printFooter(w, findings, opts)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("SEVERITY", "DETECTOR", "MESSAGE")
	for _, f := range findings {
		if err := table.Append([]string{string(f.Severity), f.Detector, f.Message}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	printFooter(w, findings, opts)
	return nil
}

// WriteJSON writes findings as an indented JSON array; no findings is [].
func WriteJSON(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 && opts.Duration <= 0 {
		return
	}
	c := Count(findings)
	fmt.Fprintln(w)
	line := fmt.Sprintf("Findings: %d (high: %d, medium: %d, low: %d)", len(findings), c[types.SevHigh], c[types.SevMed], c[types.SevLow])
	if opts.Duration > 0 {
		line += fmt.Sprintf(" in %s", opts.Duration.Round(time.Microsecond))
	}
	if !opts.NoColor {
		line = dimStyle.Render(line)
	}
	fmt.Fprintln(w, line)
}

// Count tallies findings by severity.
func Count(findings []types.Finding) map[types.Severity]int {
	out := map[types.Severity]int{}
	for _, f := range findings {
		out[f.Severity]++
	}
	return out
}

func colorSeverity(s types.Severity, text string) string {
	switch s {
	case types.SevHigh:
		return highStyle.Render(text)
	case types.SevMed:
		return medStyle.Render(text)
	default:
		return lowStyle.Render(text)
	}
}

func highlightCommand(cmd string) string {
	lexer := lexers.Get("bash")
	if lexer == nil {
		return cmd
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return cmd
	}
	iterator, err := lexer.Tokenise(nil, cmd)
	if err != nil {
		return cmd
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return cmd
	}
	return buf.String()
}
