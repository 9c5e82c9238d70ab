package cmdguard

import (
	"io"
	"os"
	"runtime/debug"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"golang.org/x/term"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/detectors"
	"github.com/varalys/cmdguard/internal/report"
	"github.com/varalys/cmdguard/internal/types"
)

func selfUpdate() error {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), "varalys/cmdguard")
	if err != nil {
		return err
	}
	if latest.Version.Equals(semver3.MustParse(ver.String())) {
		log.Info("cmdguard %s is up to date", ver)
		return nil
	}
	log.Info("updated to %s", latest.Version)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadConfig resolves --config, the project file and the user file in that
// order.
func loadConfig() (config.Config, error) {
	wd, _ := os.Getwd()
	cfg, path, err := config.Load(config.LoadOptions{Path: flagConfig, ProjectDir: wd})
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		log.Debug("using config %s", path)
	}
	return cfg, nil
}

type outputFormat int

const (
	formatText outputFormat = iota
	formatTable
	formatJSON
	formatSARIF
)

func selectFormat(cfg config.Config) outputFormat {
	switch {
	case flagSARIF:
		return formatSARIF
	case flagJSON, cfg.GlobalSettings.JSONOutput:
		return formatJSON
	case flagTable:
		return formatTable
	}
	return formatText
}

func sarifRules() []report.SARIFRule {
	var out []report.SARIFRule
	for _, d := range detectors.All() {
		out = append(out, report.SARIFRule{ID: d.ID, Description: d.Description})
	}
	return out
}

// render writes findings for one command in the selected format.
func render(w io.Writer, command string, findings []types.Finding, f outputFormat) error {
	switch f {
	case formatJSON:
		return report.WriteJSON(w, findings)
	case formatSARIF:
		return report.WriteSARIF(w, findings, report.SARIFOptions{
			Version:     version,
			CommandHash: report.HashCommand(command),
			Rules:       sarifRules(),
		})
	case formatTable:
		return report.PrintTable(w, findings, report.PrintOptions{NoColor: flagNoColor, Command: command})
	}
	report.PrintText(w, findings, report.PrintOptions{NoColor: flagNoColor || !isTerminal(w), Command: command})
	return nil
}
