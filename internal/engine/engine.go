package engine

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/varalys/cmdguard/internal/config"
	"github.com/varalys/cmdguard/internal/ctxparse"
	"github.com/varalys/cmdguard/internal/detectors"
	"github.com/varalys/cmdguard/internal/logger"
	"github.com/varalys/cmdguard/internal/types"
)

// ErrNotAnalyzable is returned when the input carries nothing to classify. It
// is distinct from an empty result, which means the command looked safe.
var ErrNotAnalyzable = errors.New("input is not analyzable")

var log = logger.New("engine")

// registry yields the detectors to run. Tests replace it.
var registry = detectors.All

// DetectorIDs returns all detector IDs in registration order.
func DetectorIDs() []string {
	return detectors.IDs()
}

// Analyze classifies ctx with every enabled detector. The context is
// canonicalized once; a detector that has no entry in cfg is skipped, and a
// detector that panics is logged and skipped without affecting the others.
func Analyze(ctx types.CommandContext, cfg config.Config) []types.Finding {
	in := detectors.NewInput(ctx)
	var out []types.Finding
	for _, d := range registry() {
		dc, ok := cfg.Detector(d.ID)
		if !ok || !dc.Enabled {
			continue
		}
		if f := evaluate(d, in, dc); f != nil {
			out = append(out, *f)
		}
	}
	log.Debug("%d finding(s) from %d byte(s)", len(out), len(in.Text()))
	return out
}

func evaluate(d *detectors.Detector, in detectors.Input, cfg config.DetectorConfig) (f *types.Finding) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("detector %s failed: %v", d.ID, r)
			f = nil
		}
	}()
	return d.Evaluate(in, cfg)
}

// ParseInput decodes a hook payload. Empty, malformed or command-less
// payloads yield an error wrapping ErrNotAnalyzable.
func ParseInput(raw []byte) (types.CommandContext, error) {
	ctx, err := ctxparse.Hook(raw)
	if err != nil {
		return types.CommandContext{}, fmt.Errorf("%w: %v", ErrNotAnalyzable, err)
	}
	if strings.TrimSpace(ctx.Canonical()) == "" {
		return types.CommandContext{}, fmt.Errorf("%w: nothing to classify", ErrNotAnalyzable)
	}
	return ctx, nil
}

// AnalyzeInput decodes a hook payload with ParseInput and classifies it.
func AnalyzeInput(raw []byte, cfg config.Config) ([]types.Finding, error) {
	ctx, err := ParseInput(raw)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, cfg), nil
}

// AnalyzeBatch classifies several contexts concurrently. The result slice is
// indexed like ctxs. threads <= 0 means one worker per CPU.
func AnalyzeBatch(ctxs []types.CommandContext, cfg config.Config, threads int) [][]types.Finding {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(ctxs) {
		threads = len(ctxs)
	}
	out := make([][]types.Finding, len(ctxs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = Analyze(ctxs[i], cfg)
			}
		}()
	}
	for i := range ctxs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

// Blocking returns the findings at or above the configured minimum severity.
// An unset minimum counts as low.
func Blocking(findings []types.Finding, settings config.GlobalSettings) []types.Finding {
	floor := settings.MinSeverity
	if !floor.Valid() {
		floor = types.SevLow
	}
	var out []types.Finding
	for _, f := range findings {
		if f.Severity.AtLeast(floor) {
			out = append(out, f)
		}
	}
	return out
}

// ShouldBlock reports whether the boundary layer should refuse the command.
func ShouldBlock(findings []types.Finding, settings config.GlobalSettings) bool {
	return settings.ExitOnDetection && len(Blocking(findings, settings)) > 0
}
