package core_test

import (
	"fmt"
	"os"

	"github.com/varalys/cmdguard/pkg/core"
)

func ExampleAnalyzeCommand() {
	cfg := core.DefaultConfig()
	for _, f := range core.AnalyzeCommand("rm -rf /", cfg) {
		fmt.Println(f.Detector, f.Severity)
	}
	// Output: destructive-command high
}

func ExampleResolveConfig() {
	cfg, err := core.ResolveConfig(map[string]any{
		"detectors": map[string]any{
			"destructive-command": map[string]any{"enabled": false},
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(len(core.AnalyzeCommand("rm -rf /", cfg)))
	// Output: 0
}
