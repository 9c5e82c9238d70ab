// Package engine runs the detectors over a command context and returns the
// findings in registration order. It performs no I/O beyond logging; the hook
// and CLI layers decide what to do with the result. External consumers should
// use the stable facade in pkg/core.
package engine
