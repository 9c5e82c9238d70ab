// Package cmdguard provides the command-line interface. It wires the hook
// entry point (check), ad-hoc analysis, detector listing and configuration
// helpers on top of the engine.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/cmdguard/cmd/cmdguard"
//	func main() { cmdguard.Execute() }
package cmdguard
