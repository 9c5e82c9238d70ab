// Package config defines the cmdguard configuration model: the per-detector
// schema and defaults, a pure deep merge with array-replace semantics, and a
// fail-fast validator that reports the dotted path of the first bad field.
// Loader helpers discover one file (explicit > project > user) for the CLI.
package config
