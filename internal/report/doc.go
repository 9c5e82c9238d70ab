// Package report renders findings for people and tools (text, table, JSON,
// SARIF) and sends hashed detections to an optional remote collector.
package report
