// Package audit keeps a local JSONL history of commands that produced
// findings. The command itself is stored only as its SHA-256.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/varalys/cmdguard/internal/report"
	"github.com/varalys/cmdguard/internal/types"
)

type Record struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	CommandSHA256  string           `json:"command_sha256"`
	Blocked        bool             `json:"blocked"`
	TotalFindings  int              `json:"total_findings"`
	SeverityCounts map[string]int   `json:"severity_counts"`
	Findings       []FindingSummary `json:"findings,omitempty"`
}

type FindingSummary struct {
	Detector    string `json:"detector"`
	Severity    string `json:"severity"`
	Fingerprint string `json:"fingerprint"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog places the log inside .git when root is a repository so that it
// is never committed, and at the root otherwise.
func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".cmdguard_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "cmdguard_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Lines that fail to decode are
// skipped.
func (a *AuditLog) LoadHistory() ([]Record, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) Log(record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	// Owner-only: the log reveals which commands were flagged.
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record with the given ID.
func (a *AuditLog) DeleteRecord(id string) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}
	idx := -1
	for i, r := range records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no audit record %q", id)
	}
	records = append(records[:idx], records[idx+1:]...)

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to rewrite audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for i := len(records) - 1; i >= 0; i-- {
		if err := encoder.Encode(records[i]); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// NewRecord summarises one analysed command.
func NewRecord(command string, findings []types.Finding, blocked bool) Record {
	counts := make(map[string]int)
	summaries := make([]FindingSummary, 0, len(findings))
	for _, f := range findings {
		counts[string(f.Severity)]++
		summaries = append(summaries, FindingSummary{
			Detector:    f.Detector,
			Severity:    string(f.Severity),
			Fingerprint: Fingerprint(f),
		})
	}
	return Record{
		Timestamp:      time.Now().UTC(),
		CommandSHA256:  report.HashCommand(command),
		Blocked:        blocked,
		TotalFindings:  len(findings),
		SeverityCounts: counts,
		Findings:       summaries,
	}
}

// Fingerprint identifies a finding across runs without storing its message.
func Fingerprint(f types.Finding) string {
	h := xxhash.New()
	_, _ = h.WriteString(f.Detector)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(f.Severity))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(f.Message)
	return strconv.FormatUint(h.Sum64(), 16)
}
