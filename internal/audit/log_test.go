package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/varalys/cmdguard/internal/report"
	"github.com/varalys/cmdguard/internal/types"
)

var findings = []types.Finding{
	{Severity: types.SevHigh, Message: "Recursive delete of the filesystem root or home directory (rm -rf /)", Detector: "destructive-command"},
	{Severity: types.SevMed, Message: "Sensitive variable MY_SECRET exposed", Detector: "env-var-leak"},
}

func TestNewAuditLog_PrefersGitDir(t *testing.T) {
	root := t.TempDir()
	if got := NewAuditLog(root).Path(); got != filepath.Join(root, ".cmdguard_audit.jsonl") {
		t.Fatalf("path = %s", got)
	}
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := NewAuditLog(root).Path(); got != filepath.Join(root, ".git", "cmdguard_audit.jsonl") {
		t.Fatalf("path = %s", got)
	}
}

func TestLogAndLoadHistory(t *testing.T) {
	a := NewAuditLog(t.TempDir())
	if _, err := a.LoadHistory(); err == nil {
		t.Fatal("expected error for missing log")
	}
	first := NewRecord("rm -rf /", findings, true)
	second := NewRecord("echo $MY_SECRET", findings[1:], false)
	for _, r := range []Record{first, second} {
		if err := a.Log(r); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := a.LoadHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].CommandSHA256 != report.HashCommand("echo $MY_SECRET") {
		t.Fatalf("history should be newest first: %+v", recs[0])
	}
	if recs[0].ID == "" || recs[0].ID == recs[1].ID {
		t.Fatalf("records need distinct ids: %q %q", recs[0].ID, recs[1].ID)
	}
	if recs[1].SeverityCounts["high"] != 1 || !recs[1].Blocked || recs[1].TotalFindings != 2 {
		t.Fatalf("unexpected first record: %+v", recs[1])
	}

	raw, err := os.ReadFile(a.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "rm -rf") || strings.Contains(string(raw), "MY_SECRET") {
		t.Fatalf("audit log leaks command or message text: %s", raw)
	}
	if st, _ := os.Stat(a.Path()); st.Mode().Perm() != 0o600 {
		t.Fatalf("audit log mode = %v", st.Mode().Perm())
	}
}

func TestDeleteRecord(t *testing.T) {
	a := NewAuditLog(t.TempDir())
	for _, c := range []string{"a", "b", "c"} {
		if err := a.Log(NewRecord(c, findings, false)); err != nil {
			t.Fatal(err)
		}
	}
	recs, _ := a.LoadHistory()
	if err := a.DeleteRecord(recs[1].ID); err != nil {
		t.Fatal(err)
	}
	left, err := a.LoadHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 2 || left[0].ID != recs[0].ID || left[1].ID != recs[2].ID {
		t.Fatalf("unexpected records after delete: %+v", left)
	}
	if err := a.DeleteRecord("missing"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(findings[0])
	if a != Fingerprint(findings[0]) {
		t.Fatal("fingerprint must be stable")
	}
	if a == Fingerprint(findings[1]) {
		t.Fatal("different findings share a fingerprint")
	}
}
