package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
	"github.com/bobmcallan/calc-portal/internal/storage/badger"
)

var shippedTools = filepath.Join("..", "..", "configs", "tools")

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoCommand(t *testing.T) {
	code, _, stderr := runCmd(t)
	if code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr, "Usage: calc-tools") {
		t.Errorf("expected usage on stderr, got %q", stderr)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCmd(t, "frobnicate")
	if code != 2 || !strings.Contains(stderr, `unknown command "frobnicate"`) {
		t.Errorf("unexpected result %d %q", code, stderr)
	}
}

func TestValidate_ShippedTools(t *testing.T) {
	code, stdout, stderr := runCmd(t, "validate", "-dir", shippedTools, "-examples")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s%s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "4 tool definitions valid") {
		t.Errorf("expected summary line, got %q", stdout)
	}
	if strings.Contains(stdout, "[FAIL]") {
		t.Errorf("expected every example to pass, got %q", stdout)
	}
}

func TestValidate_BrokenDefinition(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\ndisplayName: Bad\ncalculatorRef: nope.missing\ntemplateRef: bad.html\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCmd(t, "validate", "-dir", dir)
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "Error:") {
		t.Errorf("expected error on stderr, got %q", stderr)
	}
}

func TestSchema(t *testing.T) {
	code, stdout, _ := runCmd(t, "schema")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("expected JSON schema, got %v", err)
	}
	if !strings.Contains(stdout, "calculatorRef") {
		t.Error("expected calculatorRef in schema")
	}
}

func TestSchema_ToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tool.schema.json")
	if code, _, stderr := runCmd(t, "schema", "-out", out); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "templateRef") {
		t.Error("expected templateRef in written schema")
	}
}

func TestIndex(t *testing.T) {
	code, stdout, stderr := runCmd(t, "index", "-dir", shippedTools)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "# Tool index") {
		t.Errorf("expected markdown heading, got %q", stdout[:min(len(stdout), 40)])
	}
	if !strings.Contains(stdout, "(fan-selection)") {
		t.Error("expected fan-selection in index")
	}
}

func TestImportFans_Builtin(t *testing.T) {
	db := t.TempDir()

	code, stdout, stderr := runCmd(t, "import-fans", "-db", db)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 of 1 curve(s) imported") {
		t.Errorf("unexpected output %q", stdout)
	}

	code, stdout, _ = runCmd(t, "import-fans", "-db", db)
	if code != 0 || !strings.Contains(stdout, "0 of 1 curve(s) imported") {
		t.Errorf("expected second run to skip existing model, got %d %q", code, stdout)
	}
}

func TestImportFans_File(t *testing.T) {
	db := t.TempDir()
	file := filepath.Join(t.TempDir(), "fan_curves.json")
	data := `{"curves":[{"model":"4-72","points":[{"index":1,"flowCoefficient":0.1,"pressureCoefficient":0.5,"efficiency":80}]}]}`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if code, _, stderr := runCmd(t, "import-fans", "-db", db, "-file", file); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}

	m, err := badger.NewManager(common.NewSilentLogger(), &config.BadgerConfig{Path: db})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	points, err := m.PerformanceCurveStorage().Get(context.Background(), "4-72")
	if err != nil || len(points) != 1 {
		t.Errorf("expected imported 4-72 curve, got %v %v", points, err)
	}
}

func TestImportFans_RequiresDB(t *testing.T) {
	code, _, stderr := runCmd(t, "import-fans")
	if code != 1 || !strings.Contains(stderr, "-db is required") {
		t.Errorf("unexpected result %d %q", code, stderr)
	}
}
