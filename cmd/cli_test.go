package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/chemeda/internal/eda"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// resetFlags clears values and Changed state that persist across invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns stdout and the error.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

const compoundsCSV = "smiles,acvalue,categories\nCCO,5.0,active\nCCN,7.0,inactive\n"

func TestCLI_EDA_FiguresAndSummaryFile(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "data", "compounds.csv"), compoundsCSV)
	outDir := filepath.Join(home, "figs")
	sumPath := filepath.Join(home, "summary.json")

	out := runCmd(t, "eda", in, "--out-dir", outDir, "--format", "json", "--summary-out", sumPath)

	for _, s := range []string{
		"[INFO] Dataset loaded: 2 rows, 3 columns",
		"[INFO] Figures saved to " + outDir,
		`"n_rows": 2`,
		"✓ Wrote summary to " + sumPath,
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	for _, name := range []string{eda.ActivityFigure, eda.CategoryFigure, eda.SMILESLengthFigure} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing figure %s: %v", name, err)
		}
	}

	b, err := os.ReadFile(sumPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got["n_rows"] != float64(2) || got["n_cols"] != float64(3) {
		t.Fatalf("summary = %v", got)
	}
	stats, ok := got["acvalue_stats"].(map[string]any)
	if !ok || stats["mean"] != float64(6) {
		t.Fatalf("acvalue_stats = %v", got["acvalue_stats"])
	}
}

func TestCLI_EDA_DefaultsFromEnv(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "raw.csv"), "smiles\nCCO\n")
	outDir := filepath.Join(home, "env-figs")
	t.Setenv("CHEMEDA_INPUT_PATH", in)
	t.Setenv("CHEMEDA_OUTPUT_DIR", outDir)

	out := runCmd(t, "eda")
	if !strings.Contains(out, "n_rows: 1") {
		t.Fatalf("expected yaml summary, got:\n%s", out)
	}
	if strings.Contains(out, "categories:") {
		t.Fatalf("categories should be omitted:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, eda.SMILESLengthFigure)); err != nil {
		t.Fatalf("missing figure: %v", err)
	}
}

func TestCLI_EDA_MissingSMILESFails(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "bad.csv"), "acvalue\n1.0\n")
	outDir := filepath.Join(home, "figs")
	if _, err := execCmd(t, "eda", in, "--out-dir", outDir); err == nil {
		t.Fatalf("expected error for missing smiles column")
	}
	if _, err := os.Stat(outDir); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("output dir should not exist: %v", err)
	}
}

func TestCLI_EDA_InvalidFlags(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "c.csv"), compoundsCSV)
	outDir := filepath.Join(home, "figs")
	cases := [][]string{
		{"eda", in, "--out-dir", outDir, "--bins", "0"},
		{"eda", in, "--out-dir", outDir, "--head-rows", "-1"},
		{"eda", in, "--out-dir", outDir, "--delimiter", "|"},
		{"eda", in, "--out-dir", outDir, "--format", "xml"},
		{"eda", in, "--out-dir", outDir, "--summary-out", filepath.Join(home, "s.txt")},
	}
	for _, args := range cases {
		if _, err := execCmd(t, args...); err == nil {
			t.Errorf("expected error for %v", args[3:])
		}
	}
}

func TestCLI_EDABatch_CollisionAndManifest(t *testing.T) {
	home := isolateHome(t)
	writeFile(t, filepath.Join(home, "d1", "compounds.csv"), compoundsCSV)
	writeFile(t, filepath.Join(home, "d2", "compounds.csv"), "smiles\nCCO\nCCCC\nc1ccccc1\n")
	root := filepath.Join(home, "batch")

	out := runCmd(t, "eda-batch", filepath.Join(home, "d*", "compounds.csv"), "--out-dir", root, "--quiet")
	if out != "" {
		t.Fatalf("quiet run printed:\n%s", out)
	}

	for _, dir := range []string{"compounds", "compounds__2"} {
		if _, err := os.Stat(filepath.Join(root, dir, eda.SMILESLengthFigure)); err != nil {
			t.Fatalf("missing figure in %s: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "compounds__2", eda.ActivityFigure)); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("unexpected activity figure for smiles-only input: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(root, ManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m batchManifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if _, err := uuid.Parse(m.BatchID); err != nil {
		t.Fatalf("batch_id %q: %v", m.BatchID, err)
	}
	if len(m.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(m.Datasets))
	}
	if m.Datasets[0].Summary.NRows != 2 || m.Datasets[1].Summary.NRows != 3 {
		t.Fatalf("row counts = %d, %d", m.Datasets[0].Summary.NRows, m.Datasets[1].Summary.NRows)
	}
	if m.Datasets[1].OutputDir != filepath.Join(root, "compounds__2") {
		t.Fatalf("second output dir = %s", m.Datasets[1].OutputDir)
	}
}

func TestCLI_EDABatch_ProgressOutput(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, filepath.Join(home, "one.csv"), compoundsCSV)
	out := runCmd(t, "eda-batch", in, "--out-dir", filepath.Join(home, "batch"))
	if !strings.Contains(out, "[1/1] Processing one.csv...") {
		t.Fatalf("missing progress line:\n%s", out)
	}
	if !strings.Contains(out, "✓ Processed 1 file(s)") {
		t.Fatalf("missing completion line:\n%s", out)
	}
}

func TestCLI_EDABatch_Errors(t *testing.T) {
	home := isolateHome(t)
	if _, err := execCmd(t, "eda-batch", filepath.Join(home, "none*.csv")); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
	bad := writeFile(t, filepath.Join(home, "bad.csv"), "acvalue\n1\n")
	root := filepath.Join(home, "batch")
	if _, err := execCmd(t, "eda-batch", bad, "--out-dir", root, "--quiet"); err == nil {
		t.Fatalf("expected error for file without smiles")
	}
	if _, err := os.Stat(filepath.Join(root, ManifestName)); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("manifest should not be written on failure: %v", err)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolateHome(t)
	if out := runCmd(t, "config", "set", "bins", "12"); !strings.Contains(out, "Saved config") {
		t.Fatalf("set output = %q", out)
	}
	runCmd(t, "config", "set", "delimiter", "tab")
	if _, err := os.Stat(filepath.Join(home, ".chemeda", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	out := runCmd(t, "config", "show")
	for _, s := range []string{"bins: 12", `delimiter: "tab"`, "output_dir: reports/figures/"} {
		if !strings.Contains(out, s) {
			t.Errorf("show missing %q:\n%s", s, out)
		}
	}
	for _, args := range [][]string{
		{"config", "set", "bins", "0"},
		{"config", "set", "delimiter", "|"},
		{"config", "set", "summary_format", "xml"},
		{"config", "set", "nope", "1"},
	} {
		if _, err := execCmd(t, args...); err == nil {
			t.Errorf("expected error for %v", args[2:])
		}
	}
}

func TestUniqueStem(t *testing.T) {
	used := map[string]int{}
	got := []string{uniqueStem(used, "a"), uniqueStem(used, "b"), uniqueStem(used, "a"), uniqueStem(used, "a")}
	want := []string{"a", "b", "a__2", "a__3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("uniqueStem = %v, want %v", got, want)
		}
	}
}
