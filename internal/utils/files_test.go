package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/chemeda/internal/utils"
)

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "figures")
	for i := 0; i < 2; i++ {
		if err := utils.EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir #%d: %v", i+1, err)
		}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory, stat err=%v", err)
	}
}

func TestEnsureDirOverFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := utils.EnsureDir(filepath.Join(file, "sub")); err == nil {
		t.Fatalf("expected error creating a directory under a file")
	}
}

func TestSafeWriteFileOverwrites(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.png")
	for _, body := range []string{"first", "second"} {
		if err := utils.SafeWriteFile(p, []byte(body)); err != nil {
			t.Fatalf("SafeWriteFile: %v", err)
		}
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestPrettyJSONAndStem(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"n_rows": 2})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"n_rows\": 2") {
		t.Fatalf("unexpected json: %s", b)
	}
	if got := utils.StemName("data/raw/dataset.csv"); got != "dataset" {
		t.Fatalf("stem = %q", got)
	}
}
