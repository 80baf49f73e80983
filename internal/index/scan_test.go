package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/errors"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanWorkspace_Basic(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.js", "function foo() {}\n")
	writeFixture(t, root, "src/b.py", "def bar():\n    pass\n")
	writeFixture(t, root, "README.md", "# readme\n")

	ix := New(root, config.DefaultConfig())
	result, err := ix.ScanWorkspace(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.FilesIndexed != 3 {
		t.Errorf("expected 3 files indexed, got %d", result.FilesIndexed)
	}
	if result.SymbolsFound < 2 {
		t.Errorf("expected at least 2 symbols, got %d", result.SymbolsFound)
	}
	if ix.Stats().LastScan == 0 {
		t.Error("expected last scan timestamp to be set")
	}
}

func TestScanWorkspace_ExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.js", "function foo() {}\n")
	writeFixture(t, root, "node_modules/lib/index.js", "function hidden() {}\n")
	writeFixture(t, root, ".git/hooks/x.js", "function hook() {}\n")

	ix := New(root, config.DefaultConfig())
	if _, err := ix.ScanWorkspace(context.Background()); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	for _, rec := range ix.Files() {
		if strings.HasPrefix(rec.Path, "node_modules/") || strings.HasPrefix(rec.Path, ".git/") {
			t.Errorf("excluded directory content was indexed: %s", rec.Path)
		}
	}
	if _, ok := ix.File("a.js"); !ok {
		t.Error("expected a.js to be indexed")
	}
}

func TestScanWorkspace_ExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.js", "function foo() {}\n")
	writeFixture(t, root, "image.png", "not-an-image\n")

	ix := New(root, config.DefaultConfig())
	result, err := ix.ScanWorkspace(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if result.FilesIndexed != 1 {
		t.Errorf("expected only a.js indexed, got %d files", result.FilesIndexed)
	}
	if _, ok := ix.File("image.png"); ok {
		t.Error("unsupported extension was indexed")
	}
}

func TestScanWorkspace_SizeCap(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "small.js", "function foo() {}\n")
	writeFixture(t, root, "big.js", strings.Repeat("x", 200))

	cfg := config.DefaultConfig()
	cfg.MaxFileSizeBytes = 100

	ix := New(root, cfg)
	result, err := ix.ScanWorkspace(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if _, ok := ix.File("big.js"); ok {
		t.Error("oversized file was indexed")
	}
	if result.FilesSkipped != 1 {
		t.Errorf("expected 1 skipped file, got %d", result.FilesSkipped)
	}
}

func TestScanWorkspace_DepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "top.js", "function top() {}\n")
	writeFixture(t, root, "a/b/c/deep.js", "function deep() {}\n")

	cfg := config.DefaultConfig()
	cfg.MaxScanDepth = 2

	ix := New(root, cfg)
	if _, err := ix.ScanWorkspace(context.Background()); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if _, ok := ix.File("top.js"); !ok {
		t.Error("expected top.js to be indexed")
	}
	if _, ok := ix.File("a/b/c/deep.js"); ok {
		t.Error("file beyond max depth was indexed")
	}
}

func TestScanWorkspace_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.js", "function foo() {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix := New(root, config.DefaultConfig())
	if _, err := ix.ScanWorkspace(ctx); err == nil {
		t.Error("expected error from cancelled scan")
	}
}

func TestScanWorkspace_Rescan(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.js", "function foo() {}\n")

	ix := New(root, config.DefaultConfig())
	if _, err := ix.ScanWorkspace(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := ix.Stats()

	if _, err := ix.ScanWorkspace(context.Background()); err != nil {
		t.Fatal(err)
	}
	second := ix.Stats()

	if first.Files != second.Files || first.Symbols != second.Symbols {
		t.Errorf("rescan changed counts: %+v vs %+v", first, second)
	}
}

func TestIndexFile(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.js", "function foo() {}\n")

	ix := New(root, config.DefaultConfig())
	if err := ix.IndexFile("a.js"); err != nil {
		t.Fatalf("IndexFile failed: %v", err)
	}
	if _, ok := ix.File("a.js"); !ok {
		t.Error("expected a.js to be indexed")
	}
}

func TestIndexFile_TooLarge(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "big.js", strings.Repeat("x", 200))

	cfg := config.DefaultConfig()
	cfg.MaxFileSizeBytes = 100

	ix := New(root, cfg)
	err := ix.IndexFile("big.js")
	if err == nil {
		t.Fatal("expected error for oversized file")
	}
	if !errors.Is(err, errors.ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got: %v", err)
	}
}
