package fsops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/wardenhq/warden/internal/errors"
)

func TestResolve_TraversalRejected(t *testing.T) {
	fs, _ := newTestFS(t)

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../escape.txt"},
		{"deep traversal", "../../etc/passwd"},
		{"mid-path traversal", "safe/../../escape.txt"},
		{"trailing traversal", "dir/.."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fs.Resolve(tc.path)
			if err == nil {
				t.Fatal("expected error for path traversal, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestResolve_AbsoluteRejected(t *testing.T) {
	fs, _ := newTestFS(t)

	_, err := fs.Resolve("/etc/passwd")
	if err == nil {
		t.Fatal("expected error for absolute path")
	}
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestResolve_EmptyRejected(t *testing.T) {
	fs, _ := newTestFS(t)

	for _, path := range []string{"", "   "} {
		if _, err := fs.Resolve(path); err == nil {
			t.Errorf("expected error for path %q", path)
		}
	}
}

func TestResolve_ValidPaths(t *testing.T) {
	fs, root := newTestFS(t)

	tests := []string{"a.txt", "sub/dir/file.go", "./relative.md"}
	for _, path := range tests {
		abs, err := fs.Resolve(path)
		if err != nil {
			t.Errorf("path %q: unexpected error: %v", path, err)
			continue
		}
		if !filepath.IsAbs(abs) {
			t.Errorf("path %q: expected absolute result, got %s", path, abs)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || filepath.IsAbs(rel) {
			t.Errorf("path %q resolved outside root: %s", path, abs)
		}
	}
}

func TestResolve_SymlinkRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	fs, root := newTestFS(t)

	target := filepath.Join(t.TempDir(), "target.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Fatal(err)
	}

	_, err := fs.Resolve("link.txt")
	if err == nil {
		t.Fatal("expected error for symlink path")
	}
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestResolve_AllowUnsafeSkipsConfinementOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := t.TempDir()
	fs := New(root, 1024, true)

	// Traversal is still rejected even in unsafe mode.
	if _, err := fs.Resolve("../escape.txt"); err == nil {
		t.Error("traversal must be rejected even with unsafe paths allowed")
	}

	// Symlinks are still rejected.
	target := filepath.Join(t.TempDir(), "target.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Resolve("link.txt"); err == nil {
		t.Error("symlinks must be rejected even with unsafe paths allowed")
	}
}
