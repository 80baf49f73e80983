package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wardenhq/warden/internal/errors"
)

// Resolve validates a workspace-relative path and returns its absolute
// form. It checks:
// 1. Path traversal (.. components)
// 2. Absolute paths (rejected; capabilities address files relative to the root)
// 3. Workspace confinement (resolved path must stay under the root)
// 4. Symlink safety (the final component must not be a symlink)
//
// allowUnsafe skips the confinement check but NOT the traversal or symlink
// checks; O_NOFOLLOW is still used at open time.
func (f *FS) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	if filepath.IsAbs(path) || filepath.IsAbs(filepath.FromSlash(path)) {
		return "", errors.NewInvalidRequest("path must be relative to the workspace root")
	}

	abs := filepath.Join(f.root, filepath.FromSlash(path))
	abs = filepath.Clean(abs)

	if !f.allowUnsafe && !isWithin(f.root, abs) {
		return "", errors.NewPathOutsideWorkspace(path)
	}

	// Reject a symlink final component early for a clearer error;
	// O_NOFOLLOW at open time would catch it anyway.
	if info, err := os.Lstat(abs); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return "", errors.NewInvalidRequest(fmt.Sprintf("path must not be a symlink: %s", path))
		}
	}

	return abs, nil
}

// isWithin reports whether abs is root or a descendant of root.
func isWithin(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
