// Package fsops implements the file capabilities: create, edit, delete,
// and copy, confined to the workspace root. All paths are workspace-relative;
// Resolve enforces confinement and symlink safety before any filesystem call.
package fsops

import (
	"io"
	"os"
	"path/filepath"

	"github.com/wardenhq/warden/internal/errors"
)

// FS executes file capabilities under a workspace root.
type FS struct {
	root        string
	maxPayload  int
	allowUnsafe bool
}

// New creates an FS rooted at root. maxPayload bounds content size per
// operation (non-positive means 10 MiB). allowUnsafe disables workspace
// confinement; symlink checks still apply.
func New(root string, maxPayload int, allowUnsafe bool) *FS {
	if maxPayload <= 0 {
		maxPayload = 10 * 1024 * 1024
	}
	return &FS{root: filepath.Clean(root), maxPayload: maxPayload, allowUnsafe: allowUnsafe}
}

// Root returns the workspace root.
func (f *FS) Root() string {
	return f.root
}

// Create writes a new file, creating parent directories as needed. Fails
// if the file already exists; use Edit to overwrite.
func (f *FS) Create(path, content string) error {
	if err := f.checkPayload(content); err != nil {
		return err
	}
	abs, err := f.Resolve(path)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(abs); err == nil {
		return errors.NewInvalidRequest("file already exists: " + path)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errors.NewInternal(err)
	}

	file, err := openFileNoFollow(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Edit replaces the content of an existing file. Fails if the file does
// not exist; use Create for new files.
func (f *FS) Edit(path, content string) error {
	if err := f.checkPayload(content); err != nil {
		return err
	}
	abs, err := f.Resolve(path)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(abs); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound("file not found: " + path)
		}
		return errors.NewInternal(err)
	}

	file, err := openFileNoFollow(abs, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Delete removes a file. Directories are not deletable through capabilities.
func (f *FS) Delete(path string) error {
	abs, err := f.Resolve(path)
	if err != nil {
		return err
	}

	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound("file not found: " + path)
		}
		return errors.NewInternal(err)
	}
	if info.IsDir() {
		return errors.NewInvalidRequest("path is a directory, not a file: " + path)
	}

	if err := os.Remove(abs); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Copy duplicates a file to a new path inside the workspace, creating
// parent directories as needed. Fails if the destination exists.
func (f *FS) Copy(path, destination string) error {
	srcAbs, err := f.Resolve(path)
	if err != nil {
		return err
	}
	dstAbs, err := f.Resolve(destination)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(dstAbs); err == nil {
		return errors.NewInvalidRequest("destination already exists: " + destination)
	}

	src, err := openFileNoFollowRead(srcAbs)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstAbs), 0o755); err != nil {
		return errors.NewInternal(err)
	}

	dst, err := openFileNoFollow(dstAbs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ReadFile returns the content of a workspace file, subject to the payload
// size cap.
func (f *FS) ReadFile(path string) (string, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return "", err
	}

	file, err := openFileNoFollowRead(abs)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(f.maxPayload)+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if len(data) > f.maxPayload {
		return "", errors.NewPayloadTooLarge(f.maxPayload, len(data))
	}
	return string(data), nil
}

func (f *FS) checkPayload(content string) error {
	if len(content) > f.maxPayload {
		return errors.NewPayloadTooLarge(f.maxPayload, len(content))
	}
	return nil
}
