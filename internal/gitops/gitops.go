// Package gitops implements the git capabilities by shelling out to the
// git binary in the workspace root. Porcelain output is returned raw; the
// executor folds it into capability results.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wardenhq/warden/internal/errors"
)

// Git runs git commands in a fixed repository directory.
type Git struct {
	dir string
}

// New creates a Git bound to the repository at dir (the workspace root).
func New(dir string) *Git {
	return &Git{dir: dir}
}

// Status returns `git status --porcelain=v1 --branch` output. An empty
// body (branch header only) means a clean tree.
func (g *Git) Status(ctx context.Context) (string, error) {
	return g.run(ctx, "status", "--porcelain=v1", "--branch")
}

// Add stages the given paths, or everything when paths is empty.
func (g *Git) Add(ctx context.Context, paths []string) (string, error) {
	args := []string{"add", "--"}
	if len(paths) == 0 {
		args = []string{"add", "-A"}
	} else {
		args = append(args, paths...)
	}
	return g.run(ctx, args...)
}

// Commit creates a commit from the staged changes.
func (g *Git) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.NewInvalidRequest("commit message is required")
	}
	return g.run(ctx, "commit", "-m", message)
}

// BranchCreate creates and switches to a branch. base defaults to the
// current HEAD when empty.
func (g *Git) BranchCreate(ctx context.Context, branch, base string) (string, error) {
	if strings.TrimSpace(branch) == "" {
		return "", errors.NewInvalidRequest("branch name is required")
	}
	args := []string{"checkout", "-b", branch}
	if base != "" {
		args = append(args, base)
	}
	return g.run(ctx, args...)
}

// Push pushes the branch to the remote. remote defaults to "origin";
// branch defaults to the current branch.
func (g *Git) Push(ctx context.Context, remote, branch string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	args := []string{"push", "-u", remote}
	if branch != "" {
		args = append(args, branch)
	}
	return g.run(ctx, args...)
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// run executes one git command, returning combined trimmed output. A
// non-zero exit becomes an error carrying git's stderr, which is already
// human-readable.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], detail)
	}

	out := stdout.String()
	if s := strings.TrimSpace(stderr.String()); s != "" {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += s
	}
	return strings.TrimRight(out, "\n"), nil
}
