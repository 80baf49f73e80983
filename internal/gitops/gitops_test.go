package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a throwaway git repository with identity configured, or
// skips when git is not installed.
func initRepo(t *testing.T) *Git {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
	return New(dir)
}

func TestStatus_CleanAndDirty(t *testing.T) {
	g := initRepo(t)
	ctx := context.Background()

	out, err := g.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "##") {
		t.Errorf("expected branch header in porcelain output, got %q", out)
	}

	if err := os.WriteFile(filepath.Join(g.dir, "new.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = g.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "new.txt") {
		t.Errorf("expected untracked file in status, got %q", out)
	}
}

func TestAddCommit(t *testing.T) {
	g := initRepo(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(g.dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Add(ctx, []string{"a.txt"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	out, err := g.Commit(ctx, "initial commit")
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if !strings.Contains(out, "initial commit") {
		t.Errorf("expected commit message in output, got %q", out)
	}

	status, err := g.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(status, "a.txt") {
		t.Errorf("expected clean tree after commit, got %q", status)
	}
}

func TestCommit_EmptyMessage(t *testing.T) {
	g := initRepo(t)

	if _, err := g.Commit(context.Background(), "  "); err == nil {
		t.Error("expected error for empty commit message")
	}
}

func TestBranchCreate(t *testing.T) {
	g := initRepo(t)
	ctx := context.Background()

	// A branch needs at least one commit.
	if err := os.WriteFile(filepath.Join(g.dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Add(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Commit(ctx, "base"); err != nil {
		t.Fatal(err)
	}

	if _, err := g.BranchCreate(ctx, "feature/new-thing", ""); err != nil {
		t.Fatalf("branch create failed: %v", err)
	}

	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if branch != "feature/new-thing" {
		t.Errorf("expected to be on feature/new-thing, got %s", branch)
	}
}

func TestBranchCreate_EmptyName(t *testing.T) {
	g := initRepo(t)

	if _, err := g.BranchCreate(context.Background(), "", ""); err == nil {
		t.Error("expected error for empty branch name")
	}
}

func TestRun_ErrorCarriesStderr(t *testing.T) {
	g := initRepo(t)

	_, err := g.run(context.Background(), "checkout", "no-such-branch")
	if err == nil {
		t.Fatal("expected error for unknown branch")
	}
	if !strings.Contains(err.Error(), "git checkout") {
		t.Errorf("expected command name in error, got %v", err)
	}
}
