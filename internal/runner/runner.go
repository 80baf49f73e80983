package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// MaxOutputBytes caps captured stdout/stderr. Longer output is truncated
// with a marker so a chatty command can't blow up a tool response.
const MaxOutputBytes = 100 * 1024

// CommandResult is the captured outcome of one shell command.
type CommandResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`

	// TimedOut is true when the command was killed at the deadline
	TimedOut bool `json:"timed_out,omitempty"`

	// DurationMS is wall-clock execution time
	DurationMS int64 `json:"duration_ms"`
}

// Runner executes shell commands with a per-command timeout.
type Runner struct {
	// WorkDir is the default working directory (the workspace root)
	WorkDir string

	// Timeout bounds each command; zero means 120s
	Timeout time.Duration
}

// New creates a runner rooted at workDir.
func New(workDir string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Runner{WorkDir: workDir, Timeout: timeout}
}

// Run executes the command via "bash -c" in workingDir (or the runner's
// default when empty), capturing stdout and stderr separately. A non-zero
// exit is not an error; it is reported in the result. The returned error
// covers only failures to start or observe the process.
func (r *Runner) Run(ctx context.Context, command, workingDir string) (*CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("empty command")
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	dir := workingDir
	if dir == "" {
		dir = r.WorkDir
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	result := &CommandResult{
		Stdout:     truncate(stdout.String()),
		Stderr:     truncate(stderr.String()),
		DurationMS: time.Since(start).Milliseconds(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, runErr
	}

	result.ExitCode = 0
	return result, nil
}

// Format renders the result the way tool consumers expect: exit code first,
// then labeled streams.
func (c *CommandResult) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "EXIT_CODE: %d\n", c.ExitCode)
	if c.TimedOut {
		b.WriteString("TIMED_OUT: true\n")
	}
	if c.Stdout != "" {
		b.WriteString("STDOUT:\n")
		b.WriteString(c.Stdout)
		if !strings.HasSuffix(c.Stdout, "\n") {
			b.WriteString("\n")
		}
	}
	if c.Stderr != "" {
		b.WriteString("STDERR:\n")
		b.WriteString(c.Stderr)
		if !strings.HasSuffix(c.Stderr, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string) string {
	if len(s) <= MaxOutputBytes {
		return s
	}
	return s[:MaxOutputBytes] + "\n... [output truncated]"
}
