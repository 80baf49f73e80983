package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wardenhq/warden/internal/capability"
)

// Approver resolves the approval gate for one capability. Confirm blocks
// until a decision is made or ctx is cancelled; a cancelled wait counts as
// a denial, never as approval.
type Approver interface {
	Confirm(ctx context.Context, cap *capability.Capability, description string) (bool, error)
}

// DenyApprover refuses everything. It is the default in non-interactive
// modes (MCP serving), where no human can answer a prompt.
type DenyApprover struct{}

func (DenyApprover) Confirm(ctx context.Context, cap *capability.Capability, description string) (bool, error) {
	return false, nil
}

// AutoApprover grants everything. Only wired when the operator opts in via
// approval_mode "auto".
type AutoApprover struct{}

func (AutoApprover) Confirm(ctx context.Context, cap *capability.Capability, description string) (bool, error) {
	return true, nil
}

// PromptApprover asks y/n on the given reader/writer pair (stdin/stderr in
// the CLI). Anything other than "y" or "yes" is a denial.
type PromptApprover struct {
	In  io.Reader
	Out io.Writer
}

func (p *PromptApprover) Confirm(ctx context.Context, cap *capability.Capability, description string) (bool, error) {
	fmt.Fprintf(p.Out, "Approve %s? [y/N] ", description)

	type answer struct {
		ok  bool
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && line == "" {
			ch <- answer{err: err}
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			ch <- answer{ok: true}
		default:
			ch <- answer{ok: false}
		}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		return a.ok, a.err
	}
}
