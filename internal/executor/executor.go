// Package executor implements the capability execution pipeline: validate,
// check policy, gate on approval, delegate to the operation backends, and
// record the attempt. Every attempt produces exactly one Result and one
// history entry, including denials and rejections.
package executor

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wardenhq/warden/internal/capability"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/policy"
	"github.com/wardenhq/warden/internal/runner"
)

// FileOps is the file capability backend.
type FileOps interface {
	Create(path, content string) error
	Edit(path, content string) error
	Delete(path string) error
	Copy(path, destination string) error
}

// ProcessRunner is the terminal capability backend.
type ProcessRunner interface {
	Run(ctx context.Context, command, workingDir string) (*runner.CommandResult, error)
}

// GitOps is the git capability backend.
type GitOps interface {
	Status(ctx context.Context) (string, error)
	Add(ctx context.Context, paths []string) (string, error)
	Commit(ctx context.Context, message string) (string, error)
	BranchCreate(ctx context.Context, branch, base string) (string, error)
	Push(ctx context.Context, remote, branch string) (string, error)
}

// AuditSink receives a copy of every execution record. Sink failures are
// logged, never surfaced; the in-memory history is authoritative for the
// session.
type AuditSink interface {
	Append(rec capability.ExecutionRecord) error
}

// Executor runs capabilities through the policy and approval gates.
type Executor struct {
	policy   *policy.Registry
	files    FileOps
	proc     ProcessRunner
	git      GitOps
	approver Approver
	history  *History
	audit    AuditSink
}

// New assembles an executor. audit may be nil (auditing disabled); approver
// may be nil, which behaves as DenyApprover.
func New(reg *policy.Registry, files FileOps, proc ProcessRunner, git GitOps, approver Approver, cfg *config.Config, audit AuditSink) *Executor {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if approver == nil {
		approver = DenyApprover{}
	}
	return &Executor{
		policy:   reg,
		files:    files,
		proc:     proc,
		git:      git,
		approver: approver,
		history:  NewHistory(cfg.HistoryMaxEntries),
		audit:    audit,
	}
}

// History exposes the bounded execution history.
func (e *Executor) History() *History {
	return e.history
}

// Execute runs one capability through the full pipeline. The returned
// error covers only malformed capabilities; everything past validation,
// including backend failures, denials, and policy rejections, is reported
// inside the Result.
func (e *Executor) Execute(ctx context.Context, cap *capability.Capability) (*capability.Result, error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}

	result := e.resolve(ctx, cap)
	result.Type = cap.Type()

	e.record(cap, result)
	return result, nil
}

// resolve applies the gates in order: policy, command restriction, command
// allow-list, approval, then delegation.
func (e *Executor) resolve(ctx context.Context, cap *capability.Capability) *capability.Result {
	if !e.policy.IsEnabled(cap.Category, cap.Action) {
		return &capability.Result{
			Success:  false,
			Decision: capability.DecisionPolicyRejected,
			Error:    fmt.Sprintf("capability %s is disabled by policy", cap.Type()),
		}
	}

	if cap.Category == capability.CategoryTerminal {
		if e.policy.IsCommandRestricted(cap.Payload.Command) {
			return &capability.Result{
				Success:  false,
				Decision: capability.DecisionRestricted,
				Error:    "command matches a restricted pattern and can never be executed",
			}
		}
		if !e.policy.IsCommandAllowed(cap.Category, cap.Action, cap.Payload.Command) {
			return &capability.Result{
				Success:  false,
				Decision: capability.DecisionPolicyRejected,
				Error:    "command is not on the allow-list for this action",
			}
		}
	}

	decision := capability.DecisionAutoAllowed
	if e.policy.RequiresApproval(cap.Category, cap.Action) {
		approved, err := e.approver.Confirm(ctx, cap, cap.Describe())
		if err != nil || !approved {
			// A failed or cancelled approval wait is a denial, never a grant.
			// The cause is kept so a cancelled wait is distinguishable from
			// an explicit "no".
			result := &capability.Result{
				Success:  false,
				Decision: capability.DecisionDenied,
				Message:  "execution denied",
			}
			if err != nil {
				result.Error = fmt.Sprintf("approval not resolved: %v", err)
			}
			return result
		}
		decision = capability.DecisionApproved
	}

	result := e.delegate(ctx, cap)
	result.Decision = decision
	return result
}

// delegate dispatches to the backend for the capability's category. Backend
// errors become unsuccessful results.
func (e *Executor) delegate(ctx context.Context, cap *capability.Capability) *capability.Result {
	switch cap.Category {
	case capability.CategoryFile:
		return e.runFile(cap)
	case capability.CategoryTerminal:
		return e.runTerminal(ctx, cap)
	case capability.CategoryGit:
		return e.runGit(ctx, cap)
	default:
		return &capability.Result{
			Success:    false,
			Error:      fmt.Sprintf("unsupported capability category: %s", cap.Category),
			Suggestion: "supported categories: fileOperations, terminalOperations, gitOperations",
		}
	}
}

func (e *Executor) runFile(cap *capability.Capability) *capability.Result {
	if cap.Action == capability.ActionBatch {
		return e.runBatch(cap)
	}

	err := e.applyFileChange(cap.Action, cap.Payload.Path, cap.Payload.Content, cap.Payload.Destination)
	if err != nil {
		return &capability.Result{Success: false, Error: err.Error()}
	}
	return &capability.Result{
		Success: true,
		Message: fmt.Sprintf("%s: %s", cap.Action, cap.Payload.Path),
	}
}

// runBatch applies each file change independently, collecting per-file
// errors. There is no rollback: partial success is reported as such.
func (e *Executor) runBatch(cap *capability.Capability) *capability.Result {
	result := &capability.Result{}
	for _, fc := range cap.Payload.Files {
		if err := e.applyFileChange(fc.Action, fc.Path, fc.Content, fc.Destination); err != nil {
			result.ErrorCount++
			result.FileErrors = append(result.FileErrors, capability.FileError{Path: fc.Path, Error: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	result.Success = result.ErrorCount == 0
	result.Message = fmt.Sprintf("batch: %d succeeded, %d failed", result.SuccessCount, result.ErrorCount)
	if !result.Success {
		result.Error = fmt.Sprintf("%d of %d file changes failed", result.ErrorCount, len(cap.Payload.Files))
	}
	return result
}

func (e *Executor) applyFileChange(action, path, content, destination string) error {
	switch action {
	case capability.ActionCreate:
		return e.files.Create(path, content)
	case capability.ActionEdit:
		return e.files.Edit(path, content)
	case capability.ActionDelete:
		return e.files.Delete(path)
	case capability.ActionCopy:
		return e.files.Copy(path, destination)
	default:
		return fmt.Errorf("unsupported file action: %s", action)
	}
}

func (e *Executor) runTerminal(ctx context.Context, cap *capability.Capability) *capability.Result {
	cmdResult, err := e.proc.Run(ctx, cap.Payload.Command, cap.Payload.WorkingDir)
	if err != nil {
		return &capability.Result{Success: false, Error: err.Error()}
	}

	result := &capability.Result{
		Success: cmdResult.ExitCode == 0 && !cmdResult.TimedOut,
		Output:  cmdResult.Format(),
	}
	switch {
	case cmdResult.TimedOut:
		result.Error = "command timed out"
	case cmdResult.ExitCode != 0:
		result.Error = fmt.Sprintf("command exited with code %d", cmdResult.ExitCode)
	default:
		result.Message = "command completed"
	}
	return result
}

func (e *Executor) runGit(ctx context.Context, cap *capability.Capability) *capability.Result {
	var out string
	var err error

	switch cap.Action {
	case capability.ActionStatus:
		out, err = e.git.Status(ctx)
	case capability.ActionAdd:
		out, err = e.git.Add(ctx, cap.Payload.Paths)
	case capability.ActionCommit:
		out, err = e.git.Commit(ctx, cap.Payload.Message)
	case capability.ActionBranchCreate:
		out, err = e.git.BranchCreate(ctx, cap.Payload.Branch, cap.Payload.Base)
	case capability.ActionPush:
		out, err = e.git.Push(ctx, cap.Payload.Remote, cap.Payload.Branch)
	default:
		return &capability.Result{
			Success: false,
			Error:   fmt.Sprintf("unsupported git action: %s", cap.Action),
		}
	}

	if err != nil {
		return &capability.Result{Success: false, Error: err.Error()}
	}
	return &capability.Result{
		Success: true,
		Message: fmt.Sprintf("git %s completed", cap.Action),
		Output:  out,
	}
}

// record appends the attempt to history and the audit sink.
func (e *Executor) record(cap *capability.Capability, result *capability.Result) {
	id, err := generateULID()
	if err != nil {
		log.Printf("executor: ulid generation failed: %v", err)
		id = fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}

	rec := capability.ExecutionRecord{
		ID:         id,
		Capability: *cap,
		Result:     *result,
		Timestamp:  time.Now().Unix(),
	}
	e.history.Append(rec)

	if e.audit != nil {
		if err := e.audit.Append(rec); err != nil {
			log.Printf("executor: audit append failed: %v", err)
		}
	}
}

// generateULID returns a new lexicographically sortable unique ID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
