package capability

import (
	"fmt"
	"strings"

	"github.com/wardenhq/warden/internal/errors"
)

// Capability categories. The set is open: unknown categories are carried
// through to the executor, which reports them as unsupported (the policy
// layer already forces approval for anything it does not recognize).
const (
	CategoryFile     = "fileOperations"
	CategoryTerminal = "terminalOperations"
	CategoryGit      = "gitOperations"
	CategoryCodeGen  = "codeGeneration"
)

// Actions within the built-in categories.
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionCopy   = "copy"
	ActionBatch  = "batch"

	ActionExecute = "execute"

	ActionStatus       = "status"
	ActionAdd          = "add"
	ActionCommit       = "commit"
	ActionBranchCreate = "branchCreate"
	ActionPush         = "push"
)

// Capability is a proposed, possibly side-effecting action suggested by a
// language model or a user-triggered flow. It is consumed by the executor
// and retained only inside ExecutionRecords.
type Capability struct {
	// Category is the policy category, e.g. "fileOperations"
	Category string `json:"category"`

	// Action is the operation name within the category, e.g. "create"
	Action string `json:"action"`

	// Payload carries the action-specific parameters
	Payload Payload `json:"payload"`
}

// Payload carries action-specific parameters. Only the fields relevant to
// the capability's action are set.
type Payload struct {
	// Path is the workspace-relative file path (file actions)
	Path string `json:"path,omitempty"`

	// Content is the file content to write (create/edit)
	Content string `json:"content,omitempty"`

	// Destination is the target path for copy
	Destination string `json:"destination,omitempty"`

	// Files lists per-file changes for batch operations
	Files []FileChange `json:"files,omitempty"`

	// Command is the literal command string (terminal execute)
	Command string `json:"command,omitempty"`

	// WorkingDir overrides the working directory for terminal execute
	WorkingDir string `json:"working_dir,omitempty"`

	// Message is the commit message (git commit)
	Message string `json:"message,omitempty"`

	// Branch is the branch name (git branchCreate, push)
	Branch string `json:"branch,omitempty"`

	// Base is the base ref for branchCreate (defaults to current HEAD)
	Base string `json:"base,omitempty"`

	// Remote is the remote name for push (defaults to "origin")
	Remote string `json:"remote,omitempty"`

	// Paths lists files to stage (git add); empty means all
	Paths []string `json:"paths,omitempty"`
}

// FileChange is one entry of a batch file operation.
type FileChange struct {
	Action      string `json:"action"` // create, edit, delete, copy
	Path        string `json:"path"`
	Content     string `json:"content,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// Decision records how the approval gate resolved for an execution attempt.
type Decision string

const (
	// DecisionAutoAllowed means policy permitted execution without approval
	DecisionAutoAllowed Decision = "auto_allowed"

	// DecisionApproved means the user explicitly approved
	DecisionApproved Decision = "approved"

	// DecisionDenied means the user explicitly denied (or the approval
	// wait was cancelled)
	DecisionDenied Decision = "denied"

	// DecisionPolicyRejected means the capability or its category is disabled
	DecisionPolicyRejected Decision = "policy_rejected"

	// DecisionRestricted means the command matched a restricted pattern
	DecisionRestricted Decision = "restricted_command"
)

// Result is the outcome of one capability execution attempt. Every attempt
// produces exactly one Result; delegated failures are folded into it rather
// than surfaced as errors.
type Result struct {
	Success bool `json:"success"`

	// Type identifies the capability as "category.action"
	Type string `json:"type"`

	// Message is human-readable and safe to display directly
	Message string `json:"message"`

	// Error carries the failure detail when Success is false
	Error string `json:"error,omitempty"`

	// Output carries delegated command/git output when present
	Output string `json:"output,omitempty"`

	// Decision records the approval-gate outcome
	Decision Decision `json:"decision"`

	// Suggestion is set for unsupported capabilities
	Suggestion string `json:"suggestion,omitempty"`

	// Batch reporting (fileOperations.batch only)
	SuccessCount int         `json:"success_count,omitempty"`
	ErrorCount   int         `json:"error_count,omitempty"`
	FileErrors   []FileError `json:"file_errors,omitempty"`
}

// FileError identifies the failing file within a batch operation.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ExecutionRecord is the audit trail of one capability execution attempt.
type ExecutionRecord struct {
	// ID is a ULID that uniquely identifies this attempt
	ID string `json:"id"`

	// Capability is a snapshot of the executed capability
	Capability Capability `json:"capability"`

	// Result is the outcome, including denials and policy rejections
	Result Result `json:"result"`

	// Timestamp is the Unix timestamp of the attempt
	Timestamp int64 `json:"timestamp"`
}

// Type returns the "category.action" identifier for the capability.
func (c *Capability) Type() string {
	return c.Category + "." + c.Action
}

// Describe returns a one-line human-readable description of the capability,
// suitable for approval prompts and history listings.
func (c *Capability) Describe() string {
	switch {
	case c.Category == CategoryFile && c.Action == ActionBatch:
		return fmt.Sprintf("%s: %d file changes", c.Type(), len(c.Payload.Files))
	case c.Category == CategoryFile && c.Action == ActionCopy:
		return fmt.Sprintf("%s: %s -> %s", c.Type(), c.Payload.Path, c.Payload.Destination)
	case c.Category == CategoryFile:
		return fmt.Sprintf("%s: %s", c.Type(), c.Payload.Path)
	case c.Category == CategoryTerminal:
		return fmt.Sprintf("%s: %s", c.Type(), c.Payload.Command)
	case c.Category == CategoryGit && c.Action == ActionCommit:
		return fmt.Sprintf("%s: %q", c.Type(), c.Payload.Message)
	case c.Category == CategoryGit && c.Action == ActionPush:
		return fmt.Sprintf("%s: %s/%s", c.Type(), c.Payload.Remote, c.Payload.Branch)
	case c.Category == CategoryGit && c.Action == ActionBranchCreate:
		return fmt.Sprintf("%s: %s", c.Type(), c.Payload.Branch)
	default:
		return c.Type()
	}
}

// Validate checks that the capability names a category and action and that
// the payload carries the parameters its action requires. It does not
// consult policy; unknown categories pass validation and are resolved by
// the executor.
func (c *Capability) Validate() error {
	if strings.TrimSpace(c.Category) == "" {
		return errors.NewInvalidRequest("capability category is required")
	}
	if strings.TrimSpace(c.Action) == "" {
		return errors.NewInvalidRequest("capability action is required")
	}

	switch c.Category {
	case CategoryFile:
		return c.validateFilePayload()
	case CategoryTerminal:
		if strings.TrimSpace(c.Payload.Command) == "" {
			return errors.NewInvalidRequest("payload.command is required for terminal capabilities")
		}
	case CategoryGit:
		switch c.Action {
		case ActionCommit:
			if strings.TrimSpace(c.Payload.Message) == "" {
				return errors.NewInvalidRequest("payload.message is required for git commit")
			}
		case ActionBranchCreate:
			if strings.TrimSpace(c.Payload.Branch) == "" {
				return errors.NewInvalidRequest("payload.branch is required for git branchCreate")
			}
		}
	}
	return nil
}

func (c *Capability) validateFilePayload() error {
	switch c.Action {
	case ActionBatch:
		if len(c.Payload.Files) == 0 {
			return errors.NewInvalidRequest("payload.files must not be empty for batch operations")
		}
		for i, fc := range c.Payload.Files {
			if strings.TrimSpace(fc.Path) == "" {
				return errors.NewInvalidRequest(fmt.Sprintf("payload.files[%d].path is required", i))
			}
			if fc.Action == ActionCopy && strings.TrimSpace(fc.Destination) == "" {
				return errors.NewInvalidRequest(fmt.Sprintf("payload.files[%d].destination is required for copy", i))
			}
		}
	case ActionCopy:
		if strings.TrimSpace(c.Payload.Path) == "" {
			return errors.NewInvalidRequest("payload.path is required for file capabilities")
		}
		if strings.TrimSpace(c.Payload.Destination) == "" {
			return errors.NewInvalidRequest("payload.destination is required for copy")
		}
	default:
		if strings.TrimSpace(c.Payload.Path) == "" {
			return errors.NewInvalidRequest("payload.path is required for file capabilities")
		}
	}
	return nil
}
