package policy

import (
	"sort"
	"strings"
	"sync"

	"github.com/wardenhq/warden/internal/capability"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/errors"
)

// ActionPolicy governs one (category, action) pair.
type ActionPolicy struct {
	// Enabled gates whether the action may execute at all
	Enabled bool `json:"enabled"`

	// RequiresApproval forces an explicit user decision before execution
	RequiresApproval bool `json:"requires_approval"`

	// Description is shown in policy listings and approval prompts
	Description string `json:"description,omitempty"`

	// AllowedCommands, when non-empty, restricts terminal execution to
	// commands starting with one of these prefixes
	AllowedCommands []string `json:"allowed_commands,omitempty"`
}

// CategoryPolicy governs one capability category.
type CategoryPolicy struct {
	// Enabled gates the whole category; a disabled category rejects every
	// action inside it regardless of per-action settings
	Enabled bool `json:"enabled"`

	// Actions maps action name to its policy
	Actions map[string]ActionPolicy `json:"actions"`
}

// Entry is one (category, action) row in a policy listing.
type Entry struct {
	Category         string   `json:"category"`
	Action           string   `json:"action"`
	Enabled          bool     `json:"enabled"`
	RequiresApproval bool     `json:"requires_approval"`
	Description      string   `json:"description,omitempty"`
	AllowedCommands  []string `json:"allowed_commands,omitempty"`
}

// restrictedCommands are substring patterns a terminal command must never
// match, regardless of policy or approval. Matching is case-insensitive
// with whitespace collapsed, so "rm   -RF /" is still caught.
var restrictedCommands = []string{
	"rm -rf /",
	"rm -rf ~",
	"rm -rf *",
	"sudo ",
	"chmod 777",
	"chmod -r 777",
	"mkfs.",
	"dd if=/dev/zero",
	"dd if=/dev/random",
	":(){ :|:& };:",
	"> /dev/sda",
	"curl | sh",
	"curl | bash",
	"wget | sh",
	"wget | bash",
	"shutdown",
	"reboot",
	"killall",
}

// Registry holds the effective capability policy: compiled defaults plus
// runtime updates. Updates are process-scoped; they do not persist.
type Registry struct {
	mu         sync.RWMutex
	categories map[string]*CategoryPolicy
}

// NewRegistry returns a registry populated with the built-in defaults:
// file and git read-ish operations auto-allowed, every mutating or
// command-running action gated behind approval.
func NewRegistry() *Registry {
	return &Registry{categories: defaultPolicies()}
}

// FromConfig returns a registry with the built-in defaults plus the
// config's startup overrides applied. Override keys take the form
// "category.action"; a key that names no built-in capability is an error,
// so a typo cannot silently leave a default in force. Restricted command
// patterns cannot be overridden.
func FromConfig(cfg *config.Config) (*Registry, error) {
	r := NewRegistry()
	if cfg == nil || len(cfg.Policy) == 0 {
		return r, nil
	}

	keys := make([]string, 0, len(cfg.Policy))
	for k := range cfg.Policy {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		category, action, ok := strings.Cut(key, ".")
		if !ok || category == "" || action == "" {
			return nil, errors.NewInvalidRequest("policy override key must be category.action: " + key)
		}
		if err := r.applyOverride(category, action, cfg.Policy[key]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) applyOverride(category, action string, ov config.PolicyOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, ok := r.categories[category]
	if !ok {
		return errors.NewNotFound("unknown capability category: " + category)
	}
	act, ok := cat.Actions[action]
	if !ok {
		return errors.NewNotFound("unknown capability action: " + category + "." + action)
	}

	if ov.Enabled != nil {
		act.Enabled = *ov.Enabled
	}
	if ov.RequiresApproval != nil {
		act.RequiresApproval = *ov.RequiresApproval
	}
	if len(ov.AllowedCommands) > 0 {
		act.AllowedCommands = append([]string(nil), ov.AllowedCommands...)
	}
	cat.Actions[action] = act
	return nil
}

func defaultPolicies() map[string]*CategoryPolicy {
	return map[string]*CategoryPolicy{
		capability.CategoryFile: {
			Enabled: true,
			Actions: map[string]ActionPolicy{
				capability.ActionCreate: {Enabled: true, RequiresApproval: true, Description: "Create a file in the workspace"},
				capability.ActionEdit:   {Enabled: true, RequiresApproval: true, Description: "Overwrite an existing workspace file"},
				capability.ActionDelete: {Enabled: true, RequiresApproval: true, Description: "Delete a workspace file"},
				capability.ActionCopy:   {Enabled: true, RequiresApproval: true, Description: "Copy a workspace file"},
				capability.ActionBatch:  {Enabled: true, RequiresApproval: true, Description: "Apply multiple file changes"},
			},
		},
		capability.CategoryTerminal: {
			Enabled: true,
			Actions: map[string]ActionPolicy{
				capability.ActionExecute: {Enabled: true, RequiresApproval: true, Description: "Run a shell command in the workspace"},
			},
		},
		capability.CategoryGit: {
			Enabled: true,
			Actions: map[string]ActionPolicy{
				capability.ActionStatus:       {Enabled: true, RequiresApproval: false, Description: "Show repository status"},
				capability.ActionAdd:          {Enabled: true, RequiresApproval: true, Description: "Stage files"},
				capability.ActionCommit:       {Enabled: true, RequiresApproval: true, Description: "Create a commit"},
				capability.ActionBranchCreate: {Enabled: true, RequiresApproval: true, Description: "Create and switch to a branch"},
				capability.ActionPush:         {Enabled: true, RequiresApproval: true, Description: "Push to a remote"},
			},
		},
		capability.CategoryCodeGen: {
			Enabled: true,
			Actions: map[string]ActionPolicy{
				"generate": {Enabled: true, RequiresApproval: false, Description: "Generate code into the conversation"},
			},
		},
	}
}

// IsEnabled reports whether the (category, action) pair may execute.
// Unknown categories and actions are disabled.
func (r *Registry) IsEnabled(category, action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, ok := r.categories[category]
	if !ok || !cat.Enabled {
		return false
	}
	act, ok := cat.Actions[action]
	return ok && act.Enabled
}

// RequiresApproval reports whether execution needs an explicit decision.
// Unknown pairs require approval: the gate fails closed.
func (r *Registry) RequiresApproval(category, action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, ok := r.categories[category]
	if !ok {
		return true
	}
	act, ok := cat.Actions[action]
	if !ok {
		return true
	}
	return act.RequiresApproval
}

// IsCommandRestricted reports whether the command matches a restricted
// pattern. Restricted commands are rejected unconditionally, before the
// approval gate, and cannot be re-enabled through policy updates.
func (r *Registry) IsCommandRestricted(command string) bool {
	normalized := normalizeCommand(command)
	for _, pattern := range restrictedCommands {
		if strings.Contains(normalized, normalizeCommand(pattern)) {
			return true
		}
	}
	return false
}

// IsCommandAllowed checks the command against the action's allow-list of
// prefixes. An empty allow-list permits everything (the approval gate is
// the control in that case).
func (r *Registry) IsCommandAllowed(category, action, command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, ok := r.categories[category]
	if !ok {
		return false
	}
	act, ok := cat.Actions[action]
	if !ok {
		return false
	}
	if len(act.AllowedCommands) == 0 {
		return true
	}

	normalized := normalizeCommand(command)
	for _, prefix := range act.AllowedCommands {
		if strings.HasPrefix(normalized, normalizeCommand(prefix)) {
			return true
		}
	}
	return false
}

// Update changes the policy for an existing (category, action) pair.
// Unknown pairs are an error; Update never creates new capabilities.
func (r *Registry) Update(category, action string, enabled, requiresApproval bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, ok := r.categories[category]
	if !ok {
		return errors.NewNotFound("unknown capability category: " + category)
	}
	act, ok := cat.Actions[action]
	if !ok {
		return errors.NewNotFound("unknown capability action: " + category + "." + action)
	}

	act.Enabled = enabled
	act.RequiresApproval = requiresApproval
	cat.Actions[action] = act
	return nil
}

// SetCategoryEnabled toggles a whole category.
func (r *Registry) SetCategoryEnabled(category string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, ok := r.categories[category]
	if !ok {
		return errors.NewNotFound("unknown capability category: " + category)
	}
	cat.Enabled = enabled
	return nil
}

// List returns every known (category, action) pair sorted by category then
// action, with effective enablement (category gate applied).
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for catName, cat := range r.categories {
		for actName, act := range cat.Actions {
			out = append(out, Entry{
				Category:         catName,
				Action:           actName,
				Enabled:          cat.Enabled && act.Enabled,
				RequiresApproval: act.RequiresApproval,
				Description:      act.Description,
				AllowedCommands:  append([]string(nil), act.AllowedCommands...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// RestrictedPatterns returns the restricted command patterns, for display.
func RestrictedPatterns() []string {
	return append([]string(nil), restrictedCommands...)
}

// normalizeCommand lowercases and collapses runs of whitespace so pattern
// matching is layout-insensitive.
func normalizeCommand(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
