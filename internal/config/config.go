package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// MaxFileSizeBytes is the largest file the indexer will read.
	// Larger files are skipped during workspace scans.
	MaxFileSizeBytes int64 `json:"max_file_size_bytes,omitempty"`

	// MaxScanDepth bounds how deep workspace scans recurse below the root.
	MaxScanDepth int `json:"max_scan_depth,omitempty"`

	// ExcludeDirs are directory names skipped during workspace scans.
	// User entries are merged with the built-in defaults.
	ExcludeDirs []string `json:"exclude_dirs,omitempty"`

	// IncludeExts are file extensions eligible for indexing (with leading dot).
	// User entries are merged with the built-in defaults.
	IncludeExts []string `json:"include_exts,omitempty"`

	// MaxContextFiles is the number of files a context query returns.
	MaxContextFiles int `json:"max_context_files,omitempty"`

	// MaxContextLines is the number of matched lines returned per file.
	MaxContextLines int `json:"max_context_lines,omitempty"`

	// HistoryMaxEntries bounds the in-memory execution history ring.
	HistoryMaxEntries int `json:"history_max_entries,omitempty"`

	// ApprovalMode controls how approval-requiring capabilities resolve:
	// "deny" (non-interactive default), "prompt" (ask on the terminal),
	// or "auto" (treat approval as granted; for trusted harnesses only).
	ApprovalMode string `json:"approval_mode,omitempty"`

	// CommandTimeoutSecs bounds terminal capability execution time.
	CommandTimeoutSecs int `json:"command_timeout_secs,omitempty"`

	// MaxPayloadBytes bounds the content size of a single file capability.
	MaxPayloadBytes int `json:"max_payload_bytes,omitempty"`

	// DisableAudit turns off the SQLite audit sink. The in-memory history
	// is unaffected.
	DisableAudit bool `json:"disable_audit,omitempty"`

	// AllowUnsafePaths disables workspace-root confinement for file
	// capabilities. Symlink rejection still applies.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely.
	// Known types: "workspace", "capability", "policy".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// Policy maps "category.action" keys to startup overrides of the
	// built-in capability policy. Restricted command patterns are not
	// configurable.
	Policy map[string]PolicyOverride `json:"policy,omitempty"`
}

// PolicyOverride adjusts one capability's compiled-in policy at startup.
// Nil fields leave the built-in value in place.
type PolicyOverride struct {
	Enabled          *bool    `json:"enabled,omitempty"`
	RequiresApproval *bool    `json:"requires_approval,omitempty"`
	AllowedCommands  []string `json:"allowed_commands,omitempty"`
}

// Approval modes accepted in ApprovalMode.
const (
	ApprovalDeny   = "deny"
	ApprovalPrompt = "prompt"
	ApprovalAuto   = "auto"
)

// DefaultExcludeDirs are directory names never descended into during scans.
var DefaultExcludeDirs = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	"__pycache__",
	"vendor",
	".venv",
	"venv",
	".next",
	".cache",
	"coverage",
	"target",
	"out",
	".idea",
	".vscode",
}

// DefaultIncludeExts are the file extensions indexed by default.
var DefaultIncludeExts = []string{
	".js", ".jsx", ".ts", ".tsx", ".mjs",
	".py", ".go", ".java", ".cs", ".rb", ".rs", ".c", ".h", ".cpp", ".hpp",
	".md", ".txt", ".json", ".yaml", ".yml", ".toml",
	".sh", ".sql", ".html", ".css",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSizeBytes:   1024 * 1024, // 1 MiB
		MaxScanDepth:       12,
		ExcludeDirs:        DefaultExcludeDirs,
		IncludeExts:        DefaultIncludeExts,
		MaxContextFiles:    8,
		MaxContextLines:    20,
		HistoryMaxEntries:  100,
		ApprovalMode:       ApprovalDeny,
		CommandTimeoutSecs: 120,
		MaxPayloadBytes:    10 * 1024 * 1024, // 10 MiB
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.warden.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.warden) and repo
// (.warden) directories. Repo config is found by walking upward from
// startDir to find the nearest .warden/config.json. Repo config takes
// precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .warden/config.json. Returns the path if found, or empty string if not.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".warden", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MaxFileSizeBytes = overlay.MaxFileSizeBytes
	if result.MaxFileSizeBytes == 0 {
		result.MaxFileSizeBytes = base.MaxFileSizeBytes
	}

	result.MaxScanDepth = overlay.MaxScanDepth
	if result.MaxScanDepth == 0 {
		result.MaxScanDepth = base.MaxScanDepth
	}

	result.MaxContextFiles = overlay.MaxContextFiles
	if result.MaxContextFiles == 0 {
		result.MaxContextFiles = base.MaxContextFiles
	}

	result.MaxContextLines = overlay.MaxContextLines
	if result.MaxContextLines == 0 {
		result.MaxContextLines = base.MaxContextLines
	}

	result.HistoryMaxEntries = overlay.HistoryMaxEntries
	if result.HistoryMaxEntries == 0 {
		result.HistoryMaxEntries = base.HistoryMaxEntries
	}

	result.ApprovalMode = overlay.ApprovalMode
	if result.ApprovalMode == "" {
		result.ApprovalMode = base.ApprovalMode
	}

	result.CommandTimeoutSecs = overlay.CommandTimeoutSecs
	if result.CommandTimeoutSecs == 0 {
		result.CommandTimeoutSecs = base.CommandTimeoutSecs
	}

	result.MaxPayloadBytes = overlay.MaxPayloadBytes
	if result.MaxPayloadBytes == 0 {
		result.MaxPayloadBytes = base.MaxPayloadBytes
	}

	// Booleans: overlay wins if true, else base
	result.DisableAudit = base.DisableAudit || overlay.DisableAudit
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.ExcludeDirs = mergeStringSlice(base.ExcludeDirs, overlay.ExcludeDirs)
	result.IncludeExts = mergeStringSlice(base.IncludeExts, overlay.IncludeExts)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	// Policy overrides merge per key; an overlay entry replaces the base
	// entry for the same capability wholesale.
	if len(base.Policy) > 0 || len(overlay.Policy) > 0 {
		result.Policy = make(map[string]PolicyOverride, len(base.Policy)+len(overlay.Policy))
		for k, v := range base.Policy {
			result.Policy[k] = v
		}
		for k, v := range overlay.Policy {
			result.Policy[k] = v
		}
	}

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
