package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wardenhq/warden/internal/audit"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/fsops"
	"github.com/wardenhq/warden/internal/gitops"
	"github.com/wardenhq/warden/internal/index"
	"github.com/wardenhq/warden/internal/mcp"
	"github.com/wardenhq/warden/internal/policy"
	"github.com/wardenhq/warden/internal/runner"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"scan": true, "context": true, "symbols": true,
	"exec": true, "suggest": true, "history": true, "policy": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
 __      __                 .___
/  \    /  \_____ _______ __| _/____   ____
\   \/\/   /\__  \\_  __ \ __ |/ __ \ /    \
 \        /  / __ \|  | \/ /_/ \  ___/|   |  \
  \__/\  /  (____  /__|  \____ |\___  >___|  /
       \/        \/           \/    \/     \/

  Workspace context index and capability gate

  Usage: warden <command> [options]
         warden --help

  MCP server mode requires piped input.`)
}

// app bundles the assembled components shared by CLI and MCP modes.
type app struct {
	cfg      *config.Config
	ix       *index.Index
	exec     *executor.Executor
	reg      *policy.Registry
	auditLog *audit.Log
}

// buildApp assembles the index, policy registry, backends, and executor for
// the workspace rooted at the current directory.
func buildApp(cfg *config.Config, interactive bool) (*app, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	ix := index.New(root, cfg)
	reg, err := policy.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid policy overrides: %w", err)
	}

	files := fsops.New(root, cfg.MaxPayloadBytes, cfg.AllowUnsafePaths)
	proc := runner.New(root, time.Duration(cfg.CommandTimeoutSecs)*time.Second)
	git := gitops.New(root)

	var auditLog *audit.Log
	var sink executor.AuditSink
	if !cfg.DisableAudit {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		auditLog, err = audit.Open(filepath.Join(homeDir, ".warden"))
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		sink = auditLog
	}

	exec := executor.New(reg, files, proc, git, buildApprover(cfg, interactive), cfg, sink)

	return &app{cfg: cfg, ix: ix, exec: exec, reg: reg, auditLog: auditLog}, nil
}

// buildApprover picks the approver for the configured mode. Prompting needs
// an interactive terminal; a prompt mode without one falls back to deny so
// an unanswerable question never counts as approval.
func buildApprover(cfg *config.Config, interactive bool) executor.Approver {
	switch cfg.ApprovalMode {
	case config.ApprovalAuto:
		return executor.AutoApprover{}
	case config.ApprovalPrompt:
		if interactive {
			return &executor.PromptApprover{In: os.Stdin, Out: os.Stderr}
		}
		return executor.DenyApprover{}
	default:
		return executor.DenyApprover{}
	}
}

func (a *app) close() {
	if a.auditLog != nil {
		a.auditLog.Close()
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before assembling anything
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, ".warden"), cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown disabled_tools entries: %v\n", unknown)
		os.Exit(1)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown disabled_types entries: %v\n", unknown)
		os.Exit(1)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		a, err := buildApp(cfg, isTerminal())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		cliApp := newCLIApp(a)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'warden --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default). Index the workspace up front so context
	// tools have something to query before the first explicit scan.
	a, err := buildApp(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	if _, err := a.ix.ScanWorkspace(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: initial workspace scan failed: %v\n", err)
		os.Exit(1)
	}

	if err := mcp.Run(a.ix, a.exec, a.reg, a.cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
