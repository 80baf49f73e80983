package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/wardenhq/warden/internal/capability"
	"github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/policy"
	"github.com/wardenhq/warden/internal/retrieval"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "warden",
		Usage:   "Workspace context index and capability gate",
		Version: Version,
		Commands: []*cli.Command{
			scanCmd(a),
			contextCmd(a),
			symbolsCmd(a),
			execCmd(a),
			suggestCmd(a),
			historyCmd(a),
			policyCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// scanCmd creates the scan command.
func scanCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan the workspace and report index statistics",
		Action: func(c *cli.Context) error {
			result, err := a.ix.ScanWorkspace(c.Context)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(result)
		},
	}
}

// contextCmd creates the context command.
func contextCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Retrieve relevance-scored workspace context for a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-files", Usage: "Maximum files to return"},
			&cli.IntFlag{Name: "max-lines", Usage: "Maximum matched lines per file"},
			&cli.BoolFlag{Name: "markdown", Usage: "Render as a prompt-ready markdown block"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")

			if _, err := a.ix.ScanWorkspace(c.Context); err != nil {
				return outputError(errors.NewInternal(err))
			}

			result := retrieval.GetContext(a.ix, query, retrieval.Options{
				MaxFiles: c.Int("max-files"),
				MaxLines: c.Int("max-lines"),
			})

			if c.Bool("markdown") {
				fmt.Println(result.Markdown())
				return nil
			}
			return outputJSON(result)
		},
	}
}

// symbolsCmd creates the symbols command.
func symbolsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Usage:     "List indexed symbols, optionally filtered by name substring",
		ArgsUsage: "[name]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind (function, class, method, type, variable, comment-marker)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 100, Usage: "Maximum symbols to return"},
		},
		Action: func(c *cli.Context) error {
			if _, err := a.ix.ScanWorkspace(c.Context); err != nil {
				return outputError(errors.NewInternal(err))
			}

			nameFilter := strings.ToLower(c.Args().First())
			kind := c.String("kind")
			limit := c.Int("limit")

			type row struct {
				Name string `json:"name"`
				Kind string `json:"kind"`
				File string `json:"file"`
				Line int    `json:"line"`
			}
			var rows []row
			for name, occ := range a.ix.SymbolOccurrences() {
				if nameFilter != "" && !strings.Contains(name, nameFilter) {
					continue
				}
				for _, s := range occ {
					if kind != "" && s.Kind != kind {
						continue
					}
					rows = append(rows, row{Name: s.Name, Kind: s.Kind, File: s.File, Line: s.Line})
				}
			}
			sort.Slice(rows, func(i, j int) bool {
				if rows[i].File != rows[j].File {
					return rows[i].File < rows[j].File
				}
				return rows[i].Line < rows[j].Line
			})
			if len(rows) > limit {
				rows = rows[:limit]
			}
			return outputJSON(map[string]any{"symbols": rows, "count": len(rows)})
		},
	}
}

// execCmd creates the exec command.
func execCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Execute a capability (JSON via stdin or flags)",
		ArgsUsage: "[category action]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "File path (file capabilities)"},
			&cli.StringFlag{Name: "content", Usage: "File content (create/edit)"},
			&cli.StringFlag{Name: "destination", Usage: "Destination path (copy)"},
			&cli.StringFlag{Name: "command", Usage: "Command string (terminal execute)"},
			&cli.StringFlag{Name: "message", Usage: "Commit message (git commit)"},
			&cli.StringFlag{Name: "branch", Usage: "Branch name (git branchCreate/push)"},
		},
		Action: func(c *cli.Context) error {
			var cap capability.Capability

			if stdinHasData() {
				// Full capability as JSON via stdin
				data, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if err := json.Unmarshal([]byte(data), &cap); err != nil {
					return outputError(errors.NewInvalidRequest("invalid capability JSON: " + err.Error()))
				}
			} else {
				if c.NArg() < 2 {
					return outputError(errors.NewInvalidRequest("usage: warden exec <category> <action> [flags], or pipe capability JSON"))
				}
				cap.Category = c.Args().Get(0)
				cap.Action = c.Args().Get(1)
				cap.Payload = capability.Payload{
					Path:        c.String("path"),
					Content:     c.String("content"),
					Destination: c.String("destination"),
					Command:     c.String("command"),
					Message:     c.String("message"),
					Branch:      c.String("branch"),
				}
			}

			result, err := a.exec.Execute(c.Context, &cap)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// suggestCmd creates the suggest command.
func suggestCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Parse an LLM response (stdin) for capability suggestions",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("response text must be piped via stdin"))
			}
			text, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if text == "" {
				return outputError(errors.NewInvalidRequest("response text is required"))
			}

			suggestions, parseErrors := capability.ParseSuggestions(text)
			return outputJSON(map[string]any{
				"suggestions":  suggestions,
				"parse_errors": parseErrors,
				"count":        len(suggestions),
			})
		},
	}
}

// historyCmd creates the history command.
func historyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent capability executions (durable audit log)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum records to show"},
		},
		Action: func(c *cli.Context) error {
			// Each CLI invocation is a fresh process, so the in-memory
			// history is empty; read the durable log instead.
			if a.auditLog == nil {
				return outputError(errors.NewInvalidRequest("audit log is disabled; history is only available in MCP mode"))
			}
			records, err := a.auditLog.Recent(c.Int("limit"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{"records": records, "count": len(records)})
		},
	}
}

// policyCmd creates the policy command with list/update subcommands.
func policyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Inspect or update the capability policy",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all category/action policies",
				Action: func(c *cli.Context) error {
					return outputJSON(map[string]any{
						"policies":            a.reg.List(),
						"restricted_commands": policy.RestrictedPatterns(),
					})
				},
			},
			{
				Name:      "update",
				Usage:     "Update an existing category/action policy (process-scoped)",
				ArgsUsage: "<category> <action>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "enabled", Value: true, Usage: "Whether the action may execute"},
					&cli.BoolFlag{Name: "requires-approval", Value: true, Usage: "Whether execution needs approval"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: warden policy update <category> <action> [flags]"))
					}
					category, action := c.Args().Get(0), c.Args().Get(1)
					if err := a.reg.Update(category, action, c.Bool("enabled"), c.Bool("requires-approval")); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{
						"updated":           category + "." + action,
						"enabled":           c.Bool("enabled"),
						"requires_approval": c.Bool("requires-approval"),
					})
				},
			},
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if wErr, ok := err.(*errors.WardenError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", wErr.Code, wErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
