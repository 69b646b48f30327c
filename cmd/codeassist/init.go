package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codeassist/internal/scaffold"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// codeassistMCPEntry is the MCP server configuration for the codeassist binary.
var codeassistMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "codeassist",
  "args": ["serve-mcp"]
}`)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter codeassist.yml, example agent plugins and the MCP entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runInit(pathArg(args), force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// runInit installs the starter files and MCP configuration into the target
// project directory.
func (a *app) runInit(projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", projectRoot)
	}

	// --- Copy embedded templates ---

	err = fs.WalkDir(scaffold.FS, scaffold.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(scaffold.Root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		dest := filepath.Join(abs, rel)
		if filepath.Dir(rel) == "agents" {
			// Plugin examples go to the user's plugin dir, never the project.
			if a.pluginDir == "" {
				fmt.Fprintf(a.stdout, "  skipped %s (no plugin directory; use --plugins)\n", filepath.Base(rel))
				return nil
			}
			dest = filepath.Join(a.pluginDir, filepath.Base(rel))
		}

		if !force {
			if _, err := os.Stat(dest); err == nil {
				fmt.Fprintf(a.stdout, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, dest))
				return nil
			}
		}

		data, err := scaffold.FS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}

		fmt.Fprintf(a.stdout, "  created %s\n", dotRelative(abs, dest))
		return nil
	})
	if err != nil {
		return fmt.Errorf("copying templates: %w", err)
	}

	// --- Create/merge .mcp.json ---

	if err := a.mergeMCPConfig(filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "\nSetup complete. Edit codeassist.yml to tune the services.")
	return nil
}

// mergeMCPConfig creates or merges the codeassist entry into .mcp.json.
func (a *app) mergeMCPConfig(mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["codeassist"]; exists && !force {
		fmt.Fprintln(a.stdout, "  skipped .mcp.json codeassist entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["codeassist"] = codeassistMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}
	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(a.stdout, "  %s .mcp.json with codeassist MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./". Paths outside the root are returned as they are.
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return "./" + filepath.ToSlash(rel)
}
