package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// mcpServerEntry is the shape a host IDE's MCP config expects for one
// server: a command to launch plus an argv and environment overlay.
type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

type mcpConfigDocument struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

// hostConfigPaths maps a host IDE name to its MCP config file location,
// relative to the user's home directory.
var hostConfigPaths = map[string]string{
	"claude-desktop": filepath.Join(".config", "Claude", "claude_desktop_config.json"),
	"cursor":         filepath.Join(".cursor", "mcp.json"),
	"windsurf":       filepath.Join(".codeium", "windsurf", "mcp_config.json"),
}

// runInstall writes (or merges into) the host IDE's MCP configuration
// file an entry that launches this binary as the "ultra-mcp" server.
func runInstall(args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	host := fs.String("host", "claude-desktop", "host IDE: claude-desktop, cursor, windsurf")
	binPath := fs.String("bin", "", "path to the ultramcp binary (defaults to the running executable)")
	fs.Parse(args)

	rel, ok := hostConfigPaths[*host]
	if !ok {
		fmt.Fprintf(os.Stderr, "install: unknown host %q\n", *host)
		os.Exit(1)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "install: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(home, rel)

	command := *binPath
	if command == "" {
		command, err = os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "install: %v\n", err)
			os.Exit(1)
		}
	}

	doc, err := loadOrInitMCPConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "install: %v\n", err)
		os.Exit(1)
	}

	doc.MCPServers["ultra-mcp"] = mcpServerEntry{Command: command}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "install: %v\n", err)
		os.Exit(1)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "install: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "install: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Installed ultra-mcp into %s\n", configPath)
}

func loadOrInitMCPConfig(path string) (*mcpConfigDocument, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &mcpConfigDocument{MCPServers: map[string]mcpServerEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc := &mcpConfigDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.MCPServers == nil {
		doc.MCPServers = map[string]mcpServerEntry{}
	}
	return doc, nil
}
