// Package register writes the server entry into an MCP client configuration.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Scope selects which configuration file is updated.
type Scope string

const (
	// ScopeProject writes <directory>/.mcp.json.
	ScopeProject Scope = "project"
	// ScopeUser writes ~/.claude.json.
	ScopeUser Scope = "user"
)

// ErrUnknownScope is returned for scopes other than project and user.
var ErrUnknownScope = errors.New(`unknown scope (must be "project" or "user")`)

// Options describes one registration.
type Options struct {
	Scope      Scope
	Directory  string   // project scope only; defaults to "."
	ServerName string   // key under mcpServers
	BinaryPath string   // defaults to the running executable
	ServerArgs []string // forwarded to the server on launch
}

type serverEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Register adds or replaces the server entry and returns the file written.
func Register(options Options) (string, error) {
	configPath, err := ConfigPath(options.Scope, options.Directory)
	if err != nil {
		return "", err
	}

	binaryPath := options.BinaryPath
	if binaryPath == "" {
		binaryPath, err = executablePath()
		if err != nil {
			return "", err
		}
	}

	entry := buildEntry(runtime.GOOS, binaryPath, options.ServerArgs)
	err = updateConfig(configPath, func(servers map[string]any) {
		servers[options.ServerName] = entry
	})
	if err != nil {
		return "", err
	}
	return configPath, nil
}

// Unregister removes the server entry. A missing file or entry is not an error.
func Unregister(options Options) (string, error) {
	configPath, err := ConfigPath(options.Scope, options.Directory)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return configPath, nil
	}

	err = updateConfig(configPath, func(servers map[string]any) {
		delete(servers, options.ServerName)
	})
	if err != nil {
		return "", err
	}
	return configPath, nil
}

// DeriveServerName strips .exe and -mcp from a binary name.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

// ConfigPath returns the configuration file for scope.
func ConfigPath(scope Scope, directory string) (string, error) {
	switch scope {
	case ScopeProject:
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	case ScopeUser:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(homeDir, ".claude.json"), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
}

func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

// buildEntry launches through cmd on Windows, where clients spawn without a shell.
func buildEntry(goos string, binaryPath string, serverArgs []string) serverEntry {
	if goos == "windows" {
		args := append([]string{"/C", binaryPath}, serverArgs...)
		return serverEntry{Command: "cmd", Args: args}
	}
	return serverEntry{Command: binaryPath, Args: serverArgs}
}

// updateConfig applies mutate to the mcpServers object of configPath,
// preserving every other key, and replaces the file atomically.
func updateConfig(configPath string, mutate func(servers map[string]any)) error {
	config := map[string]any{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]any)
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	mutate(serversMap)

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	configDir := filepath.Dir(configPath)
	tmpFile, err := os.CreateTemp(configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}
	return nil
}
