package backend

import (
	"bytes"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lexandro/refviewer-mcp/refs"
)

// Variant names one search strategy.
type Variant string

const (
	ContentGrep           Variant = "grep"
	FilesystemIndexSearch Variant = "mdfind"
	VersionControlGrep    Variant = "gitgrep"
	PlatformFileSearch    Variant = "findstr"
	MemoryIndexSearch     Variant = "index"
)

// ArgumentsFunc builds the argv (without the command) for one search.
type ArgumentsFunc func(identifier string, searchRoot string, rules refs.ExclusionRules) []string

// Descriptor describes how to run one external search tool.
type Descriptor struct {
	Variant     Variant
	Description string
	Command     string
	Arguments   ArgumentsFunc
	Separator   string
	// Advisory is shown next to results from this backend.
	Advisory string
}

// ProcessBackend runs an external search tool and returns the paths it prints.
type ProcessBackend struct {
	descriptor Descriptor
	logger     *slog.Logger
}

// NewProcessBackend creates a backend that invokes the tool described by descriptor.
func NewProcessBackend(descriptor Descriptor, logger *slog.Logger) *ProcessBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessBackend{descriptor: descriptor, logger: logger}
}

// Descriptor returns the descriptor this backend runs.
func (b *ProcessBackend) Descriptor() Descriptor {
	return b.descriptor
}

// Search runs the tool with searchRoot as working directory and blocks until
// it exits. Any failure (missing executable, non-zero exit, unreadable
// output) yields no paths.
func (b *ProcessBackend) Search(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
	args := b.descriptor.Arguments(identifier, searchRoot, rules)

	cmd := exec.Command(b.descriptor.Command, args...)
	cmd.Dir = searchRoot

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		b.logger.Debug("search backend failed",
			"backend", b.descriptor.Variant,
			"identifier", identifier,
			"exitCode", exitCode,
			"stderr", strings.TrimSpace(stderr.String()),
			"error", err,
		)
		return nil
	}

	return SplitOutput(stdout.String(), b.descriptor.Separator, searchRoot)
}

// SplitOutput splits captured tool output on separator. Relative entries are
// joined onto workDir so every returned path is absolute. Blank entries are
// kept; the result filter drops them.
func SplitOutput(output string, separator string, workDir string) []string {
	if output == "" {
		return nil
	}
	entries := strings.Split(output, separator)
	for i, entry := range entries {
		entry = strings.TrimRight(entry, "\r\n")
		if strings.TrimSpace(entry) != "" && !filepath.IsAbs(entry) {
			entry = filepath.Join(workDir, filepath.FromSlash(entry))
		}
		entries[i] = entry
	}
	return entries
}
