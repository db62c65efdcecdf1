package backend

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lexandro/refviewer-mcp/index"
	"github.com/lexandro/refviewer-mcp/refs"
)

// IndexBackend answers searches from the in-memory content index instead of a
// child process.
type IndexBackend struct {
	contentIndex *index.ContentIndex
	projectRoot  string
	logger       *slog.Logger
}

// NewIndexBackend creates a backend over contentIndex, whose keys are paths
// relative to projectRoot.
func NewIndexBackend(contentIndex *index.ContentIndex, projectRoot string, logger *slog.Logger) *IndexBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexBackend{contentIndex: contentIndex, projectRoot: projectRoot, logger: logger}
}

// IndexDescriptor describes the in-memory index backend.
func IndexDescriptor() Descriptor {
	return Descriptor{
		Variant:     MemoryIndexSearch,
		Description: "in-memory content index (no external tool)",
		Advisory:    IndexAdvisory,
	}
}

// Search returns absolute paths of indexed files under searchRoot containing
// identifier. Index errors yield no paths.
func (b *IndexBackend) Search(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
	projectPaths, err := b.contentIndex.FindContaining(identifier)
	if err != nil {
		b.logger.Debug("index search failed", "identifier", identifier, "error", err)
		return nil
	}

	rootPrefix := filepath.Clean(searchRoot) + string(filepath.Separator)
	paths := make([]string, 0, len(projectPaths))
	for _, projectPath := range projectPaths {
		absolutePath := filepath.Join(b.projectRoot, filepath.FromSlash(projectPath))
		if !strings.HasPrefix(absolutePath, rootPrefix) {
			continue
		}
		paths = append(paths, absolutePath)
	}
	return paths
}
