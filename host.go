package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/lexandro/refviewer-mcp/backend"
	"github.com/lexandro/refviewer-mcp/ignore"
	"github.com/lexandro/refviewer-mcp/index"
	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/lexandro/refviewer-mcp/settings"
	"github.com/urfave/cli/v2"
)

// host owns everything a reference query needs: the asset database, the
// selected backend and the coordinator.
type host struct {
	rootDir      string
	searchRoot   string
	matcher      *ignore.Matcher
	assets       *assetdb.Database
	contentIndex *index.ContentIndex // nil unless the index backend is selected
	descriptor   backend.Descriptor
	coordinator  *refs.Coordinator
	loader       *settings.Loader
	logger       *slog.Logger
}

// newHost scans the project and selects the search backend.
func newHost(c *cli.Context) (*host, error) {
	logger := slog.Default()

	rootDir, err := projectRoot(c)
	if err != nil {
		return nil, err
	}
	searchRoot := filepath.Join(rootDir, "Assets")
	if info, err := os.Stat(searchRoot); err != nil || !info.IsDir() {
		logger.Warn("no Assets folder, searching the whole project", "root", rootDir)
		searchRoot = rootDir
	}

	h := &host{
		rootDir:    rootDir,
		searchRoot: searchRoot,
		matcher: ignore.NewMatcher(ignore.MatcherOptions{
			RootDir:        rootDir,
			CustomPatterns: c.StringSlice("ignore"),
		}),
		assets: assetdb.New(rootDir),
		loader: newSettingsLoader(c, rootDir),
		logger: logger,
	}

	start := time.Now()
	count, err := h.assets.Scan(h.assetRoots(), h.matcher, logger)
	if err != nil {
		return nil, fmt.Errorf("scanning assets: %w", err)
	}
	logger.Info("asset scan complete", "assets", count, "duration", time.Since(start))

	selected, err := h.selectBackend(c.String("backend"))
	if err != nil {
		h.Close()
		return nil, err
	}

	h.coordinator = refs.NewCoordinator(refs.CoordinatorOptions{
		ProjectRoot: rootDir,
		SearchRoot:  searchRoot,
		Backend:     selected,
		Resolver:    h.assets,
		Logger:      logger,
	})
	return h, nil
}

// assetRoots are the folders holding .meta sidecars.
func (h *host) assetRoots() []string {
	return []string{
		filepath.Join(h.rootDir, "Assets"),
		filepath.Join(h.rootDir, "Packages"),
	}
}

// selectBackend picks the requested backend. A backend whose tool is missing
// is logged once and replaced by one that finds nothing.
func (h *host) selectBackend(name string) (refs.Backend, error) {
	contentIndex, err := index.NewContentIndex()
	if err != nil {
		return nil, fmt.Errorf("creating content index: %w", err)
	}

	registry := backend.NewRegistry(h.logger)
	registry.RegisterInProcess(backend.IndexDescriptor(), backend.NewIndexBackend(contentIndex, h.rootDir, h.logger))

	selected, descriptor, err := registry.Select(backend.Variant(name))
	switch {
	case errors.Is(err, backend.ErrUnknownBackend):
		contentIndex.Close()
		return nil, err
	case err != nil:
		h.logger.Warn("search backend unavailable, queries will find no references", "backend", name, "error", err)
		contentIndex.Close()
		h.descriptor = descriptor
		return backend.Unavailable{}, nil
	}
	h.descriptor = descriptor

	if descriptor.Variant != backend.MemoryIndexSearch {
		contentIndex.Close()
		return selected, nil
	}

	h.contentIndex = contentIndex
	start := time.Now()
	indexed, totalSize := buildContentIndex(h.assetRoots(), h.rootDir, contentIndex, h.matcher, h.logger)
	h.logger.Info("content indexing complete",
		"files", indexed,
		"totalSize", totalSize,
		"duration", time.Since(start),
	)
	return selected, nil
}

// backendName is what status output reports for the selected backend.
func (h *host) backendName() string {
	if h.descriptor.Variant == "" {
		return "none"
	}
	return string(h.descriptor.Variant)
}

// loadRules reads the exclusion settings; called once per query.
func (h *host) loadRules() (*refs.ExclusionRules, error) {
	return h.loader.Load()
}

func (h *host) Close() {
	if h.contentIndex != nil {
		h.contentIndex.Close()
	}
}

func newSettingsLoader(c *cli.Context, rootDir string) *settings.Loader {
	loader := &settings.Loader{
		Path:            c.String("settings"),
		Required:        true,
		ExtraExtensions: c.StringSlice("exclude-ext"),
		ExtraFilenames:  c.StringSlice("exclude-name"),
	}
	if loader.Path == "" {
		loader.Path = filepath.Join(rootDir, settings.DefaultFileName)
		loader.Required = false
	}
	return loader
}
