package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
)

// SyncResult holds the outcome of a single asset database verification.
type SyncResult struct {
	MissingAssets  int // sidecars on disk but not in the database
	StaleAssets    int // assets whose sidecar is gone
	ModifiedAssets int // sidecars rewritten since they were parsed
	Duration       time.Duration
}

func (r SyncResult) discrepancies() int {
	return r.MissingAssets + r.StaleAssets + r.ModifiedAssets
}

// runPeriodicSync re-verifies the asset database at the given interval until
// stop is closed. It catches changes the watcher missed or, with --no-watch,
// is the only way the database follows the project.
func runPeriodicSync(interval time.Duration, h *host, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-stop:
			h.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result := performSyncVerification(h)
			if result.discrepancies() > 0 {
				h.logger.Info("sync verification complete",
					"missing", result.MissingAssets,
					"stale", result.StaleAssets,
					"modified", result.ModifiedAssets,
					"duration", result.Duration,
				)
			} else {
				h.logger.Debug("sync verification complete, assets are in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the sidecars on disk with the asset
// database, repairs the differences and drops cached references if any
// were found.
func performSyncVerification(h *host) SyncResult {
	start := time.Now()
	var result SyncResult

	// Sidecars on disk, keyed by the project path of their asset.
	diskMetas := make(map[string]os.FileInfo)
	for _, root := range h.assetRoots() {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && h.matcher.ShouldIgnoreDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != assetdb.MetaExtension || h.matcher.ShouldIgnore(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			projectPath, err := projectPathOf(h.rootDir, strings.TrimSuffix(path, assetdb.MetaExtension))
			if err != nil {
				return nil
			}
			diskMetas[projectPath] = info
			return nil
		})
	}

	known := make(map[string]assetdb.Asset)
	for _, asset := range h.assets.AllAssets() {
		known[asset.Path] = asset
	}

	for projectPath, info := range diskMetas {
		asset, exists := known[projectPath]
		if exists && info.ModTime().Equal(asset.MetaModTime) {
			continue
		}
		metaPath := filepath.Join(h.rootDir, filepath.FromSlash(projectPath)) + assetdb.MetaExtension
		if _, err := h.assets.LoadMeta(metaPath); err != nil {
			h.logger.Debug("sync: skipped sidecar", "path", projectPath, "error", err)
			continue
		}
		if exists {
			h.logger.Info("sync: reloaded modified sidecar", "path", projectPath)
			result.ModifiedAssets++
		} else {
			h.logger.Info("sync: added missing asset", "path", projectPath)
			result.MissingAssets++
		}
	}

	for projectPath := range known {
		if _, exists := diskMetas[projectPath]; !exists {
			h.assets.RemovePath(projectPath)
			h.logger.Info("sync: removed stale asset", "path", projectPath)
			result.StaleAssets++
		}
	}

	if result.discrepancies() > 0 {
		h.coordinator.ClearCache()
	}
	result.Duration = time.Since(start)
	return result
}
