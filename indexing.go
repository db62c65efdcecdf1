package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/lexandro/refviewer-mcp/ignore"
	"github.com/lexandro/refviewer-mcp/index"
	"github.com/lexandro/refviewer-mcp/watcher"
	"github.com/panjf2000/ants/v2"
)

// buildContentIndex walks roots and indexes every text asset on a bounded
// worker pool. Returns the number of files indexed and total bytes read.
func buildContentIndex(
	roots []string,
	rootDir string,
	contentIndex *index.ContentIndex,
	ignoreMatcher *ignore.Matcher,
	logger *slog.Logger,
) (int, int64) {
	var indexedCount int
	var totalSize int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		logger.Error("failed to create indexing pool", "error", err)
		return 0, 0
	}
	defer pool.Release()

	for _, root := range roots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			continue
		}
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && ignoreMatcher.ShouldIgnoreDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if ignoreMatcher.ShouldIgnore(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil || ignoreMatcher.ShouldSkipContent(path, info.Size()) {
				return nil
			}

			absolutePath := path
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if err := indexContentFile(absolutePath, rootDir, contentIndex); err != nil {
					logger.Debug("skipped file", "path", absolutePath, "error", err)
					return
				}
				mu.Lock()
				indexedCount++
				totalSize += info.Size()
				mu.Unlock()
			})
			if submitErr != nil {
				wg.Done()
				logger.Warn("failed to schedule file", "path", absolutePath, "error", submitErr)
			}
			return nil
		})
	}

	wg.Wait()
	return indexedCount, totalSize
}

// indexContentFile reads one file into the content index under its project path.
func indexContentFile(absolutePath string, rootDir string, contentIndex *index.ContentIndex) error {
	projectPath, err := projectPathOf(rootDir, absolutePath)
	if err != nil {
		return err
	}

	content, err := readFileWithRetry(absolutePath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if index.IsBinaryContent(content) {
		return fmt.Errorf("binary file")
	}

	if err := contentIndex.IndexFile(projectPath, string(content)); err != nil {
		return fmt.Errorf("indexing content: %w", err)
	}
	return nil
}

func projectPathOf(rootDir string, absolutePath string) (string, error) {
	relativePath, err := filepath.Rel(rootDir, absolutePath)
	if err != nil {
		return "", fmt.Errorf("%s is not under %s: %w", absolutePath, rootDir, err)
	}
	return filepath.ToSlash(relativePath), nil
}

// readFileWithRetry attempts to read a file, retrying once after a short delay
// if the file is locked (common on Windows while the editor saves).
func readFileWithRetry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// handleWatcherChanges applies debounced changes to the asset database and
// content index, then drops every cached reference record.
func handleWatcherChanges(fileWatcher *watcher.Watcher, h *host) {
	for changes := range fileWatcher.Changes() {
		applyChanges(changes, h)
	}
}

func applyChanges(changes []watcher.Change, h *host) {
	for _, change := range changes {
		if ignore.IsIgnoreFile(change.Path) {
			h.matcher.Reload()
			h.logger.Info("reloaded ignore rules", "trigger", filepath.Base(change.Path))
			continue
		}

		if filepath.Ext(change.Path) == assetdb.MetaExtension {
			applyMetaChange(change, h)
		}
		if h.contentIndex != nil {
			applyContentChange(change, h)
		}
	}

	h.coordinator.ClearCache()
	h.logger.Debug("reference cache cleared after changes", "changes", len(changes))
}

func applyMetaChange(change watcher.Change, h *host) {
	if change.Kind.IsRemoval() {
		h.assets.ForgetMeta(change.Path)
		h.logger.Debug("forgot asset", "meta", change.Path)
		return
	}
	if _, err := h.assets.LoadMeta(change.Path); err != nil {
		h.logger.Debug("skipped meta update", "meta", change.Path, "error", err)
	}
}

func applyContentChange(change watcher.Change, h *host) {
	projectPath, err := projectPathOf(h.rootDir, change.Path)
	if err != nil {
		return
	}
	if change.Kind.IsRemoval() {
		h.contentIndex.RemoveFile(projectPath)
		return
	}

	info, err := os.Stat(change.Path)
	if err != nil || info.IsDir() || h.matcher.ShouldSkipContent(change.Path, info.Size()) {
		return
	}
	if err := indexContentFile(change.Path, h.rootDir, h.contentIndex); err != nil {
		h.logger.Debug("skipped content update", "path", projectPath, "error", err)
	}
}
