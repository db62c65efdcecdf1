package assetdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Asset is one project asset known through its .meta sidecar.
type Asset struct {
	GUID        string    // identifier from the sidecar's guid line
	Path        string    // project path of the asset (forward slashes)
	MetaModTime time.Time // modification time of the sidecar when parsed
}

// Database maps asset GUIDs to project paths and back. It uses maps for O(1)
// lookups in both directions and a sorted path slice for glob iteration.
type Database struct {
	mu          sync.RWMutex
	projectRoot string
	byGUID      map[string]*Asset
	byPath      map[string]*Asset
	sortedPaths []string
}

// New creates an empty asset database rooted at projectRoot.
func New(projectRoot string) *Database {
	return &Database{
		projectRoot: projectRoot,
		byGUID:      make(map[string]*Asset),
		byPath:      make(map[string]*Asset),
		sortedPaths: make([]string, 0),
	}
}

// ProjectRoot returns the directory asset paths are relative to.
func (db *Database) ProjectRoot() string {
	return db.projectRoot
}

// Add adds or replaces an asset. A GUID moved to a new path (rename) drops the
// old path mapping.
func (db *Database) Add(asset *Asset) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if previous, ok := db.byGUID[asset.GUID]; ok && previous.Path != asset.Path {
		db.removePathLocked(previous.Path)
	}
	if previous, ok := db.byPath[asset.Path]; ok && previous.GUID != asset.GUID {
		delete(db.byGUID, previous.GUID)
	}

	_, exists := db.byPath[asset.Path]
	db.byGUID[asset.GUID] = asset
	db.byPath[asset.Path] = asset

	if !exists {
		idx := sort.SearchStrings(db.sortedPaths, asset.Path)
		db.sortedPaths = append(db.sortedPaths, "")
		copy(db.sortedPaths[idx+1:], db.sortedPaths[idx:])
		db.sortedPaths[idx] = asset.Path
	}
}

// RemovePath removes the asset registered at projectPath, if any.
func (db *Database) RemovePath(projectPath string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.removePathLocked(projectPath)
}

func (db *Database) removePathLocked(projectPath string) {
	asset, exists := db.byPath[projectPath]
	if !exists {
		return
	}
	delete(db.byPath, projectPath)
	if current, ok := db.byGUID[asset.GUID]; ok && current.Path == projectPath {
		delete(db.byGUID, asset.GUID)
	}

	idx := sort.SearchStrings(db.sortedPaths, projectPath)
	if idx < len(db.sortedPaths) && db.sortedPaths[idx] == projectPath {
		db.sortedPaths = append(db.sortedPaths[:idx], db.sortedPaths[idx+1:]...)
	}
}

// Resolve returns the project path registered for guid.
func (db *Database) Resolve(guid string) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	asset, ok := db.byGUID[strings.TrimSpace(guid)]
	if !ok {
		return "", false
	}
	return asset.Path, true
}

// IdentifierFor returns the GUID of the asset at projectPath.
func (db *Database) IdentifierFor(projectPath string) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	asset, ok := db.byPath[normalizePath(projectPath)]
	if !ok {
		return "", false
	}
	return asset.GUID, true
}

// Exists reports whether a file or folder is present at projectPath.
func (db *Database) Exists(projectPath string) bool {
	if projectPath == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(db.projectRoot, filepath.FromSlash(projectPath)))
	return err == nil
}

// Count returns the number of known assets.
func (db *Database) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.byPath)
}

// SearchByGlob returns assets whose project path matches a doublestar pattern.
func (db *Database) SearchByGlob(pattern string, maxResults int) ([]Asset, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = normalizePath(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []Asset
	for _, path := range db.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, path)
		if err != nil || !matched {
			continue
		}
		results = append(results, *db.byPath[path])
	}
	return results, nil
}

// AllAssets returns every asset in path order.
func (db *Database) AllAssets() []Asset {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]Asset, 0, len(db.sortedPaths))
	for _, path := range db.sortedPaths {
		result = append(result, *db.byPath[path])
	}
	return result
}

// Clear removes all assets.
func (db *Database) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.byGUID = make(map[string]*Asset)
	db.byPath = make(map[string]*Asset)
	db.sortedPaths = make([]string, 0)
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(p, "./")
}
