package assetdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// MetaExtension is the suffix of Unity sidecar files.
const MetaExtension = ".meta"

// ErrNoGUID is returned when a sidecar has no top-level guid line.
var ErrNoGUID = errors.New("meta file has no guid")

// IgnoreChecker decides which paths the scanner skips.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// ParseMetaGUID reads a .meta document and returns the value of its top-level
// "guid:" key.
func ParseMetaGUID(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "guid:") {
			continue
		}
		guid := strings.TrimSpace(strings.TrimPrefix(line, "guid:"))
		if guid == "" {
			return "", ErrNoGUID
		}
		return guid, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading meta file: %w", err)
	}
	return "", ErrNoGUID
}

// LoadMeta parses the sidecar at metaPath (absolute) and registers its asset.
func (db *Database) LoadMeta(metaPath string) (*Asset, error) {
	f, err := os.Open(metaPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", metaPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", metaPath, err)
	}

	guid, err := ParseMetaGUID(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metaPath, err)
	}

	projectPath, err := db.projectPathOf(strings.TrimSuffix(metaPath, MetaExtension))
	if err != nil {
		return nil, err
	}

	asset := &Asset{GUID: guid, Path: projectPath, MetaModTime: info.ModTime()}
	db.Add(asset)
	return asset, nil
}

// ForgetMeta drops the asset whose sidecar was at metaPath (absolute).
func (db *Database) ForgetMeta(metaPath string) {
	projectPath, err := db.projectPathOf(strings.TrimSuffix(metaPath, MetaExtension))
	if err != nil {
		return
	}
	db.RemovePath(projectPath)
}

func (db *Database) projectPathOf(absolutePath string) (string, error) {
	relativePath, err := filepath.Rel(db.projectRoot, absolutePath)
	if err != nil {
		return "", fmt.Errorf("%s is not under %s: %w", absolutePath, db.projectRoot, err)
	}
	relativePath = filepath.ToSlash(relativePath)
	if strings.HasPrefix(relativePath, "../") {
		return "", fmt.Errorf("%s is outside the project root", absolutePath)
	}
	return relativePath, nil
}

// Scan walks the given directories, parses every .meta sidecar on a bounded
// goroutine pool and returns the number of assets registered.
func (db *Database) Scan(roots []string, ignoreChecker IgnoreChecker, logger *slog.Logger) (int, error) {
	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return 0, fmt.Errorf("creating scan pool: %w", err)
	}
	defer pool.Release()

	var loaded int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, root := range roots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			continue
		}
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && ignoreChecker != nil && ignoreChecker.ShouldIgnoreDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != MetaExtension {
				return nil
			}
			if ignoreChecker != nil && ignoreChecker.ShouldIgnore(path) {
				return nil
			}

			metaPath := path
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if _, err := db.LoadMeta(metaPath); err != nil {
					logger.Debug("skipped meta file", "path", metaPath, "error", err)
					return
				}
				mu.Lock()
				loaded++
				mu.Unlock()
			})
			if submitErr != nil {
				wg.Done()
				logger.Warn("failed to schedule meta file", "path", metaPath, "error", submitErr)
			}
			return nil
		})
	}

	wg.Wait()
	return loaded, nil
}
