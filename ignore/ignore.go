package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// ProjectIgnoreFile holds extra ignore rules specific to reference scanning,
// in .gitignore syntax.
const ProjectIgnoreFile = ".refviewerignore"

// Matcher decides which paths of a Unity project are skipped while scanning
// sidecars, building the content index and watching for changes. It combines
// default patterns, .gitignore, .refviewerignore and custom CLI patterns.
// Thread-safe: Reload() acquires a write lock, the checks acquire a read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	projectIgnore    gitignore.GitIgnore
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir          string
	CustomPatterns   []string
	MaxFileSizeBytes int64
}

// NewMatcher creates an ignore matcher for the project at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          options.RootDir,
		customPatterns:   options.CustomPatterns,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}

	if matcher.maxFileSizeBytes <= 0 {
		matcher.maxFileSizeBytes = 4 * 1024 * 1024 // scenes are routinely a few MB
	}

	matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	matcher.projectIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ProjectIgnoreFile), options.RootDir)
	return matcher
}

// ShouldIgnore returns true if the given absolute path should be skipped.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if matchesAny(DefaultIgnorePatterns, relativePath) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() doesn't require the file to exist on disk
	for _, ignoreFile := range []gitignore.GitIgnore{m.gitIgnore, m.projectIgnore} {
		if ignoreFile == nil {
			continue
		}
		if match := ignoreFile.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	switch filepath.Base(absolutePath) {
	case ".git", ".svn", ".hg", ".plastic", "Library", "Temp", "Logs", "obj",
		"UserSettings", ".idea", ".vscode", ".vs":
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// ShouldSkipContent returns true for files whose content the in-memory index
// never reads: known binary asset types and files above the size limit.
func (m *Matcher) ShouldSkipContent(absolutePath string, sizeBytes int64) bool {
	if sizeBytes > m.maxFileSizeBytes {
		return true
	}
	baseName := strings.ToLower(filepath.Base(absolutePath))
	for _, pattern := range BinaryAssetPatterns {
		if matched, _ := doublestar.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

// MaxFileSizeBytes returns the configured maximum indexed file size.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// IsIgnoreFile reports whether path is one of the files Reload re-reads.
func IsIgnoreFile(path string) bool {
	baseName := filepath.Base(path)
	return baseName == ".gitignore" || baseName == ProjectIgnoreFile
}

// matchesAny checks plain names against every path component and glob
// patterns against the base name and the full relative path.
func matchesAny(patterns []string, relativePath string) bool {
	baseName := strings.ToLower(filepath.Base(relativePath))
	lowerPath := strings.ToLower(relativePath)
	parts := strings.Split(lowerPath, "/")

	for _, pattern := range patterns {
		lowerPattern := strings.ToLower(pattern)
		if !strings.ContainsAny(pattern, "*?[") {
			for _, part := range parts {
				if part == lowerPattern {
					return true
				}
			}
			continue
		}
		if matched, err := doublestar.Match(lowerPattern, baseName); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(lowerPattern, lowerPath); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks user-provided --ignore patterns against the
// relative path and the base name. Matching is case-sensitive.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads .gitignore and .refviewerignore from disk.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)
	newProjectIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ProjectIgnoreFile), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.projectIgnore = newProjectIgnore
}

// loadIgnoreFile reads an ignore file through an io.Reader so the handle is
// closed promptly on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
