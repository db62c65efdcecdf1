package refs

import (
	"errors"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrConfigurationMissing is returned by Coordinator.Run when no exclusion rules
// were supplied. The whole batch is aborted before any backend runs.
var ErrConfigurationMissing = errors.New("exclusion settings are not loaded")

// SidecarExtension marks Unity metadata files that belong to a parent asset.
const SidecarExtension = ".meta"

// AssetReference is one project file that contains the subject's identifier.
// Exists is false when the path was reported by the backend but no longer
// resolves to a file (deleted or renamed since the search tool saw it).
type AssetReference struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// SearchRecord holds the incoming references of a single subject asset.
type SearchRecord struct {
	Identifier    string           `json:"identifier"`
	Subject       string           `json:"subject"`
	SubjectExists bool             `json:"subjectExists"`
	References    []AssetReference `json:"references"`
}

// AggregateResult is the ordered output of one batch query.
type AggregateResult struct {
	Records  []SearchRecord `json:"records"`
	Advisory string         `json:"advisory,omitempty"`
}

// ExclusionRules lists files that are never reported as references.
// Extensions carry their leading dot (".png"); filenames are matched against
// the base name, either literally or as doublestar patterns ("*.psd").
type ExclusionRules struct {
	ExcludedExtensions []string
	ExcludedFilenames  []string
}

// ExcludesExtension reports whether ext (as returned by filepath.Ext) is excluded.
func (r ExclusionRules) ExcludesExtension(ext string) bool {
	if ext == "" {
		return false
	}
	return slices.Contains(r.ExcludedExtensions, ext)
}

// ExcludesFilename reports whether the base name of p matches an excluded filename.
func (r ExclusionRules) ExcludesFilename(p string) bool {
	baseName := path.Base(p)
	for _, pattern := range r.ExcludedFilenames {
		if pattern == baseName {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Equal reports whether both rule sets list the same entries in the same order.
func (r ExclusionRules) Equal(other ExclusionRules) bool {
	return slices.Equal(r.ExcludedExtensions, other.ExcludedExtensions) &&
		slices.Equal(r.ExcludedFilenames, other.ExcludedFilenames)
}

// Backend produces raw candidate paths for an identifier. Implementations
// never fail: an unavailable tool or a failed process yields no paths.
type Backend interface {
	Search(identifier string, searchRoot string, rules ExclusionRules) []string
}

// AssetResolver maps identifiers to project paths and checks liveness.
type AssetResolver interface {
	// Resolve returns the ProjectPath of the asset named by identifier.
	Resolve(identifier string) (string, bool)
	// Exists reports whether a live asset resolves at projectPath.
	Exists(projectPath string) bool
}
