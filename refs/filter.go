package refs

import (
	"path/filepath"
	"strings"
)

// ResultFilter turns raw backend output into project-relative references.
type ResultFilter struct {
	ProjectRoot string
	Resolver    AssetResolver
}

// Apply filters rawPaths for the asset at subject. Each entry passes through a
// fixed sequence of stages; the extension and filename checks look at the raw
// entry, so excluding ".meta" also disables sidecar resolution.
func (f *ResultFilter) Apply(subject string, rawPaths []string, rules ExclusionRules) []AssetReference {
	references := make([]AssetReference, 0)
	seen := make(map[string]bool)

	for _, entry := range rawPaths {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		extension := filepath.Ext(entry)
		if rules.ExcludesExtension(extension) {
			continue
		}
		if rules.ExcludesFilename(filepath.ToSlash(entry)) {
			continue
		}

		effectivePath := entry
		if extension == SidecarExtension {
			effectivePath = strings.TrimSuffix(entry, SidecarExtension)
		}

		projectPath, ok := f.toProjectPath(effectivePath)
		if !ok {
			continue
		}

		// An asset's own sidecar always contains its identifier.
		if projectPath == subject {
			continue
		}
		if seen[projectPath] {
			continue
		}
		seen[projectPath] = true

		references = append(references, AssetReference{
			Path:   projectPath,
			Exists: f.exists(projectPath),
		})
	}
	return references
}

// toProjectPath converts an absolute path to a slash-separated path relative to
// the project root. Paths outside the root are rejected.
func (f *ResultFilter) toProjectPath(absolutePath string) (string, bool) {
	relativePath, err := filepath.Rel(f.ProjectRoot, absolutePath)
	if err != nil {
		return "", false
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." || relativePath == ".." || strings.HasPrefix(relativePath, "../") {
		return "", false
	}
	return relativePath, true
}

func (f *ResultFilter) exists(projectPath string) bool {
	if f.Resolver == nil {
		return false
	}
	return f.Resolver.Exists(projectPath)
}
