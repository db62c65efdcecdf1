package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver is an in-memory AssetResolver for tests.
type fakeResolver struct {
	paths map[string]string // identifier -> project path
	live  map[string]bool   // project path -> exists
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		paths: make(map[string]string),
		live:  make(map[string]bool),
	}
}

func (r *fakeResolver) add(identifier, projectPath string) {
	r.paths[identifier] = projectPath
	r.live[projectPath] = true
}

func (r *fakeResolver) Resolve(identifier string) (string, bool) {
	p, ok := r.paths[identifier]
	return p, ok
}

func (r *fakeResolver) Exists(projectPath string) bool {
	return r.live[projectPath]
}

func referencePaths(references []AssetReference) []string {
	paths := make([]string, 0, len(references))
	for _, reference := range references {
		paths = append(paths, reference.Path)
	}
	return paths
}

func newTestFilter() (*ResultFilter, *fakeResolver) {
	resolver := newFakeResolver()
	return &ResultFilter{ProjectRoot: "/proj", Resolver: resolver}, resolver
}

var scenarioRawPaths = []string{
	"/proj/Assets/X.prefab",
	"/proj/Assets/X.prefab.meta",
	"/proj/Assets/Y.asset.meta",
	"",
}

func Test_ResultFilter_SidecarScenario(t *testing.T) {
	filter, resolver := newTestFilter()
	resolver.add("y", "Assets/Y.asset")

	references := filter.Apply("Assets/X.prefab", scenarioRawPaths, ExclusionRules{})

	require.Len(t, references, 1)
	assert.Equal(t, AssetReference{Path: "Assets/Y.asset", Exists: true}, references[0])
}

func Test_ResultFilter_ExcludedSidecarExtension(t *testing.T) {
	filter, _ := newTestFilter()

	references := filter.Apply("Assets/X.prefab", scenarioRawPaths, ExclusionRules{
		ExcludedExtensions: []string{".meta"},
	})

	assert.Empty(t, references)
}

func Test_ResultFilter_DropsBlankEntries(t *testing.T) {
	filter, _ := newTestFilter()

	references := filter.Apply("Assets/X.prefab", []string{"", "   ", "\t", "/proj/Assets/A.mat"}, ExclusionRules{})

	assert.Equal(t, []string{"Assets/A.mat"}, referencePaths(references))
	for _, reference := range references {
		assert.NotEmpty(t, reference.Path)
	}
}

func Test_ResultFilter_ExcludedExtension(t *testing.T) {
	filter, _ := newTestFilter()
	raw := []string{"/proj/Assets/A.png", "/proj/Assets/B.unity", "/proj/Assets/C.png.meta"}

	references := filter.Apply("Assets/X.prefab", raw, ExclusionRules{ExcludedExtensions: []string{".png"}})

	// The sidecar of C.png has extension .meta, so it is not excluded and
	// resolves to its parent.
	assert.Equal(t, []string{"Assets/B.unity", "Assets/C.png"}, referencePaths(references))
}

func Test_ResultFilter_ExcludedFilename(t *testing.T) {
	filter, _ := newTestFilter()
	raw := []string{
		"/proj/Assets/LightingData.asset",
		"/proj/Assets/Art/Hero.psd",
		"/proj/Assets/Hero.prefab",
	}

	references := filter.Apply("Assets/X.prefab", raw, ExclusionRules{
		ExcludedFilenames: []string{"LightingData.asset", "*.psd"},
	})

	assert.Equal(t, []string{"Assets/Hero.prefab"}, referencePaths(references))
}

func Test_ResultFilter_FilenameRuleSeesRawSidecarName(t *testing.T) {
	filter, _ := newTestFilter()

	references := filter.Apply("Assets/X.prefab", []string{"/proj/Assets/Y.asset.meta"}, ExclusionRules{
		ExcludedFilenames: []string{"Y.asset"},
	})

	assert.Equal(t, []string{"Assets/Y.asset"}, referencePaths(references))
}

func Test_ResultFilter_CrossReferenceThroughSidecar(t *testing.T) {
	filter, resolver := newTestFilter()
	resolver.add("y", "Assets/Sub/Y.asset")

	references := filter.Apply("Assets/X.prefab", []string{"/proj/Assets/Sub/Y.asset.meta"}, ExclusionRules{})

	require.Len(t, references, 1)
	assert.Equal(t, "Assets/Sub/Y.asset", references[0].Path)
	assert.True(t, references[0].Exists)
}

func Test_ResultFilter_MissingReferenceMarkedNotExisting(t *testing.T) {
	filter, _ := newTestFilter()

	references := filter.Apply("Assets/X.prefab", []string{"/proj/Assets/Deleted.prefab"}, ExclusionRules{})

	require.Len(t, references, 1)
	assert.False(t, references[0].Exists)
}

func Test_ResultFilter_Deduplicates(t *testing.T) {
	filter, _ := newTestFilter()
	raw := []string{"/proj/Assets/Y.asset", "/proj/Assets/Y.asset.meta", "/proj/Assets/Z.mat", "/proj/Assets/Y.asset"}

	references := filter.Apply("Assets/X.prefab", raw, ExclusionRules{})

	assert.Equal(t, []string{"Assets/Y.asset", "Assets/Z.mat"}, referencePaths(references))
}

func Test_ResultFilter_PreservesBackendOrder(t *testing.T) {
	filter, _ := newTestFilter()
	raw := []string{"/proj/Assets/C.mat", "/proj/Assets/A.mat", "/proj/Assets/B.mat"}

	references := filter.Apply("Assets/X.prefab", raw, ExclusionRules{})

	assert.Equal(t, []string{"Assets/C.mat", "Assets/A.mat", "Assets/B.mat"}, referencePaths(references))
}

func Test_ResultFilter_DropsPathsOutsideProject(t *testing.T) {
	filter, _ := newTestFilter()

	references := filter.Apply("Assets/X.prefab", []string{"/elsewhere/A.mat", "/proj"}, ExclusionRules{})

	assert.Empty(t, references)
}

func Test_ExclusionRules_ExcludesExtension(t *testing.T) {
	rules := ExclusionRules{ExcludedExtensions: []string{".png", ".meta"}}

	assert.True(t, rules.ExcludesExtension(".png"))
	assert.True(t, rules.ExcludesExtension(".meta"))
	assert.False(t, rules.ExcludesExtension(".prefab"))
	assert.False(t, rules.ExcludesExtension(""))
}
