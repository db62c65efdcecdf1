package assetdb

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeAsset creates an asset file and its sidecar under projectRoot.
func writeAsset(t *testing.T, projectRoot, projectPath, guid string) {
	t.Helper()
	absolutePath := filepath.Join(projectRoot, filepath.FromSlash(projectPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(t, os.WriteFile(absolutePath, []byte("%YAML 1.1\n"), 0o644))
	meta := "fileFormatVersion: 2\nguid: " + guid + "\nNativeFormatImporter:\n  externalObjects: {}\n"
	require.NoError(t, os.WriteFile(absolutePath+MetaExtension, []byte(meta), 0o644))
}

type skipDirs map[string]bool

func (s skipDirs) ShouldIgnoreDir(absolutePath string) bool { return s[filepath.Base(absolutePath)] }
func (s skipDirs) ShouldIgnore(absolutePath string) bool    { return false }

func Test_ParseMetaGUID(t *testing.T) {
	guid, err := ParseMetaGUID(strings.NewReader("fileFormatVersion: 2\nguid: 0123abcd\nTextureImporter:\n  guid: nested\n"))

	require.NoError(t, err)
	assert.Equal(t, "0123abcd", guid)
}

func Test_ParseMetaGUID_IgnoresIndentedKeys(t *testing.T) {
	_, err := ParseMetaGUID(strings.NewReader("fileFormatVersion: 2\nImporter:\n  guid: nested\n"))

	assert.ErrorIs(t, err, ErrNoGUID)
}

func Test_ParseMetaGUID_EmptyValue(t *testing.T) {
	_, err := ParseMetaGUID(strings.NewReader("guid:   \n"))

	assert.ErrorIs(t, err, ErrNoGUID)
}

func Test_Database_ScanResolvesBothWays(t *testing.T) {
	projectRoot := t.TempDir()
	writeAsset(t, projectRoot, "Assets/Prefabs/Hero.prefab", "aaaa")
	writeAsset(t, projectRoot, "Assets/Scenes/Main.unity", "bbbb")
	writeAsset(t, projectRoot, "Packages/com.example/Runtime/Thing.asset", "cccc")
	writeAsset(t, projectRoot, "Assets/Skipped/Ignored.mat", "dddd")
	db := New(projectRoot)

	count, err := db.Scan([]string{
		filepath.Join(projectRoot, "Assets"),
		filepath.Join(projectRoot, "Packages"),
		filepath.Join(projectRoot, "Missing"),
	}, skipDirs{"Skipped": true}, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, db.Count())

	path, ok := db.Resolve("aaaa")
	require.True(t, ok)
	assert.Equal(t, "Assets/Prefabs/Hero.prefab", path)

	path, ok = db.Resolve("cccc")
	require.True(t, ok)
	assert.Equal(t, "Packages/com.example/Runtime/Thing.asset", path)

	guid, ok := db.IdentifierFor("Assets/Scenes/Main.unity")
	require.True(t, ok)
	assert.Equal(t, "bbbb", guid)

	_, ok = db.Resolve("dddd")
	assert.False(t, ok)
}

func Test_Database_Exists(t *testing.T) {
	projectRoot := t.TempDir()
	writeAsset(t, projectRoot, "Assets/Hero.prefab", "aaaa")
	db := New(projectRoot)

	assert.True(t, db.Exists("Assets/Hero.prefab"))
	assert.True(t, db.Exists("Assets"))
	assert.False(t, db.Exists("Assets/Gone.prefab"))
	assert.False(t, db.Exists(""))
}

func Test_Database_RenameMovesGUID(t *testing.T) {
	db := New("/proj")

	db.Add(&Asset{GUID: "aaaa", Path: "Assets/Old.prefab"})
	db.Add(&Asset{GUID: "aaaa", Path: "Assets/New.prefab"})

	path, ok := db.Resolve("aaaa")
	require.True(t, ok)
	assert.Equal(t, "Assets/New.prefab", path)
	_, ok = db.IdentifierFor("Assets/Old.prefab")
	assert.False(t, ok)
	assert.Equal(t, 1, db.Count())
}

func Test_Database_ForgetMeta(t *testing.T) {
	projectRoot := t.TempDir()
	writeAsset(t, projectRoot, "Assets/Hero.prefab", "aaaa")
	db := New(projectRoot)
	metaPath := filepath.Join(projectRoot, "Assets", "Hero.prefab"+MetaExtension)
	_, err := db.LoadMeta(metaPath)
	require.NoError(t, err)

	db.ForgetMeta(metaPath)

	_, ok := db.Resolve("aaaa")
	assert.False(t, ok)
	assert.Equal(t, 0, db.Count())
}

func Test_Database_SearchByGlob(t *testing.T) {
	db := New("/proj")
	db.Add(&Asset{GUID: "1", Path: "Assets/Prefabs/Hero.prefab"})
	db.Add(&Asset{GUID: "2", Path: "Assets/Prefabs/Enemy.prefab"})
	db.Add(&Asset{GUID: "3", Path: "Assets/Scenes/Main.unity"})

	results, err := db.SearchByGlob("Assets/**/*.prefab", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Assets/Prefabs/Enemy.prefab", results[0].Path)
	assert.Equal(t, "Assets/Prefabs/Hero.prefab", results[1].Path)

	limited, err := db.SearchByGlob("**/*", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = db.SearchByGlob("Assets/[", 10)
	assert.Error(t, err)
}

func Test_Database_AllAssetsSortedAndClear(t *testing.T) {
	db := New("/proj")
	db.Add(&Asset{GUID: "2", Path: "Assets/B.mat"})
	db.Add(&Asset{GUID: "1", Path: "Assets/A.mat"})
	db.Add(&Asset{GUID: "3", Path: "Assets/C.mat"})
	db.RemovePath("Assets/B.mat")

	all := db.AllAssets()
	require.Len(t, all, 2)
	assert.Equal(t, "Assets/A.mat", all[0].Path)
	assert.Equal(t, "Assets/C.mat", all[1].Path)

	db.Clear()
	assert.Equal(t, 0, db.Count())
	_, ok := db.Resolve("1")
	assert.False(t, ok)
}
