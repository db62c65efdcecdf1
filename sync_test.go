package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/lexandro/refviewer-mcp/ignore"
	"github.com/lexandro/refviewer-mcp/refs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testHost builds a host over rootDir without running a scan.
func testHost(rootDir string) *host {
	logger := testLogger()
	assets := assetdb.New(rootDir)
	return &host{
		rootDir:    rootDir,
		searchRoot: filepath.Join(rootDir, "Assets"),
		matcher:    ignore.NewMatcher(ignore.MatcherOptions{RootDir: rootDir}),
		assets:     assets,
		coordinator: refs.NewCoordinator(refs.CoordinatorOptions{
			ProjectRoot: rootDir,
			Backend:     nil,
			Resolver:    assets,
			Logger:      logger,
		}),
		logger: logger,
	}
}

func writeMeta(t *testing.T, rootDir string, projectPath string, guid string) string {
	t.Helper()
	metaPath := filepath.Join(rootDir, filepath.FromSlash(projectPath)) + ".meta"
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(metaPath, []byte("fileFormatVersion: 2\nguid: "+guid+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return metaPath
}

func Test_performSyncVerification_DetectsMissingAssets(t *testing.T) {
	tmpDir := t.TempDir()
	h := testHost(tmpDir)

	writeMeta(t, tmpDir, "Assets/New.prefab", "aaa")

	result := performSyncVerification(h)

	if result.MissingAssets != 1 || result.StaleAssets != 0 || result.ModifiedAssets != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if path, ok := h.assets.Resolve("aaa"); !ok || path != "Assets/New.prefab" {
		t.Errorf("expected asset to be registered, got %q %v", path, ok)
	}
}

func Test_performSyncVerification_DetectsStaleAssets(t *testing.T) {
	tmpDir := t.TempDir()
	h := testHost(tmpDir)

	h.assets.Add(&assetdb.Asset{GUID: "gone", Path: "Assets/Deleted.prefab", MetaModTime: time.Now()})

	result := performSyncVerification(h)

	if result.StaleAssets != 1 {
		t.Errorf("expected 1 stale asset, got %d", result.StaleAssets)
	}
	if _, ok := h.assets.Resolve("gone"); ok {
		t.Error("expected stale asset to be removed")
	}
}

func Test_performSyncVerification_DetectsModifiedAssets(t *testing.T) {
	tmpDir := t.TempDir()
	h := testHost(tmpDir)

	metaPath := writeMeta(t, tmpDir, "Assets/Hero.prefab", "old")
	if _, err := h.assets.LoadMeta(metaPath); err != nil {
		t.Fatal(err)
	}

	writeMeta(t, tmpDir, "Assets/Hero.prefab", "new")
	future := time.Now().Add(time.Hour)
	os.Chtimes(metaPath, future, future)

	result := performSyncVerification(h)

	if result.ModifiedAssets != 1 {
		t.Errorf("expected 1 modified asset, got %d", result.ModifiedAssets)
	}
	if guid, _ := h.assets.IdentifierFor("Assets/Hero.prefab"); guid != "new" {
		t.Errorf("expected reloaded GUID 'new', got %q", guid)
	}
	if _, ok := h.assets.Resolve("old"); ok {
		t.Error("expected old GUID to be forgotten")
	}
}

func Test_performSyncVerification_InSync(t *testing.T) {
	tmpDir := t.TempDir()
	h := testHost(tmpDir)

	metaPath := writeMeta(t, tmpDir, "Assets/Hero.prefab", "aaa")
	if _, err := h.assets.LoadMeta(metaPath); err != nil {
		t.Fatal(err)
	}

	result := performSyncVerification(h)

	if result.discrepancies() != 0 {
		t.Errorf("expected no discrepancies, got %+v", result)
	}
}

func Test_performSyncVerification_SkipsIgnoredFolders(t *testing.T) {
	tmpDir := t.TempDir()
	h := testHost(tmpDir)

	writeMeta(t, tmpDir, "Assets/Library/Cached.asset", "cached")

	result := performSyncVerification(h)

	if result.MissingAssets != 0 {
		t.Errorf("expected ignored sidecar to be skipped, got %+v", result)
	}
}

func Test_performSyncVerification_ClearsCache(t *testing.T) {
	tmpDir := t.TempDir()
	h := testHost(tmpDir)

	if _, err := h.coordinator.Run([]string{"unknown"}, &refs.ExclusionRules{}, "", true); err != nil {
		t.Fatal(err)
	}
	writeMeta(t, tmpDir, "Assets/New.prefab", "aaa")

	performSyncVerification(h)

	if h.coordinator.CacheStats().Entries != 0 {
		t.Error("expected cache to be cleared after repairs")
	}
}
