package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/lexandro/refviewer-mcp/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const (
	textureGUID  = "8f2c1e0d9a7b4c3e8d6f5a4b3c2d1e0f"
	materialGUID = "1a2b3c4d5e6f70819203a4b5c6d7e8f9"
)

// writeProject creates a minimal Unity project: a texture and a material
// that references it.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Assets/Textures/Hero.png":      "\x89PNG\r\n\x1a\n\x00\x00",
		"Assets/Textures/Hero.png.meta": "fileFormatVersion: 2\nguid: " + textureGUID + "\nTextureImporter:\n",
		"Assets/Materials/Hero.mat":     "%YAML 1.1\nMaterial:\n  m_Texture: {fileID: 2800000, guid: " + textureGUID + ", type: 3}\n",
		"Assets/Materials/Hero.mat.meta": "fileFormatVersion: 2\nguid: " + materialGUID + "\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"refviewer-mcp"}, args...))
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	root := t.TempDir()

	t.Run("invalid log level", func(t *testing.T) {
		_, err := runApp(t, "--root", root, "--log-level", "verbose", "backends")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("default log file in project root", func(t *testing.T) {
		_, err := runApp(t, "--root", root, "backends")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(root, "refviewer-mcp.log"))
	})
}

func TestFindCommand(t *testing.T) {
	root := writeProject(t)

	t.Run("by GUID as JSON", func(t *testing.T) {
		out, err := runApp(t, "--root", root, "--backend", "index", "find", "--json", textureGUID)
		require.NoError(t, err)

		var result refs.AggregateResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		require.Len(t, result.Records, 1)

		record := result.Records[0]
		assert.Equal(t, "Assets/Textures/Hero.png", record.Subject)
		assert.True(t, record.SubjectExists)
		assert.Equal(t, []refs.AssetReference{{Path: "Assets/Materials/Hero.mat", Exists: true}}, record.References)
		assert.NotEmpty(t, result.Advisory)
	})

	t.Run("by path as text", func(t *testing.T) {
		out, err := runApp(t, "--root", root, "--backend", "index", "find", "Assets/Textures/Hero.png")
		require.NoError(t, err)
		assert.Contains(t, out, "Assets/Textures/Hero.png ["+textureGUID+"]")
		assert.Contains(t, out, "Assets/Materials/Hero.mat")
	})

	t.Run("excluded extension", func(t *testing.T) {
		out, err := runApp(t, "--root", root, "--backend", "index", "--exclude-ext", ".mat", "find", textureGUID)
		require.NoError(t, err)
		assert.Contains(t, out, "(no references found)")
	})

	t.Run("explicit settings file missing", func(t *testing.T) {
		_, err := runApp(t, "--root", root, "--backend", "index",
			"--settings", filepath.Join(root, "missing.toml"), "find", textureGUID)
		require.Error(t, err)
		assert.ErrorIs(t, err, refs.ErrConfigurationMissing)
		assert.Contains(t, err.Error(), "missing.toml")
	})

	t.Run("malformed settings file", func(t *testing.T) {
		settingsPath := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(settingsPath, []byte("exclude_extensions = 42"), 0o644))

		_, err := runApp(t, "--root", root, "--backend", "index", "--settings", settingsPath, "find", textureGUID)
		require.Error(t, err)
		assert.ErrorIs(t, err, refs.ErrConfigurationMissing)
		assert.Contains(t, err.Error(), "bad.toml")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := runApp(t, "--root", root, "--backend", "ripgrep", "find", textureGUID)
		assert.Error(t, err)
	})

	t.Run("no arguments", func(t *testing.T) {
		_, err := runApp(t, "--root", root, "find")
		assert.Error(t, err)
	})
}

func TestBackendsCommand(t *testing.T) {
	out, err := runApp(t, "--root", t.TempDir(), "backends")
	require.NoError(t, err)

	for _, variant := range []string{"grep", "gitgrep", "mdfind", "findstr", "index"} {
		assert.Contains(t, out, variant)
	}
	assert.Contains(t, out, "(built in)")
}

func TestRegisterCommand(t *testing.T) {
	root := t.TempDir()
	project := t.TempDir()

	out, err := runApp(t, "--root", root, "register", "--name", "refviewer", "project", project, "--", "--no-watch")
	require.NoError(t, err)
	assert.Contains(t, out, `Registered "refviewer"`)

	data, err := os.ReadFile(filepath.Join(project, ".mcp.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "--no-watch")

	_, err = runApp(t, "--root", root, "register", "--name", "refviewer", "--remove", "project", project)
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(project, ".mcp.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "refviewer")
}

func TestApplyChanges(t *testing.T) {
	root := writeProject(t)
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	// Build a host through the find command's flag set.
	var h *host
	for _, command := range app.Commands {
		if command.Name == "find" {
			command.Action = func(c *cli.Context) error {
				var err error
				h, err = newHost(c)
				return err
			}
		}
	}
	require.NoError(t, app.Run([]string{"refviewer-mcp", "--root", root, "--backend", "index", "find", "x"}))
	require.NotNil(t, h)
	defer h.Close()

	rules := &refs.ExclusionRules{}
	_, err := h.coordinator.Run([]string{textureGUID}, rules, "", true)
	require.NoError(t, err)
	require.Equal(t, 1, h.coordinator.CacheStats().Entries)

	// A new prefab referencing the texture plus its sidecar.
	prefab := filepath.Join(root, "Assets", "Hero.prefab")
	require.NoError(t, os.WriteFile(prefab, []byte("m_Sprite: {guid: "+textureGUID+"}\n"), 0o644))
	require.NoError(t, os.WriteFile(prefab+".meta", []byte("guid: 00000000000000000000000000000abc\n"), 0o644))

	applyChanges([]watcher.Change{
		{Path: prefab, Kind: watcher.Created},
		{Path: prefab + ".meta", Kind: watcher.Created},
	}, h)

	assert.Equal(t, 0, h.coordinator.CacheStats().Entries)
	guid, ok := h.assets.IdentifierFor("Assets/Hero.prefab")
	require.True(t, ok)
	assert.Equal(t, "00000000000000000000000000000abc", guid)

	result, err := h.coordinator.Run([]string{textureGUID}, rules, "", true)
	require.NoError(t, err)
	assert.Equal(t, []refs.AssetReference{
		{Path: "Assets/Hero.prefab", Exists: true},
		{Path: "Assets/Materials/Hero.mat", Exists: true},
	}, result.Records[0].References)

	// Removing the material's sidecar forgets the material.
	applyChanges([]watcher.Change{{Path: filepath.Join(root, "Assets", "Materials", "Hero.mat.meta"), Kind: watcher.Removed}}, h)
	_, ok = h.assets.Resolve(materialGUID)
	assert.False(t, ok)
}
