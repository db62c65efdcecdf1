package server

import (
	"github.com/lexandro/refviewer-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialization.
const Version = "0.1.0"

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	findHandler *tools.FindHandler,
	assetsHandler *tools.AssetsHandler,
	clearCacheHandler *tools.ClearCacheHandler,
	statusHandler *tools.StatusHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "refviewer-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server finds which assets of a Unity project reference a given asset.

Assets are identified by the GUID stored in their .meta sidecar file:
- Use refviewer_find with GUIDs or project paths (Assets/...) to list the assets that reference them
- Use refviewer_assets to look up GUIDs by glob pattern
- Results are cached per GUID; the cache is cleared automatically when project files change, or manually with refviewer_clear_cache`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "refviewer_find",
		Description: `Find the assets that reference one or more assets.

Input:
  - identifiers: asset GUIDs (32 hex characters, from the .meta file)
  - paths: project-relative asset paths, resolved to GUIDs (e.g. "Assets/Textures/Hero.png")
  - noCache: recompute instead of using cached results

Each subject is reported in request order with its referencing assets. References to an asset's .meta file are reported as the asset itself.`,
	}, findHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "refviewer_assets",
		Description: `List known assets and their GUIDs by glob pattern.

Pattern examples:
  - "Assets/**/*.prefab" - all prefabs
  - "Assets/Textures/*" - assets directly under Assets/Textures
  - "Packages/**/*.shader" - shaders in embedded packages`,
	}, assetsHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "refviewer_clear_cache",
		Description: "Clear all cached reference search results.",
	}, clearCacheHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "refviewer_status",
		Description: "Show server status: search backend, known assets, cache usage, memory usage, and uptime.",
	}, statusHandler.Handle)

	return mcpServer
}
