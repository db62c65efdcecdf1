package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AssetsArgs defines the input parameters for the refviewer_assets tool.
type AssetsArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern over project paths (e.g. Assets/**/*.prefab)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results (default: 50)"`
}

// AssetsHandler holds the dependencies for the assets tool.
type AssetsHandler struct {
	Assets *assetdb.Database
	Logger *slog.Logger
}

// Handle processes a refviewer_assets request.
func (h *AssetsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args AssetsArgs) (*mcp.CallToolResult, any, error) {
	if args.Pattern == "" {
		return errorResult("pattern is required"), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	start := time.Now()
	assets, err := h.Assets.SearchByGlob(args.Pattern, maxResults)
	elapsed := time.Since(start)
	if err != nil {
		return errorResult("Asset search error: %v", err), nil, nil
	}

	h.Logger.Info("refviewer_assets",
		"pattern", args.Pattern,
		"results", len(assets),
		"elapsed", elapsed,
	)

	return textResult(FormatAssets(assets)), nil, nil
}
