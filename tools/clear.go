package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClearCacheArgs defines the input parameters for the refviewer_clear_cache tool (none required).
type ClearCacheArgs struct{}

// ClearCacheHandler holds the dependencies for the clear-cache tool.
type ClearCacheHandler struct {
	Coordinator *refs.Coordinator
	Logger      *slog.Logger
}

// Handle processes a refviewer_clear_cache request.
func (h *ClearCacheHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ClearCacheArgs) (*mcp.CallToolResult, any, error) {
	evicted := h.Coordinator.CacheStats().Entries
	h.Coordinator.ClearCache()

	h.Logger.Info("refviewer_clear_cache", "evicted", evicted)

	return textResult(fmt.Sprintf("Reference cache cleared (%d entries evicted).", evicted)), nil, nil
}
