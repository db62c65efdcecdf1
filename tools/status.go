package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/lexandro/refviewer-mcp/index"
	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the refviewer_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Assets       *assetdb.Database
	ContentIndex *index.ContentIndex // nil unless the in-memory backend is active
	Coordinator  *refs.Coordinator
	Backend      string
	StartTime    time.Time
	RootDir      string
	Logger       *slog.Logger
}

// Handle processes a refviewer_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	assetCount := h.Assets.Count()
	cacheStats := h.Coordinator.CacheStats()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("refviewer_status",
		"assets", assetCount,
		"cached", cacheStats.Entries,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== refviewer-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Project root: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Search backend: %s\n", h.Backend))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Known assets: %d\n", assetCount))
	if h.ContentIndex != nil {
		builder.WriteString(fmt.Sprintf("Content-indexed documents: %d\n", h.ContentIndex.DocumentCount()))
	}
	builder.WriteString(fmt.Sprintf("Cached reference records: %d (hits: %d, misses: %d)\n",
		cacheStats.Entries, cacheStats.Hits, cacheStats.Misses))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	return textResult(builder.String()), nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
