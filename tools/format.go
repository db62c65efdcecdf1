package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FormatAggregateResult formats a batch reference query as human-readable text.
// One block per subject, in query order, followed by the advisory if any.
func FormatAggregateResult(result *refs.AggregateResult) string {
	var builder strings.Builder

	if len(result.Records) == 0 {
		builder.WriteString("No assets queried.\n")
	}

	for i, record := range result.Records {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(formatRecordHeader(record))

		if len(record.References) == 0 {
			builder.WriteString("  (no references found)\n")
			continue
		}
		for _, reference := range record.References {
			if reference.Exists {
				builder.WriteString(fmt.Sprintf("  %s\n", reference.Path))
			} else {
				builder.WriteString(fmt.Sprintf("  %s (missing)\n", reference.Path))
			}
		}
	}

	if result.Advisory != "" {
		builder.WriteString("\nNote: ")
		builder.WriteString(result.Advisory)
		builder.WriteString("\n")
	}
	return builder.String()
}

func formatRecordHeader(record refs.SearchRecord) string {
	switch {
	case record.Subject == "":
		return fmt.Sprintf("── %s (unknown asset) ──\n", record.Identifier)
	case !record.SubjectExists:
		return fmt.Sprintf("── %s [%s] (missing) ── %d references\n", record.Subject, record.Identifier, len(record.References))
	default:
		return fmt.Sprintf("── %s [%s] ── %d references\n", record.Subject, record.Identifier, len(record.References))
	}
}

// FormatAssets formats an asset listing.
func FormatAssets(assets []assetdb.Asset) string {
	if len(assets) == 0 {
		return "No assets matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d assets:\n\n", len(assets)))
	for _, asset := range assets {
		builder.WriteString(fmt.Sprintf("  %s  %s\n", asset.GUID, asset.Path))
	}
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
