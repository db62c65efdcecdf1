package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexandro/refviewer-mcp/assetdb"
	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FindArgs defines the input parameters for the refviewer_find tool.
type FindArgs struct {
	Identifiers []string `json:"identifiers,omitempty" jsonschema:"Asset GUIDs to find references to"`
	Paths       []string `json:"paths,omitempty" jsonschema:"Project-relative asset paths (e.g. Assets/Prefabs/Hero.prefab), resolved to GUIDs"`
	NoCache     bool     `json:"noCache,omitempty" jsonschema:"Recompute every identifier and leave the reference cache untouched"`
}

// FindHandler holds the dependencies for the find tool.
type FindHandler struct {
	Coordinator *refs.Coordinator
	Assets      *assetdb.Database
	LoadRules   func() (*refs.ExclusionRules, error)
	Advisory    string
	UseCache    bool
	Logger      *slog.Logger
}

// Handle processes a refviewer_find request.
func (h *FindHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FindArgs) (*mcp.CallToolResult, any, error) {
	identifiers, err := h.collectIdentifiers(args)
	if err != nil {
		return errorResult("%v", err), nil, nil
	}
	if len(identifiers) == 0 {
		return errorResult("at least one identifier or path is required"), nil, nil
	}

	rules, err := h.LoadRules()
	if err != nil {
		h.Logger.Warn("failed to load exclusion rules", "error", err)
		return errorResult("Search error: %v", fmt.Errorf("%w: %v", refs.ErrConfigurationMissing, err)), nil, nil
	}

	start := time.Now()
	result, err := h.Coordinator.Run(identifiers, rules, h.Advisory, h.UseCache && !args.NoCache)
	elapsed := time.Since(start)
	if err != nil {
		return errorResult("Search error: %v", err), nil, nil
	}

	h.Logger.Info("refviewer_find",
		"identifiers", len(identifiers),
		"noCache", args.NoCache,
		"elapsed", elapsed,
	)

	return textResult(FormatAggregateResult(result)), nil, nil
}

// collectIdentifiers merges GUIDs and resolved paths, keeping request order.
func (h *FindHandler) collectIdentifiers(args FindArgs) ([]string, error) {
	identifiers := make([]string, 0, len(args.Identifiers)+len(args.Paths))
	for _, identifier := range args.Identifiers {
		if trimmed := strings.TrimSpace(identifier); trimmed != "" {
			identifiers = append(identifiers, trimmed)
		}
	}

	var unknown []string
	for _, projectPath := range args.Paths {
		projectPath = strings.TrimSpace(projectPath)
		if projectPath == "" {
			continue
		}
		guid, ok := h.Assets.IdentifierFor(projectPath)
		if !ok {
			unknown = append(unknown, projectPath)
			continue
		}
		identifiers = append(identifiers, guid)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("no asset registered for: %s", strings.Join(unknown, ", "))
	}
	return identifiers, nil
}
