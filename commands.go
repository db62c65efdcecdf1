package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/refviewer-mcp/backend"
	"github.com/lexandro/refviewer-mcp/refs"
	"github.com/lexandro/refviewer-mcp/register"
	"github.com/lexandro/refviewer-mcp/server"
	"github.com/lexandro/refviewer-mcp/tools"
	"github.com/lexandro/refviewer-mcp/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"
)

func serveCommand(c *cli.Context) error {
	startTime := time.Now()

	h, err := newHost(c)
	if err != nil {
		return err
	}
	defer h.Close()

	logger := h.logger
	logger.Info("starting refviewer-mcp",
		"root", h.rootDir,
		"backend", h.backendName(),
		"assets", h.assets.Count(),
	)

	if !c.Bool("no-watch") {
		fileWatcher, err := watcher.NewWatcher(h.rootDir, watcher.DefaultDebounce, h.matcher, logger)
		if err != nil {
			logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
		} else {
			go fileWatcher.Start()
			go handleWatcherChanges(fileWatcher, h)
			defer fileWatcher.Close()
		}
	}

	if interval := c.Duration("sync-interval"); interval > 0 {
		stop := make(chan struct{})
		go runPeriodicSync(interval, h, stop)
		defer close(stop)
	}

	findHandler := &tools.FindHandler{
		Coordinator: h.coordinator,
		Assets:      h.assets,
		LoadRules:   h.loadRules,
		Advisory:    h.descriptor.Advisory,
		UseCache:    !c.Bool("no-cache"),
		Logger:      logger,
	}
	assetsHandler := &tools.AssetsHandler{Assets: h.assets, Logger: logger}
	clearCacheHandler := &tools.ClearCacheHandler{Coordinator: h.coordinator, Logger: logger}
	statusHandler := &tools.StatusHandler{
		Assets:       h.assets,
		ContentIndex: h.contentIndex,
		Coordinator:  h.coordinator,
		Backend:      h.backendName(),
		StartTime:    startTime,
		RootDir:      h.rootDir,
		Logger:       logger,
	}

	mcpServer := server.Setup(findHandler, assetsHandler, clearCacheHandler, statusHandler)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		return err
	}
	return nil
}

// findCommand runs one query. Each argument is taken as a project path when
// an asset is registered there, otherwise as a GUID.
func findCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one GUID or asset path is required")
	}

	h, err := newHost(c)
	if err != nil {
		return err
	}
	defer h.Close()

	identifiers := make([]string, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		if guid, ok := h.assets.IdentifierFor(filepath.ToSlash(arg)); ok {
			identifiers = append(identifiers, guid)
			continue
		}
		identifiers = append(identifiers, arg)
	}

	rules, err := h.loadRules()
	if err != nil {
		h.logger.Warn("failed to load exclusion rules", "error", err)
		return fmt.Errorf("%w: %v", refs.ErrConfigurationMissing, err)
	}

	result, err := h.coordinator.Run(identifiers, rules, h.descriptor.Advisory, true)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	_, err = fmt.Fprint(c.App.Writer, tools.FormatAggregateResult(result))
	return err
}

func backendsCommand(c *cli.Context) error {
	registry := backend.NewRegistry(slog.Default())
	registry.RegisterInProcess(backend.IndexDescriptor(), backend.Unavailable{})

	for _, availability := range registry.Probe() {
		status := "missing"
		if availability.Available {
			status = "available"
		}
		location := availability.Executable
		if availability.Descriptor.Command == "" {
			location = "(built in)"
		}
		fmt.Fprintf(c.App.Writer, "%-8s %-9s %-40s %s\n",
			availability.Descriptor.Variant,
			status,
			availability.Descriptor.Description,
			location,
		)
	}
	return nil
}

func registerCommand(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("scope is required: project [directory] or user")
	}

	options := register.Options{
		Scope:      register.Scope(args[0]),
		ServerName: c.String("name"),
	}
	rest := args[1:]
	if options.Scope == register.ScopeProject && len(rest) > 0 && rest[0] != "--" {
		options.Directory = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	options.ServerArgs = rest

	if options.ServerName == "" {
		options.ServerName = register.DeriveServerName(os.Args[0])
	}

	if c.Bool("remove") {
		configPath, err := register.Unregister(options)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Removed %q from %s\n", options.ServerName, configPath)
		return nil
	}

	configPath, err := register.Register(options)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Registered %q in %s\n", options.ServerName, configPath)
	return nil
}
