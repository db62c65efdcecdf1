package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexandro/refviewer-mcp/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "refviewer-mcp",
		Usage:   "Find which assets of a Unity project reference a given asset",
		Version: server.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "Unity project root, the folder containing Assets/ (default: current working directory)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path (default: <root>/refviewer-mcp.log)",
			},
			&cli.StringFlag{
				Name:  "settings",
				Usage: "Exclusion settings file; must exist when given (default: <root>/.refviewer.toml, optional)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-ext",
				Usage: "Extra extension to exclude from results (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-name",
				Usage: "Extra filename or glob to exclude from results (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Extra ignore pattern for scanning and watching (repeatable)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Search backend: grep, gitgrep, mdfind, findstr or index (default: first available)",
			},
		},
		Before: setupLogger,
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the MCP server on stdio",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Do not watch the project for changes",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Never cache reference search results",
					},
					&cli.DurationFlag{
						Name:  "sync-interval",
						Usage: "Re-verify the asset database against .meta files on disk at this interval (0 disables)",
					},
				},
			},
			{
				Name:      "find",
				Usage:     "Print the assets referencing each GUID or asset path",
				ArgsUsage: "<guid|path>...",
				Action:    findCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
				},
			},
			{
				Name:   "backends",
				Usage:  "List search backends and whether their tools are available",
				Action: backendsCommand,
			},
			{
				Name:      "register",
				Usage:     "Add this server to an MCP client configuration",
				ArgsUsage: "project [directory] | user  [-- server args...]",
				Action:    registerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Server name in the configuration (default: derived from the binary name)",
					},
					&cli.BoolFlag{
						Name:  "remove",
						Usage: "Remove the entry instead of adding it",
					},
				},
			},
		},
	}
}

// projectRoot resolves --root to an absolute path.
func projectRoot(c *cli.Context) (string, error) {
	rootDir := c.String("root")
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		rootDir = wd
	}
	return filepath.Abs(rootDir)
}

// setupLogger installs the default slog logger. Output never goes to stdout,
// which carries the MCP stdio transport.
func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logFile := c.String("log-file")
	if logFile == "" {
		rootDir, err := projectRoot(c)
		if err != nil {
			return err
		}
		logFile = filepath.Join(rootDir, "refviewer-mcp.log")
	}

	writer := c.App.ErrWriter
	if writer == nil {
		writer = os.Stderr
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(writer, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
	} else {
		writer = f
	}

	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
