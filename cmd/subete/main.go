// Command subete builds the Sample Programs repository graph and serves,
// exports or prints it.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at link time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		printHelp()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "build":
		return runBuild(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "mcp":
		return runMCP(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "migrate":
		return runMigrate(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	default:
		printHelp()
		return errors.New("unknown command: " + args[0])
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: subete <command> [options]

Commands:
  build     Ingest the repositories and print the summary ("build graph" for all of it)
  serve     Ingest, then serve the graph over HTTP
  mcp       Ingest, then serve the graph as an MCP server on stdio
  export    Ingest and store a snapshot in PostgreSQL
  history   List stored snapshots, or one language's history
  migrate   Apply (up), roll back (down [n]) or report (status) database migrations
  version   Print the version

Common options:
  -c, --config PATH    YAML config (default: subete.yaml)
  --archive PATH|URL   sample-programs repository
  --docs PATH|URL      sample-programs-website repository
  --log-level LEVEL    debug, info, warn or error
  --no-enrich          skip authorship enrichment
  --nats-url URL       publish ingestion events and share the blame cache
  --dsn DSN            PostgreSQL DSN (export, history, migrate)
  -p, --port PORT      HTTP port (serve)

Examples:
  subete build --archive ../sample-programs --docs ../sample-programs-website
  subete build --no-enrich graph > graph.json
  subete serve -p 8080
  subete history python
`)
}
