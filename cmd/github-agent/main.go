// Command github-agent runs one example GitHub request through an LLM agent
// backed by the GitHub MCP tool server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	loggerpkg "github.com/minhyannv/github-mcp-agent/pkg/logger"
)

// main is the program entry point.
func main() {
	cfg, err := parseCLIConfig(defaultFlagSet(), os.Args[1:], os.Getenv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appLogger := loggerpkg.NewWriterLogger(os.Stderr)
	application, err := newApp(ctx, cfg, appLogger, os.Stdout)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runErr := runMenu(ctx, application.agent, os.Stdin, os.Stdout)
	if err := application.Close(); err != nil {
		loggerpkg.Debug(cfg.Verbose, appLogger, "close failed", loggerpkg.Fields{"error": err.Error()})
	}
	if runErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
