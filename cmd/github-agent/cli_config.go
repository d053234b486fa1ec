package main

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"

	configpkg "github.com/minhyannv/github-mcp-agent/pkg/config"
)

// parseCLIConfig loads .env, the optional settings file, environment and flags into runtime config.
func parseCLIConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (configpkg.Config, error) {
	_ = godotenv.Load()

	defaults := configpkg.DefaultConfig()
	configFile := fs.String("config", "", "Optional YAML settings file (mcp_url, backend, models, timeouts, max_turns)")
	maxTurns := fs.Int("max_turns", 0, "Max tool-call turns (0 = use config default)")
	verbose := fs.Bool("verbose", false, "Verbose agent and tool-call logging")
	if err := fs.Parse(args); err != nil {
		return configpkg.Config{}, err
	}

	cfg := defaults
	if path := strings.TrimSpace(*configFile); path != "" {
		var err error
		cfg, err = configpkg.LoadFile(cfg, path)
		if err != nil {
			return configpkg.Config{}, err
		}
	}
	cfg = configpkg.FromEnv(cfg, getenv)
	if *maxTurns > 0 {
		cfg.MaxTurns = *maxTurns
	}
	cfg.Verbose = *verbose
	return configpkg.Normalize(cfg), nil
}

func defaultFlagSet() *flag.FlagSet {
	return flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}
