package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	configpkg "github.com/minhyannv/github-mcp-agent/pkg/config"
)

func testFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("github-agent", flag.ContinueOnError)
}

func TestParseCLIConfigReadsEnvAndFlags(t *testing.T) {
	env := map[string]string{
		configpkg.EnvGitHubToken:  "ghp_test",
		configpkg.EnvOpenAIAPIKey: "sk-test",
	}
	cfg, err := parseCLIConfig(testFlagSet(), []string{"-verbose", "-max_turns", "7"}, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("parseCLIConfig: %v", err)
	}
	if cfg.GitHubToken != "ghp_test" || cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("credentials not loaded: %+v", cfg)
	}
	if !cfg.Verbose || cfg.MaxTurns != 7 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.MCPURL != configpkg.DefaultMCPURL {
		t.Fatalf("expected default MCP URL, got %q", cfg.MCPURL)
	}
}

func TestParseCLIConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("mcp_url: http://file.example/mcp\nopenai_model: from-file\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := map[string]string{configpkg.EnvOpenAIModel: "from-env"}
	cfg, err := parseCLIConfig(testFlagSet(), []string{"-config", path}, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("parseCLIConfig: %v", err)
	}
	if cfg.MCPURL != "http://file.example/mcp" {
		t.Fatalf("expected file MCP URL, got %q", cfg.MCPURL)
	}
	if cfg.OpenAIModel != "from-env" {
		t.Fatalf("expected env model to win, got %q", cfg.OpenAIModel)
	}
}

func TestParseCLIConfigMissingFile(t *testing.T) {
	_, err := parseCLIConfig(testFlagSet(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, func(string) string { return "" })
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
