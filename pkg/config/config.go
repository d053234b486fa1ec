package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names read at startup.
const (
	EnvGitHubToken   = "GITHUB_PERSONAL_ACCESS_TOKEN"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvGoogleAPIKey  = "GOOGLE_API_KEY"
	EnvMCPURL        = "GITHUB_MCP_URL"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"
	EnvGoogleModel   = "GOOGLE_MODEL"
	EnvBackend       = "LLM_BACKEND"
)

// Backend names accepted by Config.Backend.
const (
	BackendAuto   = "auto"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

const (
	DefaultMCPURL              = "https://api.githubcopilot.com/mcp/"
	DefaultOpenAIModel         = "o4-mini"
	DefaultGeminiModel         = "gemini-2.5-flash"
	DefaultToolTimeout         = 30 * time.Second
	DefaultExtendedToolTimeout = 120 * time.Second
	DefaultMaxTurns            = 20
)

// ErrMissingCredential is wrapped by every credential validation failure.
var ErrMissingCredential = errors.New("missing credential")

// Config holds all runtime configuration for the agent.
type Config struct {
	MaxTurns int
	Verbose  bool
	Backend  string

	GitHubToken string
	MCPURL      string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GoogleAPIKey string
	GeminiModel  string

	ToolTimeout         time.Duration
	ExtendedToolTimeout time.Duration
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		MaxTurns:            DefaultMaxTurns,
		Backend:             BackendAuto,
		MCPURL:              DefaultMCPURL,
		OpenAIModel:         DefaultOpenAIModel,
		GeminiModel:         DefaultGeminiModel,
		ToolTimeout:         DefaultToolTimeout,
		ExtendedToolTimeout: DefaultExtendedToolTimeout,
	}
}

// FromEnv overlays environment values onto cfg. Empty optional values keep
// the existing setting; credentials are always taken from the environment.
func FromEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	read := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg.GitHubToken = read(EnvGitHubToken)
	cfg.OpenAIAPIKey = read(EnvOpenAIAPIKey)
	cfg.GoogleAPIKey = read(EnvGoogleAPIKey)

	if v := read(EnvMCPURL); v != "" {
		cfg.MCPURL = v
	}
	if v := read(EnvOpenAIBaseURL); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := read(EnvOpenAIModel); v != "" {
		cfg.OpenAIModel = v
	}
	if v := read(EnvGoogleModel); v != "" {
		cfg.GeminiModel = v
	}
	if v := read(EnvBackend); v != "" {
		cfg.Backend = v
	}
	return cfg
}

// fileConfig mirrors the optional YAML settings file. Secrets are not accepted here.
type fileConfig struct {
	MCPURL              string `yaml:"mcp_url"`
	Backend             string `yaml:"backend"`
	MaxTurns            int    `yaml:"max_turns"`
	OpenAIBaseURL       string `yaml:"openai_base_url"`
	OpenAIModel         string `yaml:"openai_model"`
	GeminiModel         string `yaml:"gemini_model"`
	ToolTimeout         string `yaml:"tool_timeout"`
	ExtendedToolTimeout string `yaml:"extended_tool_timeout"`
}

// LoadFile overlays the YAML settings file at path onto cfg.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.MCPURL != "" {
		cfg.MCPURL = fc.MCPURL
	}
	if fc.Backend != "" {
		cfg.Backend = fc.Backend
	}
	if fc.MaxTurns > 0 {
		cfg.MaxTurns = fc.MaxTurns
	}
	if fc.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = fc.OpenAIBaseURL
	}
	if fc.OpenAIModel != "" {
		cfg.OpenAIModel = fc.OpenAIModel
	}
	if fc.GeminiModel != "" {
		cfg.GeminiModel = fc.GeminiModel
	}
	if fc.ToolTimeout != "" {
		d, err := time.ParseDuration(fc.ToolTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse tool_timeout: %w", err)
		}
		cfg.ToolTimeout = d
	}
	if fc.ExtendedToolTimeout != "" {
		d, err := time.ParseDuration(fc.ExtendedToolTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse extended_tool_timeout: %w", err)
		}
		cfg.ExtendedToolTimeout = d
	}
	return cfg, nil
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.GitHubToken = strings.TrimSpace(cfg.GitHubToken)
	cfg.MCPURL = strings.TrimSpace(cfg.MCPURL)
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = strings.TrimSpace(cfg.OpenAIBaseURL)
	cfg.OpenAIModel = strings.TrimSpace(cfg.OpenAIModel)
	cfg.GoogleAPIKey = strings.TrimSpace(cfg.GoogleAPIKey)
	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)

	if cfg.Backend == "" {
		cfg.Backend = BackendAuto
	}
	if cfg.MCPURL == "" {
		cfg.MCPURL = DefaultMCPURL
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = DefaultGeminiModel
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 1
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}
	if cfg.ExtendedToolTimeout <= 0 {
		cfg.ExtendedToolTimeout = DefaultExtendedToolTimeout
	}
	return cfg
}

// Validate checks the mandatory credential combination: the GitHub token and
// at least one LLM API key.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GitHubToken) == "" {
		return fmt.Errorf("%w: %s environment variable not found; set it in your .env file or environment",
			ErrMissingCredential, EnvGitHubToken)
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" && strings.TrimSpace(c.GoogleAPIKey) == "" {
		return fmt.Errorf("%w: %s and %s environment variables not found; set at least one in your .env file or environment",
			ErrMissingCredential, EnvOpenAIAPIKey, EnvGoogleAPIKey)
	}
	return nil
}

// SelectBackend resolves which LLM backend to use. "auto" prefers Gemini when
// GOOGLE_API_KEY is present and falls back to OpenAI.
func (c Config) SelectBackend() (string, error) {
	hasOpenAI := strings.TrimSpace(c.OpenAIAPIKey) != ""
	hasGoogle := strings.TrimSpace(c.GoogleAPIKey) != ""

	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case "", BackendAuto:
		if hasGoogle {
			return BackendGemini, nil
		}
		if hasOpenAI {
			return BackendOpenAI, nil
		}
		return "", fmt.Errorf("%w: no LLM API key configured", ErrMissingCredential)
	case BackendOpenAI:
		if !hasOpenAI {
			return "", fmt.Errorf("%w: backend %q requires %s", ErrMissingCredential, BackendOpenAI, EnvOpenAIAPIKey)
		}
		return BackendOpenAI, nil
	case BackendGemini:
		if !hasGoogle {
			return "", fmt.Errorf("%w: backend %q requires %s", ErrMissingCredential, BackendGemini, EnvGoogleAPIKey)
		}
		return BackendGemini, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendAuto, BackendOpenAI, BackendGemini)
	}
}
