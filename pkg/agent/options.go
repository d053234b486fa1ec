package agent

import loggerpkg "github.com/minhyannv/github-mcp-agent/pkg/logger"

// Option configures optional runtime dependencies for Agent.
type Option func(*Agent)

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithVerbose enables per-turn debug logging.
func WithVerbose(v bool) Option {
	return func(a *Agent) {
		a.verbose = v
	}
}

// WithMaxTurns bounds the number of backend round trips per Run.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTurns = n
		}
	}
}
