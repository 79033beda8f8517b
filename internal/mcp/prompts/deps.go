// Package prompts contains MCP prompt implementations for resource timing analysis.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	CollectorEnabled bool
	URLLimit         int
}
