package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Tool usage guide
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "restiming_guide",
		Description: "Guide to the restiming tools: which tool answers which question and how the compressed trie is laid out.",
	}, HandleBasePrompt(cfg))

	// Prompt 2: Page load analysis
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "analyze_page_load",
		Description: "RECOMMENDED: Analyze where a page spent its load time. Walks through loading a snapshot, finding slow resources, measuring fetch overlap, and checking beacon payload size.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "snapshot_id",
				Description: "Snapshot or collector ID to analyze (default: most recently loaded)",
				Required:    false,
			},
			{
				Name:        "focus",
				Description: "Initiator type to focus on (e.g. script, img, css)",
				Required:    false,
			},
		},
	}, HandleAnalyzePageLoad(cfg))
}
