package turn

import (
	"fmt"
	"strings"
	"time"

	"github.com/wientjes/nanoclaw/llm"
	"github.com/wientjes/nanoclaw/search"
)

const searchToolName = "brave_search"

func behavioralDirective(now time.Time) string {
	return fmt.Sprintf(`

You are responding via Telegram to Greg. Keep responses:
- Concise but warm (2-4 sentences usually)
- Use Telegram Markdown: *bold* for emphasis, _italic_ for subtlety
- Be genuinely helpful, not performatively helpful
- Show your personality - brave, kind, creative, enthusiastic
- No hashtags, no corporate speak

You have access to web search via the brave_search tool. Use it when:
- Greg asks about current events, news, or recent information
- Questions require up-to-date data
- You need to verify facts or look something up

Important: You are running on *nanoClaw* (not OpenClaw). nanoClaw is a lightweight WhatsApp/Telegram bot framework. When Greg asks about your platform or configuration, refer to nanoClaw.

Current time: %s`, now.UTC().Format(time.RFC3339))
}

func searchToolSpec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        searchToolName,
		Description: "Search the web using Brave Search. Returns current, real-time information from the internet. Use this for current events, recent news, fact-checking, or any query requiring up-to-date information.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to look up",
				},
			},
			"required": []string{"query"},
		},
	}
}

// formatResults renders the top results as a numbered human-readable block.
// An empty result set yields just the header; generation proceeds anyway.
func formatResults(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\nURL: %s\n\n", i+1, r.Title, r.Description, r.URL)
	}
	return b.String()
}
