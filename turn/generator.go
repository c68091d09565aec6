package turn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wientjes/nanoclaw/history"
	"github.com/wientjes/nanoclaw/llm"
	"github.com/wientjes/nanoclaw/persona"
	"github.com/wientjes/nanoclaw/search"
)

// Searcher is the one tool the model may call during a turn.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

type GeneratorConfig struct {
	Model      string
	MaxTokens  int
	PersonaDir string
	Window     int
}

// Generator is the model-backed reply strategy.
type Generator struct {
	client  llm.Client
	history *history.Store
	search  Searcher
	cfg     GeneratorConfig
	log     *slog.Logger
	now     func() time.Time
}

func NewGenerator(client llm.Client, hist *history.Store, searcher Searcher, cfg GeneratorConfig, log *slog.Logger) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Window <= 0 {
		cfg.Window = history.DefaultWindow
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		client:  client,
		history: hist,
		search:  searcher,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (g *Generator) Reply(ctx context.Context, userText string) (string, error) {
	bundle := persona.Load(g.cfg.PersonaDir)
	systemPrompt := bundle.Render() + behavioralDirective(g.now())

	messages := make([]llm.Message, 0, 2*g.cfg.Window+4)
	for _, e := range g.history.Load(g.cfg.Window) {
		messages = append(messages,
			llm.Text(llm.RoleUser, e.User),
			llm.Text(llm.RoleAssistant, e.Assistant),
		)
	}
	messages = append(messages, llm.Text(llm.RoleUser, userText))

	req := llm.Request{
		Model:     g.cfg.Model,
		System:    systemPrompt,
		Messages:  messages,
		Tools:     []llm.ToolSpec{searchToolSpec()},
		MaxTokens: g.cfg.MaxTokens,
	}

	resp, err := g.client.Messages(ctx, req)
	if err != nil {
		return "", err
	}

	final := resp
	if tool, ok := resp.FirstToolUse(); ok && resp.StopReason == llm.StopReasonToolUse && tool.Name == searchToolName {
		final, err = g.runToolStep(ctx, req, resp, tool)
		if err != nil {
			return "", err
		}
	}

	text := final.JoinedText()

	e := history.NewExchange(userText, text, g.now())
	if err := g.history.Append(e); err != nil {
		// The reply is already generated; losing one history entry is
		// preferable to dropping the turn.
		g.log.Warn("history_append_error", "error", err.Error())
	}
	return text, nil
}

// runToolStep executes the requested search and issues exactly one follow-up
// model invocation. A failed search is reported back to the model as an
// error tool result rather than aborting the turn.
func (g *Generator) runToolStep(ctx context.Context, req llm.Request, resp llm.Response, tool llm.ContentBlock) (llm.Response, error) {
	query, _ := tool.Input["query"].(string)
	g.log.Info("search_tool_invoked", "query", query)

	toolResult := llm.ContentBlock{
		Type:      llm.BlockToolResult,
		ToolUseID: tool.ID,
	}
	results, err := g.search.Search(ctx, query)
	if err != nil {
		g.log.Warn("search_tool_error", "error", err.Error())
		toolResult.Content = fmt.Sprintf("Search failed: %v", err)
		toolResult.IsError = true
	} else {
		toolResult.Content = formatResults(query, results)
	}

	// Preserve turn order: the model's own tool-requesting message comes
	// before the correlated tool result.
	req.Messages = append(req.Messages,
		llm.Message{Role: llm.RoleAssistant, Content: resp.Content},
		llm.Message{Role: llm.RoleUser, Content: []llm.ContentBlock{toolResult}},
	)
	return g.client.Messages(ctx, req)
}
