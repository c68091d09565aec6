// Package turn drives one conversational turn: compose the model request
// from persona context plus bounded history, run the model, execute at most
// one tool call, and extract the assistant-visible text. The pipeline never
// lets a failure escape; the transport has no other way to tell the user
// something went wrong than a degraded text reply.
package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Replier produces the assistant reply for one inbound message. Strategies:
// Generator (model-backed) and Rules (canned replies).
type Replier interface {
	Reply(ctx context.Context, userText string) (string, error)
}

type Pipeline struct {
	replier Replier
	log     *slog.Logger
}

func NewPipeline(replier Replier, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{replier: replier, log: log}
}

// Respond runs one turn end to end. It always returns non-empty text: any
// pipeline failure degrades to an apology that names the underlying error.
func (p *Pipeline) Respond(ctx context.Context, userText string) string {
	runID := newRunID()
	log := p.log.With("run_id", runID)
	log.Info("turn_start", "text_len", len(userText))

	reply, err := p.replier.Reply(ctx, userText)
	if err != nil {
		log.Warn("turn_degraded", "error", err.Error())
		return fmt.Sprintf("I hear you, Greg! (AI temporarily unavailable - %v) 🌅", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = "(empty)"
	}
	log.Info("turn_done", "reply_len", len(reply))
	return reply
}

func newRunID() string {
	id := uuid.NewString()
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
