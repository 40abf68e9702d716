package graph

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/agent/graph/observers"
	"github.com/study-buddy-core/server/internal/agent/graph/prompts"
	"github.com/study-buddy-core/server/internal/agent/model"
)

// Summarizer runs single-shot persona prompts outside the reply graph:
// note summaries and connectivity checks.
type Summarizer struct {
	chain compose.Runnable[[]*schema.Message, *schema.Message]
}

func NewSummarizer(ctx context.Context, cm einomodel.BaseChatModel) (*Summarizer, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	chain, err := compose.NewChain[[]*schema.Message, *schema.Message]().
		AppendChatModel(cm).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile summary chain: %w", err)
	}
	return &Summarizer{chain: chain}, nil
}

// Summarize asks for a structured summary of the given note chunks.
func (s *Summarizer) Summarize(ctx context.Context, personaID string, chunks []string) (string, error) {
	msgs, err := prompts.RenderSummary(ctx, model.ResolvePersona(personaID), chunks)
	if err != nil {
		return "", err
	}
	return s.run(ctx, msgs)
}

// Ask sends one message in the persona's voice with no history.
func (s *Summarizer) Ask(ctx context.Context, personaID, message string) (string, error) {
	msgs, err := prompts.RenderDirect(ctx, model.ResolvePersona(personaID), message)
	if err != nil {
		return "", err
	}
	return s.run(ctx, msgs)
}

func (s *Summarizer) run(ctx context.Context, msgs []*schema.Message) (string, error) {
	out, err := s.chain.Invoke(ctx, msgs, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", ErrEmptyReply
	}
	return out.Content, nil
}
