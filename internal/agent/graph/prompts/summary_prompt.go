package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/agent/model"
)

//go:embed template/summary_prompt.txt
var summaryInstruction string

// RenderSummary builds the note summary request. Note text is spliced in
// verbatim, so it goes through a messages placeholder rather than a template.
func RenderSummary(ctx context.Context, persona model.Persona, chunks []string) ([]*schema.Message, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(summaryInstruction))
	b.WriteString("\n\nNotes content:\n")
	b.WriteString(strings.Join(chunks, "\n\n"))
	b.WriteString("\n\nPlease provide a well-organized summary.")

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"messages": []*schema.Message{
			schema.SystemMessage(persona.Prompt),
			schema.UserMessage(b.String()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summary prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("summary prompt render: empty result")
	}
	return msgs, nil
}

// RenderDirect wraps a single student message with the persona prompt.
func RenderDirect(ctx context.Context, persona model.Persona, message string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"messages": []*schema.Message{
			schema.SystemMessage(persona.Prompt),
			schema.UserMessage(message),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("direct prompt render: %w", err)
	}
	return msgs, nil
}
