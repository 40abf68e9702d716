package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/emotion"
)

//go:embed template/response_prompt.txt
var coreSystemPrompt string

// ResponseVars is what the reply system prompt is rendered from.
type ResponseVars struct {
	Persona   model.Persona
	StudyMode model.StudyMode
	Language  model.Language
	Mood      emotion.Label
	Passages  []string
	Tools     []string
}

// RenderResponseSystem renders the reply system prompt and triggers prompt callbacks.
func RenderResponseSystem(ctx context.Context, v ResponseVars) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)
	vars := map[string]any{
		"PersonaPrompt":   v.Persona.Prompt,
		"PersonaName":     v.Persona.Name,
		"StudyModePrompt": StudyModePrompt(v.StudyMode, v.Language),
		"Guidance":        emotion.Guidance(v.Mood),
		"Passages":        v.Passages,
		"Tools":           v.Tools,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}
