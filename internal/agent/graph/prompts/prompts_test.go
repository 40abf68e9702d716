package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/emotion"
)

func TestStudyModePrompt(t *testing.T) {
	for _, m := range model.StudyModes {
		for _, l := range model.Languages {
			assert.NotEmpty(t, studyModePrompts[m][l], "%s/%s", m, l)
		}
	}

	assert.Contains(t, StudyModePrompt(model.Focused, model.English), "focused, concise study guide")
	assert.Contains(t, StudyModePrompt(model.Review, model.Spanish), "cuestionario")
	assert.Equal(t,
		StudyModePrompt(model.ActiveLearning, model.English),
		StudyModePrompt(model.StudyMode("cramming"), model.Language("xx")),
	)
}

func TestRenderResponseSystem(t *testing.T) {
	ctx := context.Background()
	persona := model.ResolvePersona("3")

	got, err := RenderResponseSystem(ctx, ResponseVars{
		Persona:   persona,
		StudyMode: model.BreakMode,
		Language:  model.English,
		Mood:      emotion.Anxious,
	})
	require.NoError(t, err)

	assert.Contains(t, got, persona.Prompt)
	assert.Contains(t, got, "friendly, relaxed study companion")
	assert.Contains(t, got, emotion.Guidance(emotion.Anxious))
	assert.Contains(t, got, "Respond naturally as The Mentor")
	assert.NotContains(t, got, "excerpts from the student's notes")
	assert.NotContains(t, got, "You may call these tools")
}

func TestRenderResponseSystem_NotesAndTools(t *testing.T) {
	got, err := RenderResponseSystem(context.Background(), ResponseVars{
		Persona:   model.ResolvePersona(""),
		StudyMode: model.ActiveLearning,
		Language:  model.French,
		Mood:      emotion.Happy,
		Passages:  []string{"Mitochondria make ATP.", "Ribosomes {{build}} proteins."},
		Tools:     []string{"search_notes", "get_study_progress"},
	})
	require.NoError(t, err)

	assert.Contains(t, got, "méthode socratique")
	assert.Contains(t, got, "Here are some relevant excerpts from the student's notes:")
	assert.Contains(t, got, "Mitochondria make ATP.")
	assert.Contains(t, got, "Ribosomes {{build}} proteins.")
	assert.Contains(t, got, "search_notes, get_study_progress")
}

func TestRenderSummary(t *testing.T) {
	persona := model.ResolvePersona("2")
	msgs, err := RenderSummary(context.Background(), persona, []string{"chunk {one}", "chunk two"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, persona.Prompt, msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Notes content:\nchunk {one}\n\nchunk two")
	assert.Contains(t, msgs[1].Content, "well-organized summary")
}

func TestRenderDirect(t *testing.T) {
	msgs, err := RenderDirect(context.Background(), model.ResolvePersona("1"), "Hello! Can you help me study?")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello! Can you help me study?", msgs[1].Content)
}
