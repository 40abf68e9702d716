package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestParseStudyMode(t *testing.T) {
	assert.Equal(t, Review, ParseStudyMode("review"))
	assert.Equal(t, BreakMode, ParseStudyMode("break-mode"))
	assert.Equal(t, ActiveLearning, ParseStudyMode("cramming"))
	assert.Equal(t, ActiveLearning, ParseStudyMode(""))
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, Japanese, ParseLanguage("ja"))
	assert.Equal(t, English, ParseLanguage("pt"))
}

func TestResolvePersona(t *testing.T) {
	assert.Equal(t, "The Mentor", ResolvePersona("3").Name)
	assert.Equal(t, "The Cheerleader", ResolvePersona("9").Name)
	assert.True(t, IsPersona("2"))
	assert.False(t, IsPersona("4"))

	ps := Personas()
	assert.Len(t, ps, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{ps[0].ID, ps[1].ID, ps[2].ID})
	assert.Len(t, PersonaMap(), 3)
}

func TestHistory_Recent(t *testing.T) {
	h := NewHistory("s1", QueryInput{StudyMode: Focused, Language: German})
	for i := 0; i < 12; i++ {
		h.Append(Message{Text: string(rune('a' + i)), IsUser: i%2 == 0})
	}

	assert.Equal(t, Focused, h.StudyMode)
	assert.Len(t, h.Recent(10), 10)
	assert.Equal(t, "c", h.Recent(10)[0].Text)
	assert.Len(t, h.Recent(0), 12)
	assert.Len(t, h.Recent(50), 12)
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 2_000_000}, ResolvePricing("models/gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 5.00, out, 1e-9)
	assert.InDelta(t, 5.30, total, 1e-9)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, total)
	assert.Equal(t, Pricing{}, ResolvePricing("unknown"))
}
