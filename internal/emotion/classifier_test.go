package emotion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier(Config{})
	require.NoError(t, err)
	assert.IsType(t, HeuristicClassifier{}, c)

	c, err = NewClassifier(Config{Classifier: "VADER"})
	require.NoError(t, err)
	assert.IsType(t, &VaderClassifier{}, c)

	_, err = NewClassifier(Config{Classifier: "tarot"})
	assert.Error(t, err)
}

func TestHeuristicClassifier(t *testing.T) {
	got, err := HeuristicClassifier{}.Classify(context.Background(), "I hate this terrible awful thing")
	require.NoError(t, err)
	assert.Equal(t, Sad, got)
}

func TestVaderClassifier(t *testing.T) {
	c := NewVaderClassifier()
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want Label
	}{
		{"strongly positive", "I love this class, it is wonderful and amazing!", Happy},
		{"strongly negative", "This is terrible, I hate it and everything is awful.", Sad},
		{"flat falls back to keywords", "the lecture is on tuesday", Neutral},
		{"markdown is stripped", "**I love this**, it is _wonderful_ and [great](https://example.com)!", Happy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapTransformerLabel(t *testing.T) {
	tests := map[string]Label{
		"joy":      Happy,
		"LOVE":     Happy,
		"sadness":  Sad,
		"anger":    Angry,
		"fear":     Anxious,
		"surprise": Neutral,
	}
	for raw, want := range tests {
		got, ok := MapTransformerLabel(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := MapTransformerLabel("boredom")
	assert.False(t, ok)
}

func TestGuidance(t *testing.T) {
	for _, l := range Labels {
		assert.NotEmpty(t, Guidance(l), l)
	}
	assert.Empty(t, Guidance(Label("bored")))
}
