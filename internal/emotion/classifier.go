package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/study-buddy-core/server/pkg/markdown"
)

// Classifier labels the mood of a message for tone guidance.
type Classifier interface {
	Classify(ctx context.Context, text string) (Label, error)
}

// Config selects and configures a Classifier.
type Config struct {
	Classifier string `envconfig:"EMOTION_CLASSIFIER" default:"heuristic"`
	Model      string `envconfig:"EMOTION_MODEL" default:"bhadresh-savani/distilbert-base-uncased-emotion"`
	ModelDir   string `envconfig:"EMOTION_MODEL_DIR" default:"./models"`
}

const (
	ClassifierHeuristic   = "heuristic"
	ClassifierVader       = "vader"
	ClassifierTransformer = "transformer"
)

// NewClassifier builds the classifier named in cfg.
// The transformer classifier owns native resources; callers should Close it.
func NewClassifier(cfg Config) (Classifier, error) {
	switch strings.ToLower(cfg.Classifier) {
	case "", ClassifierHeuristic:
		return HeuristicClassifier{}, nil
	case ClassifierVader:
		return NewVaderClassifier(), nil
	case ClassifierTransformer:
		tc, err := NewTransformerClassifier(cfg)
		if err != nil {
			return nil, err
		}
		return tc, nil
	default:
		return nil, fmt.Errorf("unknown emotion classifier %q", cfg.Classifier)
	}
}

// HeuristicClassifier uses the dominant emotion of Detect.
type HeuristicClassifier struct{}

func (HeuristicClassifier) Classify(_ context.Context, text string) (Label, error) {
	return Detect(text).Emotion, nil
}

// VaderClassifier maps the VADER compound polarity onto labels, using the
// keyword table to separate anger from sadness and to break ties near zero.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderClassifier) Classify(_ context.Context, text string) (Label, error) {
	plain := markdown.ToText(text)
	compound := v.analyzer.PolarityScores(plain).Compound
	keywords := keywordEmotions(plain)

	switch {
	case compound >= 0.5:
		return Happy, nil
	case compound <= -0.5:
		return Sad, nil
	case compound <= -0.2:
		if containsLabel(keywords, Angry) {
			return Angry, nil
		}
		return Sad, nil
	case compound >= 0.2:
		return Happy, nil
	default:
		return keywords[0], nil
	}
}

func containsLabel(labels []Label, l Label) bool {
	for _, got := range labels {
		if got == l {
			return true
		}
	}
	return false
}

var (
	_ Classifier = HeuristicClassifier{}
	_ Classifier = (*VaderClassifier)(nil)
)
