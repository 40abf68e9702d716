package emotion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	logx "github.com/study-buddy-core/server/pkg/logger"
)

// transformerLabels maps the six labels of the emotion dataset onto ours.
var transformerLabels = map[string]Label{
	"joy":      Happy,
	"love":     Happy,
	"sadness":  Sad,
	"anger":    Angry,
	"fear":     Anxious,
	"surprise": Neutral,
}

// MapTransformerLabel converts a classifier label such as "joy" into a Label.
func MapTransformerLabel(raw string) (Label, bool) {
	l, ok := transformerLabels[strings.ToLower(raw)]
	return l, ok
}

// TransformerClassifier runs a text-classification model through an ONNX
// runtime session. Failures fall back to the heuristic label.
type TransformerClassifier struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	fallback Classifier
}

func NewTransformerClassifier(cfg Config) (*TransformerClassifier, error) {
	if err := os.MkdirAll(cfg.ModelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	modelPath := filepath.Join(cfg.ModelDir, strings.ReplaceAll(cfg.Model, "/", "_"))
	if _, err := os.Stat(modelPath); errors.Is(err, os.ErrNotExist) {
		logx.Info().Str("model", cfg.Model).Msg("emotion model not found, downloading")
		modelPath, err = hugot.DownloadModel(cfg.Model, cfg.ModelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("download emotion model: %w", err)
		}
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "emotionClassifier",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create emotion pipeline: %w", err)
	}

	logx.Info().Str("path", modelPath).Msg("emotion model loaded")
	return &TransformerClassifier{
		session:  session,
		pipeline: pipeline,
		fallback: HeuristicClassifier{},
	}, nil
}

func (t *TransformerClassifier) Classify(ctx context.Context, text string) (Label, error) {
	t.mu.Lock()
	out, err := t.pipeline.RunPipeline([]string{text})
	t.mu.Unlock()
	if err != nil {
		logx.Warn().Err(err).Msg("emotion pipeline failed, using heuristic")
		return t.fallback.Classify(ctx, text)
	}

	if len(out.ClassificationOutputs) == 0 || len(out.ClassificationOutputs[0]) == 0 {
		return t.fallback.Classify(ctx, text)
	}

	best := out.ClassificationOutputs[0][0]
	for _, c := range out.ClassificationOutputs[0][1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	label, ok := MapTransformerLabel(best.Label)
	if !ok {
		logx.Warn().Str("label", best.Label).Msg("unknown emotion label, using heuristic")
		return t.fallback.Classify(ctx, text)
	}
	return label, nil
}

// Close releases the ONNX session.
func (t *TransformerClassifier) Close() error {
	return t.session.Destroy()
}

var _ Classifier = (*TransformerClassifier)(nil)
