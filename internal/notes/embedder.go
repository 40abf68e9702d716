package notes

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	errx "github.com/study-buddy-core/server/internal/core/error"
)

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	// genai rejects larger batches.
	maxEmbedBatch = 100
)

// GeminiEmbedder computes unit-length note embeddings with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)

func NewGeminiEmbedder(client *genai.Client, model string) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)
	model := e.model
	if options.Model != nil && *options.Model != "" {
		model = *options.Model
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, model, contents, &genai.EmbedContentConfig{TaskType: taskRetrievalDocument})
		if err != nil {
			return nil, errx.Upstream(fmt.Errorf("embed content: %w", err))
		}
		if len(resp.Embeddings) != end-start {
			return nil, errx.Upstream(fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), end-start))
		}
		for _, emb := range resp.Embeddings {
			vec := make([]float64, len(emb.Values))
			for i, v := range emb.Values {
				vec[i] = float64(v)
			}
			out = append(out, Normalize(vec))
		}
	}
	return out, nil
}

// Normalize scales v to unit length in place. Zero vectors are returned unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Dot is the similarity of two unit vectors. Extra dimensions are ignored.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}
