package notes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const (
	DefaultChunkWords = 500
	DefaultTopK       = 3

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	ChunkWords     int    `envconfig:"NOTES_CHUNK_WORDS" default:"500"`
	TopK           int    `envconfig:"NOTES_TOP_K" default:"3"`
	EmbeddingModel string `envconfig:"NOTES_EMBEDDING_MODEL" default:"text-embedding-004"`
	Store          string `envconfig:"NOTES_STORE" default:"redis"`
}

type Service struct {
	store      Store
	embedder   embedding.Embedder
	chunkWords int
}

func NewService(store Store, embedder embedding.Embedder, cfg Config) *Service {
	if cfg.ChunkWords <= 0 {
		cfg.ChunkWords = DefaultChunkWords
	}
	return &Service{store: store, embedder: embedder, chunkWords: cfg.ChunkWords}
}

// Upload extracts, chunks and embeds a file, then appends the chunks to the
// user's notes. It returns the number of chunks stored.
func (s *Service) Upload(ctx context.Context, userID, filename string, data []byte) (int, error) {
	text, err := Extract(filename, data)
	if errors.Is(err, ErrEmptyFile) {
		return 0, errx.New(err, http.StatusBadRequest, "Uploaded file is empty")
	}
	if err != nil {
		return 0, errx.New(err, http.StatusInternalServerError, fmt.Sprintf("Failed to parse file: %v", err))
	}

	chunks := Chunk(text, s.chunkWords)
	if len(chunks) == 0 {
		return 0, nil
	}
	vectors, err := s.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed notes: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed notes: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]Entry, len(chunks))
	for i := range chunks {
		entries[i] = Entry{Text: chunks[i], Vector: vectors[i]}
	}
	if err := s.store.Append(ctx, userID, entries); err != nil {
		return 0, fmt.Errorf("store notes: %w", err)
	}
	logx.Info().Str("user_id", userID).Str("file", filename).Int("chunks", len(entries)).Msg("Notes stored")
	return len(entries), nil
}

// Retrieve returns the texts of the k chunks most similar to query, best first.
func (s *Service) Retrieve(ctx context.Context, userID, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	entries, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if len(entries) == 0 || strings.TrimSpace(query) == "" {
		return []string{}, nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	q := vectors[0]

	type scored struct {
		score float64
		text  string
	}
	ranked := make([]scored, len(entries))
	for i, e := range entries {
		ranked[i] = scored{score: Dot(q, e.Vector), text: e.Text}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]string, 0, min(k, len(ranked)))
	for _, r := range ranked[:min(k, len(ranked))] {
		out = append(out, r.text)
	}
	return out, nil
}

// All returns every stored chunk of the user in upload order.
func (s *Service) All(ctx context.Context, userID string) ([]string, error) {
	entries, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out, nil
}
