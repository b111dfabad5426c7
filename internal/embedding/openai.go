package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel produces 1536-dimensional vectors.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimension is the dimension for text-embedding-3-small.
	DefaultOpenAIDimension = 1536

	// DefaultBatchSize bounds the number of inputs per embeddings request.
	DefaultBatchSize = 128

	// DefaultTimeout bounds each remote embeddings call so a slow provider
	// degrades retrieval instead of stalling it.
	DefaultTimeout = 10 * time.Second
)

// OpenAIClient implements Embedder against an OpenAI-compatible API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
	timeout   time.Duration
}

// Compile-time check that OpenAIClient implements Embedder.
var _ Embedder = (*OpenAIClient)(nil)

// NewOpenAIClient creates a remote embedding client. Zero values in cfg fall
// back to the package defaults.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		dimension: DefaultOpenAIDimension,
		batchSize: batch,
		timeout:   timeout,
	}
}

// Model returns the configured embedding model name.
func (c *OpenAIClient) Model() string { return c.model }

// Dimension returns the embedding vector dimension.
func (c *OpenAIClient) Dimension() int { return c.dimension }

// cleanText collapses newlines; embedding models handle single-line input
// more consistently.
func cleanText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

// Embed generates an embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embedChunk(ctx, []string{cleanText(text)})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, chunking requests to
// bound request size.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = cleanText(t)
	}

	out := make([][]float32, 0, len(cleaned))
	for start := 0; start < len(cleaned); start += c.batchSize {
		end := start + c.batchSize
		if end > len(cleaned) {
			end = len(cleaned)
		}
		vecs, err := c.embedChunk(ctx, cleaned[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *OpenAIClient) embedChunk(ctx context.Context, inputs []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: inputs,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d",
			len(resp.Data), len(inputs))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
