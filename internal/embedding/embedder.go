// Package embedding provides text embedding generation with multiple backend
// support: a remote OpenAI-compatible provider and a deterministic local
// TF-IDF fallback.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, chunked internally
	// to bound request size.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// ProviderType identifies the embedding provider.
type ProviderType string

const (
	// ProviderOpenAI uses an OpenAI-compatible embeddings API.
	ProviderOpenAI ProviderType = "openai"

	// ProviderLocal uses the deterministic in-process TF-IDF embedder.
	ProviderLocal ProviderType = "local"
)

// Config holds configuration for creating an Embedder.
type Config struct {
	// Provider specifies which embedding backend to use.
	Provider ProviderType

	// Model is the embedding model name (remote providers only).
	Model string

	// OpenAI-specific.
	APIKey  string
	BaseURL string

	// BatchSize bounds the number of texts per remote request. 0 uses the
	// provider default.
	BatchSize int

	// Timeout bounds each remote call. 0 uses the provider default.
	Timeout time.Duration
}

// New creates an Embedder based on the provided configuration.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		// Default to the local deterministic embedder; it needs no network
		// access and still works when the process runs offline.
		return NewLocalEmbedder(), nil

	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
