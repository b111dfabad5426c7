// Package service wires the ConRumbo core together: embedding provider,
// corpus, retrieval index, triage engine, steps player, and guardrails, with
// an atomic reload path for the corpus snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/config"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/corpus"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/embedding"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/index"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/metrics"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/player"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/safety"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/triage"
)

// Sentinel errors surfaced to callers.
var (
	ErrProtocolNotFound = errors.New("protocol not found")
	ErrSessionNotFound  = errors.New("session not found")
)

// Service owns the core components. Construction order: embedding client,
// corpus, index, intent tables; the index pointer is swapped whole on
// reload so readers never observe a partial snapshot.
type Service struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Collector

	embedder embedding.Embedder
	guard    *safety.Guardrails
	intents  index.IntentTable

	triage *triage.Engine
	player *player.Player

	idx atomic.Pointer[index.Index]
}

// New builds the service and performs the initial corpus load.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	embedder, err := embedding.New(embedding.Config{
		Provider:  embedding.ProviderType(cfg.EmbeddingProvider),
		Model:     cfg.EmbeddingModel,
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		BatchSize: cfg.EmbedBatchSize,
		Timeout:   cfg.EmbedTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	intents := index.DefaultIntentTable()
	if cfg.IntentsFile != "" {
		intents, err = index.LoadIntentTable(cfg.IntentsFile)
		if err != nil {
			return nil, fmt.Errorf("load intent table: %w", err)
		}
	}

	vocab := player.DefaultVocabulary()
	if cfg.VocabFile != "" {
		vocab, err = player.LoadVocabulary(cfg.VocabFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
	}

	s := &Service{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewCollector(),
		embedder: embedder,
		guard:    safety.New(cfg.EmergencyNumber),
		intents:  intents,
	}
	s.triage = triage.New(s, logger)
	s.player = player.New(s, vocab, logger)

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the corpus and retrieval index and swaps them in whole.
// Live sessions keep their protocol references; a session whose protocol
// disappeared fails gracefully on its next step.
func (s *Service) Reload(ctx context.Context) error {
	start := time.Now()

	c, err := corpus.LoadAll(s.cfg.ProtocolsDir, s.logger)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	// Each snapshot owns its embedding state: the TF-IDF provider is prepared
	// fresh per reload, so an index still serving readers keeps the vectors
	// and vocabulary it was built with.
	emb := s.embedder
	if _, ok := emb.(*embedding.LocalEmbedder); ok && c.Len() > 0 {
		docs := make([]string, 0, c.Len())
		for _, id := range c.Order {
			docs = append(docs, index.DocumentText(c.Protocols[id]))
		}
		local := embedding.NewLocalEmbedder()
		if err := local.Prepare(docs); err != nil {
			s.logger.Warn("local embedder prepare failed, semantic search disabled", "error", err)
		} else {
			emb = local
		}
	}

	idx := index.Build(ctx, c, &timedEmbedder{inner: emb, metrics: s.metrics}, s.intents, s.logger)
	s.idx.Store(idx)

	s.metrics.RecordTiming(metrics.OpReload, time.Since(start))
	return nil
}

// Protocol implements the retriever lookup used by triage and the player.
func (s *Service) Protocol(id string) (*models.Protocol, bool) {
	return s.idx.Load().Protocol(id)
}

// GetProtocol is the caller-facing lookup with a sentinel error.
func (s *Service) GetProtocol(id string) (*models.Protocol, error) {
	p, ok := s.Protocol(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProtocolNotFound, id)
	}
	return p, nil
}

// Search runs hybrid retrieval against the current index snapshot.
func (s *Service) Search(ctx context.Context, query string, sctx *models.SearchContext, topK int) []models.SearchResult {
	start := time.Now()
	results := s.idx.Load().Search(ctx, query, sctx, topK)
	s.metrics.RecordTiming(metrics.OpSearch, time.Since(start))
	return results
}

// Triage evaluates symptom signals into a risk level and protocol choice.
func (s *Service) Triage(ctx context.Context, signals models.TriageSignals) models.TriageResult {
	start := time.Now()
	result := s.triage.Evaluate(ctx, signals)
	s.metrics.RecordTiming(metrics.OpTriage, time.Since(start))
	return result
}

// NextStep advances a session's protocol walk.
func (s *Service) NextStep(req player.NextRequest) models.StepResponse {
	start := time.Now()
	resp := s.player.Next(req)
	s.metrics.RecordTiming(metrics.OpStep, time.Since(start))
	return resp
}

// ResetSession removes a live session.
func (s *Service) ResetSession(sessionID string) {
	s.player.Reset(sessionID)
}

// SessionStatus returns a copy of a live session.
func (s *Service) SessionStatus(sessionID string) (models.Session, error) {
	sess, ok := s.player.Status(sessionID)
	if !ok {
		return models.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// ListProtocols returns listing summaries in corpus order.
func (s *Service) ListProtocols() []models.ProtocolSummary {
	return s.idx.Load().Protocols()
}

// ProtocolCount returns the number of loaded protocols.
func (s *Service) ProtocolCount() int {
	return s.idx.Load().Count()
}

// ActiveSessions returns the number of live sessions.
func (s *Service) ActiveSessions() int {
	return s.player.ActiveSessions()
}

// Guardrails exposes the safety checks to the transport layer.
func (s *Service) Guardrails() *safety.Guardrails {
	return s.guard
}

// Stats returns a snapshot of runtime metrics.
func (s *Service) Stats() metrics.Snapshot {
	return s.metrics.Snapshot()
}

// timedEmbedder records embedding call timings around the wrapped provider.
// It covers both the corpus batch embed at build time and query embeds.
type timedEmbedder struct {
	inner   embedding.Embedder
	metrics *metrics.Collector
}

var _ embedding.Embedder = (*timedEmbedder)(nil)

func (t *timedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := t.inner.Embed(ctx, text)
	t.metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))
	return vec, err
}

func (t *timedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := t.inner.EmbedBatch(ctx, texts)
	t.metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))
	return vecs, err
}

func (t *timedEmbedder) Model() string  { return t.inner.Model() }
func (t *timedEmbedder) Dimension() int { return t.inner.Dimension() }
