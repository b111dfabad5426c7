// Package index builds and serves the hybrid retrieval index: an exact-match
// intent table combined with a flat inner-product vector index over the
// protocol corpus. An Index is immutable once built; reloads build a fresh
// one and swap it in whole.
package index

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/corpus"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/embedding"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

// Index serves hybrid search over one corpus snapshot.
type Index struct {
	logger   *slog.Logger
	embedder embedding.Embedder
	corpus   *corpus.Corpus
	intents  IntentTable

	// vectors holds one L2-normalized embedding per corpus.Order entry.
	// nil when the embedding provider failed at build time; search then
	// degrades to exact-match-only.
	vectors [][]float32
}

// DocumentText concatenates the searchable fields of a protocol into the
// text that gets embedded: title, step instructions and voice cues, triage
// red flags and immediate action, and top-level voice cues.
func DocumentText(p *models.Protocol) string {
	parts := []string{p.Title}
	for i := range p.Steps {
		if t := p.Steps[i].Text(); t != "" {
			parts = append(parts, t)
		}
		if p.Steps[i].VoiceCue != "" {
			parts = append(parts, p.Steps[i].VoiceCue)
		}
	}
	if p.Triage != nil {
		for _, f := range p.Triage.RedFlags {
			if f != "" {
				parts = append(parts, f)
			}
		}
		if p.Triage.ImmediateAction != "" {
			parts = append(parts, p.Triage.ImmediateAction)
		}
	}
	for _, v := range p.VoiceCues {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Build constructs an index over the given corpus. Embedding failures are
// logged and leave the index in exact-match-only mode; Build itself never
// fails on a degraded embedding provider.
func Build(ctx context.Context, c *corpus.Corpus, emb embedding.Embedder, intents IntentTable, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	if intents == nil {
		intents = DefaultIntentTable()
	}

	idx := &Index{
		logger:   logger,
		embedder: emb,
		corpus:   c,
		intents:  intents,
	}

	if c.Len() == 0 {
		logger.Warn("no protocols loaded, index is empty")
		return idx
	}
	if emb == nil {
		logger.Warn("no embedding provider, semantic search disabled")
		return idx
	}

	docs := make([]string, 0, c.Len())
	for _, id := range c.Order {
		docs = append(docs, DocumentText(c.Protocols[id]))
	}

	vectors, err := emb.EmbedBatch(ctx, docs)
	if err != nil || len(vectors) != len(docs) {
		logger.Warn("corpus embedding failed, semantic search disabled",
			"error", err, "model", emb.Model())
		return idx
	}
	for _, v := range vectors {
		// Zero-norm vectors stay as-is and simply never score.
		normalize(v)
	}
	idx.vectors = vectors

	logger.Info("retrieval index built",
		"protocols", c.Len(), "dimension", emb.Dimension(), "model", emb.Model())
	return idx
}

// Protocol looks up a protocol by id.
func (idx *Index) Protocol(id string) (*models.Protocol, bool) {
	return idx.corpus.Get(id)
}

// Protocols returns listing summaries in corpus order.
func (idx *Index) Protocols() []models.ProtocolSummary {
	out := make([]models.ProtocolSummary, 0, idx.corpus.Len())
	for _, id := range idx.corpus.Order {
		p := idx.corpus.Protocols[id]
		out = append(out, models.ProtocolSummary{
			ID:        p.ID,
			Title:     p.Title,
			Version:   p.Version,
			Age:       p.Metadata.Age,
			Risk:      p.Metadata.Risk,
			StepCount: len(p.Steps),
		})
	}
	return out
}

// Count returns the number of indexed protocols.
func (idx *Index) Count() int { return idx.corpus.Len() }

// Search runs hybrid retrieval: exact intent matches first (score 1.0,
// optionally age-filtered), then semantic similarity to fill up to topK.
// Deterministic for a fixed corpus and embeddings; semantic ties break by
// corpus insertion order.
func (idx *Index) Search(ctx context.Context, query string, sctx *models.SearchContext, topK int) []models.SearchResult {
	if topK <= 0 || idx.corpus.Len() == 0 {
		return nil
	}

	queryLower := strings.ToLower(query)

	var exactIDs []string
	seen := make(map[string]struct{})
	for _, entry := range idx.intents {
		if !strings.Contains(queryLower, entry.Phrase) {
			continue
		}
		for _, pid := range entry.Protocols {
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			exactIDs = append(exactIDs, pid)
		}
	}

	if sctx != nil && sctx.Age != "" {
		filtered := exactIDs[:0]
		for _, pid := range exactIDs {
			if idx.matchesAge(pid, sctx.Age) {
				filtered = append(filtered, pid)
			}
		}
		exactIDs = filtered
	}

	var results []models.SearchResult
	for _, pid := range exactIDs {
		if len(results) >= topK {
			break
		}
		p, ok := idx.corpus.Get(pid)
		if !ok {
			continue
		}
		results = append(results, models.SearchResult{
			ProtocolID:     pid,
			Title:          p.Title,
			RelevanceScore: 1.0,
			Snippet:        snippet(p),
		})
	}

	if remaining := topK - len(results); remaining > 0 {
		present := make(map[string]struct{}, len(results))
		for _, r := range results {
			present[r.ProtocolID] = struct{}{}
		}
		for _, r := range idx.semanticSearch(ctx, query, remaining, present) {
			results = append(results, r)
		}
	}

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// semanticSearch ranks all indexed protocols by inner product against the
// query embedding. Returns nil when the provider fails or the query has no
// signal: retrieval degrades, it never fails.
func (idx *Index) semanticSearch(ctx context.Context, query string, topK int, exclude map[string]struct{}) []models.SearchResult {
	if topK <= 0 || idx.vectors == nil {
		return nil
	}

	qv, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		idx.logger.Warn("query embedding failed, exact-match only", "error", err)
		return nil
	}
	if !normalize(qv) {
		return nil
	}

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(idx.vectors))
	for i, v := range idx.vectors {
		scores[i] = scored{pos: i, score: dot(v, qv)}
	}
	// Stable sort so equal scores keep corpus insertion order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	var results []models.SearchResult
	for _, s := range scores {
		if len(results) >= topK {
			break
		}
		pid := idx.corpus.Order[s.pos]
		if _, skip := exclude[pid]; skip {
			continue
		}
		p := idx.corpus.Protocols[pid]
		results = append(results, models.SearchResult{
			ProtocolID:     pid,
			Title:          p.Title,
			RelevanceScore: s.score,
			Snippet:        snippet(p),
		})
	}
	return results
}

// matchesAge applies the adult/child/infant bucket logic. Protocols without
// an age tag match everything, as do unrecognized caller buckets.
func (idx *Index) matchesAge(protocolID, age string) bool {
	p, ok := idx.corpus.Get(protocolID)
	if !ok || p.Metadata.Age == "" {
		return true
	}
	tag := strings.ToLower(p.Metadata.Age)

	switch strings.ToLower(age) {
	case "adulto", "adult":
		return strings.Contains(tag, "adulto")
	case "niño", "nino", "child":
		return strings.Contains(tag, "niño") || strings.Contains(tag, "nino")
	case "lactante", "bebé", "bebe", "infant":
		return strings.Contains(tag, "lactante")
	}
	return true
}

// snippet picks the most useful short text for a result: the protocol's
// immediate action, else the first step, else the title.
func snippet(p *models.Protocol) string {
	if p.Triage != nil && p.Triage.ImmediateAction != "" {
		return p.Triage.ImmediateAction
	}
	if len(p.Steps) > 0 {
		if t := p.Steps[0].Text(); t != "" {
			return t
		}
	}
	return p.Title
}
