package index_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/corpus"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/index"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

// keywordEmbedder maps texts onto fixed axes by keyword so tests can predict
// similarity ranking.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "quemadura"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(t, "hemorragia"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (keywordEmbedder) Model() string  { return "keyword-test" }
func (keywordEmbedder) Dimension() int { return 3 }

// failingEmbedder simulates a broken remote provider.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func (failingEmbedder) Model() string  { return "failing-test" }
func (failingEmbedder) Dimension() int { return 0 }

// constantEmbedder gives every text the same vector, forcing score ties.
type constantEmbedder struct{}

func (constantEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 1, 1}, nil
}

func (e constantEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 1, 1}
	}
	return out, nil
}

func (constantEmbedder) Model() string  { return "constant-test" }
func (constantEmbedder) Dimension() int { return 3 }

func protocol(id, title, age string) *models.Protocol {
	return &models.Protocol{
		ID:      id,
		Title:   title,
		Version: "v1",
		Steps:   []models.Step{{Instruction: title}},
		Metadata: models.Metadata{
			Age: age,
		},
	}
}

func testCorpus() *corpus.Corpus {
	protos := []*models.Protocol{
		protocol("pa_rcp_adulto_v1", "RCP en adultos", "adulto"),
		protocol("pa_rcp_nino_v1", "RCP en niños", "niño"),
		protocol("pa_hemorragias_v1", "Control de hemorragias", ""),
		protocol("pa_quemaduras_v1", "Quemaduras", ""),
	}
	c := &corpus.Corpus{Protocols: make(map[string]*models.Protocol)}
	for _, p := range protos {
		c.Protocols[p.ID] = p
		c.Order = append(c.Order, p.ID)
	}
	return c
}

func testIntents() index.IntentTable {
	return index.IntentTable{
		{Phrase: "no respira", Protocols: []string{"pa_rcp_adulto_v1", "pa_rcp_nino_v1"}},
		{Phrase: "rcp", Protocols: []string{"pa_rcp_adulto_v1", "pa_rcp_nino_v1"}},
		{Phrase: "sangrado", Protocols: []string{"pa_hemorragias_v1"}},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSearchExactMatchScoresOne(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())

	results := idx.Search(context.Background(), "mi padre no respira", nil, 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "pa_rcp_adulto_v1", results[0].ProtocolID)
	assert.Equal(t, 1.0, results[0].RelevanceScore)
	assert.Equal(t, "pa_rcp_nino_v1", results[1].ProtocolID)
	assert.Equal(t, 1.0, results[1].RelevanceScore)
}

func TestSearchExactMatchDeduplicates(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())

	// Both "no respira" and "rcp" map to the same protocols.
	results := idx.Search(context.Background(), "no respira, necesito rcp", nil, 10)
	seen := make(map[string]int)
	for _, r := range results {
		seen[r.ProtocolID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "protocol %s returned more than once", id)
	}
}

func TestSearchAgeFilterOnExactMatches(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())

	results := idx.Search(context.Background(), "no respira", &models.SearchContext{Age: "niño"}, 1)
	require.NotEmpty(t, results)
	assert.Equal(t, "pa_rcp_nino_v1", results[0].ProtocolID)
}

func TestSearchSemanticFallback(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())

	// No intent phrase matches; the quemadura axis should rank first.
	results := idx.Search(context.Background(), "quemadura con aceite hirviendo", nil, 2)
	require.NotEmpty(t, results)
	assert.Equal(t, "pa_quemaduras_v1", results[0].ProtocolID)
	assert.InDelta(t, 1.0, results[0].RelevanceScore, 1e-6)
}

func TestSearchHybridFillsWithSemantic(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())

	// "sangrado" exact-matches hemorragias; remaining slots fill semantically
	// and must not repeat the exact hit.
	results := idx.Search(context.Background(), "sangrado", nil, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "pa_hemorragias_v1", results[0].ProtocolID)
	assert.Equal(t, 1.0, results[0].RelevanceScore)
	for _, r := range results[1:] {
		assert.NotEqual(t, "pa_hemorragias_v1", r.ProtocolID)
	}
}

func TestSearchDegradesWithoutEmbeddings(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), failingEmbedder{}, testIntents(), discard())

	// Exact matching still works.
	results := idx.Search(context.Background(), "no respira", nil, 5)
	require.Len(t, results, 2)

	// Pure semantic queries return nothing instead of failing.
	results = idx.Search(context.Background(), "algo sin frase conocida", nil, 5)
	assert.Empty(t, results)
}

func TestSearchTieBreaksByCorpusOrder(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), constantEmbedder{}, nil, discard())

	results := idx.Search(context.Background(), "cualquier cosa sin intent", nil, 4)
	require.Len(t, results, 4)
	order := testCorpus().Order
	for i, r := range results {
		assert.Equal(t, order[i], r.ProtocolID)
	}
}

func TestSearchTopKZero(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())
	assert.Empty(t, idx.Search(context.Background(), "rcp", nil, 0))
}

func TestProtocolsListingOrder(t *testing.T) {
	idx := index.Build(context.Background(), testCorpus(), keywordEmbedder{}, testIntents(), discard())

	summaries := idx.Protocols()
	require.Len(t, summaries, 4)
	assert.Equal(t, "pa_rcp_adulto_v1", summaries[0].ID)
	assert.Equal(t, "adulto", summaries[0].Age)
	assert.Equal(t, 1, summaries[0].StepCount)
	assert.Equal(t, 4, idx.Count())
}
