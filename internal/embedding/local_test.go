package embedding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/embedding"
)

func TestLocalEmbedderRequiresPrepare(t *testing.T) {
	e := embedding.NewLocalEmbedder()

	_, err := e.Embed(context.Background(), "no respira")
	assert.Error(t, err)
	assert.Equal(t, 0, e.Dimension())
}

func TestLocalEmbedderPrepareEmptyCorpus(t *testing.T) {
	e := embedding.NewLocalEmbedder()
	assert.Error(t, e.Prepare(nil))
}

func TestLocalEmbedderDeterministic(t *testing.T) {
	corpus := []string{
		"RCP en adultos compresiones torácicas",
		"control de hemorragias presión directa",
		"quemaduras enfriar con agua",
	}

	e := embedding.NewLocalEmbedder()
	require.NoError(t, e.Prepare(corpus))
	require.Greater(t, e.Dimension(), 0)

	ctx := context.Background()
	a, err := e.Embed(ctx, "compresiones torácicas")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "compresiones torácicas")
	require.NoError(t, err)
	assert.Equal(t, a, b, "same text must embed identically")
}

func TestLocalEmbedderUnitNorm(t *testing.T) {
	e := embedding.NewLocalEmbedder()
	require.NoError(t, e.Prepare([]string{"hemorragia sangrado presión", "quemadura agua fría"}))

	vec, err := e.Embed(context.Background(), "sangrado por la herida")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestLocalEmbedderUnknownTokensZeroVector(t *testing.T) {
	e := embedding.NewLocalEmbedder()
	require.NoError(t, e.Prepare([]string{"hemorragia sangrado"}))

	vec, err := e.Embed(context.Background(), "xylophone zzz")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestLocalEmbedderKeepsNegations(t *testing.T) {
	// "no respira" and "respira" must embed differently: negations are not
	// stopwords in this corpus.
	e := embedding.NewLocalEmbedder()
	require.NoError(t, e.Prepare([]string{"no respira inconsciente", "respira con normalidad"}))

	ctx := context.Background()
	a, err := e.Embed(ctx, "no respira")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "respira")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalEmbedderBatch(t *testing.T) {
	e := embedding.NewLocalEmbedder()
	require.NoError(t, e.Prepare([]string{"rcp compresiones", "hemorragia presión"}))

	vecs, err := e.EmbedBatch(context.Background(), []string{"rcp", "hemorragia"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestNewDefaultsToLocal(t *testing.T) {
	e, err := embedding.New(embedding.Config{})
	require.NoError(t, err)
	assert.Equal(t, "tfidf-local", e.Model())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := embedding.New(embedding.Config{Provider: "quantum"})
	assert.Error(t, err)
}
