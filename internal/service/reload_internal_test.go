package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/config"
)

const biteProtocol = `id: pa_mordedura_v1
title: Mordedura de zarigüeya
steps:
  - "Lava la zona de la mordedura con agua y jabón abundante."
  - "Cubre la zona con un apósito limpio y vigila los signos de infección."
`

const jellyfishProtocol = `id: pa_medusa_v1
title: Picadura de medusa
steps:
  - "Enjuaga la picadura con agua de mar, nunca con agua dulce."
  - "Retira los restos de tentáculos con unas pinzas."
`

// A reload must never change what an already-built snapshot returns: the
// TF-IDF state belongs to the snapshot, not to the service.
func TestReloadLeavesPreviousSnapshotIntact(t *testing.T) {
	dir := t.TempDir()
	bitePath := filepath.Join(dir, "pa_mordedura_v1.yaml")
	require.NoError(t, os.WriteFile(bitePath, []byte(biteProtocol), 0o644))

	cfg := config.Config{
		ProtocolsDir:      dir,
		EmbeddingProvider: "local",
		EmergencyNumber:   "112",
	}
	svc, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx := context.Background()
	old := svc.idx.Load()
	before := old.Search(ctx, "mordedura de zarigüeya", nil, 1)
	require.NotEmpty(t, before)
	require.Greater(t, before[0].RelevanceScore, 0.0)

	// Replace the corpus with a disjoint one and reload.
	require.NoError(t, os.Remove(bitePath))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "pa_medusa_v1.yaml"), []byte(jellyfishProtocol), 0o644))
	require.NoError(t, svc.Reload(ctx))

	// The pre-reload snapshot still serves its original semantic results.
	after := old.Search(ctx, "mordedura de zarigüeya", nil, 1)
	assert.Equal(t, before, after)

	// The live snapshot serves the new corpus.
	fresh := svc.Search(ctx, "picadura de medusa", nil, 1)
	require.NotEmpty(t, fresh)
	assert.Equal(t, "pa_medusa_v1", fresh[0].ProtocolID)
	assert.Greater(t, fresh[0].RelevanceScore, 0.0)
}
