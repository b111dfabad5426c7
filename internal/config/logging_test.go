package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/config"
)

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := config.SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("protocol corpus loaded", "protocols", 13)
	logger.Debug("filtered below the configured level")

	// Text output on stderr, filtered by level.
	assert.Contains(t, stderr.String(), "protocol corpus loaded")
	assert.NotContains(t, stderr.String(), "filtered below the configured level")

	// Structured JSON on the file writer.
	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "protocol corpus loaded", entry["msg"])
	assert.Equal(t, float64(13), entry["protocols"])
}
