package player_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/player"
)

func TestConditionMatches(t *testing.T) {
	v := player.DefaultVocabulary()

	tests := []struct {
		condition string
		feedback  string
		want      bool
	}{
		{"puede_toser", "sí, está tosiendo", true},
		{"puede_toser", "nada de nada", false},
		{"objeto_expulsado", "ya salió", true},
		{"empeora_estado", "se está poniendo peor", true},
		{"mejora", "respira otra vez", true},
		// Unknown condition names fall back to substring containment.
		{"desmayo", "creo que es un desmayo", true},
		{"desmayo", "está despierto", false},
		{"", "cualquier cosa", false},
	}
	for _, tt := range tests {
		got := v.ConditionMatches(tt.condition, tt.feedback)
		assert.Equal(t, tt.want, got, "condition %q vs %q", tt.condition, tt.feedback)
	}
}

func TestEmergencyIndicator(t *testing.T) {
	v := player.DefaultVocabulary()

	assert.Equal(t, "no respira", v.EmergencyIndicator("creo que no respira"))
	assert.Equal(t, "cianosis", v.EmergencyIndicator("tiene CIANOSIS en los labios"))
	assert.Empty(t, v.EmergencyIndicator("está mejorando"))
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	data := `version: 1
conditions:
  tiene_fiebre: [fiebre, caliente]
emergency_indicators:
  - no reacciona
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	v, err := player.LoadVocabulary(path)
	require.NoError(t, err)
	assert.True(t, v.ConditionMatches("tiene_fiebre", "está muy caliente"))
	assert.Equal(t, "no reacciona", v.EmergencyIndicator("no reacciona a nada"))
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := player.LoadVocabulary("testdata/no-existe.yaml")
	assert.Error(t, err)
}
