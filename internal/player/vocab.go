package player

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the condition keyword mappings and emergency indicator
// list used by the state machine. Modeled as explicit, versioned data so it
// can be tested and extended without touching the machine itself.
type Vocabulary struct {
	Conditions          map[string][]string `yaml:"conditions"`
	EmergencyIndicators []string            `yaml:"emergency_indicators"`
}

// LoadVocabulary reads a vocabulary from a YAML file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if len(v.Conditions) == 0 && len(v.EmergencyIndicators) == 0 {
		return nil, fmt.Errorf("vocabulary %s is empty", path)
	}
	d := DefaultVocabulary()
	if len(v.Conditions) == 0 {
		v.Conditions = d.Conditions
	}
	if len(v.EmergencyIndicators) == 0 {
		v.EmergencyIndicators = d.EmergencyIndicators
	}
	return &v, nil
}

// DefaultVocabulary returns the built-in tables for the Spanish corpus.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Conditions: map[string][]string{
			"puede_toser":         {"sí", "si", "puede", "tose"},
			"no_puede_toser":      {"no", "no puede", "no tose"},
			"objeto_expulsado":    {"salió", "expulsado", "fuera", "mejor"},
			"objeto_no_expulsado": {"no salió", "sigue", "no mejora"},
			"empeora_estado":      {"peor", "empeora", "cianosis", "inconsciente"},
			"mejora":              {"mejor", "mejora", "respira", "consciente"},
			"no_mejora":           {"igual", "no mejora", "sigue igual"},
		},
		EmergencyIndicators: []string{
			"inconsciente", "no respira", "cianosis", "azul", "morado",
			"convulsiones", "sangrado intenso", "shock", "colapso",
		},
	}
}

// ConditionMatches evaluates a named condition against feedback. Known
// condition names match when any mapped keyword appears as a substring of
// the lower-cased feedback; unknown names fall back to a direct substring
// containment check of the condition string itself.
func (v *Vocabulary) ConditionMatches(condition, feedback string) bool {
	cond := strings.ToLower(condition)
	fb := strings.ToLower(feedback)

	if keywords, ok := v.Conditions[cond]; ok {
		for _, k := range keywords {
			if strings.Contains(fb, k) {
				return true
			}
		}
		return false
	}

	return cond != "" && strings.Contains(fb, cond)
}

// EmergencyIndicator returns the first emergency indicator contained in the
// feedback, or "" when none match.
func (v *Vocabulary) EmergencyIndicator(feedback string) string {
	fb := strings.ToLower(feedback)
	for _, ind := range v.EmergencyIndicators {
		if strings.Contains(fb, ind) {
			return ind
		}
	}
	return ""
}
