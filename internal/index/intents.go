package index

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IntentEntry maps one exact-match phrase to its candidate protocols, in
// priority order.
type IntentEntry struct {
	Phrase    string   `yaml:"phrase"`
	Protocols []string `yaml:"protocols"`
}

// IntentTable is the ordered exact-match table scanned during search. Order
// matters: matches are collected in table order and deduplicated.
type IntentTable []IntentEntry

// intentFile is the versioned on-disk form of the table.
type intentFile struct {
	Version int          `yaml:"version"`
	Intents []IntentEntry `yaml:"intents"`
}

// LoadIntentTable reads an intent table from a YAML file.
func LoadIntentTable(path string) (IntentTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent table: %w", err)
	}
	var f intentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode intent table: %w", err)
	}
	if len(f.Intents) == 0 {
		return nil, fmt.Errorf("intent table %s has no entries", path)
	}
	return IntentTable(f.Intents), nil
}

// DefaultIntentTable returns the built-in exact-match table for the Spanish
// first-aid corpus.
func DefaultIntentTable() IntentTable {
	return IntentTable{
		{Phrase: "rcp", Protocols: []string{"pa_rcp_adulto_v1", "pa_rcp_nino_v1", "pa_rcp_lactante_v1"}},
		{Phrase: "parada cardiorespiratoria", Protocols: []string{"pa_rcp_adulto_v1", "pa_rcp_nino_v1"}},
		{Phrase: "no respira", Protocols: []string{"pa_rcp_adulto_v1", "pa_rcp_nino_v1"}},
		{Phrase: "atragantamiento", Protocols: []string{"pa_asfixia_adulto_v1", "pa_asfixia_nino_v1"}},
		{Phrase: "se está ahogando", Protocols: []string{"pa_asfixia_adulto_v1", "pa_asfixia_nino_v1"}},
		{Phrase: "asfixia", Protocols: []string{"pa_asfixia_adulto_v1", "pa_asfixia_nino_v1"}},
		{Phrase: "hemorragia", Protocols: []string{"pa_hemorragias_v1"}},
		{Phrase: "sangrado", Protocols: []string{"pa_hemorragias_v1"}},
		{Phrase: "herida", Protocols: []string{"pa_hemorragias_v1"}},
		{Phrase: "quemadura", Protocols: []string{"pa_quemaduras_v1"}},
		{Phrase: "quemado", Protocols: []string{"pa_quemaduras_v1"}},
		{Phrase: "anafilaxia", Protocols: []string{"pa_anafilaxia_v1"}},
		{Phrase: "alergia severa", Protocols: []string{"pa_anafilaxia_v1"}},
		{Phrase: "convulsiones", Protocols: []string{"pa_convulsiones_v1"}},
		{Phrase: "convulsión", Protocols: []string{"pa_convulsiones_v1"}},
		{Phrase: "ictus", Protocols: []string{"pa_ictus_fast_v1"}},
		{Phrase: "derrame cerebral", Protocols: []string{"pa_ictus_fast_v1"}},
		{Phrase: "dolor torácico", Protocols: []string{"pa_dolor_toracico_v1"}},
		{Phrase: "dolor en el pecho", Protocols: []string{"pa_dolor_toracico_v1"}},
	}
}
