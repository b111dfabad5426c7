package models

// Risk levels, ordered from most to least urgent.
const (
	RiskHigh     = "alto"
	RiskModerate = "moderado"
	RiskLow      = "bajo"
)

// Recommendations emitted by triage.
const (
	RecommendCall112        = "llamar_112"
	RecommendStartCPR       = "iniciar_rcp_si_necesario"
	RecommendControlBleed   = "control_hemorragia"
	RecommendFollowProtocol = "seguir_protocolo"
	RecommendCallIfWorse    = "considerar_112_si_empeora"
)

// TriageSignals are the structured symptom inputs to a triage evaluation.
// Field names follow the corpus vocabulary.
type TriageSignals struct {
	Intent           string `json:"intent,omitempty"`
	Age              string `json:"edad,omitempty"`
	Consciousness    string `json:"estado_conciencia,omitempty"`
	Breathing        string `json:"respiracion,omitempty"`
	Bleeding         string `json:"sangrado,omitempty"`
	Location         string `json:"lugar,omitempty"`
	HelpPresent      string `json:"hay_ayuda,omitempty"`
	HasDefibrillator string `json:"dispone_dea,omitempty"`
}

// TriageResult is the outcome of a triage evaluation.
type TriageResult struct {
	Risk                string   `json:"risk_level"`
	ProtocolID          string   `json:"protocol_id"`
	Confidence          float64  `json:"confidence"`
	Recommendations     []string `json:"recommendations"`
	EscalateToEmergency bool     `json:"escalate_to_emergency"`
	ImmediateAction     string   `json:"immediate_action,omitempty"`
}
