// Package triage converts symptom signals into a risk level, a protocol
// selection, and immediate action text.
package triage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

// Retriever is the slice of the retrieval index triage depends on.
type Retriever interface {
	Search(ctx context.Context, query string, sctx *models.SearchContext, topK int) []models.SearchResult
	Protocol(id string) (*models.Protocol, bool)
}

// GenericProtocolID is the last-resort protocol when nothing matches.
const GenericProtocolID = "pa_general_v1"

// Confidence levels reported to external callers depending on how the
// protocol was resolved.
const (
	confidenceDirect   = 0.9
	confidenceFallback = 0.7
	confidenceGeneric  = 0.5
)

// highRisk holds the signal values that flag immediate 112 escalation.
var highRisk = struct {
	consciousness []string
	breathing     []string
	bleeding      []string
}{
	consciousness: []string{"inconsciente", "no responde"},
	breathing:     []string{"ausente", "anormal", "no respira"},
	bleeding:      []string{"intenso", "no controlable", "arterial"},
}

// intentProtocols maps known intents directly to protocols. Adult ids are
// adapted per age bucket after lookup.
var intentProtocols = map[string]string{
	"parada_cardiorespiratoria": "pa_rcp_adulto_v1",
	"rcp":                       "pa_rcp_adulto_v1",
	"atragantamiento":           "pa_asfixia_adulto_v1",
	"asfixia":                   "pa_asfixia_adulto_v1",
	"hemorragia":                "pa_hemorragias_v1",
	"quemadura":                 "pa_quemaduras_v1",
	"anafilaxia":                "pa_anafilaxia_v1",
	"convulsion":                "pa_convulsiones_v1",
	"convulsiones":              "pa_convulsiones_v1",
	"ictus_fast":                "pa_ictus_fast_v1",
	"ictus":                     "pa_ictus_fast_v1",
	"dolor_toracico":            "pa_dolor_toracico_v1",
}

// defaultImmediateActions provides per-protocol action text when the
// protocol itself declares none.
var defaultImmediateActions = map[string]string{
	"pa_rcp_adulto_v1":     "Si no respira o no tiene pulso, iniciar RCP inmediatamente y llamar al 112",
	"pa_asfixia_adulto_v1": "Si no puede toser o hablar, realizar maniobra de Heimlich y llamar al 112",
	"pa_hemorragias_v1":    "Aplicar presión directa sobre la herida y elevar la extremidad si es posible",
	"pa_quemaduras_v1":     "Enfriar con agua fría durante 10-20 minutos, no aplicar cremas",
	"pa_anafilaxia_v1":     "Usar autoinyector de epinefrina si está disponible y llamar al 112 inmediatamente",
	"pa_convulsiones_v1":   "Proteger la cabeza, no introducir objetos en la boca, cronometrar la duración",
	"pa_ictus_fast_v1":     "Evaluar FAST (cara, brazos, habla, tiempo) y llamar al 112 inmediatamente",
	"pa_dolor_toracico_v1": "Sentar al paciente, aflojar ropa ajustada y llamar al 112",
}

const genericImmediateAction = "Seguir las instrucciones del protocolo y llamar al 112 si es necesario"

// Engine maps TriageSignals to a TriageResult.
type Engine struct {
	retriever Retriever
	logger    *slog.Logger
}

// New creates a triage engine over the given retriever.
func New(retriever Retriever, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{retriever: retriever, logger: logger}
}

// Evaluate runs the full triage: risk assessment, protocol selection, and
// immediate action resolution. Signals are normalized before evaluation.
func (e *Engine) Evaluate(ctx context.Context, signals models.TriageSignals) models.TriageResult {
	s := normalize(signals)

	risk, recommendations := assessRisk(s)
	protocolID, confidence := e.selectProtocol(ctx, s)
	action := e.immediateAction(protocolID)

	result := models.TriageResult{
		ProtocolID:          protocolID,
		Risk:                risk,
		Recommendations:     recommendations,
		ImmediateAction:     action,
		Confidence:          confidence,
		EscalateToEmergency: risk == models.RiskHigh,
	}

	e.logger.Info("triage evaluated",
		"intent", s.Intent, "risk", risk, "protocol", protocolID,
		"escalate", result.EscalateToEmergency)
	return result
}

func normalize(s models.TriageSignals) models.TriageSignals {
	lower := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	s.Intent = lower(s.Intent)
	s.Age = lower(s.Age)
	if s.Age == "" {
		s.Age = "adulto"
	}
	s.Consciousness = lower(s.Consciousness)
	s.Breathing = lower(s.Breathing)
	s.Bleeding = lower(s.Bleeding)
	s.Location = lower(s.Location)
	s.HelpPresent = lower(s.HelpPresent)
	s.HasDefibrillator = lower(s.HasDefibrillator)
	return s
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// assessRisk applies the high/moderate/low rules from the triage criteria
// tables.
func assessRisk(s models.TriageSignals) (string, []string) {
	consciousnessFlag := contains(highRisk.consciousness, s.Consciousness)
	breathingFlag := s.Breathing != "" && contains(highRisk.breathing, s.Breathing)
	bleedingFlag := s.Bleeding != "" && contains(highRisk.bleeding, s.Bleeding)

	if consciousnessFlag || breathingFlag || bleedingFlag {
		recs := []string{models.RecommendCall112}
		if breathingFlag || consciousnessFlag {
			recs = append(recs, models.RecommendStartCPR)
		}
		if bleedingFlag {
			recs = append(recs, models.RecommendControlBleed)
		}
		return models.RiskHigh, recs
	}

	if hasModerateRiskFactors(s) {
		return models.RiskModerate, []string{models.RecommendFollowProtocol, models.RecommendCallIfWorse}
	}

	return models.RiskLow, []string{models.RecommendFollowProtocol}
}

func hasModerateRiskFactors(s models.TriageSignals) bool {
	moderateBleeding := s.Bleeding == "moderado" || s.Bleeding == "visible"
	riskyLocation := s.Location == "via_publica" || s.Location == "lugar_aislado"
	noHelp := s.HelpPresent == "no"
	return moderateBleeding || riskyLocation || noHelp
}

// selectProtocol resolves the protocol id: static intent table first (with
// age adaptation), then retrieval fallback, then the generic protocol.
func (e *Engine) selectProtocol(ctx context.Context, s models.TriageSignals) (string, float64) {
	if base, ok := intentProtocols[s.Intent]; ok {
		return AdaptForAge(base, s.Age), confidenceDirect
	}

	results := e.retriever.Search(ctx, s.Intent, &models.SearchContext{Age: s.Age}, 1)
	if len(results) > 0 {
		return results[0].ProtocolID, confidenceFallback
	}

	return GenericProtocolID, confidenceGeneric
}

// AdaptForAge rewrites an adult-tagged protocol id for the child or infant
// bucket: "pa_rcp_adulto_v1" becomes "pa_rcp_nino_v1" / "pa_rcp_lactante_v1".
func AdaptForAge(protocolID, age string) string {
	if !strings.Contains(protocolID, "adulto") {
		return protocolID
	}
	switch age {
	case "niño", "nino":
		return strings.Replace(protocolID, "_adulto_", "_nino_", 1)
	case "lactante":
		return strings.Replace(protocolID, "_adulto_", "_lactante_", 1)
	}
	return protocolID
}

// immediateAction prefers the protocol's declared triage action, then the
// static per-protocol defaults, then the generic phrase.
func (e *Engine) immediateAction(protocolID string) string {
	if p, ok := e.retriever.Protocol(protocolID); ok {
		if p.Triage != nil && p.Triage.ImmediateAction != "" {
			return p.Triage.ImmediateAction
		}
	}
	if action, ok := defaultImmediateActions[protocolID]; ok {
		return action
	}
	return genericImmediateAction
}
