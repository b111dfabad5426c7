// Package safety implements the guardrail checks: blocking diagnostic
// questions, detecting emergency language, and validating that outbound
// messages carry the required safety phrasing.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

// DefaultEmergencyNumber is the European emergency services number used
// throughout the Spanish corpus.
const DefaultEmergencyNumber = "112"

var diagnosticPatterns = compileAll([]string{
	`¿\s*tengo\b.*`,
	`¿\s*es\b.*\b(infarto|ictus|cáncer|enfermedad)\b`,
	`¿\s*qué\b.*\b(enfermedad|diagnóstico)\b`,
	`¿\s*me\b.*\b(muero|voy a morir)\b`,
	`¿\s*estoy\b.*\b(enfermo|grave)\b`,
	`¿\s*será\b.*\b(grave|serio|malo)\b`,
	`\bdiagnó?stic[ao]s?\b`,
	`\bqué\s+tengo\b`,
	`\bqué\s+me\s+pasa\b`,
	`\bestoy\s+enfermo\b`,
	`\bvoy\s+a\s+morir\b`,
})

var emergencyPatterns = compileAll([]string{
	`\bno\s+respira\b`,
	`\binconsciente\b`,
	`\bsin\s+pulso\b`,
	`\bsangrado\b.*\b(intenso|abundante|no\s+para)\b`,
	`\bdolor\b.*\bpecho\b.*\b(intenso|opresivo)\b`,
	`\bconvulsiones?\b`,
	`\bcianosis\b`,
	`\bazul\b`,
	`\bmorado\b`,
	`\basfixia\b`,
	`\batragantad[oa]\b`,
	`\banafilaxia\b`,
	`\bshock\b`,
	`\bparada\s+cardio(respiratoria|vascular)\b`,
})

func compileAll(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(raw))
	for i, p := range raw {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// feedbackIndicators are plain substrings scanned in step feedback by
// CheckFeedback.
var feedbackIndicators = []string{
	"no respira",
	"inconsciente",
	"azul",
	"morado",
	"convulsiones",
	"sangrado mucho",
	"no para de sangrar",
	"muy grave",
	"empeora mucho",
}

// Guardrails evaluates text payloads against the fixed pattern sets.
// Emergency patterns always take priority over diagnostic ones.
type Guardrails struct {
	emergencyNumber string
}

// New creates guardrails for the given emergency number. Empty uses 112.
func New(emergencyNumber string) *Guardrails {
	if emergencyNumber == "" {
		emergencyNumber = DefaultEmergencyNumber
	}
	return &Guardrails{emergencyNumber: emergencyNumber}
}

// CheckPayload carries the text-bearing fields of a request, scanned in
// fixed order: query, user response, intent.
type CheckPayload struct {
	Query        string
	UserResponse string
	Intent       string
}

// Check scans the payload's text fields. The first emergency hit wins; if
// none, the first diagnostic hit; otherwise the payload is allowed.
func (g *Guardrails) Check(payload CheckPayload) models.SafetyVerdict {
	var diagnostic *models.SafetyVerdict
	for _, text := range []string{payload.Query, payload.UserResponse, payload.Intent} {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		v := g.CheckQuery(text)
		if v.Allowed {
			continue
		}
		if v.Violation == models.ViolationEmergencyImmediate {
			return v
		}
		if diagnostic == nil {
			verdict := v
			diagnostic = &verdict
		}
	}
	if diagnostic != nil {
		return *diagnostic
	}
	return models.SafetyVerdict{Allowed: true}
}

// CheckQuery classifies a single text against both pattern sets.
func (g *Guardrails) CheckQuery(query string) models.SafetyVerdict {
	q := strings.ToLower(query)

	for _, pat := range emergencyPatterns {
		if pat.MatchString(q) {
			return models.SafetyVerdict{
				Allowed:        false,
				Violation:      models.ViolationEmergencyImmediate,
				Response:       g.emergencyResponse(),
				ShouldEscalate: true,
				EscalationMessage: fmt.Sprintf(
					"EMERGENCIA DETECTADA: Llamar al %s inmediatamente", g.emergencyNumber),
			}
		}
	}

	for _, pat := range diagnosticPatterns {
		if pat.MatchString(q) {
			return models.SafetyVerdict{
				Allowed:   false,
				Violation: models.ViolationDiagnostic,
				Response:  g.diagnosticResponse(),
			}
		}
	}

	return models.SafetyVerdict{Allowed: true}
}

// CheckFeedback scans free-text step feedback for emergency indicators and
// reports whether the caller should be directed to call emergency services
// immediately.
func (g *Guardrails) CheckFeedback(feedback string) models.FeedbackVerdict {
	f := strings.ToLower(feedback)
	for _, ind := range feedbackIndicators {
		if strings.Contains(f, ind) {
			return models.FeedbackVerdict{
				IsEmergency: true,
				Indicator:   ind,
				Action:      "immediate_112_call",
				Message: fmt.Sprintf(
					"Situación de emergencia detectada: %s. Llama al %s inmediatamente.",
					ind, g.emergencyNumber),
			}
		}
	}
	return models.FeedbackVerdict{Action: "continue_protocol"}
}

// ValidateProtocolResponse checks that an outbound message contains a
// medical disclaimer and the warnings required for the protocol type, and
// suggests phrasing for anything missing.
func (g *Guardrails) ValidateProtocolResponse(response, protocolType string) models.ResponseValidation {
	text := strings.ToLower(response)

	hasDisclaimer := false
	for _, p := range []string{"no sustituye", "atención médica", "profesional médico", g.emergencyNumber} {
		if strings.Contains(text, p) {
			hasDisclaimer = true
			break
		}
	}

	missing := []string{}
	for _, w := range requiredWarnings(protocolType, g.emergencyNumber) {
		found := false
		for _, phrase := range w.phrases {
			if strings.Contains(text, phrase) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w.key)
		}
	}

	return models.ResponseValidation{
		Valid:                hasDisclaimer && len(missing) == 0,
		HasMedicalDisclaimer: hasDisclaimer,
		MissingWarnings:      missing,
		SuggestedAdditions:   suggestedAdditions(missing, g.emergencyNumber),
	}
}

// AddSafetyFooter appends a category-specific safety footer unless the
// response already contains it.
func (g *Guardrails) AddSafetyFooter(response, protocolType string) string {
	footer := g.footerFor(protocolType)
	if strings.Contains(response, strings.TrimSpace(footer)) {
		return response
	}
	return response + footer
}

func (g *Guardrails) footerFor(protocolType string) string {
	switch protocolType {
	case "rcp":
		return fmt.Sprintf(
			"\n\n⚠️ IMPORTANTE: Esta guía no sustituye el entrenamiento en RCP. "+
				"Si no tienes experiencia, llama al %s inmediatamente.", g.emergencyNumber)
	case "emergency":
		return fmt.Sprintf(
			"\n\n🚨 RECUERDA: Ante cualquier duda o si la situación empeora, "+
				"llama al %s sin demora.", g.emergencyNumber)
	default:
		return "\n\n💡 NOTA: Esta aplicación proporciona guías de primeros auxilios, " +
			"pero no sustituye la atención médica profesional."
	}
}

func (g *Guardrails) emergencyResponse() string {
	return fmt.Sprintf(
		"Esta situación requiere atención médica inmediata. LLAMA AL %s AHORA "+
			"y sigue las instrucciones que te proporcionen.", g.emergencyNumber)
}

func (g *Guardrails) diagnosticResponse() string {
	return fmt.Sprintf(
		"No puedo realizar diagnósticos médicos. Si tienes síntomas preocupantes o dudas "+
			"sobre tu salud, consulta con un profesional médico o llama al %s si es una emergencia.",
		g.emergencyNumber)
}

// GeneralDisclaimer returns the standing first-aid disclaimer.
func (g *Guardrails) GeneralDisclaimer() string {
	return fmt.Sprintf(
		"Recuerda que esta aplicación es solo para primeros auxilios y no sustituye la "+
			"atención médica profesional. Ante cualquier duda, consulta con un médico o llama al %s.",
		g.emergencyNumber)
}

type warning struct {
	key     string
	phrases []string
}

func requiredWarnings(protocolType, emergencyNumber string) []warning {
	common := warning{key: "emergency_call", phrases: []string{emergencyNumber, "emergencias", "llamar"}}

	switch protocolType {
	case "rcp":
		return []warning{
			common,
			{key: "training", phrases: []string{"entrenamiento", "curso", "capacitación"}},
			{key: "professional", phrases: []string{"profesional", "médico", "sanitario"}},
		}
	case "atragantamiento":
		return []warning{
			common,
			{key: "consciousness", phrases: []string{"conciencia", "inconsciente", "desmaya"}},
		}
	case "hemorragias":
		return []warning{
			common,
			{key: "severe_bleeding", phrases: []string{"sangrado intenso", "no para", "abundante"}},
		}
	case "quemaduras":
		return []warning{
			common,
			{key: "severe_burns", phrases: []string{"grave", "extensa", "profunda"}},
		}
	case "anafilaxia":
		return []warning{
			common,
			{key: "immediate", phrases: []string{"inmediatamente", "urgente", "rápido"}},
		}
	default:
		return []warning{common}
	}
}

func suggestedAdditions(missing []string, emergencyNumber string) []string {
	suggestions := map[string]string{
		"emergency_call":  fmt.Sprintf("Recuerda llamar al %s si la situación empeora o no mejora.", emergencyNumber),
		"training":        "Es recomendable recibir entrenamiento en primeros auxilios.",
		"professional":    "Esta guía no sustituye la atención médica profesional.",
		"consciousness":   fmt.Sprintf("Si la persona pierde la conciencia, llama al %s inmediatamente.", emergencyNumber),
		"severe_bleeding": fmt.Sprintf("Si el sangrado es intenso o no se controla, llama al %s.", emergencyNumber),
		"severe_burns":    "Para quemaduras graves o extensas, busca atención médica inmediata.",
		"immediate":       fmt.Sprintf("En caso de anafilaxia, actúa inmediatamente y llama al %s.", emergencyNumber),
	}
	out := []string{}
	for _, k := range missing {
		if s, ok := suggestions[k]; ok {
			out = append(out, s)
		}
	}
	return out
}
