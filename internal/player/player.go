// Package player walks a caller through a protocol's steps: a per-session
// state machine with conditional branching, looping, and emergency
// early-exit.
package player

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
)

// Retriever is the slice of the retrieval index the player depends on.
type Retriever interface {
	Protocol(id string) (*models.Protocol, bool)
}

// NextRequest asks for the next step of a protocol walk.
type NextRequest struct {
	SessionID   string
	ProtocolID  string
	CurrentStep int
	Feedback    string
}

// Player owns all live sessions. Sessions are exclusive to the player;
// mutation is serialized per session id while unrelated sessions proceed
// concurrently.
type Player struct {
	retriever Retriever
	vocab     *Vocabulary
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu sync.Mutex
	s  models.Session
}

// New creates a player. A nil vocabulary uses the built-in defaults.
func New(retriever Retriever, vocab *Vocabulary, logger *slog.Logger) *Player {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		retriever: retriever,
		vocab:     vocab,
		logger:    logger,
		sessions:  make(map[string]*sessionEntry),
	}
}

// Next advances a session through its protocol and returns the step to
// speak/display. Emergency-indicating feedback ends the protocol
// immediately, before any declared transition is considered.
func (p *Player) Next(req NextRequest) models.StepResponse {
	protocol, ok := p.retriever.Protocol(req.ProtocolID)
	if !ok {
		// Stale sessions can reference protocols removed by a reload; they
		// fail here on the next step, never crash.
		p.logger.Warn("next step for unknown protocol", "protocol", req.ProtocolID)
		p.Reset(req.SessionID)
		return models.StepResponse{
			Say:         "Error: Protocolo no encontrado",
			UI:          map[string]any{"error": true},
			VoiceCues:   []string{"Error en el sistema"},
			SafetyAlert: "Error del sistema. Llama al 112 si necesitas ayuda médica inmediata.",
			IsFinal:     true,
		}
	}

	entry := p.entry(req.SessionID, req.ProtocolID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if req.Feedback != "" {
		entry.s.FeedbackLog = append(entry.s.FeedbackLog, models.Feedback{
			Step: req.CurrentStep,
			Text: req.Feedback,
		})
	}

	if ind := p.vocab.EmergencyIndicator(req.Feedback); req.Feedback != "" && ind != "" {
		p.remove(req.SessionID)
		p.logger.Warn("emergency feedback ended protocol",
			"session", req.SessionID, "protocol", protocol.ID, "indicator", ind)
		return emergencyCompletion(protocol, ind)
	}

	nextIdx, completed := nextStepIndex(protocol, req.CurrentStep, req.Feedback, p.vocab)
	if completed {
		p.remove(req.SessionID)
		return completion(protocol)
	}

	step := &protocol.Steps[nextIdx]
	entry.s.CurrentStep = nextIdx
	entry.s.StepHistory = append(entry.s.StepHistory, nextIdx)
	entry.s.UpdatedAt = time.Now()

	var cues []string
	if step.VoiceCue != "" {
		cues = []string{step.VoiceCue}
	}

	return models.StepResponse{
		Say:         step.Text(),
		UI:          buildUI(protocol, step),
		VoiceCues:   cues,
		SafetyAlert: safetyAlert(protocol, step, req.Feedback),
		IsFinal:     false,
	}
}

// Status returns a copy of a live session.
func (p *Player) Status(sessionID string) (models.Session, bool) {
	p.mu.Lock()
	entry, ok := p.sessions[sessionID]
	p.mu.Unlock()
	if !ok {
		return models.Session{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.s
	s.StepHistory = append([]int(nil), entry.s.StepHistory...)
	s.FeedbackLog = append([]models.Feedback(nil), entry.s.FeedbackLog...)
	return s, true
}

// Reset removes a session. Resetting an unknown session is a no-op.
func (p *Player) Reset(sessionID string) {
	p.remove(sessionID)
}

// ActiveSessions returns the number of live sessions.
func (p *Player) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// entry fetches or creates the session record for an id. Only the map
// access is guarded here; the caller locks the entry for the mutation.
func (p *Player) entry(sessionID, protocolID string) *sessionEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.sessions[sessionID]; ok {
		return e
	}
	now := time.Now()
	e := &sessionEntry{s: models.Session{
		ID:         sessionID,
		ProtocolID: protocolID,
		StartedAt:  now,
		UpdatedAt:  now,
	}}
	p.sessions[sessionID] = e
	return e
}

func (p *Player) remove(sessionID string) {
	p.mu.Lock()
	delete(p.sessions, sessionID)
	p.mu.Unlock()
}

// nextStepIndex resolves where the walk goes from the current position.
// Precedence: transition conditions, loop condition, declared next step,
// ordinal+1. Returns completed=true when the walk leaves the step range.
func nextStepIndex(protocol *models.Protocol, current int, feedback string, vocab *Vocabulary) (int, bool) {
	steps := protocol.Steps
	if len(steps) == 0 {
		return 0, true
	}
	if current < 0 || current >= len(steps) {
		// Out-of-range cursor restarts the walk from the first step.
		return 0, false
	}

	step := &steps[current]

	if feedback != "" {
		for _, cond := range step.NextConditions {
			if vocab.ConditionMatches(cond.Condition, feedback) {
				if cond.NextStep == nil || *cond.NextStep >= len(steps) {
					return 0, true
				}
				return *cond.NextStep, false
			}
		}
		if step.LoopCondition != "" && vocab.ConditionMatches(step.LoopCondition, feedback) && step.NextStep != nil {
			// A matched loop condition reuses the step's declared next_step
			// as its target.
			if *step.NextStep >= len(steps) {
				return 0, true
			}
			return *step.NextStep, false
		}
	}

	next := current + 1
	if step.NextStep != nil {
		next = *step.NextStep
	}
	if next < 0 || next >= len(steps) {
		return 0, true
	}
	return next, false
}

// buildUI merges protocol-level UI defaults with step-level overrides into
// the payload the client renders.
func buildUI(protocol *models.Protocol, step *models.Step) map[string]any {
	ui := map[string]any{
		"step_id":        step.ID,
		"action":         step.Action,
		"instruction":    step.Instruction,
		"timer":          false,
		"next_button":    true,
		"protocol_title": protocol.Title,
		"emergency_button": map[string]any{
			"text":    "LLAMAR 112",
			"visible": true,
			"urgent":  true,
		},
	}
	applyStepUI(ui, protocol.UI)
	applyStepUI(ui, step.UI)
	return ui
}

func applyStepUI(ui map[string]any, s *models.StepUI) {
	if s == nil {
		return
	}
	if s.Timer {
		ui["timer"] = true
	}
	if s.NextButton != nil {
		ui["next_button"] = *s.NextButton
	}
	if s.TimerDuration != nil {
		ui["timer_duration"] = *s.TimerDuration
	}
	if s.Illustration != "" {
		ui["illustration"] = s.Illustration
	}
	if s.MetronomeBPM != nil {
		ui["metronome_bpm"] = *s.MetronomeBPM
	}
}

// safetyAlert checks the protocol's red flags against the feedback and
// falls back to contextual alerts derived from the step text.
func safetyAlert(protocol *models.Protocol, step *models.Step, feedback string) string {
	if feedback != "" && protocol.Triage != nil {
		fb := strings.ToLower(feedback)
		for _, flag := range protocol.Triage.RedFlags {
			if flag == "" {
				continue
			}
			allPresent := true
			for _, word := range strings.Fields(strings.ToLower(flag)) {
				if !strings.Contains(fb, word) {
					allPresent = false
					break
				}
			}
			if allPresent {
				action := protocol.EmergencyAction
				if action == "" {
					action = "Llama al 112"
				}
				return fmt.Sprintf("ALERTA: %s. %s", flag, action)
			}
		}
	}

	text := strings.ToLower(step.Action + " " + step.Instruction)
	if strings.Contains(text, "rcp") {
		return "Recuerda: Si estás solo/a, activa manos libres y llama al 112 antes de continuar."
	}
	if strings.Contains(text, "golpes") || strings.Contains(text, "compresiones") {
		return "Importante: Si la persona pierde la conciencia, inicia RCP inmediatamente."
	}
	return ""
}

func completion(protocol *models.Protocol) models.StepResponse {
	var b strings.Builder
	fmt.Fprintf(&b, "Protocolo %s completado. ", protocol.Title)
	if protocol.ExitCriteria != nil && len(protocol.ExitCriteria.Success) > 0 {
		fmt.Fprintf(&b, "Signos de éxito: %s. ", strings.Join(protocol.ExitCriteria.Success, ", "))
	}
	b.WriteString("Si la situación no mejora o empeora, llama al 112 inmediatamente.")
	message := b.String()

	return models.StepResponse{
		Say: message,
		UI: map[string]any{
			"completed":      true,
			"protocol_title": protocol.Title,
			"emergency_button": map[string]any{
				"text":    "LLAMAR 112",
				"visible": true,
				"urgent":  true,
			},
		},
		VoiceCues:   []string{message},
		SafetyAlert: protocol.EmergencyAction,
		IsFinal:     true,
	}
}

func emergencyCompletion(protocol *models.Protocol, indicator string) models.StepResponse {
	message := fmt.Sprintf(
		"Situación de emergencia detectada: %s. Interrumpe el protocolo y llama al 112 ahora mismo.",
		indicator)

	alert := protocol.EmergencyAction
	if alert == "" {
		alert = "Llama al 112 inmediatamente."
	}

	return models.StepResponse{
		Say: message,
		UI: map[string]any{
			"completed":      true,
			"emergency":      true,
			"protocol_title": protocol.Title,
			"emergency_button": map[string]any{
				"text":    "LLAMAR 112",
				"visible": true,
				"urgent":  true,
			},
		},
		VoiceCues:   []string{message},
		SafetyAlert: alert,
		IsFinal:     true,
	}
}
