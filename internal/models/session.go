package models

import "time"

// Feedback is a logged free-text answer given at a step.
type Feedback struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// Session tracks one caller's walk through a protocol.
type Session struct {
	ID          string     `json:"session_id"`
	ProtocolID  string     `json:"protocol_id"`
	CurrentStep int        `json:"current_step"`
	StepHistory []int      `json:"step_history,omitempty"`
	FeedbackLog []Feedback `json:"feedback_log,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StepResponse is what the player returns for each advance: the text to
// speak, display hints, and any safety alert.
type StepResponse struct {
	Say         string         `json:"say"`
	UI          map[string]any `json:"ui"`
	VoiceCues   []string       `json:"voice_cues,omitempty"`
	SafetyAlert string         `json:"safety_alert,omitempty"`
	IsFinal     bool           `json:"is_final"`
}
