package models

// ViolationType classifies a blocked payload.
type ViolationType string

// Violation kinds. The zero value means no violation.
const (
	ViolationNone               ViolationType = ""
	ViolationDiagnostic         ViolationType = "diagnostic"
	ViolationEmergencyImmediate ViolationType = "emergency_immediate"
)

// SafetyVerdict is the outcome of a guardrail check on inbound text.
type SafetyVerdict struct {
	Allowed           bool          `json:"allowed"`
	Violation         ViolationType `json:"violation,omitempty"`
	Response          string        `json:"response,omitempty"`
	ShouldEscalate    bool          `json:"should_escalate,omitempty"`
	EscalationMessage string        `json:"escalation_message,omitempty"`
}

// FeedbackVerdict is the outcome of scanning step feedback for emergency
// indicators.
type FeedbackVerdict struct {
	IsEmergency bool   `json:"is_emergency"`
	Indicator   string `json:"indicator,omitempty"`
	Action      string `json:"action"`
	Message     string `json:"message,omitempty"`
}

// ResponseValidation reports whether an outbound message carries the
// required safety phrasing.
type ResponseValidation struct {
	Valid                bool     `json:"valid"`
	HasMedicalDisclaimer bool     `json:"has_medical_disclaimer"`
	MissingWarnings      []string `json:"missing_warnings,omitempty"`
	SuggestedAdditions   []string `json:"suggested_additions,omitempty"`
}
