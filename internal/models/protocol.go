// Package models holds the shared data types: protocols and their steps,
// search and triage payloads, sessions, and safety verdicts.
package models

import "gopkg.in/yaml.v3"

// TransitionCondition routes a step to another based on matched feedback.
type TransitionCondition struct {
	Condition string `yaml:"condition" json:"condition"`
	NextStep  *int   `yaml:"next_step" json:"next_step,omitempty"`
}

// StepUI carries per-step display hints. Pointer fields distinguish an
// explicit value from an unset one so step hints can override protocol
// defaults selectively.
type StepUI struct {
	Timer         bool   `yaml:"timer" json:"timer,omitempty"`
	TimerDuration *int   `yaml:"timer_duration" json:"timer_duration,omitempty"`
	NextButton    *bool  `yaml:"next_button" json:"next_button,omitempty"`
	Illustration  string `yaml:"illustration" json:"illustration,omitempty"`
	MetronomeBPM  *int   `yaml:"metronome_bpm" json:"metronome_bpm,omitempty"`
}

// Step is a single instruction in a protocol walk.
type Step struct {
	ID             int                   `yaml:"id" json:"id"`
	Action         string                `yaml:"action" json:"action"`
	Instruction    string                `yaml:"instruction" json:"instruction"`
	VoiceCue       string                `yaml:"voice_cue" json:"voice_cue,omitempty"`
	NextStep       *int                  `yaml:"next_step" json:"next_step,omitempty"`
	NextConditions []TransitionCondition `yaml:"next_conditions" json:"next_conditions,omitempty"`
	LoopCondition  string                `yaml:"loop_condition" json:"loop_condition,omitempty"`
	UI             *StepUI               `yaml:"ui" json:"ui,omitempty"`

	explicitID bool
}

// stepAlias avoids recursion in UnmarshalYAML.
type stepAlias struct {
	ID             *int                  `yaml:"id"`
	Action         string                `yaml:"action"`
	Instruction    string                `yaml:"instruction"`
	VoiceCue       string                `yaml:"voice_cue"`
	NextStep       *int                  `yaml:"next_step"`
	NextConditions []TransitionCondition `yaml:"next_conditions"`
	LoopCondition  string                `yaml:"loop_condition"`
	UI             *StepUI               `yaml:"ui"`
}

// UnmarshalYAML accepts either a bare string (shorthand for an
// instruction-only step) or a full mapping. Steps without an explicit id
// get ordinals assigned by the loader.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var text string
		if err := value.Decode(&text); err != nil {
			return err
		}
		*s = Step{Instruction: text}
		return nil
	}

	var aux stepAlias
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*s = Step{
		Action:         aux.Action,
		Instruction:    aux.Instruction,
		VoiceCue:       aux.VoiceCue,
		NextStep:       aux.NextStep,
		NextConditions: aux.NextConditions,
		LoopCondition:  aux.LoopCondition,
		UI:             aux.UI,
	}
	if aux.ID != nil {
		s.ID = *aux.ID
		s.explicitID = true
	}
	return nil
}

// HasExplicitID reports whether the source document declared an id.
func (s *Step) HasExplicitID() bool { return s.explicitID }

// SetOrdinalID assigns a loader-derived ordinal id.
func (s *Step) SetOrdinalID(i int) { s.ID = i }

// Text returns the speakable text of a step: the instruction when present,
// otherwise the action label.
func (s *Step) Text() string {
	if s.Instruction != "" {
		return s.Instruction
	}
	return s.Action
}

// TriageInfo holds protocol-level triage metadata.
type TriageInfo struct {
	Priority        string   `yaml:"priority" json:"priority,omitempty"`
	RedFlags        []string `yaml:"red_flags" json:"red_flags,omitempty"`
	ImmediateAction string   `yaml:"immediate_action" json:"immediate_action,omitempty"`
}

// ExitCriteria lists the signs that end a protocol walk.
type ExitCriteria struct {
	Success  []string `yaml:"success" json:"success,omitempty"`
	Escalate []string `yaml:"emergency" json:"escalate,omitempty"`
}

// Metadata carries applicability tags in the corpus vocabulary.
type Metadata struct {
	Age           string   `yaml:"edad" json:"age,omitempty"`
	Risk          string   `yaml:"riesgo" json:"risk,omitempty"`
	Environments  []string `yaml:"entorno" json:"environments,omitempty"`
	Materials     []string `yaml:"materiales" json:"materials,omitempty"`
	EstimatedTime string   `yaml:"tiempo_estimado" json:"estimated_time,omitempty"`
}

// Protocol is a loaded first-aid guide.
type Protocol struct {
	ID              string        `yaml:"id" json:"id"`
	Title           string        `yaml:"title" json:"title"`
	Version         string        `yaml:"version" json:"version"`
	Sources         []string      `yaml:"sources" json:"sources,omitempty"`
	EmergencyAction string        `yaml:"emergency_action" json:"emergency_action,omitempty"`
	Steps           []Step        `yaml:"steps" json:"steps"`
	VoiceCues       []string      `yaml:"voice_cues" json:"voice_cues,omitempty"`
	Triage          *TriageInfo   `yaml:"triage" json:"triage,omitempty"`
	ExitCriteria    *ExitCriteria `yaml:"exit_criteria" json:"exit_criteria,omitempty"`
	Metadata        Metadata      `yaml:"metadata" json:"metadata,omitempty"`
	UI              *StepUI       `yaml:"ui" json:"ui,omitempty"`
}

// ProtocolSummary is the listing view of a protocol.
type ProtocolSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Version   string `json:"version"`
	StepCount int    `json:"step_count"`
	Age       string `json:"age,omitempty"`
	Risk      string `json:"risk,omitempty"`
}
