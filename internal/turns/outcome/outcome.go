// Package outcome validates and normalizes the narrative model's raw
// output against a fixed structured schema. The model's intents are
// suggestions, never authoritative: unknown action values are rejected
// at this boundary, and a usable narrative string is guaranteed even on
// total parse failure.
package outcome

// QuestAction is the closed set of quest suggestions.
type QuestAction string

const (
	QuestActionNone     QuestAction = "none"
	QuestActionOffer    QuestAction = "offer"
	QuestActionComplete QuestAction = "complete"
	QuestActionAbandon  QuestAction = "abandon"
)

// CombatAction is the closed set of combat suggestions.
type CombatAction string

const (
	CombatActionNone     CombatAction = "none"
	CombatActionStart    CombatAction = "start"
	CombatActionContinue CombatAction = "continue"
	CombatActionEnd      CombatAction = "end"
)

// PoiAction is the closed set of point-of-interest suggestions.
type PoiAction string

const (
	PoiActionNone      PoiAction = "none"
	PoiActionCreate    PoiAction = "create"
	PoiActionReference PoiAction = "reference"
)

// QuestIntent is the model's quest suggestion.
type QuestIntent struct {
	Action  QuestAction    `json:"action"`
	Title   string         `json:"title,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CombatIntent is the model's combat suggestion.
type CombatIntent struct {
	Action  CombatAction `json:"action"`
	Enemies []string     `json:"enemies,omitempty"`
	Notes   string       `json:"notes,omitempty"`
}

// PoiIntent is the model's point-of-interest suggestion.
type PoiIntent struct {
	Action      PoiAction `json:"action"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// MetaIntent carries informational color that never drives writes.
type MetaIntent struct {
	Tone  string   `json:"tone,omitempty"`
	Hooks []string `json:"hooks,omitempty"`
}

// Intents groups the per-subsystem suggestions.
type Intents struct {
	Quest  *QuestIntent  `json:"quest,omitempty"`
	Combat *CombatIntent `json:"combat,omitempty"`
	Poi    *PoiIntent    `json:"poi,omitempty"`
	Meta   *MetaIntent   `json:"meta,omitempty"`
}

// Outcome is a fully validated model response.
type Outcome struct {
	Narrative string  `json:"narrative"`
	Intents   Intents `json:"intents"`
}

// ErrorType classifies parse failures.
type ErrorType string

const (
	// ErrorTypeJSONDecode means the raw text was not valid JSON.
	ErrorTypeJSONDecode ErrorType = "json_decode_error"
	// ErrorTypeValidation means the JSON did not conform to the
	// outcome schema.
	ErrorTypeValidation ErrorType = "validation_error"
)

// ParsedOutcome is the result of one Parse call. Narrative is populated
// even when Outcome is absent.
type ParsedOutcome struct {
	Outcome      *Outcome
	Narrative    string
	Valid        bool
	ErrorType    ErrorType
	ErrorDetails []string
}
