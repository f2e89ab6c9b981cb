// Package gamestate defines the contract with the game-state service:
// per-character context reads plus the subsystem writes the orchestrator
// commits at the end of a turn.
//
// Write calls are not idempotent and are never retried by callers; only
// the context and POI reads may be wrapped in a retry policy.
package gamestate

import (
	"context"
	"time"

	"github.com/riftholm/riftholm/internal/turns/policy"
)

// Quest is the character's quest snapshot.
type Quest struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Summary string         `json:"summary"`
	Details map[string]any `json:"details,omitempty"`
}

// CombatState is the character's combat snapshot.
type CombatState struct {
	Active  bool     `json:"active"`
	Enemies []string `json:"enemies,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// Poi is a recorded point of interest.
type Poi struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// NarrativeEntry is one persisted turn narrative.
type NarrativeEntry struct {
	TurnID       string    `json:"turn_id"`
	PlayerAction string    `json:"player_action"`
	Narrative    string    `json:"narrative"`
	CreatedAt    time.Time `json:"created_at"`
}

// TurnContext is the per-turn snapshot read before any decision is made.
type TurnContext struct {
	CharacterID     string       `json:"character_id"`
	LocationName    string       `json:"location_name"`
	Policy          policy.State `json:"policy"`
	ActiveQuest     *Quest       `json:"active_quest,omitempty"`
	Combat          CombatState  `json:"combat"`
	RecentNarrative []string     `json:"recent_narrative,omitempty"`
}

// Client is the game-state service contract consumed by the
// orchestrator. Implementations must return domain errors
// distinguishing not-found, timeout, and client failures.
type Client interface {
	GetContext(ctx context.Context, characterID, traceID string) (*TurnContext, error)
	PersistNarrative(ctx context.Context, characterID string, entry NarrativeEntry) error
	PutQuest(ctx context.Context, characterID string, quest Quest) error
	DeleteQuest(ctx context.Context, characterID, questID string) error
	PutCombat(ctx context.Context, characterID string, combat CombatState) error
	PostPoi(ctx context.Context, characterID string, poi Poi) error
	GetRandomPois(ctx context.Context, characterID string, limit int) ([]Poi, error)
}
