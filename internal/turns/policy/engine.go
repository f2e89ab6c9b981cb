// Package policy decides, once per turn, whether the quest and
// point-of-interest subsystems may change. Cooldown and conflict checks
// run before any randomness is consumed; an eligible evaluation draws
// exactly one uniform value from a character-scoped random stream.
package policy

import (
	"fmt"
	"time"
)

// Config holds trigger probabilities and cooldowns for the engine.
//
// Cooldown turn counts are accepted as given; a negative value makes
// every turn eligible, which operators use to skip waiting periods.
type Config struct {
	// QuestChance is the probability of offering a quest on an
	// eligible turn, in [0,1].
	QuestChance float64
	// QuestCooldownTurns is the minimum turns between quest offers
	// when no timestamp evidence is available.
	QuestCooldownTurns int
	// QuestCooldownWindow is the minimum elapsed time since the last
	// quest completion (preferred) or offer before a new quest may
	// trigger, when timestamp evidence is available.
	QuestCooldownWindow time.Duration
	// PoiChance is the probability of creating a POI on an eligible
	// turn, in [0,1].
	PoiChance float64
	// PoiCooldownTurns is the minimum turns between POI creations.
	PoiCooldownTurns int
	// MemorySparkChance is the probability of enriching the prompt
	// with previously recorded POIs, in [0,1].
	MemorySparkChance float64
	// QuestPoiReferenceChance is the probability of asking the model
	// to tie a triggered quest to a known POI, in [0,1].
	QuestPoiReferenceChance float64
	// Seed enables reproducible per-character random streams when
	// non-empty. Leave empty for cryptographically random behavior.
	Seed string
}

// TriggerDecision is the immutable result of one trigger evaluation.
type TriggerDecision struct {
	Eligible    bool
	Probability float64
	RollPassed  bool
}

// Hints aggregates the per-turn policy decisions consumed by the prompt
// builder and read back by the orchestrator for gating.
type Hints struct {
	Quest             TriggerDecision
	Poi               TriggerDecision
	MemorySpark       bool
	QuestPoiReference *TriggerDecision
}

// State is the per-turn policy snapshot supplied by the game-state
// service. Timestamps are RFC 3339; empty means absent.
type State struct {
	HasActiveQuest       bool
	CombatActive         bool
	TurnsSinceLastQuest  int
	TurnsSinceLastPoi    int
	LastQuestOfferedAt   string
	LastQuestCompletedAt string
	LastPoiCreatedAt     string
}

// QuestTriggerRequest carries the inputs for one quest evaluation.
type QuestTriggerRequest struct {
	CharacterID          string
	TurnsSinceLastQuest  int
	HasActiveQuest       bool
	LastQuestCompletedAt string
	LastQuestOfferedAt   string
	// SeedOverride short-circuits to an ephemeral generator for this
	// call only, leaving the per-character stream untouched.
	SeedOverride *int64
}

// PoiTriggerRequest carries the inputs for one POI evaluation.
type PoiTriggerRequest struct {
	CharacterID       string
	TurnsSinceLastPoi int
	// HasActiveQuest bypasses the POI cooldown: quest-adjacent POI
	// creation is not throttled.
	HasActiveQuest bool
	SeedOverride   *int64
}

// Engine evaluates trigger decisions. Construct one per process and
// inject it; the character stream map is internal mutable state.
type Engine struct {
	cfg     Config
	streams *streams
	now     func() time.Time
}

// NewEngine validates the configuration and builds an engine.
// Probabilities outside [0,1] are rejected here, never mid-evaluation.
func NewEngine(cfg Config) (*Engine, error) {
	probabilities := map[string]float64{
		"quest chance":               cfg.QuestChance,
		"poi chance":                 cfg.PoiChance,
		"memory spark chance":        cfg.MemorySparkChance,
		"quest poi reference chance": cfg.QuestPoiReferenceChance,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("%s: probability must be in [0,1], got %v", name, p)
		}
	}

	return &Engine{
		cfg:     cfg,
		streams: newStreams(cfg.Seed),
		now:     time.Now,
	}, nil
}

// EvaluateQuestTrigger decides whether a quest offer may occur this
// turn. An active quest or an unexpired cooldown makes the turn
// ineligible without consuming a random draw. Timestamp evidence
// (completion preferred over offered) takes precedence over the turn
// counter when it parses as RFC 3339.
func (e *Engine) EvaluateQuestTrigger(req QuestTriggerRequest) TriggerDecision {
	decision := TriggerDecision{Probability: e.cfg.QuestChance}

	if req.HasActiveQuest {
		return decision
	}
	if !e.questCooldownElapsed(req) {
		return decision
	}

	decision.Eligible = true
	decision.RollPassed = e.roll(req.CharacterID, req.SeedOverride) < decision.Probability
	return decision
}

// EvaluatePoiTrigger decides whether a POI creation may occur this
// turn. An active quest bypasses the cooldown entirely.
func (e *Engine) EvaluatePoiTrigger(req PoiTriggerRequest) TriggerDecision {
	decision := TriggerDecision{Probability: e.cfg.PoiChance}

	if !req.HasActiveQuest && req.TurnsSinceLastPoi < e.cfg.PoiCooldownTurns {
		return decision
	}

	decision.Eligible = true
	decision.RollPassed = e.roll(req.CharacterID, req.SeedOverride) < decision.Probability
	return decision
}

// EvaluateMemorySpark decides whether to fetch auxiliary POI context
// for prompt enrichment.
func (e *Engine) EvaluateMemorySpark(characterID string) bool {
	return e.roll(characterID, nil) < e.cfg.MemorySparkChance
}

// EvaluateQuestPoiReference decides whether a triggered quest should
// reference a known POI. Callers invoke this only when a quest roll
// passed and auxiliary POIs are available.
func (e *Engine) EvaluateQuestPoiReference(characterID string) TriggerDecision {
	decision := TriggerDecision{
		Eligible:    true,
		Probability: e.cfg.QuestPoiReferenceChance,
	}
	decision.RollPassed = e.roll(characterID, nil) < decision.Probability
	return decision
}

func (e *Engine) questCooldownElapsed(req QuestTriggerRequest) bool {
	// Completion evidence wins over offer evidence; either wins over
	// the turn counter when it parses.
	for _, stamp := range []string{req.LastQuestCompletedAt, req.LastQuestOfferedAt} {
		if stamp == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			continue
		}
		return e.now().Sub(parsed) >= e.cfg.QuestCooldownWindow
	}
	return req.TurnsSinceLastQuest >= e.cfg.QuestCooldownTurns
}

func (e *Engine) roll(characterID string, seedOverride *int64) float64 {
	if seedOverride != nil {
		return ephemeralRoll(*seedOverride)
	}
	return e.streams.roll(characterID)
}
