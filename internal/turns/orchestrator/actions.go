package orchestrator

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/riftholm/riftholm/internal/services/turns/gamestate"
	"github.com/riftholm/riftholm/internal/turns/outcome"
	"github.com/riftholm/riftholm/internal/turns/policy"
)

// maxCombatEnemies caps the enemy list carried into a combat write.
const maxCombatEnemies = 5

const actionNone = "none"

// subsystemAction is the derived, ephemeral decision of what (if
// anything) to write for one subsystem this turn. Constructed fresh
// each turn; never persisted.
type subsystemAction struct {
	action        string
	shouldExecute bool
	// failure pre-records an error for actions rejected during
	// derivation (e.g. a combat start with no valid enemies).
	failure string

	quest   *outcome.QuestIntent
	combat  *outcome.CombatIntent
	poi     *outcome.PoiIntent
	enemies []string
	// questID is the active quest targeted by complete/abandon,
	// captured at derivation time.
	questID string
}

type turnActions struct {
	quest  subsystemAction
	combat subsystemAction
	poi    subsystemAction
}

// deriveActions gates each subsystem intent against both the policy
// decision and the current context state. Mismatches silently yield a
// none action, logged but never errored.
func (o *Orchestrator) deriveActions(req TurnRequest, turnCtx *gamestate.TurnContext, hints policy.Hints, quest *outcome.QuestIntent, combat *outcome.CombatIntent, poi *outcome.PoiIntent) turnActions {
	return turnActions{
		quest:  o.deriveQuestAction(req.CharacterID, turnCtx, hints, quest),
		combat: o.deriveCombatAction(req.CharacterID, turnCtx, combat),
		poi:    o.derivePoiAction(req.CharacterID, hints, poi),
	}
}

func (o *Orchestrator) deriveQuestAction(characterID string, turnCtx *gamestate.TurnContext, hints policy.Hints, intent *outcome.QuestIntent) subsystemAction {
	if intent == nil || intent.Action == outcome.QuestActionNone {
		return subsystemAction{action: actionNone}
	}

	switch intent.Action {
	case outcome.QuestActionOffer:
		if !hints.Quest.RollPassed {
			o.logf("turns: character %s: quest offer suppressed, policy roll did not pass", characterID)
			return subsystemAction{action: actionNone}
		}
		if turnCtx.ActiveQuest != nil {
			o.logf("turns: character %s: quest offer suppressed, quest already active", characterID)
			return subsystemAction{action: actionNone}
		}
		return subsystemAction{action: string(intent.Action), shouldExecute: true, quest: intent}

	case outcome.QuestActionComplete, outcome.QuestActionAbandon:
		// No policy gate: finishing a quest only needs one to exist.
		if turnCtx.ActiveQuest == nil {
			o.logf("turns: character %s: quest %s suppressed, no active quest", characterID, intent.Action)
			return subsystemAction{action: actionNone}
		}
		return subsystemAction{action: string(intent.Action), shouldExecute: true, quest: intent, questID: turnCtx.ActiveQuest.ID}
	}
	return subsystemAction{action: actionNone}
}

func (o *Orchestrator) deriveCombatAction(characterID string, turnCtx *gamestate.TurnContext, intent *outcome.CombatIntent) subsystemAction {
	if intent == nil || intent.Action == outcome.CombatActionNone {
		return subsystemAction{action: actionNone}
	}

	switch intent.Action {
	case outcome.CombatActionStart:
		if turnCtx.Combat.Active {
			o.logf("turns: character %s: combat start suppressed, combat already active", characterID)
			return subsystemAction{action: actionNone}
		}
		enemies := filterEnemies(intent.Enemies)
		if len(enemies) == 0 {
			return subsystemAction{
				action:  string(intent.Action),
				failure: "combat start requires at least one valid enemy",
				combat:  intent,
			}
		}
		return subsystemAction{action: string(intent.Action), shouldExecute: true, combat: intent, enemies: enemies}

	case outcome.CombatActionContinue, outcome.CombatActionEnd:
		if !turnCtx.Combat.Active {
			o.logf("turns: character %s: combat %s suppressed, no active combat", characterID, intent.Action)
			return subsystemAction{action: actionNone}
		}
		enemies := filterEnemies(intent.Enemies)
		if len(enemies) == 0 {
			enemies = turnCtx.Combat.Enemies
		}
		return subsystemAction{action: string(intent.Action), shouldExecute: true, combat: intent, enemies: enemies}
	}
	return subsystemAction{action: actionNone}
}

func (o *Orchestrator) derivePoiAction(characterID string, hints policy.Hints, intent *outcome.PoiIntent) subsystemAction {
	if intent == nil || intent.Action == outcome.PoiActionNone {
		return subsystemAction{action: actionNone}
	}

	switch intent.Action {
	case outcome.PoiActionCreate:
		if !hints.Poi.RollPassed {
			o.logf("turns: character %s: poi create suppressed, policy roll did not pass", characterID)
			return subsystemAction{action: actionNone}
		}
		return subsystemAction{action: string(intent.Action), shouldExecute: true, poi: intent}

	case outcome.PoiActionReference:
		// References are ungated and write nothing; they only shape
		// the narrative.
		return subsystemAction{action: string(intent.Action), shouldExecute: true, poi: intent}
	}
	return subsystemAction{action: actionNone}
}

// filterEnemies drops blank entries and caps the list.
func filterEnemies(enemies []string) []string {
	filtered := make([]string, 0, len(enemies))
	for _, enemy := range enemies {
		enemy = strings.TrimSpace(enemy)
		if enemy == "" {
			continue
		}
		filtered = append(filtered, enemy)
		if len(filtered) == maxCombatEnemies {
			break
		}
	}
	return filtered
}

// executeWrites commits subsystem changes strictly in the fixed order
// quest, combat, poi, narrative. Each subsystem write fails
// independently; narrative persistence always runs last and its failure
// is captured, never raised.
func (o *Orchestrator) executeWrites(ctx context.Context, span trace.Span, req TurnRequest, narrativeText string, actions turnActions) Summary {
	dryRun := o.cfg.DryRun || req.DryRun
	summary := Summary{}

	summary.Quest = o.runAction(span, "quest", actions.quest, dryRun, func() error {
		return o.writeQuest(ctx, req, actions.quest)
	})
	summary.Combat = o.runAction(span, "combat", actions.combat, dryRun, func() error {
		return o.writeCombat(ctx, req.CharacterID, actions.combat)
	})
	summary.Poi = o.runAction(span, "poi", actions.poi, dryRun, func() error {
		return o.writePoi(ctx, req.CharacterID, actions.poi)
	})

	if dryRun {
		summary.NarrativePersisted = true
		return summary
	}

	span.AddEvent("write.narrative")
	entry := gamestate.NarrativeEntry{
		TurnID:       req.TraceID,
		PlayerAction: req.PlayerAction,
		Narrative:    narrativeText,
		CreatedAt:    o.clock().UTC(),
	}
	if err := o.deps.Game.PersistNarrative(ctx, req.CharacterID, entry); err != nil {
		o.logf("turns: character %s: narrative persistence failed: %v", req.CharacterID, err)
		summary.NarrativeError = err.Error()
		return summary
	}
	summary.NarrativePersisted = true
	return summary
}

func (o *Orchestrator) runAction(span trace.Span, subsystem string, action subsystemAction, dryRun bool, write func() error) ActionResult {
	result := ActionResult{Action: action.action}

	if action.failure != "" {
		result.Error = action.failure
		return result
	}
	if !action.shouldExecute {
		result.Success = action.action == actionNone
		return result
	}
	if dryRun {
		result.Success = true
		return result
	}

	span.AddEvent("write." + subsystem)
	if err := write(); err != nil {
		o.logf("turns: %s write failed: %v", subsystem, err)
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}

func (o *Orchestrator) writeQuest(ctx context.Context, req TurnRequest, action subsystemAction) error {
	switch outcome.QuestAction(action.action) {
	case outcome.QuestActionOffer:
		return o.deps.Game.PutQuest(ctx, req.CharacterID, gamestate.Quest{
			ID:      uuid.NewString(),
			Title:   action.quest.Title,
			Summary: action.quest.Summary,
			Details: action.quest.Details,
		})

	case outcome.QuestActionComplete:
		if err := o.deps.Game.DeleteQuest(ctx, req.CharacterID, action.questID); err != nil {
			return err
		}
		o.recordCompletion(ctx, req.CharacterID)
		return nil

	case outcome.QuestActionAbandon:
		return o.deps.Game.DeleteQuest(ctx, req.CharacterID, action.questID)
	}
	return nil
}

func (o *Orchestrator) writeCombat(ctx context.Context, characterID string, action subsystemAction) error {
	state := gamestate.CombatState{
		Active:  outcome.CombatAction(action.action) != outcome.CombatActionEnd,
		Enemies: action.enemies,
		Notes:   action.combat.Notes,
	}
	return o.deps.Game.PutCombat(ctx, characterID, state)
}

func (o *Orchestrator) writePoi(ctx context.Context, characterID string, action subsystemAction) error {
	if outcome.PoiAction(action.action) != outcome.PoiActionCreate {
		return nil
	}
	return o.deps.Game.PostPoi(ctx, characterID, gamestate.Poi{
		Name:        action.poi.Name,
		Description: action.poi.Description,
		Tags:        action.poi.Tags,
	})
}

// recordCompletion updates the cooldown cache consumed by later turns.
// Cache failures are logged, never surfaced.
func (o *Orchestrator) recordCompletion(ctx context.Context, characterID string) {
	if o.deps.Completions == nil {
		return
	}
	if err := o.deps.Completions.StoreQuestCompletion(ctx, characterID, o.clock().UTC()); err != nil {
		o.logf("turns: completion cache write: %v", err)
	}
}
