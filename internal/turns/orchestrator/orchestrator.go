// Package orchestrator sequences one turn of the game: policy
// evaluation, model invocation, response parsing, subsystem gating, and
// ordered write execution. Each Run call is one pass through a linear
// pipeline; no state is retained across turns beyond what external
// stores hold.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	platformerrors "github.com/riftholm/riftholm/internal/platform/errors"
	"github.com/riftholm/riftholm/internal/resilience"
	"github.com/riftholm/riftholm/internal/services/turns/gamestate"
	"github.com/riftholm/riftholm/internal/services/turns/narrative"
	"github.com/riftholm/riftholm/internal/services/turns/storage"
	"github.com/riftholm/riftholm/internal/turns/outcome"
	"github.com/riftholm/riftholm/internal/turns/policy"
	"github.com/riftholm/riftholm/internal/turns/prompt"
)

// maxMemoryPois bounds the auxiliary POI sample fetched for prompt
// enrichment.
const maxMemoryPois = 3

// TurnRequest is one player action to process.
type TurnRequest struct {
	CharacterID  string
	PlayerAction string
	// TraceID is generated when empty.
	TraceID string
	// DryRun skips all writes but reports the summary as if every
	// gated-and-eligible action had succeeded.
	DryRun bool
}

// TurnResult is the turn's player-visible response plus its auditable
// subsystem summary. Intents echo the model's raw suggestions
// unmodified; Summary reflects the gated outcome.
type TurnResult struct {
	TraceID    string          `json:"trace_id"`
	Narrative  string          `json:"narrative"`
	Intents    outcome.Intents `json:"intents"`
	Valid      bool            `json:"valid"`
	ParseError string          `json:"parse_error,omitempty"`
	Hints      policy.Hints    `json:"hints"`
	Summary    Summary         `json:"summary"`
}

// ActionResult records one subsystem's gated action and its fate.
type ActionResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Summary is the turn's auditable result, built incrementally during
// write execution and never mutated afterwards.
type Summary struct {
	Quest              ActionResult `json:"quest"`
	Combat             ActionResult `json:"combat"`
	Poi                ActionResult `json:"poi"`
	NarrativePersisted bool         `json:"narrative_persisted"`
	NarrativeError     string       `json:"narrative_error,omitempty"`
}

// Config holds orchestrator behavior toggles.
type Config struct {
	// MemorySparks enables the auxiliary POI prompt-enrichment step.
	MemorySparks bool
	// DryRun forces every request into dry-run mode.
	DryRun bool
}

// Deps are the orchestrator's injected collaborators. Engine, Parser,
// Game, and Model are required; the rest degrade gracefully when nil.
type Deps struct {
	Engine      *policy.Engine
	Parser      *outcome.Parser
	Game        gamestate.Client
	Model       narrative.Generator
	Completions storage.CompletionStore
	Gate        *resilience.Gate
	Limiter     *resilience.RateLimiter
	ReadRetry   resilience.Policy
	ModelRetry  resilience.Policy
}

// Orchestrator runs turns. Construct once per process and share.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	tracer trace.Tracer
	clock  func() time.Time
	logf   func(format string, args ...any)
}

// New validates dependencies and builds an orchestrator.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("policy engine is required")
	}
	if deps.Parser == nil {
		return nil, fmt.Errorf("outcome parser is required")
	}
	if deps.Game == nil {
		return nil, fmt.Errorf("game-state client is required")
	}
	if deps.Model == nil {
		return nil, fmt.Errorf("narrative generator is required")
	}
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		tracer: otel.Tracer("riftholm/turns"),
		clock:  time.Now,
		logf:   log.Printf,
	}, nil
}

// Run processes one turn. Terminal failures (context fetch, model
// invocation) abort without a narrative; everything downstream of a
// successful model call degrades and still returns a response.
func (o *Orchestrator) Run(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.CharacterID) == "" {
		return nil, platformerrors.New(platformerrors.CodeTurnInvalidRequest, "character id is required")
	}
	if strings.TrimSpace(req.PlayerAction) == "" {
		return nil, platformerrors.New(platformerrors.CodeTurnInvalidRequest, "player action is required")
	}
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}

	if !o.deps.Limiter.Acquire(req.CharacterID) {
		return nil, platformerrors.WithMetadata(platformerrors.CodeTurnRateLimited,
			"turn rate ceiling reached", map[string]string{"character_id": req.CharacterID})
	}

	ctx, span := o.tracer.Start(ctx, "turns.run")
	defer span.End()

	turnCtx, err := o.fetchContext(ctx, req)
	if err != nil {
		return nil, err
	}

	// Memory-spark step: non-fatal, degrades to an empty set.
	memoryPois := o.memorySpark(ctx, req.CharacterID)

	hints := o.evaluatePolicy(req.CharacterID, turnCtx, memoryPois)

	raw, err := o.invokeModel(ctx, req, turnCtx, hints, memoryPois)
	if err != nil {
		return nil, err
	}
	parsed := o.deps.Parser.Parse(raw)

	intents := outcome.Intents{}
	if parsed.Outcome != nil {
		intents = parsed.Outcome.Intents
	}
	normalizedQuest := outcome.NormalizeQuestIntent(intents.Quest, hints.Quest.RollPassed)
	normalizedPoi := outcome.NormalizePoiIntent(intents.Poi, hints.Poi.RollPassed, turnCtx.LocationName)

	actions := o.deriveActions(req, turnCtx, hints, normalizedQuest, intents.Combat, normalizedPoi)
	summary := o.executeWrites(ctx, span, req, parsed.Narrative, actions)

	result := &TurnResult{
		TraceID:   req.TraceID,
		Narrative: parsed.Narrative,
		Intents:   intents,
		Valid:     parsed.Valid,
		Hints:     hints,
		Summary:   summary,
	}
	if parsed.ErrorType != "" {
		result.ParseError = string(parsed.ErrorType)
	}
	return result, nil
}

// fetchContext reads the turn context, retrying retryable failures,
// and merges in cached quest-completion evidence when the game-state
// service has none.
func (o *Orchestrator) fetchContext(ctx context.Context, req TurnRequest) (*gamestate.TurnContext, error) {
	var turnCtx *gamestate.TurnContext
	err := o.deps.ReadRetry.Do(ctx, func(ctx context.Context) error {
		var getErr error
		turnCtx, getErr = o.deps.Game.GetContext(ctx, req.CharacterID, req.TraceID)
		return getErr
	})
	if err != nil {
		return nil, err
	}

	if o.deps.Completions != nil && turnCtx.Policy.LastQuestCompletedAt == "" {
		completedAt, found, cacheErr := o.deps.Completions.GetQuestCompletion(ctx, req.CharacterID)
		if cacheErr != nil {
			o.logf("turns: completion cache read: %v", cacheErr)
		} else if found {
			turnCtx.Policy.LastQuestCompletedAt = completedAt.Format(time.RFC3339)
		}
	}
	return turnCtx, nil
}

func (o *Orchestrator) memorySpark(ctx context.Context, characterID string) []gamestate.Poi {
	if !o.cfg.MemorySparks {
		return nil
	}
	if !o.deps.Engine.EvaluateMemorySpark(characterID) {
		return nil
	}

	var pois []gamestate.Poi
	err := o.deps.ReadRetry.Do(ctx, func(ctx context.Context) error {
		var getErr error
		pois, getErr = o.deps.Game.GetRandomPois(ctx, characterID, maxMemoryPois)
		return getErr
	})
	if err != nil {
		o.logf("turns: memory spark fetch degraded: %v", err)
		return nil
	}
	return pois
}

func (o *Orchestrator) evaluatePolicy(characterID string, turnCtx *gamestate.TurnContext, memoryPois []gamestate.Poi) policy.Hints {
	state := turnCtx.Policy
	hints := policy.Hints{
		Quest: o.deps.Engine.EvaluateQuestTrigger(policy.QuestTriggerRequest{
			CharacterID:          characterID,
			TurnsSinceLastQuest:  state.TurnsSinceLastQuest,
			HasActiveQuest:       state.HasActiveQuest,
			LastQuestCompletedAt: state.LastQuestCompletedAt,
			LastQuestOfferedAt:   state.LastQuestOfferedAt,
		}),
		Poi: o.deps.Engine.EvaluatePoiTrigger(policy.PoiTriggerRequest{
			CharacterID:       characterID,
			TurnsSinceLastPoi: state.TurnsSinceLastPoi,
			HasActiveQuest:    state.HasActiveQuest,
		}),
		MemorySpark: len(memoryPois) > 0,
	}

	if hints.Quest.RollPassed && len(memoryPois) > 0 {
		reference := o.deps.Engine.EvaluateQuestPoiReference(characterID)
		hints.QuestPoiReference = &reference
	}
	return hints
}

// invokeModel builds the prompt and calls the narrative model inside
// the concurrency gate, retrying retryable failures.
func (o *Orchestrator) invokeModel(ctx context.Context, req TurnRequest, turnCtx *gamestate.TurnContext, hints policy.Hints, memoryPois []gamestate.Poi) (string, error) {
	userPrompt := prompt.UserPrompt(prompt.Input{
		PlayerAction: req.PlayerAction,
		Context:      turnCtx,
		Hints:        hints,
		MemoryPois:   memoryPois,
	})

	if err := o.deps.Gate.Enter(ctx); err != nil {
		return "", err
	}
	defer o.deps.Gate.Leave()

	var raw string
	err := o.deps.ModelRetry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		raw, genErr = o.deps.Model.Generate(ctx, narrative.GenerateRequest{
			SystemInstructions: prompt.SystemInstructions(),
			UserPrompt:         userPrompt,
			TraceID:            req.TraceID,
		})
		return genErr
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}
