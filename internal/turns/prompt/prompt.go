// Package prompt assembles the narrative model's instructions from the
// turn context and the policy hints.
package prompt

import (
	"fmt"
	"strings"

	"github.com/riftholm/riftholm/internal/services/turns/gamestate"
	"github.com/riftholm/riftholm/internal/turns/policy"
)

// Input carries everything the prompt builder may reference.
type Input struct {
	PlayerAction string
	Context      *gamestate.TurnContext
	Hints        policy.Hints
	MemoryPois   []gamestate.Poi
}

// SystemInstructions returns the fixed contract the model must follow.
// The response shape mirrors the outcome schema; prose style is left to
// the model.
func SystemInstructions() string {
	return strings.TrimSpace(`
You are the narrator of a text adventure. Respond with a single JSON object:
{"narrative": "<what happens next>", "intents": {"quest": {"action": "none|offer|complete|abandon", "title": "", "summary": ""}, "combat": {"action": "none|start|continue|end", "enemies": []}, "poi": {"action": "none|create|reference", "name": "", "description": ""}}}
Only suggest subsystem changes the scene supports. Output JSON only, no surrounding text.`)
}

// UserPrompt renders the per-turn prompt from context and hints.
func UserPrompt(input Input) string {
	var b strings.Builder

	turnCtx := input.Context
	fmt.Fprintf(&b, "Location: %s\n", turnCtx.LocationName)
	if turnCtx.ActiveQuest != nil {
		fmt.Fprintf(&b, "Active quest: %s (%s)\n", turnCtx.ActiveQuest.Title, turnCtx.ActiveQuest.Summary)
	}
	if turnCtx.Combat.Active {
		fmt.Fprintf(&b, "Combat in progress against: %s\n", strings.Join(turnCtx.Combat.Enemies, ", "))
	}
	if len(turnCtx.RecentNarrative) > 0 {
		b.WriteString("Recent events:\n")
		for _, entry := range turnCtx.RecentNarrative {
			fmt.Fprintf(&b, "- %s\n", entry)
		}
	}

	if input.Hints.Quest.RollPassed {
		b.WriteString("A new quest opportunity should present itself this turn.\n")
	}
	if input.Hints.Poi.RollPassed {
		b.WriteString("Introduce a memorable new location this turn.\n")
	}
	if input.Hints.QuestPoiReference != nil && input.Hints.QuestPoiReference.RollPassed && len(input.MemoryPois) > 0 {
		fmt.Fprintf(&b, "Tie the quest to a known place if natural: %s\n", poiNames(input.MemoryPois))
	} else if len(input.MemoryPois) > 0 {
		fmt.Fprintf(&b, "Places the character remembers: %s\n", poiNames(input.MemoryPois))
	}

	fmt.Fprintf(&b, "\nPlayer action: %s", input.PlayerAction)
	return b.String()
}

func poiNames(pois []gamestate.Poi) string {
	names := make([]string, 0, len(pois))
	for _, poi := range pois {
		names = append(names, poi.Name)
	}
	return strings.Join(names, ", ")
}
