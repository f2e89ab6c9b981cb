package prompt

import (
	"strings"
	"testing"

	"github.com/riftholm/riftholm/internal/services/turns/gamestate"
	"github.com/riftholm/riftholm/internal/turns/policy"
)

func TestUserPromptIncludesContextAndHints(t *testing.T) {
	got := UserPrompt(Input{
		PlayerAction: "search the ruins",
		Context: &gamestate.TurnContext{
			LocationName:    "Harrow Gate",
			ActiveQuest:     &gamestate.Quest{Title: "Old Debt", Summary: "Settle it."},
			Combat:          gamestate.CombatState{Active: true, Enemies: []string{"Bog Wraith"}},
			RecentNarrative: []string{"You crossed the marsh."},
		},
		Hints: policy.Hints{
			Quest: policy.TriggerDecision{Eligible: true, RollPassed: true},
		},
	})

	for _, want := range []string{
		"Location: Harrow Gate",
		"Active quest: Old Debt",
		"Combat in progress against: Bog Wraith",
		"You crossed the marsh.",
		"quest opportunity",
		"Player action: search the ruins",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestUserPromptOmitsAbsentSections(t *testing.T) {
	got := UserPrompt(Input{
		PlayerAction: "rest",
		Context:      &gamestate.TurnContext{LocationName: "Camp"},
	})

	for _, absent := range []string{"Active quest", "Combat in progress", "Recent events"} {
		if strings.Contains(got, absent) {
			t.Fatalf("prompt should omit %q:\n%s", absent, got)
		}
	}
}

func TestUserPromptMemoryPois(t *testing.T) {
	pois := []gamestate.Poi{{Name: "The Drowned Chapel"}, {Name: "Harrow Gate"}}

	reference := policy.TriggerDecision{Eligible: true, RollPassed: true}
	tied := UserPrompt(Input{
		PlayerAction: "wander",
		Context:      &gamestate.TurnContext{LocationName: "Camp"},
		Hints: policy.Hints{
			Quest:             policy.TriggerDecision{Eligible: true, RollPassed: true},
			QuestPoiReference: &reference,
		},
		MemoryPois: pois,
	})
	if !strings.Contains(tied, "Tie the quest to a known place") {
		t.Fatalf("expected quest-poi tie line:\n%s", tied)
	}

	plain := UserPrompt(Input{
		PlayerAction: "wander",
		Context:      &gamestate.TurnContext{LocationName: "Camp"},
		MemoryPois:   pois,
	})
	if !strings.Contains(plain, "Places the character remembers: The Drowned Chapel, Harrow Gate") {
		t.Fatalf("expected remembered places line:\n%s", plain)
	}
}
