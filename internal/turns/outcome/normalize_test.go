package outcome

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeQuestIntentNilUntriggered(t *testing.T) {
	if got := NormalizeQuestIntent(nil, false); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestNormalizeQuestIntentNilTriggeredSynthesizesOffer(t *testing.T) {
	got := NormalizeQuestIntent(nil, true)

	if got == nil {
		t.Fatal("expected synthesized intent")
	}
	if got.Action != QuestActionOffer {
		t.Fatalf("expected offer, got %q", got.Action)
	}
	if got.Title != FallbackQuestTitle {
		t.Fatalf("expected fallback title, got %q", got.Title)
	}
	if got.Summary != FallbackQuestSummary {
		t.Fatalf("expected fallback summary, got %q", got.Summary)
	}
	if got.Details == nil || len(got.Details) != 0 {
		t.Fatalf("expected empty details map, got %v", got.Details)
	}
}

func TestNormalizeQuestIntentOfferFillsBlanks(t *testing.T) {
	got := NormalizeQuestIntent(&QuestIntent{Action: QuestActionOffer, Title: "  "}, true)

	if got.Title != FallbackQuestTitle {
		t.Fatalf("expected fallback title for blank input, got %q", got.Title)
	}
	if got.Summary != FallbackQuestSummary {
		t.Fatalf("expected fallback summary for missing input, got %q", got.Summary)
	}
	if got.Details == nil {
		t.Fatal("expected details map to be initialized")
	}
}

func TestNormalizeQuestIntentOfferKeepsProvidedFields(t *testing.T) {
	intent := &QuestIntent{
		Action:  QuestActionOffer,
		Title:   "The Bell Below",
		Summary: "Find the sunken bell.",
		Details: map[string]any{"reward": "silver"},
	}
	got := NormalizeQuestIntent(intent, true)

	if got.Title != "The Bell Below" || got.Summary != "Find the sunken bell." {
		t.Fatalf("expected provided fields preserved, got %+v", got)
	}
	if got.Details["reward"] != "silver" {
		t.Fatal("expected details preserved")
	}
}

func TestNormalizeQuestIntentDoesNotMutateInput(t *testing.T) {
	intent := &QuestIntent{Action: QuestActionOffer}
	got := NormalizeQuestIntent(intent, true)

	if got.Details == nil {
		t.Fatal("expected normalized details map")
	}
	if intent.Details != nil || intent.Title != "" {
		t.Fatal("input intent was mutated")
	}
}

func TestNormalizeQuestIntentPassThroughActions(t *testing.T) {
	for _, action := range []QuestAction{QuestActionComplete, QuestActionAbandon, QuestActionNone} {
		intent := &QuestIntent{Action: action}
		if got := NormalizeQuestIntent(intent, true); got != intent {
			t.Fatalf("expected %q to pass through unchanged", action)
		}
	}
}

func TestNormalizePoiIntentNilUntriggered(t *testing.T) {
	if got := NormalizePoiIntent(nil, false, "Ruined Chapel"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestNormalizePoiIntentNilTriggeredPrefersLocationName(t *testing.T) {
	got := NormalizePoiIntent(nil, true, "Ruined Chapel")

	if got == nil || got.Action != PoiActionCreate {
		t.Fatalf("expected synthesized create intent, got %+v", got)
	}
	if got.Name != "Ruined Chapel" {
		t.Fatalf("expected location name, got %q", got.Name)
	}
	if got.Description != FallbackPoiDescription {
		t.Fatalf("expected fallback description, got %q", got.Description)
	}
}

func TestNormalizePoiIntentNilTriggeredGenericFallback(t *testing.T) {
	got := NormalizePoiIntent(nil, true, "")

	if got.Name != FallbackPoiName {
		t.Fatalf("expected generic fallback name, got %q", got.Name)
	}
}

func TestNormalizePoiIntentCreateTrimsLongFields(t *testing.T) {
	got := NormalizePoiIntent(&PoiIntent{
		Action:      PoiActionCreate,
		Name:        strings.Repeat("n", maxPoiNameLength+50),
		Description: strings.Repeat("d", maxPoiDescriptionLength+50),
	}, true, "")

	if len(got.Name) != maxPoiNameLength {
		t.Fatalf("expected name trimmed to %d, got %d", maxPoiNameLength, len(got.Name))
	}
	if len(got.Description) != maxPoiDescriptionLength {
		t.Fatalf("expected description trimmed to %d, got %d", maxPoiDescriptionLength, len(got.Description))
	}
}

func TestNormalizePoiIntentReferencePassesThrough(t *testing.T) {
	intent := &PoiIntent{Action: PoiActionReference, Name: "Ruined Chapel"}
	if got := NormalizePoiIntent(intent, false, "Elsewhere"); got != intent {
		t.Fatal("expected reference intent to pass through unchanged")
	}
}

func TestNormalizePoiIntentTrimsOnRuneBoundary(t *testing.T) {
	got := NormalizePoiIntent(&PoiIntent{
		Action:      PoiActionCreate,
		Name:        strings.Repeat("é", maxPoiNameLength+50),
		Description: strings.Repeat("雨", maxPoiDescriptionLength+50),
	}, true, "")

	if count := utf8.RuneCountInString(got.Name); count != maxPoiNameLength {
		t.Fatalf("expected name trimmed to %d runes, got %d", maxPoiNameLength, count)
	}
	if !utf8.ValidString(got.Name) {
		t.Fatal("trimmed name must remain valid UTF-8")
	}
	if count := utf8.RuneCountInString(got.Description); count != maxPoiDescriptionLength {
		t.Fatalf("expected description trimmed to %d runes, got %d", maxPoiDescriptionLength, count)
	}
	if !utf8.ValidString(got.Description) {
		t.Fatal("trimmed description must remain valid UTF-8")
	}
}
