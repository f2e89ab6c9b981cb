package outcome

import "strings"

// Deterministic fallback values applied when the policy layer expected
// a subsystem suggestion that the model omitted or malformed.
const (
	FallbackQuestTitle   = "A New Opportunity"
	FallbackQuestSummary = "An opportunity for adventure presents itself."

	FallbackPoiName        = "An Unmarked Place"
	FallbackPoiDescription = "A place whose story has not yet been told."

	maxPoiNameLength        = 200
	maxPoiDescriptionLength = 2000
)

// NormalizeQuestIntent reconciles the model's quest suggestion with the
// policy decision. A triggered policy with no usable intent synthesizes
// a fallback offer; an offer with blank fields gets the same fallback
// values. Non-offer actions pass through unchanged.
func NormalizeQuestIntent(intent *QuestIntent, policyTriggered bool) *QuestIntent {
	if intent == nil {
		if !policyTriggered {
			return nil
		}
		return &QuestIntent{
			Action:  QuestActionOffer,
			Title:   FallbackQuestTitle,
			Summary: FallbackQuestSummary,
			Details: map[string]any{},
		}
	}

	if intent.Action != QuestActionOffer {
		return intent
	}

	normalized := *intent
	if strings.TrimSpace(normalized.Title) == "" {
		normalized.Title = FallbackQuestTitle
	}
	if strings.TrimSpace(normalized.Summary) == "" {
		normalized.Summary = FallbackQuestSummary
	}
	if normalized.Details == nil {
		normalized.Details = map[string]any{}
	}
	return &normalized
}

// NormalizePoiIntent reconciles the model's POI suggestion with the
// policy decision. locationName, when available, is preferred over the
// generic fallback name. Created POIs have their name and description
// trimmed to fixed caps.
func NormalizePoiIntent(intent *PoiIntent, policyTriggered bool, locationName string) *PoiIntent {
	fallbackName := strings.TrimSpace(locationName)
	if fallbackName == "" {
		fallbackName = FallbackPoiName
	}

	if intent == nil {
		if !policyTriggered {
			return nil
		}
		return &PoiIntent{
			Action:      PoiActionCreate,
			Name:        truncate(fallbackName, maxPoiNameLength),
			Description: FallbackPoiDescription,
		}
	}

	if intent.Action != PoiActionCreate {
		return intent
	}

	normalized := *intent
	if strings.TrimSpace(normalized.Name) == "" {
		normalized.Name = fallbackName
	}
	if strings.TrimSpace(normalized.Description) == "" {
		normalized.Description = FallbackPoiDescription
	}
	normalized.Name = truncate(normalized.Name, maxPoiNameLength)
	normalized.Description = truncate(normalized.Description, maxPoiDescriptionLength)
	return &normalized
}
