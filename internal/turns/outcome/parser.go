package outcome

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	// maxSalvagedNarrative caps narrative text recovered from raw,
	// non-conforming model output.
	maxSalvagedNarrative = 500
	// maxLoggedPreview caps the payload preview written to logs.
	maxLoggedPreview = 200

	// fallbackNarrative is returned when nothing usable can be
	// recovered from the model response.
	fallbackNarrative = "The world shifts around you, though the details are hazy. What do you do next?"
)

const schemaURL = "https://riftholm.dev/schemas/turn-outcome.schema.json"

var narrativeFragmentPattern = regexp.MustCompile(`"narrative"\s*:\s*("(?:[^"\\]|\\.)*")`)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._\-]+`),
	regexp.MustCompile(`(?i)(api[_-]?key"?\s*[:=]\s*"?)[A-Za-z0-9._\-]+`),
}

// Parser validates raw model output against the outcome schema. The
// schema is compiled once at construction.
type Parser struct {
	schema *jsonschema.Schema
	logf   func(format string, args ...any)
}

// NewParser compiles the outcome schema and builds a parser.
func NewParser() (*Parser, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(outcomeSchema)); err != nil {
		return nil, fmt.Errorf("load outcome schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile outcome schema: %w", err)
	}
	return &Parser{
		schema: compiled,
		logf:   log.Printf,
	}, nil
}

// Parse turns raw model output into a ParsedOutcome. It never fails:
// non-conforming input degrades to an invalid result whose Narrative is
// recovered from the raw text when possible.
func (p *Parser) Parse(raw string) ParsedOutcome {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		p.logf("outcome: json decode failed: %v; payload preview: %s", err, previewPayload(raw))
		return ParsedOutcome{
			Narrative:    salvageNarrative(raw),
			ErrorType:    ErrorTypeJSONDecode,
			ErrorDetails: []string{err.Error()},
		}
	}

	if err := p.schema.Validate(decoded); err != nil {
		details := validationDetails(err)
		p.logf("outcome: schema validation failed: %v; payload preview: %s", details, previewPayload(raw))
		return ParsedOutcome{
			Narrative:    narrativeFromDecoded(decoded, raw),
			ErrorType:    ErrorTypeValidation,
			ErrorDetails: details,
		}
	}

	var parsed Outcome
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Schema passed but the struct decode did not; treat it as a
		// validation failure so callers see one degraded shape.
		p.logf("outcome: struct decode failed after validation: %v", err)
		return ParsedOutcome{
			Narrative:    narrativeFromDecoded(decoded, raw),
			ErrorType:    ErrorTypeValidation,
			ErrorDetails: []string{err.Error()},
		}
	}

	return ParsedOutcome{
		Outcome:   &parsed,
		Narrative: parsed.Narrative,
		Valid:     true,
	}
}

// narrativeFromDecoded prefers the partially decoded narrative field
// when it is a non-empty string, then falls back to raw-text salvage.
func narrativeFromDecoded(decoded any, raw string) string {
	if obj, ok := decoded.(map[string]any); ok {
		if narrative, ok := obj["narrative"].(string); ok && strings.TrimSpace(narrative) != "" {
			return narrative
		}
	}
	return salvageNarrative(raw)
}

// salvageNarrative recovers a usable narrative from non-JSON output:
// an embedded "narrative" fragment first, then the raw text itself
// truncated to a fixed cap, then a generic placeholder.
func salvageNarrative(raw string) string {
	if match := narrativeFragmentPattern.FindStringSubmatch(raw); match != nil {
		var fragment string
		if err := json.Unmarshal([]byte(match[1]), &fragment); err == nil && strings.TrimSpace(fragment) != "" {
			return fragment
		}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && !looksLikeErrorToken(trimmed) {
		return truncate(trimmed, maxSalvagedNarrative)
	}
	return fallbackNarrative
}

func looksLikeErrorToken(text string) bool {
	lower := strings.ToLower(text)
	return lower == "null" ||
		lower == "undefined" ||
		strings.HasPrefix(lower, "error") ||
		strings.HasPrefix(lower, "internal server error")
}

func validationDetails(err error) []string {
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	var details []string
	collectCauses(validationErr, &details)
	return details
}

func collectCauses(err *jsonschema.ValidationError, details *[]string) {
	if len(err.Causes) == 0 {
		*details = append(*details, fmt.Sprintf("%s: %s", err.InstanceLocation, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectCauses(cause, details)
	}
}

// previewPayload truncates and redacts raw model output for logging.
func previewPayload(raw string) string {
	preview := truncate(raw, maxLoggedPreview)
	for _, pattern := range secretPatterns {
		preview = pattern.ReplaceAllString(preview, "${1}[redacted]")
	}
	return preview
}

// truncate caps text at limit characters, never splitting a rune.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
