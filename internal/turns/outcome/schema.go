package outcome

// outcomeSchema is the fixed JSON Schema a model response must satisfy.
// Action fields are closed enumerations; anything else is a validation
// failure, not a value to coerce.
const outcomeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["narrative", "intents"],
  "properties": {
    "narrative": {
      "type": "string",
      "minLength": 1
    },
    "intents": {
      "type": "object",
      "properties": {
        "quest": {
          "type": "object",
          "required": ["action"],
          "properties": {
            "action": {"enum": ["none", "offer", "complete", "abandon"]},
            "title": {"type": "string"},
            "summary": {"type": "string"},
            "details": {"type": "object"}
          }
        },
        "combat": {
          "type": "object",
          "required": ["action"],
          "properties": {
            "action": {"enum": ["none", "start", "continue", "end"]},
            "enemies": {"type": "array", "items": {"type": "string"}},
            "notes": {"type": "string"}
          }
        },
        "poi": {
          "type": "object",
          "required": ["action"],
          "properties": {
            "action": {"enum": ["none", "create", "reference"]},
            "name": {"type": "string"},
            "description": {"type": "string"},
            "tags": {"type": "array", "items": {"type": "string"}}
          }
        },
        "meta": {
          "type": "object",
          "properties": {
            "tone": {"type": "string"},
            "hooks": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    }
  }
}`
