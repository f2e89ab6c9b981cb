// Package narrative provides the client contract for the generative
// narrative model and its OpenAI-compatible HTTP implementation.
package narrative

import "context"

// GenerateRequest carries one model invocation.
type GenerateRequest struct {
	SystemInstructions string
	UserPrompt         string
	TraceID            string
}

// Generator invokes the narrative model and returns its raw textual
// output. Callers feed the text through the outcome parser; parse
// failures are never surfaced as Generator errors.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
