// Package llm generates text against a cached context.
package llm

import "context"

// Generator produces a completion for a prompt using the model and
// cached context named by the caller.
type Generator interface {
	// Generate runs the prompt on the model with the cached context
	// attached. The cache carries the documents and system
	// instruction; the prompt is the per-stage delta only.
	Generate(ctx context.Context, model, cacheID, promptText string) (string, error)
}
