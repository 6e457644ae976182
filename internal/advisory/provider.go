// Package advisory asks an external language model to explain questions and
// propose study plans. It sits entirely off the scoring path: a slow or
// failing model never touches a running exam session.
package advisory

import "context"

// Provider generates plain text from a prompt against a named model.
type Provider interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// Config is the explicit advisory configuration. The advisory code never
// reads it from ambient storage; the caller loads it and passes it in.
type Config struct {
	// APIKey is the provider credential. Empty means not configured: every
	// call fails fast with ErrNotConfigured before touching the network.
	APIKey string

	// Model is the preferred model identifier.
	Model string

	// Fallback is the fixed model preference order. A failed call is
	// retried against the remaining candidates, starting from Model.
	Fallback []string
}

// DefaultModel is the preferred model when none is configured.
const DefaultModel = "gemini-3-pro-preview"

// DefaultFallback is the fixed model preference order.
var DefaultFallback = []string{
	"gemini-3-flash-preview",
	"gemini-3-pro-preview",
	"gemini-2.5-flash",
}
