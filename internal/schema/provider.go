package schema

import (
	"context"
	"fmt"
)

// EngineConfig configures a single model call.
type EngineConfig struct {
	Model       string  `json:"model" yaml:"model"`
	MaxTokens   int     `json:"maxTokens" yaml:"maxTokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// ContextEntry is one element of the assembled model context. The system
// preamble comes first; windowed conversation messages follow in order.
type ContextEntry struct {
	Role    Role
	Content string
}

// String renders the entry in the "{role}: {content}" form used when a
// context must be flattened to plain text.
func (e ContextEntry) String() string {
	return fmt.Sprintf("%s: %s", e.Role, e.Content)
}

// ModelGateway is the opaque language-model collaborator. No streaming or
// partial-result semantics are assumed; both operations either return the
// full text or fail with a *ProviderError.
type ModelGateway interface {
	// Complete answers the user prompt given the assembled context.
	Complete(ctx context.Context, prompt string, entries []ContextEntry, cfg EngineConfig) (string, error)
	// Summarize condenses a conversation transcript into a running summary.
	Summarize(ctx context.Context, text string, cfg EngineConfig) (string, error)
}

// ProviderError is a failed model-provider call: timeout, rate limit,
// non-2xx status, or a malformed response body.
type ProviderError struct {
	Provider string
	Status   int // HTTP status when applicable, 0 otherwise
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
