package providers

import (
	"fmt"

	"github.com/amberseal/amberseal/internal/schema"
)

// Params are the raw values needed to construct any schema.ModelGateway.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	Provider     string // provider tag: "openai", "anthropic", "custom"
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
}

// ErrUnsupportedProvider is returned (wrapped with the offending tag) when
// configuration names a provider this build does not implement.
var ErrUnsupportedProvider = fmt.Errorf("unsupported provider")

// New creates the gateway for the given provider tag.
//
//   - anthropic          → AnthropicGateway (Messages API)
//   - openai, custom, "" → OpenAIGateway (any OpenAI-compatible endpoint;
//     "custom" must set APIBase)
//   - anything else      → ErrUnsupportedProvider
func New(p Params) (schema.ModelGateway, error) {
	switch p.Provider {
	case "anthropic":
		return NewAnthropicGateway(p.APIKey, p.APIBase, p.ExtraHeaders), nil
	case "openai", "custom", "":
		return NewOpenAIGateway(p.APIKey, p.APIBase, p.ExtraHeaders), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, p.Provider)
}
