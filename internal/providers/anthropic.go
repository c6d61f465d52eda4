package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amberseal/amberseal/internal/schema"
)

// AnthropicGateway calls the Anthropic Messages API. System entries go into
// the top-level system parameter rather than the message list.
type AnthropicGateway struct {
	apiKey       string
	apiBase      string
	extraHeaders map[string]string
	httpClient   *http.Client
}

func NewAnthropicGateway(apiKey, apiBase string, extraHeaders map[string]string) *AnthropicGateway {
	if apiBase == "" {
		apiBase = "https://api.anthropic.com/v1"
	}
	return &AnthropicGateway{
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(apiBase, "/"),
		extraHeaders: extraHeaders,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Complete implements schema.ModelGateway.
func (g *AnthropicGateway) Complete(ctx context.Context, prompt string, entries []schema.ContextEntry, cfg schema.EngineConfig) (string, error) {
	system, messages := splitSystem(chatMessages(prompt, entries))
	return g.chat(ctx, system, messages, cfg)
}

// Summarize implements schema.ModelGateway.
func (g *AnthropicGateway) Summarize(ctx context.Context, text string, cfg schema.EngineConfig) (string, error) {
	messages := []wireMessage{{Role: "user", Content: text}}
	return g.chat(ctx, summarizePrompt, messages, summarizeConfig(cfg))
}

func (g *AnthropicGateway) chat(ctx context.Context, system string, messages []wireMessage, cfg schema.EngineConfig) (string, error) {
	body := map[string]any{
		"model":       cfg.Model,
		"messages":    messages,
		"max_tokens":  maxTokensOrDefault(cfg.MaxTokens),
		"temperature": cfg.Temperature,
	}
	if system != "" {
		body["system"] = system
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", &schema.ProviderError{Provider: "anthropic", Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.apiBase+"/messages", bytes.NewReader(data))
	if err != nil {
		return "", &schema.ProviderError{Provider: "anthropic", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	for k, v := range g.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &schema.ProviderError{Provider: "anthropic", Message: "HTTP request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &schema.ProviderError{Provider: "anthropic", Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &schema.ProviderError{
			Provider: "anthropic",
			Status:   resp.StatusCode,
			Message:  truncateBody(raw),
		}
	}

	return parseAnthropicResponse(raw)
}

// splitSystem pulls system-role messages out into the system parameter;
// Anthropic rejects system entries inside the message list.
func splitSystem(messages []wireMessage) (string, []wireMessage) {
	var system []string
	rest := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == string(schema.RoleSystem) {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

func parseAnthropicResponse(raw []byte) (string, error) {
	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &schema.ProviderError{Provider: "anthropic", Message: "malformed response", Err: err}
	}
	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &schema.ProviderError{Provider: "anthropic", Message: "response has no text content", Err: errors.New("empty content")}
	}
	return sb.String(), nil
}
