// Package providers implements the ModelGateway against real LLM backends.
// One implementation per provider, selected by New (factory.go) keyed on the
// provider tag from configuration.
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

// summarizePrompt is the system prompt for the summarize operation. Kept
// deliberately plain: the engine treats the result as opaque text.
const summarizePrompt = "You are a conversation summarizer. Condense the " +
	"following transcript into a short running summary. Preserve key facts, " +
	"decisions, and open questions. Reply with the summary only."

// OpenAIGateway calls any OpenAI-compatible chat-completions endpoint.
type OpenAIGateway struct {
	apiKey       string
	apiBase      string
	extraHeaders map[string]string
	httpClient   *http.Client
}

// NewOpenAIGateway constructs a gateway from raw config values. apiBase
// defaults to the OpenAI endpoint when empty.
func NewOpenAIGateway(apiKey, apiBase string, extraHeaders map[string]string) *OpenAIGateway {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	return &OpenAIGateway{
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(apiBase, "/"),
		extraHeaders: extraHeaders,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Complete implements schema.ModelGateway.
func (g *OpenAIGateway) Complete(ctx context.Context, prompt string, entries []schema.ContextEntry, cfg schema.EngineConfig) (string, error) {
	return g.chat(ctx, chatMessages(prompt, entries), cfg)
}

// Summarize implements schema.ModelGateway.
func (g *OpenAIGateway) Summarize(ctx context.Context, text string, cfg schema.EngineConfig) (string, error) {
	messages := []wireMessage{
		{Role: "system", Content: summarizePrompt},
		{Role: "user", Content: text},
	}
	return g.chat(ctx, messages, summarizeConfig(cfg))
}

func (g *OpenAIGateway) chat(ctx context.Context, messages []wireMessage, cfg schema.EngineConfig) (string, error) {
	body := map[string]any{
		"model":       cfg.Model,
		"messages":    messages,
		"max_tokens":  maxTokensOrDefault(cfg.MaxTokens),
		"temperature": cfg.Temperature,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", &schema.ProviderError{Provider: "openai", Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", &schema.ProviderError{Provider: "openai", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	for k, v := range g.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &schema.ProviderError{Provider: "openai", Message: "HTTP request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &schema.ProviderError{Provider: "openai", Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &schema.ProviderError{
			Provider: "openai",
			Status:   resp.StatusCode,
			Message:  truncateBody(raw),
		}
	}

	return parseOpenAIResponse(raw)
}

// wireMessage is the request-body message shape shared by both backends.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatMessages maps assembled context entries onto chat messages. If the
// context does not end in a user entry (an empty policy window, for
// instance), the raw prompt is appended so a completion is always attempted.
func chatMessages(prompt string, entries []schema.ContextEntry) []wireMessage {
	out := make([]wireMessage, 0, len(entries)+1)
	for _, e := range entries {
		out = append(out, wireMessage{Role: string(e.Role), Content: e.Content})
	}
	if len(out) == 0 || out[len(out)-1].Role != string(schema.RoleUser) {
		out = append(out, wireMessage{Role: string(schema.RoleUser), Content: prompt})
	}
	return out
}

func parseOpenAIResponse(raw []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &schema.ProviderError{Provider: "openai", Message: "malformed response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &schema.ProviderError{Provider: "openai", Message: "response has no choices", Err: errors.New("empty choices")}
	}
	return parsed.Choices[0].Message.Content, nil
}

// summarizeConfig lowers temperature and caps tokens for summarization runs,
// which want consistency over creativity.
func summarizeConfig(cfg schema.EngineConfig) schema.EngineConfig {
	cfg.Temperature = 0.3
	if cfg.MaxTokens <= 0 || cfg.MaxTokens > 1024 {
		cfg.MaxTokens = 1024
	}
	return cfg
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}

func truncateBody(raw []byte) string {
	s := string(raw)
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
