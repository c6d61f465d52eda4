// Package config defines the configuration schema for amberseal.
//
// Config lives at ~/.amberseal/config.json with camelCase keys.
package config

import (
	"os"
	"path/filepath"
)

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for all supported LLM providers.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Custom    ProviderConfig `json:"custom"`
}

// AgentDefaults holds default engine settings applied to new templates.
type AgentDefaults struct {
	Workspace   string  `json:"workspace"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Workspace:   "~/.amberseal/workspace",
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// AgentsConfig wraps agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{Host: "127.0.0.1", Port: 18420}
}

// MaintenanceConfig controls the idle-agent sweeper.
type MaintenanceConfig struct {
	// SweepSchedule is a cron expression; empty disables the sweeper.
	SweepSchedule string `json:"sweepSchedule"`
	// IdleMinutes is how long an agent handle may sit unused before
	// it is evicted from memory. State on disk is unaffected.
	IdleMinutes int `json:"idleMinutes"`
}

func defaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		SweepSchedule: "*/10 * * * *",
		IdleMinutes:   30,
	}
}

// Config is the root configuration object, loaded from ~/.amberseal/config.json.
type Config struct {
	Agents      AgentsConfig      `json:"agents"`
	Providers   ProvidersConfig   `json:"providers"`
	Server      ServerConfig      `json:"server"`
	Maintenance MaintenanceConfig `json:"maintenance"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agents:      AgentsConfig{Defaults: defaultAgentDefaults()},
		Providers:   ProvidersConfig{},
		Server:      defaultServerConfig(),
		Maintenance: defaultMaintenanceConfig(),
	}
}

// WorkspacePath returns the expanded absolute path to the agent workspace.
func (c *Config) WorkspacePath() string {
	ws := c.Agents.Defaults.Workspace
	if ws == "" {
		ws = "~/.amberseal/workspace"
	}
	if len(ws) >= 2 && ws[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			ws = filepath.Join(home, ws[2:])
		}
	}
	return ws
}

// ProviderByName returns a pointer to the ProviderConfig field matching the
// given provider name. Returns nil if unknown.
func (c *Config) ProviderByName(name string) *ProviderConfig {
	switch name {
	case "openai":
		return &c.Providers.OpenAI
	case "anthropic":
		return &c.Providers.Anthropic
	case "custom":
		return &c.Providers.Custom
	}
	return nil
}
