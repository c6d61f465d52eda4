package schema

import "time"

// Template is the immutable persona + model configuration an agent is
// instantiated from.
type Template struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	Persona   PersonaConfig      `json:"persona" yaml:"persona"`
	Memory    MemoryPolicyConfig `json:"memory" yaml:"memory"`
	Engine    EngineConfig       `json:"engine" yaml:"engine"`
	CreatedAt time.Time          `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time          `json:"updatedAt" yaml:"-"`
}
