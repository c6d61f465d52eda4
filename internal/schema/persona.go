package schema

// PersonaConfig is the read-only persona an agent speaks as. Empty fields
// are legal and rendered as-is; the context assembler never rejects a persona.
type PersonaConfig struct {
	Traits       []string `json:"traits" yaml:"traits"`
	Backstory    string   `json:"backstory" yaml:"backstory"`
	Instructions string   `json:"instructions" yaml:"instructions"`
}
