package model

// ScenarioRequest is the request part of a scenario configuration entry.
type ScenarioRequest struct {
	Attributes *AttributeSet `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
	Type       string        `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	TypeRef    string        `json:"typeRef,omitempty" yaml:"typeRef,omitempty" toml:"typeRef,omitempty"`
	Title      string        `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
}

// Scenario is one entry of the scenario configuration.
type Scenario struct {
	Title   string           `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Request *ScenarioRequest `json:"request,omitempty" yaml:"request,omitempty" toml:"request,omitempty"`
}

// CardTypeSchema describes how a credential type is displayed.
type CardTypeSchema struct {
	Title  string            `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Order  []string          `json:"order,omitempty" yaml:"order,omitempty" toml:"order,omitempty"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" toml:"labels,omitempty"`
	Format map[string]string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

// FieldDisplay is a formatted label/value pair of a payload field.
type FieldDisplay struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}
