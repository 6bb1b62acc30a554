package a2a

// AgentCapabilities lists the optional capabilities an agent supports.
type AgentCapabilities struct {
	Streaming              bool     `json:"streaming,omitempty"`
	PushNotifications      bool     `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool     `json:"stateTransitionHistory,omitempty"`
	Extensions             []string `json:"extensions,omitempty"`
}

// AgentProvider describes the organization publishing the agent.
type AgentProvider struct {
	Organization string  `json:"organization"`
	URL          *string `json:"url,omitempty"`
}

// AgentSkill describes one capability the agent advertises.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentInterface is one additional transport/URL pair an agent can be
// reached on, beyond its primary URL/PreferredTransport.
type AgentInterface struct {
	Transport string `json:"transport"`
	URL       string `json:"url"`
}

// AgentCard is the metadata document describing an agent's endpoints and
// capabilities. It is normally served at
// "/.well-known/agent-card.json" under the agent's base URL.
type AgentCard struct {
	Name                              string             `json:"name"`
	Description                       *string            `json:"description,omitempty"`
	URL                               string             `json:"url"`
	PreferredTransport                string             `json:"preferredTransport,omitempty"`
	AdditionalInterfaces              []AgentInterface   `json:"additionalInterfaces,omitempty"`
	Provider                          *AgentProvider     `json:"provider,omitempty"`
	Version                           string             `json:"version"`
	DocumentationURL                  *string            `json:"documentationUrl,omitempty"`
	Capabilities                      AgentCapabilities  `json:"capabilities"`
	DefaultInputModes                 []string           `json:"defaultInputModes,omitempty"`
	DefaultOutputModes                []string           `json:"defaultOutputModes,omitempty"`
	Skills                            []AgentSkill       `json:"skills"`
	SupportsAuthenticatedExtendedCard bool               `json:"supportsAuthenticatedExtendedCard,omitempty"`
}

// WellKnownAgentCardPath is the default path at which an agent publishes
// its AgentCard under its base URL.
const WellKnownAgentCardPath = "/.well-known/agent-card.json"
