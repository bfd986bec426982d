package invoke

import "context"

// Request is the payload sent to the agent backend for one invocation.
type Request struct {
	// Message is the composed prompt text for the agents.
	Message string `json:"message"`
	// AgentIDs names the agents that should handle the message.
	AgentIDs []string `json:"agents"`
	// Model is the already-resolved model identifier.
	Model string `json:"model"`
	// ProviderConfig carries opaque provider credentials/settings, if any.
	ProviderConfig map[string]string `json:"providerConfig,omitempty"`
	// Context is the structured stage configuration snapshot forwarded to
	// the backend for routing and synthesis hints.
	Context map[string]any `json:"context,omitempty"`
}

// Response is the backend's answer to one invocation.
type Response struct {
	Success    bool     `json:"success"`
	Result     string   `json:"result,omitempty"`
	Error      string   `json:"error,omitempty"`
	AgentsUsed []string `json:"agents_used,omitempty"`
	ModelUsed  string   `json:"model_used,omitempty"`
}

// Invoker is the boundary to the remote agent service. The engine treats
// it as opaque: it may fail or time out, and every failure surfaces as a
// per-node error through the coordinator rather than an exception.
type Invoker interface {
	// Invoke performs one agent invocation. A non-nil error covers
	// transport-level failures; a Response with Success=false covers
	// remote error payloads. Both abort only the calling node.
	Invoke(ctx context.Context, req *Request) (*Response, error)

	// Name returns the invoker's identifier for logging.
	Name() string
}
