package engine

import "github.com/BaSui01/agentpipe/pipeline"

// NoOutputText is the explicit sentinel a terminal stage produces when no
// input ever reached it. Terminal stages always produce a value, never
// absence.
const NoOutputText = "No output generated"

// Output is the value produced by one executed node. Text is set by
// every stage that produces or forwards prompt/response text; Settings is
// set by configuration stages and carried along so downstream agent
// stages can resolve their model; AgentsUsed and ModelUsed report what
// the remote service actually exercised.
type Output struct {
	Text       string               `json:"text,omitempty"`
	Settings   *pipeline.NodeConfig `json:"settings,omitempty"`
	AgentsUsed []string             `json:"agentsUsed,omitempty"`
	ModelUsed  string               `json:"modelUsed,omitempty"`
}
