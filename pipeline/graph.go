package pipeline

// NodeConfig is the per-kind configuration record attached to a node.
// It is plain data captured from the editor: strings, enums, numbers and
// booleans, never executable code. Each kind reads only the fields that
// concern it; the rest stay at their zero values.
type NodeConfig struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Intake stages
	UserInput              string `json:"userInput,omitempty" yaml:"user_input,omitempty"`
	Persona                string `json:"persona,omitempty" yaml:"persona,omitempty"`
	Urgency                string `json:"urgency,omitempty" yaml:"urgency,omitempty"`
	PositivePrompt         string `json:"positivePrompt,omitempty" yaml:"positive_prompt,omitempty"`
	NegativePrompt         string `json:"negativePrompt,omitempty" yaml:"negative_prompt,omitempty"`
	AdditionalInstructions string `json:"additionalInstructions,omitempty" yaml:"additional_instructions,omitempty"`

	// Routing stage
	Strategy      string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	MaxAgents     int    `json:"maxAgents,omitempty" yaml:"max_agents,omitempty"`
	AllowParallel bool   `json:"allowParallel,omitempty" yaml:"allow_parallel,omitempty"`

	// Dispatch message envelope
	Channel     string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	MessageType string `json:"messageType,omitempty" yaml:"message_type,omitempty"`
	Subject     string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Encrypted   bool   `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`

	// Provider / model selection
	Provider    string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty" yaml:"max_tokens,omitempty"`

	// Single agent stages
	AgentName  string `json:"agentName,omitempty" yaml:"agent_name,omitempty"`
	AgentLevel int    `json:"agentLevel,omitempty" yaml:"agent_level,omitempty"`

	// Cluster stage
	SelectedAgents []string `json:"selectedAgents,omitempty" yaml:"selected_agents,omitempty"`
	MaxParallel    int      `json:"maxParallel,omitempty" yaml:"max_parallel,omitempty"`
	CooldownMs     int      `json:"cooldownMs,omitempty" yaml:"cooldown_ms,omitempty"`
	LoadBalancing  string   `json:"loadBalancing,omitempty" yaml:"load_balancing,omitempty"`

	// Collector stage
	ExpectedAgents int  `json:"expectedAgents,omitempty" yaml:"expected_agents,omitempty"`
	TimeoutMs      int  `json:"timeoutMs,omitempty" yaml:"timeout_ms,omitempty"`
	AutoRetry      bool `json:"autoRetry,omitempty" yaml:"auto_retry,omitempty"`

	// Synthesis stage
	Tone         string `json:"tone,omitempty" yaml:"tone,omitempty"`
	MaxSections  int    `json:"maxSections,omitempty" yaml:"max_sections,omitempty"`
	IncludeTrace bool   `json:"includeTrace,omitempty" yaml:"include_trace,omitempty"`

	// Terminal stages: last produced result, written by the editor after
	// a run. The engine never reads it.
	Result string `json:"result,omitempty" yaml:"result,omitempty"`
}

// Clone returns a deep copy of the config.
func (c NodeConfig) Clone() NodeConfig {
	out := c
	if c.SelectedAgents != nil {
		out.SelectedAgents = make([]string, len(c.SelectedAgents))
		copy(out.SelectedAgents, c.SelectedAgents)
	}
	return out
}

// Node is a single stage instance in the graph.
type Node struct {
	ID     string     `json:"id"`
	Kind   Kind       `json:"kind"`
	Config NodeConfig `json:"config"`
}

// Edge is a typed link between two node ports.
type Edge struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	SourcePort string `json:"sourcePort"`
	Target     string `json:"target"`
	TargetPort string `json:"targetPort"`
}

// Graph holds the nodes and edges of one pipeline. It is pure data with
// accessor queries: construction never fails, and a Graph can be
// structurally well-formed yet semantically invalid; Check catches that
// before a run. Nodes and edges keep insertion order, which makes every
// traversal over the graph deterministic.
type Graph struct {
	nodes     []*Node
	nodeIndex map[string]int
	edges     []*Edge
	edgeIndex map[string]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[string]int),
	}
}

// AddNode adds a node. Adding a node with an existing id replaces it in
// place, keeping its original position in the insertion order.
func (g *Graph) AddNode(n *Node) {
	if i, ok := g.nodeIndex[n.ID]; ok {
		g.nodes[i] = n
		return
	}
	g.nodeIndex[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

// AddEdge adds an edge. Adding an edge with an existing id replaces it.
func (g *Graph) AddEdge(e *Edge) {
	if i, ok := g.edgeIndex[e.ID]; ok {
		g.edges[i] = e
		return
	}
	g.edgeIndex[e.ID] = len(g.edges)
	g.edges = append(g.edges, e)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodesOfKind returns all nodes of the given kind, in insertion order.
func (g *Graph) NodesOfKind(k Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// EdgesInto returns the edges terminating on the given node, in insertion
// order. This order defines the fan-in ordering of a node's inputs.
func (g *Graph) EdgesInto(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// EdgesOutOf returns the edges originating at the given node, in
// insertion order.
func (g *Graph) EdgesOutOf(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the graph. The coordinator snapshots the
// graph this way at run start so editor mutations cannot corrupt an
// in-flight run.
func (g *Graph) Clone() *Graph {
	out := NewGraph()
	for _, n := range g.nodes {
		cp := &Node{ID: n.ID, Kind: n.Kind, Config: n.Config.Clone()}
		out.AddNode(cp)
	}
	for _, e := range g.edges {
		cp := *e
		out.AddEdge(&cp)
	}
	return out
}
