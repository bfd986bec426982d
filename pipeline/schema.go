package pipeline

// Kind identifies the closed category of a pipeline stage.
type Kind string

// Staged schema kinds: the strict seven-stage linear pipeline.
const (
	// KindQuery is the intake stage carrying the user request text.
	KindQuery Kind = "query"
	// KindRouting carries model and routing configuration.
	KindRouting Kind = "routing"
	// KindDispatch carries the message envelope configuration.
	KindDispatch Kind = "dispatch"
	// KindCluster fans the composed message out to the selected agents.
	KindCluster Kind = "cluster"
	// KindCollector gathers per-agent responses into one summary.
	KindCollector Kind = "collector"
	// KindSynthesis merges collected responses into the final text.
	KindSynthesis Kind = "synthesis"
	// KindResult is the terminal stage holding the final artifact.
	KindResult Kind = "result"
)

// FreeForm schema kinds: the loosely-structured prompt/agent/provider graph.
const (
	KindPrompt      Kind = "prompt"
	KindAgentL1     Kind = "agent_l1"
	KindAgentL2     Kind = "agent_l2"
	KindAgentL3     Kind = "agent_l3"
	KindAgentL4     Kind = "agent_l4"
	KindAgentL5     Kind = "agent_l5"
	KindProvider    Kind = "ai_provider"
	KindOutput      Kind = "output_base"
	KindFinalOutput Kind = "output_final"
)

// Channel is the semantic category of a connection, used for validation
// and for the editor's visual feedback.
type Channel string

const (
	// ChannelPrompt carries composed prompt text.
	ChannelPrompt Channel = "prompt"
	// ChannelAIConfig carries provider/model configuration.
	ChannelAIConfig Channel = "ai-config"
	// ChannelAgentOutput carries an agent's response.
	ChannelAgentOutput Channel = "agent-output"
	// ChannelData carries auxiliary structured data.
	ChannelData Channel = "data"
)

// Direction distinguishes source ports from target ports.
type Direction string

const (
	DirectionSource Direction = "source"
	DirectionTarget Direction = "target"
)

// PortSpec describes a named attachment point on a node kind. Ports are
// enumerated by the schema, never created dynamically.
type PortSpec struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	Channel   Channel   `json:"channel"`
}

// ConfigValidator checks kind-specific configuration on a node, e.g. a
// cluster stage with an empty agent selection. A nil return means valid.
type ConfigValidator func(n *Node) error

// KindSpec describes one node kind: its ports, whether the kind must be
// present for a graph to be runnable, and its config validator.
type KindSpec struct {
	Kind     Kind
	Label    string
	Ports    []PortSpec
	Required bool
	Validate ConfigValidator
}

// Port returns the port with the given id and direction, if the kind has it.
func (ks *KindSpec) Port(id string, dir Direction) (PortSpec, bool) {
	for _, p := range ks.Ports {
		if p.ID == id && p.Direction == dir {
			return p, true
		}
	}
	return PortSpec{}, false
}

// Transition is one row of the pipeline grammar: an edge from
// (FromKind, FromPort) to (ToKind, ToPort) is legal and belongs to Channel.
type Transition struct {
	FromKind Kind
	FromPort string
	ToKind   Kind
	ToPort   string
	Channel  Channel
}

type transitionKey struct {
	fromKind Kind
	fromPort string
	toKind   Kind
	toPort   string
}

// Schema is the immutable table of node kinds and legal transitions.
// Build it once at startup; it is never mutated afterwards.
type Schema struct {
	name        string
	kinds       map[Kind]*KindSpec
	kindOrder   []Kind
	transitions map[transitionKey]Channel
}

// NewSchema builds a schema from kind specs and a transition table.
func NewSchema(name string, kinds []KindSpec, transitions []Transition) *Schema {
	s := &Schema{
		name:        name,
		kinds:       make(map[Kind]*KindSpec, len(kinds)),
		kindOrder:   make([]Kind, 0, len(kinds)),
		transitions: make(map[transitionKey]Channel, len(transitions)),
	}
	for i := range kinds {
		ks := kinds[i]
		s.kinds[ks.Kind] = &ks
		s.kindOrder = append(s.kindOrder, ks.Kind)
	}
	for _, t := range transitions {
		s.transitions[transitionKey{t.FromKind, t.FromPort, t.ToKind, t.ToPort}] = t.Channel
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Kind returns the KindSpec for a kind.
func (s *Schema) Kind(k Kind) (*KindSpec, bool) {
	ks, ok := s.kinds[k]
	return ks, ok
}

// Kinds returns all kinds in declaration order.
func (s *Schema) Kinds() []Kind {
	out := make([]Kind, len(s.kindOrder))
	copy(out, s.kindOrder)
	return out
}

// RequiredKinds returns the kinds that must appear in a runnable graph,
// in declaration order.
func (s *Schema) RequiredKinds() []Kind {
	var out []Kind
	for _, k := range s.kindOrder {
		if s.kinds[k].Required {
			out = append(out, k)
		}
	}
	return out
}

// Transitions returns all transitions of the schema. Order is unspecified.
func (s *Schema) Transitions() []Transition {
	out := make([]Transition, 0, len(s.transitions))
	for key, ch := range s.transitions {
		out = append(out, Transition{
			FromKind: key.fromKind,
			FromPort: key.fromPort,
			ToKind:   key.toKind,
			ToPort:   key.toPort,
			Channel:  ch,
		})
	}
	return out
}

// IsLegal reports whether an edge from (fromKind, fromPort) to
// (toKind, toPort) is permitted by the transition table, and on which
// channel. It is a pure exact-match lookup: unknown kinds or ports simply
// yield false, never a panic.
func (s *Schema) IsLegal(fromKind Kind, fromPort string, toKind Kind, toPort string) (Channel, bool) {
	ch, ok := s.transitions[transitionKey{fromKind, fromPort, toKind, toPort}]
	return ch, ok
}
