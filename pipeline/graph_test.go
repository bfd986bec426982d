package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stagedGraph builds a well-formed seven-stage pipeline used across the
// package tests.
func stagedGraph() *Graph {
	g := NewGraph()
	g.AddNode(&Node{ID: "q", Kind: KindQuery, Config: NodeConfig{UserInput: "summarize the report"}})
	g.AddNode(&Node{ID: "r", Kind: KindRouting, Config: NodeConfig{Model: "openai/gpt-oss-120b"}})
	g.AddNode(&Node{ID: "d", Kind: KindDispatch})
	g.AddNode(&Node{ID: "c", Kind: KindCluster, Config: NodeConfig{SelectedAgents: []string{"analyst", "critic"}}})
	g.AddNode(&Node{ID: "col", Kind: KindCollector})
	g.AddNode(&Node{ID: "s", Kind: KindSynthesis})
	g.AddNode(&Node{ID: "res", Kind: KindResult})

	g.AddEdge(&Edge{ID: "e1", Source: "q", SourcePort: "output", Target: "r", TargetPort: "input"})
	g.AddEdge(&Edge{ID: "e2", Source: "r", SourcePort: "output", Target: "d", TargetPort: "input"})
	g.AddEdge(&Edge{ID: "e3", Source: "d", SourcePort: "output", Target: "c", TargetPort: "input"})
	g.AddEdge(&Edge{ID: "e4", Source: "c", SourcePort: "output", Target: "col", TargetPort: "input"})
	g.AddEdge(&Edge{ID: "e5", Source: "col", SourcePort: "output", Target: "s", TargetPort: "input"})
	g.AddEdge(&Edge{ID: "e6", Source: "s", SourcePort: "output", Target: "res", TargetPort: "input"})
	return g
}

func TestGraph_InsertionOrder(t *testing.T) {
	g := stagedGraph()

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"q", "r", "d", "c", "col", "s", "res"}, ids)
}

func TestGraph_AddNodeReplacesInPlace(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "a", Kind: KindQuery})
	g.AddNode(&Node{ID: "b", Kind: KindRouting})
	g.AddNode(&Node{ID: "a", Kind: KindPrompt})

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, KindPrompt, nodes[0].Kind)
}

func TestGraph_EdgesInto(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "a", Kind: KindAgentL1})
	g.AddNode(&Node{ID: "b", Kind: KindAgentL1})
	g.AddNode(&Node{ID: "out", Kind: KindOutput})
	g.AddEdge(&Edge{ID: "e2", Source: "b", SourcePort: "output", Target: "out", TargetPort: "input"})
	g.AddEdge(&Edge{ID: "e1", Source: "a", SourcePort: "output", Target: "out", TargetPort: "input"})

	// Fan-in order is edge insertion order, not id order.
	into := g.EdgesInto("out")
	require.Len(t, into, 2)
	assert.Equal(t, "e2", into[0].ID)
	assert.Equal(t, "e1", into[1].ID)

	assert.Empty(t, g.EdgesInto("a"))
}

func TestGraph_CloneIsDeep(t *testing.T) {
	g := stagedGraph()
	cp := g.Clone()

	// Mutating the clone must not leak back into the original.
	n, ok := cp.Node("c")
	require.True(t, ok)
	n.Config.SelectedAgents[0] = "mutated"
	n.Config.UserInput = "mutated"

	orig, _ := g.Node("c")
	assert.Equal(t, "analyst", orig.Config.SelectedAgents[0])
	assert.Empty(t, orig.Config.UserInput)

	cp.AddNode(&Node{ID: "extra", Kind: KindQuery})
	assert.Len(t, g.Nodes(), 7)
	assert.Len(t, cp.Nodes(), 8)
}

func TestNodeConfig_CloneCopiesSelection(t *testing.T) {
	cfg := NodeConfig{SelectedAgents: []string{"a", "b"}}
	cp := cfg.Clone()
	cp.SelectedAgents[1] = "z"
	assert.Equal(t, "b", cfg.SelectedAgents[1])
}
