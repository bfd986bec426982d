package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/agentpipe/pipeline"
)

func TestOverrideIntake(t *testing.T) {
	g := pipeline.NewGraph()
	g.AddNode(&pipeline.Node{ID: "q", Kind: pipeline.KindQuery,
		Config: pipeline.NodeConfig{UserInput: "old question"}})
	g.AddNode(&pipeline.Node{ID: "p", Kind: pipeline.KindPrompt,
		Config: pipeline.NodeConfig{PositivePrompt: "old prompt"}})
	g.AddNode(&pipeline.Node{ID: "r", Kind: pipeline.KindRouting,
		Config: pipeline.NodeConfig{Model: "m"}})

	overrideIntake(g, "fresh request")

	q, _ := g.Node("q")
	assert.Equal(t, "fresh request", q.Config.UserInput)

	p, _ := g.Node("p")
	assert.Equal(t, "fresh request", p.Config.PositivePrompt)
	assert.Empty(t, p.Config.UserInput)

	r, _ := g.Node("r")
	assert.Empty(t, r.Config.UserInput)
	assert.Equal(t, "m", r.Config.Model)
}
