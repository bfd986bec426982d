package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentpipe/invoke"
	"github.com/BaSui01/agentpipe/pipeline"
	"github.com/BaSui01/agentpipe/types"
)

// mockInvoker is a scriptable invoker for engine tests.
type mockInvoker struct {
	// respond builds the response for a request. Nil means echo.
	respond func(req *invoke.Request) (*invoke.Response, error)
	// requests records everything that was sent.
	requests []*invoke.Request
}

func (m *mockInvoker) Invoke(ctx context.Context, req *invoke.Request) (*invoke.Response, error) {
	m.requests = append(m.requests, req)
	if m.respond != nil {
		return m.respond(req)
	}
	return &invoke.Response{
		Success:    true,
		Result:     "echo:" + req.Message,
		AgentsUsed: req.AgentIDs,
		ModelUsed:  req.Model,
	}, nil
}

func (m *mockInvoker) Name() string { return "mock" }

func TestExecutor_QueryComposesText(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)
	node := &pipeline.Node{ID: "q", Kind: pipeline.KindQuery, Config: pipeline.NodeConfig{
		UserInput: "summarize the report",
		Persona:   "analyst",
		Urgency:   "high",
	}}

	out, err := e.Run(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Equal(t, "summarize the report\n\nPersona: analyst\nUrgency: high", out.Text)
}

func TestExecutor_PromptComposesText(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)
	node := &pipeline.Node{ID: "p", Kind: pipeline.KindPrompt, Config: pipeline.NodeConfig{
		PositivePrompt: "write a haiku",
		NegativePrompt: "cliches",
	}}

	out, err := e.Run(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Equal(t, "write a haiku\n\nAvoid: cliches", out.Text)
}

func TestExecutor_ConfigStagePassesTextThrough(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)
	node := &pipeline.Node{ID: "r", Kind: pipeline.KindRouting, Config: pipeline.NodeConfig{
		Model:    "anthropic/claude",
		Strategy: "round-robin",
	}}

	out, err := e.Run(context.Background(), node, []Output{{Text: "upstream prompt"}})
	require.NoError(t, err)
	assert.Equal(t, "upstream prompt", out.Text)
	require.NotNil(t, out.Settings)
	assert.Equal(t, "anthropic/claude", out.Settings.Model)
	assert.Equal(t, "round-robin", out.Settings.Strategy)
}

func TestExecutor_ConfigStageInheritsUpstreamModel(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)
	upstream := pipeline.NodeConfig{Model: "from-routing"}
	node := &pipeline.Node{ID: "d", Kind: pipeline.KindDispatch, Config: pipeline.NodeConfig{
		Channel: "broadcast",
	}}

	out, err := e.Run(context.Background(), node, []Output{{Text: "msg", Settings: &upstream}})
	require.NoError(t, err)
	require.NotNil(t, out.Settings)
	assert.Equal(t, "from-routing", out.Settings.Model)
}

func TestExecutor_ClusterInvokesSelectedAgents(t *testing.T) {
	inv := &mockInvoker{}
	e := NewExecutor(inv, nil)
	node := &pipeline.Node{ID: "c", Kind: pipeline.KindCluster, Config: pipeline.NodeConfig{
		SelectedAgents: []string{"analyst", "critic"},
	}}
	upstream := pipeline.NodeConfig{Model: "anthropic/claude"}

	out, err := e.Run(context.Background(), node, []Output{{Text: "the message", Settings: &upstream}})
	require.NoError(t, err)
	assert.Equal(t, "echo:the message", out.Text)
	assert.Equal(t, []string{"analyst", "critic"}, out.AgentsUsed)
	assert.Equal(t, "anthropic/claude", out.ModelUsed)

	require.Len(t, inv.requests, 1)
	assert.Equal(t, []string{"analyst", "critic"}, inv.requests[0].AgentIDs)
	assert.Equal(t, "anthropic/claude", inv.requests[0].Model)
}

func TestExecutor_ClusterFallsBackToDefaultModel(t *testing.T) {
	inv := &mockInvoker{}
	e := NewExecutor(inv, nil)
	node := &pipeline.Node{ID: "c", Kind: pipeline.KindCluster, Config: pipeline.NodeConfig{
		SelectedAgents: []string{"analyst"},
	}}

	_, err := e.Run(context.Background(), node, []Output{{Text: "msg"}})
	require.NoError(t, err)
	require.Len(t, inv.requests, 1)
	assert.Equal(t, DefaultModel, inv.requests[0].Model)

	e.SetDefaultModel("custom/model")
	_, err = e.Run(context.Background(), node, []Output{{Text: "msg"}})
	require.NoError(t, err)
	assert.Equal(t, "custom/model", inv.requests[1].Model)
}

func TestExecutor_SingleAgentIDResolution(t *testing.T) {
	inv := &mockInvoker{}
	e := NewExecutor(inv, nil)

	byName := &pipeline.Node{ID: "n1", Kind: pipeline.KindAgentL1, Config: pipeline.NodeConfig{AgentName: "researcher"}}
	byLabel := &pipeline.Node{ID: "n2", Kind: pipeline.KindAgentL2, Config: pipeline.NodeConfig{Label: "Summarizer"}}
	byID := &pipeline.Node{ID: "n3", Kind: pipeline.KindAgentL3}

	for _, n := range []*pipeline.Node{byName, byLabel, byID} {
		_, err := e.Run(context.Background(), n, []Output{{Text: "go"}})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"researcher"}, inv.requests[0].AgentIDs)
	assert.Equal(t, []string{"Summarizer"}, inv.requests[1].AgentIDs)
	assert.Equal(t, []string{"n3"}, inv.requests[2].AgentIDs)
}

func TestExecutor_InvokeFailurePropagates(t *testing.T) {
	inv := &mockInvoker{respond: func(req *invoke.Request) (*invoke.Response, error) {
		return nil, types.NewError(types.ErrInvokeFailed, "backend down").WithRetryable(true)
	}}
	e := NewExecutor(inv, nil)
	node := &pipeline.Node{ID: "c", Kind: pipeline.KindCluster, Config: pipeline.NodeConfig{
		SelectedAgents: []string{"analyst"},
	}}

	_, err := e.Run(context.Background(), node, []Output{{Text: "msg"}})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvokeFailed, types.GetErrorCode(err))
}

func TestExecutor_RemoteFailureBecomesError(t *testing.T) {
	inv := &mockInvoker{respond: func(req *invoke.Request) (*invoke.Response, error) {
		return &invoke.Response{Success: false, Error: "no agents available"}, nil
	}}
	e := NewExecutor(inv, nil)
	node := &pipeline.Node{ID: "c", Kind: pipeline.KindCluster, Config: pipeline.NodeConfig{
		SelectedAgents: []string{"analyst"},
	}}

	_, err := e.Run(context.Background(), node, []Output{{Text: "msg"}})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvokeRejected, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "no agents available")
}

func TestExecutor_CollectorMergesInputs(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)
	node := &pipeline.Node{ID: "col", Kind: pipeline.KindCollector}

	// Zero inputs.
	out, err := e.Run(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Text)

	// One input.
	out, err = e.Run(context.Background(), node, []Output{
		{Text: "alpha", AgentsUsed: []string{"a"}, ModelUsed: "m1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", out.Text)
	assert.Equal(t, []string{"a"}, out.AgentsUsed)

	// Many inputs: texts joined in discovery order, agents deduplicated.
	out, err = e.Run(context.Background(), node, []Output{
		{Text: "alpha", AgentsUsed: []string{"a", "b"}, ModelUsed: "m1"},
		{Text: "beta", AgentsUsed: []string{"b", "c"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha\n\nbeta", out.Text)
	assert.Equal(t, []string{"a", "b", "c"}, out.AgentsUsed)
	assert.Equal(t, "m1", out.ModelUsed)
}

func TestExecutor_SynthesisSectionsAndTrace(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)

	inputs := []Output{
		{Text: "one", AgentsUsed: []string{"a"}, ModelUsed: "m1"},
		{Text: "two"},
		{Text: "three"},
	}

	capped := &pipeline.Node{ID: "s", Kind: pipeline.KindSynthesis, Config: pipeline.NodeConfig{MaxSections: 2}}
	out, err := e.Run(context.Background(), capped, inputs)
	require.NoError(t, err)
	assert.Equal(t, "one\n\ntwo", out.Text)

	traced := &pipeline.Node{ID: "s", Kind: pipeline.KindSynthesis, Config: pipeline.NodeConfig{IncludeTrace: true}}
	out, err = e.Run(context.Background(), traced, inputs)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "one\n\ntwo\n\nthree")
	assert.Contains(t, out.Text, "Agents: a | Model: m1")
}

func TestExecutor_TerminalIdentityAndSentinel(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)

	for _, kind := range []pipeline.Kind{pipeline.KindResult, pipeline.KindOutput, pipeline.KindFinalOutput} {
		node := &pipeline.Node{ID: "t", Kind: kind}

		out, err := e.Run(context.Background(), node, []Output{{Text: "final text"}})
		require.NoError(t, err)
		assert.Equal(t, "final text", out.Text)

		out, err = e.Run(context.Background(), node, nil)
		require.NoError(t, err)
		assert.Equal(t, NoOutputText, out.Text)
	}
}

func TestExecutor_UnknownKindIsInternalError(t *testing.T) {
	e := NewExecutor(&mockInvoker{}, nil)
	node := &pipeline.Node{ID: "x", Kind: "mystery"}

	_, err := e.Run(context.Background(), node, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrInternal, types.GetErrorCode(err))
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestExecutor_AdditionalInstructionsAppended(t *testing.T) {
	inv := &mockInvoker{}
	e := NewExecutor(inv, nil)
	node := &pipeline.Node{ID: "c", Kind: pipeline.KindCluster, Config: pipeline.NodeConfig{
		SelectedAgents:         []string{"analyst"},
		AdditionalInstructions: "be terse",
	}}

	_, err := e.Run(context.Background(), node, []Output{{Text: "the message"}})
	require.NoError(t, err)
	require.Len(t, inv.requests, 1)
	assert.Equal(t, "the message\n\nbe terse", inv.requests[0].Message)
}

func TestExecutor_InvocationContextHints(t *testing.T) {
	inv := &mockInvoker{}
	e := NewExecutor(inv, nil)
	node := &pipeline.Node{ID: "c", Kind: pipeline.KindCluster, Config: pipeline.NodeConfig{
		SelectedAgents: []string{"analyst"},
		MaxParallel:    3,
		LoadBalancing:  "least-busy",
	}}
	routing := pipeline.NodeConfig{Strategy: "fan-out", MaxAgents: 5, AllowParallel: true}

	_, err := e.Run(context.Background(), node, []Output{{Text: "msg", Settings: &routing}})
	require.NoError(t, err)
	require.Len(t, inv.requests, 1)
	hints := inv.requests[0].Context
	assert.Equal(t, 3, hints["maxParallel"])
	assert.Equal(t, "least-busy", hints["loadBalancing"])
	assert.Equal(t, "fan-out", hints["strategy"])
	assert.Equal(t, 5, hints["maxAgents"])
	assert.Equal(t, true, hints["allowParallel"])
}
