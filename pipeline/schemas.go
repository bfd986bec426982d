package pipeline

import (
	"strings"

	"github.com/BaSui01/agentpipe/types"
)

// agentKinds are the five agent levels of the free-form schema.
var agentKinds = []Kind{KindAgentL1, KindAgentL2, KindAgentL3, KindAgentL4, KindAgentL5}

// validateQueryInput requires non-empty request text on an intake node.
func validateQueryInput(n *Node) error {
	if strings.TrimSpace(n.Config.UserInput) == "" {
		return types.NewError(types.ErrEmptyInput, "user query text must not be empty").WithNode(n.ID)
	}
	return nil
}

// validateAgentSelection requires at least one agent picked on a cluster node.
func validateAgentSelection(n *Node) error {
	if len(n.Config.SelectedAgents) == 0 {
		return types.NewError(types.ErrEmptySelection, "cluster stage must have at least one agent selected").WithNode(n.ID)
	}
	return nil
}

// Staged returns the strict seven-stage linear schema:
// query → routing → dispatch → cluster → collector → synthesis → result.
// Every kind is required exactly because the pipeline has no optional
// stages; the cluster additionally requires a non-empty agent selection.
func Staged() *Schema {
	in := func(ch Channel) PortSpec { return PortSpec{ID: "input", Direction: DirectionTarget, Channel: ch} }
	out := func(ch Channel) PortSpec { return PortSpec{ID: "output", Direction: DirectionSource, Channel: ch} }

	kinds := []KindSpec{
		{Kind: KindQuery, Label: "User Query", Required: true, Validate: validateQueryInput,
			Ports: []PortSpec{out(ChannelPrompt)}},
		{Kind: KindRouting, Label: "Routing", Required: true,
			Ports: []PortSpec{in(ChannelPrompt), out(ChannelAIConfig)}},
		{Kind: KindDispatch, Label: "Dispatch Message", Required: true,
			Ports: []PortSpec{in(ChannelAIConfig), out(ChannelPrompt)}},
		{Kind: KindCluster, Label: "Agents Cluster", Required: true, Validate: validateAgentSelection,
			Ports: []PortSpec{in(ChannelPrompt), out(ChannelAgentOutput)}},
		{Kind: KindCollector, Label: "Responses Collector", Required: true,
			Ports: []PortSpec{in(ChannelAgentOutput), out(ChannelData)}},
		{Kind: KindSynthesis, Label: "Synthesis", Required: true,
			Ports: []PortSpec{in(ChannelData), out(ChannelPrompt)}},
		{Kind: KindResult, Label: "Final Result", Required: true,
			Ports: []PortSpec{in(ChannelPrompt)}},
	}

	transitions := []Transition{
		{KindQuery, "output", KindRouting, "input", ChannelPrompt},
		{KindRouting, "output", KindDispatch, "input", ChannelAIConfig},
		{KindDispatch, "output", KindCluster, "input", ChannelPrompt},
		{KindCluster, "output", KindCollector, "input", ChannelAgentOutput},
		{KindCollector, "output", KindSynthesis, "input", ChannelData},
		{KindSynthesis, "output", KindResult, "input", ChannelPrompt},
	}

	return NewSchema("staged", kinds, transitions)
}

// FreeForm returns the loosely-structured fan-out schema: prompt and
// provider nodes feed agent nodes on colored handles, agents feed
// intermediate outputs, and intermediate outputs chain into further agents
// or the final output. Only the prompt and the final output are mandatory;
// everything in between is up to the user.
func FreeForm() *Schema {
	kinds := []KindSpec{
		{Kind: KindPrompt, Label: "Prompt", Required: true,
			Ports: []PortSpec{{ID: "output", Direction: DirectionSource, Channel: ChannelPrompt}}},
		{Kind: KindProvider, Label: "AI Provider",
			Ports: []PortSpec{{ID: "output", Direction: DirectionSource, Channel: ChannelAIConfig}}},
		{Kind: KindOutput, Label: "Output Base",
			Ports: []PortSpec{
				{ID: "input", Direction: DirectionTarget, Channel: ChannelAgentOutput},
				{ID: "output", Direction: DirectionSource, Channel: ChannelPrompt},
			}},
		{Kind: KindFinalOutput, Label: "Output Final", Required: true,
			Ports: []PortSpec{{ID: "input", Direction: DirectionTarget, Channel: ChannelPrompt}}},
	}
	for i, k := range agentKinds {
		kinds = append(kinds, KindSpec{
			Kind:  k,
			Label: "Agent Level " + string(rune('1'+i)),
			Ports: []PortSpec{
				{ID: "input-prompt", Direction: DirectionTarget, Channel: ChannelPrompt},
				{ID: "input-ai", Direction: DirectionTarget, Channel: ChannelAIConfig},
				{ID: "input-data", Direction: DirectionTarget, Channel: ChannelData},
				{ID: "output", Direction: DirectionSource, Channel: ChannelAgentOutput},
			},
		})
	}

	var transitions []Transition
	for _, ak := range agentKinds {
		transitions = append(transitions,
			Transition{KindPrompt, "output", ak, "input-prompt", ChannelPrompt},
			Transition{KindProvider, "output", ak, "input-ai", ChannelAIConfig},
			Transition{ak, "output", KindOutput, "input", ChannelAgentOutput},
			Transition{KindOutput, "output", ak, "input-prompt", ChannelPrompt},
		)
	}
	transitions = append(transitions,
		Transition{KindOutput, "output", KindFinalOutput, "input", ChannelPrompt},
	)

	return NewSchema("freeform", kinds, transitions)
}

// IsAgentKind reports whether the kind invokes the remote agent service.
func IsAgentKind(k Kind) bool {
	if k == KindCluster {
		return true
	}
	for _, ak := range agentKinds {
		if k == ak {
			return true
		}
	}
	return false
}
