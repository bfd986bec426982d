package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentpipe/invoke"
	"github.com/BaSui01/agentpipe/pipeline"
	"github.com/BaSui01/agentpipe/types"
)

// DefaultModel is used when no upstream configuration stage resolved a
// model identifier.
const DefaultModel = "openai/gpt-oss-120b"

// Executor produces a single node's output from the outputs of its
// predecessors. All stage kinds are local total functions except the
// agent kinds, which call the remote agent service and are the only
// source of failure and latency in a run.
type Executor struct {
	invoker      invoke.Invoker
	defaultModel string
	logger       *zap.Logger
}

// NewExecutor creates a node executor backed by the given invoker.
func NewExecutor(invoker invoke.Invoker, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		invoker:      invoker,
		defaultModel: DefaultModel,
		logger:       logger.With(zap.String("component", "executor")),
	}
}

// SetDefaultModel overrides the fallback model identifier.
func (e *Executor) SetDefaultModel(model string) {
	if model != "" {
		e.defaultModel = model
	}
}

// Run executes one node. inputs holds the outputs of all predecessor
// nodes in incoming-edge discovery order; predecessors that failed or
// never ran contribute nothing. The kind switch is closed: a kind the
// engine does not know is an internal defect, not a user error.
func (e *Executor) Run(ctx context.Context, node *pipeline.Node, inputs []Output) (Output, error) {
	switch node.Kind {
	case pipeline.KindQuery:
		return e.composeIntake(node, inputs, queryText(node.Config)), nil
	case pipeline.KindPrompt:
		return e.composeIntake(node, inputs, promptText(node.Config)), nil

	case pipeline.KindRouting, pipeline.KindDispatch, pipeline.KindProvider:
		return e.emitSettings(node, inputs), nil

	case pipeline.KindCluster:
		return e.invokeAgents(ctx, node, inputs, node.Config.SelectedAgents)
	case pipeline.KindAgentL1, pipeline.KindAgentL2, pipeline.KindAgentL3,
		pipeline.KindAgentL4, pipeline.KindAgentL5:
		return e.invokeAgents(ctx, node, inputs, singleAgentIDs(node))

	case pipeline.KindCollector:
		return collectInputs(inputs), nil
	case pipeline.KindSynthesis:
		return synthesizeInputs(node.Config, inputs), nil

	case pipeline.KindOutput, pipeline.KindFinalOutput, pipeline.KindResult:
		return terminalOutput(inputs), nil

	default:
		return Output{}, types.NewError(types.ErrInternal,
			fmt.Sprintf("executor has no handler for kind %q", node.Kind)).WithNode(node.ID)
	}
}

// queryText renders the intake text of a query stage.
func queryText(cfg pipeline.NodeConfig) string {
	base := strings.TrimSpace(cfg.UserInput)
	if base == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(base)
	if cfg.Persona != "" {
		sb.WriteString("\n\nPersona: " + cfg.Persona)
	}
	if cfg.Urgency != "" {
		sb.WriteString("\nUrgency: " + cfg.Urgency)
	}
	return sb.String()
}

// promptText renders the intake text of a prompt stage.
func promptText(cfg pipeline.NodeConfig) string {
	base := strings.TrimSpace(cfg.PositivePrompt)
	if base == "" {
		return ""
	}
	if neg := strings.TrimSpace(cfg.NegativePrompt); neg != "" {
		base += "\n\nAvoid: " + neg
	}
	return base
}

// composeIntake concatenates an upstream text, if any, with the node's
// own text. Intake stages are total: an empty own text degrades to the
// unmodified upstream base instead of failing.
func (e *Executor) composeIntake(node *pipeline.Node, inputs []Output, own string) Output {
	upstream := ""
	if len(inputs) > 0 {
		upstream = inputs[0].Text
	}
	switch {
	case own == "":
		return Output{Text: upstream}
	case upstream == "":
		return Output{Text: own}
	default:
		return Output{Text: upstream + "\n\n" + own}
	}
}

// emitSettings produces a configuration stage's own config verbatim and
// keeps the pipeline flowing: upstream text passes through unchanged, and
// an upstream model fills the gap when this stage does not pick one.
func (e *Executor) emitSettings(node *pipeline.Node, inputs []Output) Output {
	settings := node.Config.Clone()
	out := Output{Settings: &settings}
	for _, in := range inputs {
		if out.Text == "" && in.Text != "" {
			out.Text = in.Text
		}
		if settings.Model == "" && in.Settings != nil && in.Settings.Model != "" {
			settings.Model = in.Settings.Model
		}
	}
	return out
}

// singleAgentIDs resolves the agent ids for a single-agent stage.
func singleAgentIDs(node *pipeline.Node) []string {
	if node.Config.AgentName != "" {
		return []string{node.Config.AgentName}
	}
	if node.Config.Label != "" {
		return []string{node.Config.Label}
	}
	return []string{node.ID}
}

// invokeAgents calls the remote agent service. This is the only
// suspension point in the pipeline; any failure here is reported to the
// coordinator and aborts only this node's descendants.
func (e *Executor) invokeAgents(ctx context.Context, node *pipeline.Node, inputs []Output, agentIDs []string) (Output, error) {
	message := joinTexts(inputs)
	if extra := strings.TrimSpace(node.Config.AdditionalInstructions); extra != "" {
		if message != "" {
			message += "\n\n"
		}
		message += extra
	}

	model, providerCfg := resolveModel(inputs, e.defaultModel)

	req := &invoke.Request{
		Message:        message,
		AgentIDs:       agentIDs,
		Model:          model,
		ProviderConfig: providerCfg,
		Context:        invocationContext(node.Config, inputs),
	}

	e.logger.Debug("invoking agents",
		zap.String("node_id", node.ID),
		zap.Strings("agents", agentIDs),
		zap.String("model", model),
	)

	resp, err := e.invoker.Invoke(ctx, req)
	if err != nil {
		return Output{}, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend could not complete the execution"
		}
		return Output{}, types.NewError(types.ErrInvokeRejected, msg).WithNode(node.ID)
	}

	agentsUsed := resp.AgentsUsed
	if len(agentsUsed) == 0 {
		agentsUsed = agentIDs
	}
	modelUsed := resp.ModelUsed
	if modelUsed == "" {
		modelUsed = model
	}
	return Output{Text: resp.Result, AgentsUsed: agentsUsed, ModelUsed: modelUsed}, nil
}

// resolveModel finds the nearest upstream configuration output carrying a
// model, plus any provider credentials, falling back to the default.
func resolveModel(inputs []Output, fallback string) (string, map[string]string) {
	for _, in := range inputs {
		if in.Settings == nil || in.Settings.Model == "" {
			continue
		}
		var providerCfg map[string]string
		if in.Settings.Provider != "" {
			providerCfg = map[string]string{"provider": in.Settings.Provider}
		}
		return in.Settings.Model, providerCfg
	}
	return fallback, nil
}

// invocationContext assembles the stage configuration hints forwarded to
// the backend.
func invocationContext(cfg pipeline.NodeConfig, inputs []Output) map[string]any {
	out := make(map[string]any)
	if cfg.MaxParallel > 0 {
		out["maxParallel"] = cfg.MaxParallel
	}
	if cfg.CooldownMs > 0 {
		out["cooldownMs"] = cfg.CooldownMs
	}
	if cfg.LoadBalancing != "" {
		out["loadBalancing"] = cfg.LoadBalancing
	}
	for _, in := range inputs {
		if in.Settings == nil {
			continue
		}
		if in.Settings.Strategy != "" {
			out["strategy"] = in.Settings.Strategy
		}
		if in.Settings.MaxAgents > 0 {
			out["maxAgents"] = in.Settings.MaxAgents
		}
		if in.Settings.AllowParallel {
			out["allowParallel"] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// collectInputs merges any number of same-shape inputs into one summary.
// Zero, one, or many inputs are all fine.
func collectInputs(inputs []Output) Output {
	out := Output{Text: joinTexts(inputs)}
	seen := make(map[string]bool)
	for _, in := range inputs {
		for _, a := range in.AgentsUsed {
			if !seen[a] {
				seen[a] = true
				out.AgentsUsed = append(out.AgentsUsed, a)
			}
		}
		if out.ModelUsed == "" && in.ModelUsed != "" {
			out.ModelUsed = in.ModelUsed
		}
	}
	return out
}

// synthesizeInputs merges inputs into the final text. MaxSections limits
// how many input sections are kept; IncludeTrace appends the agent and
// model attribution.
func synthesizeInputs(cfg pipeline.NodeConfig, inputs []Output) Output {
	var sections []string
	for _, in := range inputs {
		if in.Text != "" {
			sections = append(sections, in.Text)
		}
	}
	if cfg.MaxSections > 0 && len(sections) > cfg.MaxSections {
		sections = sections[:cfg.MaxSections]
	}

	merged := collectInputs(inputs)
	out := Output{
		Text:       strings.Join(sections, "\n\n"),
		AgentsUsed: merged.AgentsUsed,
		ModelUsed:  merged.ModelUsed,
	}
	if cfg.IncludeTrace && (len(out.AgentsUsed) > 0 || out.ModelUsed != "") {
		out.Text += fmt.Sprintf("\n\n---\nAgents: %s | Model: %s",
			strings.Join(out.AgentsUsed, ", "), out.ModelUsed)
	}
	return out
}

// terminalOutput is the identity over the first input, with the explicit
// no-output sentinel when nothing arrived.
func terminalOutput(inputs []Output) Output {
	if len(inputs) == 0 {
		return Output{Text: NoOutputText}
	}
	return inputs[0]
}

// joinTexts concatenates the non-empty texts of the inputs in discovery
// order.
func joinTexts(inputs []Output) string {
	var parts []string
	for _, in := range inputs {
		if in.Text != "" {
			parts = append(parts, in.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
