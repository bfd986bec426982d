package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/agentpipe/internal/metrics"
	"github.com/BaSui01/agentpipe/invoke"
	"github.com/BaSui01/agentpipe/pipeline"
	"github.com/BaSui01/agentpipe/types"
)

// Result is the outcome of one pipeline run. Outputs holds every node
// that produced a value, even when the run as a whole failed, so the
// caller can show partial progress ("3 of 7 stages completed").
type Result struct {
	RunID   string            `json:"run_id"`
	Success bool              `json:"success"`
	Outputs map[string]Output `json:"outputs"`
	Errors  []string          `json:"errors"`
	History *RunHistory       `json:"history,omitempty"`
}

// RunSink persists finished run histories. The history package provides
// the sqlite-backed implementation.
type RunSink interface {
	SaveRun(ctx context.Context, h *RunHistory) error
}

// Coordinator drives a full pipeline run: integrity check, scheduling,
// node-by-node execution, partial-failure propagation, and result
// aggregation. A Coordinator is reusable across runs; each run gets a
// fresh output map and operates on a private snapshot of the graph.
type Coordinator struct {
	executor *Executor
	logger   *zap.Logger
	metrics  *metrics.Collector
	sink     RunSink
	tracer   trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(co *Coordinator) { co.metrics = c }
}

// WithRunSink attaches a persistence sink for finished runs.
func WithRunSink(s RunSink) Option {
	return func(co *Coordinator) { co.sink = s }
}

// WithDefaultModel overrides the fallback model identifier.
func WithDefaultModel(model string) Option {
	return func(co *Coordinator) { co.executor.SetDefaultModel(model) }
}

// NewCoordinator creates a coordinator backed by the given invoker.
func NewCoordinator(invoker invoke.Invoker, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	co := &Coordinator{
		executor: NewExecutor(invoker, logger),
		logger:   logger.With(zap.String("component", "coordinator")),
		tracer:   otel.Tracer("github.com/BaSui01/agentpipe/engine"),
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// Execute runs the graph against the schema and returns the aggregated
// result. It never panics and never returns an error: everything wrong
// with the graph or the run is reported as data in the Result.
func (c *Coordinator) Execute(ctx context.Context, g *pipeline.Graph, schema *pipeline.Schema) *Result {
	runID := uuid.NewString()
	result := &Result{
		RunID:   runID,
		Outputs: make(map[string]Output),
	}
	history := NewRunHistory(runID, schema.Name())
	result.History = history

	ctx, span := c.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("pipeline.schema", schema.Name()),
		))
	defer span.End()

	start := time.Now()
	logger := c.logger.With(zap.String("run_id", runID), zap.String("schema", schema.Name()))
	logger.Info("starting pipeline run", zap.Int("nodes", len(g.Nodes())), zap.Int("edges", len(g.Edges())))

	// Snapshot so concurrent editor mutations cannot corrupt the run.
	snapshot := g.Clone()

	// Structural problems are fatal: no partial execution of an invalid
	// graph, problems reported verbatim.
	if problems := pipeline.Check(snapshot, schema); len(problems) > 0 {
		result.Errors = pipeline.ProblemStrings(problems)
		c.finish(ctx, result, history, schema, start, logger, span)
		return result
	}

	order, err := pipeline.Order(snapshot)
	if err != nil {
		// Check passed, so a cycle here is a defect in the engine, not a
		// user-facing graph problem.
		logger.Error("scheduler disagreed with integrity checker", zap.Error(err))
		result.Errors = append(result.Errors,
			types.NewError(types.ErrInternal, "internal scheduling failure").WithCause(err).Error())
		c.finish(ctx, result, history, schema, start, logger, span)
		return result
	}

	failed := make(map[string]bool)
	blocked := make(map[string]bool)

	for _, id := range order {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Keep everything computed so far; surface the cancellation.
			result.Errors = append(result.Errors,
				types.NewError(types.ErrTimeout, "run canceled before completion").WithCause(ctxErr).Error())
			break
		}

		node, ok := snapshot.Node(id)
		if !ok {
			// Scheduler only emits ids from the snapshot.
			result.Errors = append(result.Errors,
				types.NewError(types.ErrInternal, "scheduled node missing from snapshot").WithNode(id).Error())
			continue
		}

		// A node is blocked as soon as any predecessor failed or was
		// itself blocked; siblings on other branches still run.
		if c.isBlocked(snapshot, id, failed, blocked) {
			blocked[id] = true
			history.RecordNodeBlocked(id, node.Kind)
			logger.Debug("skipping blocked node", zap.String("node_id", id))
			continue
		}

		inputs := c.gatherInputs(snapshot, id, result.Outputs)
		nr := history.RecordNodeStart(id, node.Kind)

		nodeCtx, nodeSpan := c.tracer.Start(ctx, "pipeline.node",
			trace.WithAttributes(
				attribute.String("node.id", id),
				attribute.String("node.kind", string(node.Kind)),
			))
		nodeStart := time.Now()
		out, execErr := c.executor.Run(nodeCtx, node, inputs)
		nodeDuration := time.Since(nodeStart)
		history.RecordNodeEnd(nr, execErr)

		if execErr != nil {
			nodeSpan.SetStatus(codes.Error, execErr.Error())
			nodeSpan.End()
			failed[id] = true
			result.Errors = append(result.Errors, fmt.Sprintf("node %s: %v", id, execErr))
			logger.Warn("node execution failed",
				zap.String("node_id", id),
				zap.String("kind", string(node.Kind)),
				zap.Duration("duration", nodeDuration),
				zap.Error(execErr),
			)
			c.recordNode(node.Kind, "failed", nodeDuration)
			continue
		}
		nodeSpan.End()

		result.Outputs[id] = out
		logger.Debug("node execution completed",
			zap.String("node_id", id),
			zap.String("kind", string(node.Kind)),
			zap.Duration("duration", nodeDuration),
		)
		c.recordNode(node.Kind, "completed", nodeDuration)
	}

	c.finish(ctx, result, history, schema, start, logger, span)
	return result
}

// isBlocked reports whether any predecessor of the node failed or was
// blocked.
func (c *Coordinator) isBlocked(g *pipeline.Graph, id string, failed, blocked map[string]bool) bool {
	for _, e := range g.EdgesInto(id) {
		if failed[e.Source] || blocked[e.Source] {
			return true
		}
	}
	return false
}

// gatherInputs collects predecessor outputs in incoming-edge discovery
// order. Predecessors without an output contribute nothing, not even a
// placeholder value.
func (c *Coordinator) gatherInputs(g *pipeline.Graph, id string, outputs map[string]Output) []Output {
	var inputs []Output
	for _, e := range g.EdgesInto(id) {
		if out, ok := outputs[e.Source]; ok {
			inputs = append(inputs, out)
		}
	}
	return inputs
}

// finish closes out the run: status, metrics, persistence, logging.
func (c *Coordinator) finish(ctx context.Context, result *Result, history *RunHistory, schema *pipeline.Schema, start time.Time, logger *zap.Logger, span trace.Span) {
	result.Success = len(result.Errors) == 0
	history.Finish(result.Errors)
	duration := time.Since(start)

	status := "completed"
	if !result.Success {
		status = "failed"
		span.SetStatus(codes.Error, "pipeline run failed")
	}
	if c.metrics != nil {
		c.metrics.RecordRun(schema.Name(), status, duration)
	}
	if c.sink != nil {
		if err := c.sink.SaveRun(ctx, history); err != nil {
			// Persistence problems must not fail the run itself.
			logger.Warn("failed to persist run history", zap.Error(err))
		}
	}

	logger.Info("pipeline run finished",
		zap.Bool("success", result.Success),
		zap.Int("outputs", len(result.Outputs)),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", duration),
	)
}

// recordNode forwards node metrics when a collector is attached. Agent
// kinds additionally count as remote invocations.
func (c *Coordinator) recordNode(kind pipeline.Kind, status string, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordNode(string(kind), status, duration)
	if pipeline.IsAgentKind(kind) {
		c.metrics.RecordInvocation(status, duration)
	}
}
