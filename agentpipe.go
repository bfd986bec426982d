// Package agentpipe provides a top-level convenience entry point for
// running visual agent pipelines with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/agentpipe"
//
//	result, err := agentpipe.Run(ctx, doc,
//	    agentpipe.WithBaseURL("http://localhost:8000"),
//	    agentpipe.WithMessage("Summarize the report"),
//	)
//
// This is a thin wrapper around [pipeline.Document], [invoke.HTTPInvoker]
// and [engine.Coordinator]; use the packages directly when you need
// metrics, run history or a custom invoker.
package agentpipe

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentpipe/engine"
	"github.com/BaSui01/agentpipe/invoke"
	"github.com/BaSui01/agentpipe/pipeline"
)

// Option configures a [Run] call.
type Option func(*runOptions)

type runOptions struct {
	invokeCfg invoke.Config
	invoker   invoke.Invoker
	schema    *pipeline.Schema
	message   string
	model     string
	logger    *zap.Logger
}

// WithBaseURL sets the agent gateway base URL.
func WithBaseURL(url string) Option {
	return func(o *runOptions) { o.invokeCfg.BaseURL = url }
}

// WithAPIKey sets the bearer token sent to the gateway.
func WithAPIKey(key string) Option {
	return func(o *runOptions) { o.invokeCfg.APIKey = key }
}

// WithTimeout sets the per-request timeout on the gateway client.
func WithTimeout(d time.Duration) Option {
	return func(o *runOptions) { o.invokeCfg.Timeout = d }
}

// WithInvoker substitutes a pre-built invoker. Gateway options are
// ignored when this is set.
func WithInvoker(inv invoke.Invoker) Option {
	return func(o *runOptions) { o.invoker = inv }
}

// WithSchema selects the connection rule set. Defaults to [pipeline.Staged].
func WithSchema(s *pipeline.Schema) Option {
	return func(o *runOptions) { o.schema = s }
}

// WithMessage overrides the user input on every intake node.
func WithMessage(msg string) Option {
	return func(o *runOptions) { o.message = msg }
}

// WithModel sets the model used when no node supplies one.
func WithModel(model string) Option {
	return func(o *runOptions) { o.model = model }
}

// WithLogger sets a custom zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// Run validates and executes the pipeline document in one call.
// A document that fails its structural validation returns an error
// before any node runs; integrity problems found by the schema check
// are reported on the returned [engine.Result] instead.
func Run(ctx context.Context, doc *pipeline.Document, opts ...Option) (*engine.Result, error) {
	o := &runOptions{
		schema: pipeline.Staged(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	g := doc.Graph()

	if o.message != "" {
		for _, n := range g.Nodes() {
			switch n.Kind {
			case pipeline.KindQuery:
				n.Config.UserInput = o.message
			case pipeline.KindPrompt:
				n.Config.PositivePrompt = o.message
			}
		}
	}

	inv := o.invoker
	if inv == nil {
		inv = invoke.NewHTTPInvoker(o.invokeCfg, o.logger)
	}

	engineOpts := make([]engine.Option, 0, 1)
	if o.model != "" {
		engineOpts = append(engineOpts, engine.WithDefaultModel(o.model))
	}

	coord := engine.NewCoordinator(inv, o.logger, engineOpts...)
	return coord.Execute(ctx, g, o.schema), nil
}
