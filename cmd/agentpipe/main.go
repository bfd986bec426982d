// Command agentpipe validates and executes visual agent pipelines.
//
// Usage:
//
//	agentpipe run --graph pipeline.json             # execute a pipeline
//	agentpipe run --graph pipeline.yaml --message "..."
//	agentpipe validate --graph pipeline.json        # integrity check only
//	agentpipe version                               # show version info
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/agentpipe/config"
	"github.com/BaSui01/agentpipe/engine"
	"github.com/BaSui01/agentpipe/history"
	"github.com/BaSui01/agentpipe/internal/metrics"
	"github.com/BaSui01/agentpipe/internal/telemetry"
	"github.com/BaSui01/agentpipe/invoke"
	"github.com/BaSui01/agentpipe/pipeline"
)

// Build information, injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runPipeline(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runPipeline(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	graphPath := fs.String("graph", "", "Path to the pipeline document (JSON or YAML)")
	configPath := fs.String("config", "", "Path to config file")
	message := fs.String("message", "", "Override the intake node's user input")
	schemaName := fs.String("schema", "", "Override the schema: staged or freeform")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *schemaName != "" {
		cfg.Engine.Schema = *schemaName
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
			os.Exit(1)
		}
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting agentpipe",
		zap.String("version", Version),
		zap.String("schema", cfg.Engine.Schema),
	)

	otelProviders, err := telemetry.Init(telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		SampleRate:   cfg.Telemetry.SampleRate,
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if otelProviders != nil {
			_ = otelProviders.Shutdown(context.Background())
		}
	}()

	graph, schema := loadGraph(*graphPath, cfg.Engine.Schema)
	if *message != "" {
		overrideIntake(graph, *message)
	}

	invoker := invoke.NewHTTPInvoker(invoke.Config{
		BaseURL:      cfg.Invoker.BaseURL,
		APIKey:       cfg.Invoker.APIKey,
		EndpointPath: cfg.Invoker.EndpointPath,
		Timeout:      cfg.Invoker.Timeout,
		Cooldown:     cfg.Invoker.Cooldown,
	}, logger)

	opts := []engine.Option{engine.WithDefaultModel(cfg.Engine.DefaultModel)}
	if cfg.Metrics.Enabled {
		opts = append(opts, engine.WithMetrics(metrics.NewCollector(cfg.Metrics.Namespace, logger)))
	}
	if cfg.History.Enabled {
		store, storeErr := history.Open(cfg.History.DSN, logger)
		if storeErr != nil {
			logger.Warn("run history disabled", zap.Error(storeErr))
		} else {
			defer store.Close()
			opts = append(opts, engine.WithRunSink(store))
		}
	}

	coord := engine.NewCoordinator(invoker, logger, opts...)

	ctx := context.Background()
	if cfg.Engine.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Engine.RunTimeout)
		defer cancel()
	}

	result := coord.Execute(ctx, graph, schema)

	printResult(result)
	if !result.Success {
		os.Exit(1)
	}
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	graphPath := fs.String("graph", "", "Path to the pipeline document (JSON or YAML)")
	schemaName := fs.String("schema", "staged", "Schema to validate against: staged or freeform")
	fs.Parse(args)

	graph, schema := loadGraph(*graphPath, *schemaName)

	problems := pipeline.Check(graph, schema)
	if len(problems) == 0 {
		fmt.Println("OK")
		return
	}
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p.String())
	}
	os.Exit(1)
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadGraph reads the document at path, resolves the schema by name,
// and converts the document into a graph.
func loadGraph(path, schemaName string) (*pipeline.Graph, *pipeline.Schema) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Missing required --graph flag")
		os.Exit(1)
	}

	var (
		doc *pipeline.Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = pipeline.LoadFromYAMLFile(path)
	default:
		doc, err = pipeline.LoadFromJSONFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load pipeline document: %v\n", err)
		os.Exit(1)
	}

	var schema *pipeline.Schema
	switch schemaName {
	case "freeform":
		schema = pipeline.FreeForm()
	default:
		schema = pipeline.Staged()
	}

	if err := doc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid pipeline document: %v\n", err)
		os.Exit(1)
	}
	return doc.Graph(), schema
}

// overrideIntake replaces the intake text on every intake node. Query
// stages read UserInput, prompt stages read PositivePrompt.
func overrideIntake(g *pipeline.Graph, message string) {
	for _, n := range g.Nodes() {
		switch n.Kind {
		case pipeline.KindQuery:
			n.Config.UserInput = message
		case pipeline.KindPrompt:
			n.Config.PositivePrompt = message
		}
	}
}

func printResult(r *engine.Result) {
	out := struct {
		RunID   string            `json:"run_id"`
		Success bool              `json:"success"`
		Outputs map[string]string `json:"outputs"`
		Errors  []string          `json:"errors,omitempty"`
	}{
		RunID:   r.RunID,
		Success: r.Success,
		Outputs: make(map[string]string, len(r.Outputs)),
		Errors:  r.Errors,
	}
	for id, o := range r.Outputs {
		out.Outputs[id] = o.Text
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func printVersion() {
	fmt.Printf("agentpipe %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`agentpipe - visual agent pipeline engine

Usage:
  agentpipe <command> [options]

Commands:
  run       Execute a pipeline document
  validate  Check a pipeline document against its schema
  version   Show version information
  help      Show this help message

Options for 'run':
  --graph <path>     Pipeline document (JSON or YAML, required)
  --config <path>    Configuration file (YAML)
  --message <text>   Override the intake node's user input
  --schema <name>    staged (default) or freeform

Options for 'validate':
  --graph <path>     Pipeline document (JSON or YAML, required)
  --schema <name>    staged (default) or freeform

Examples:
  agentpipe run --graph pipeline.json
  agentpipe run --graph pipeline.yaml --message "Summarize the report"
  agentpipe validate --graph pipeline.json --schema freeform
  agentpipe version`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
