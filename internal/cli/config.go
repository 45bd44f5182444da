package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gantryml/gantry/pkg/ops"
	"github.com/gantryml/gantry/pkg/pipeline"
)

// Config is the TOML job declaration consumed by run, render, and serve.
//
// Example:
//
//	[pipeline]
//	name = "demo"
//
//	[[pipeline.stage]]
//	op = "scale"
//	factor = 2.0
//
//	[[pipeline.stage]]
//	op = "center"
//
//	[engine]
//	kind = "memory"
//
//	[data]
//	train = [1.0, 2.0, 3.0, 4.0]
//	input = [5.0]
type Config struct {
	Pipeline PipelineConfig `toml:"pipeline"`
	Engine   EngineConfig   `toml:"engine"`
	Data     DataConfig     `toml:"data"`
	Serve    ServeConfig    `toml:"serve"`
	Optimize OptimizeConfig `toml:"optimize"`
}

// PipelineConfig declares the ordered stages of the pipeline.
type PipelineConfig struct {
	Name   string        `toml:"name"`
	Stages []StageConfig `toml:"stage"`
}

// StageConfig declares one stage. Op selects the operator; the remaining
// fields parameterize it and are ignored by ops that don't use them.
type StageConfig struct {
	Op     string  `toml:"op"`
	Factor float64 `toml:"factor"`
	Delta  float64 `toml:"delta"`
	Lo     float64 `toml:"lo"`
	Hi     float64 `toml:"hi"`
}

// EngineConfig selects the dataset backend.
type EngineConfig struct {
	// Kind is one of "memory", "parallel", "redis", "mongo".
	Kind    string `toml:"kind"`
	Workers int    `toml:"workers"` // parallel backend; 0 means NumCPU

	RedisAddr string `toml:"redis_addr"`
	RedisKey  string `toml:"redis_key"` // list key prefix

	MongoURI        string `toml:"mongo_uri"`
	MongoDB         string `toml:"mongo_db"`
	MongoCollection string `toml:"mongo_collection"`
	MongoField      string `toml:"mongo_field"`
}

// DataConfig carries inline numeric data. For the mongo backend, train
// comes from the database and only input/labels are read from here.
type DataConfig struct {
	Train  []float64 `toml:"train"`
	Labels []float64 `toml:"labels"`
	Input  []float64 `toml:"input"`
}

// ServeConfig configures the HTTP apply service.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// OptimizeConfig toggles the bulk-path rewrite pass.
type OptimizeConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoadConfig reads and validates a TOML job declaration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Pipeline.Stages) == 0 {
		return nil, fmt.Errorf("config: pipeline declares no stages")
	}
	if cfg.Engine.Kind == "" {
		cfg.Engine.Kind = "memory"
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
	return &cfg, nil
}

// stage holds the resolved operator for one declared stage.
type stage struct {
	label    string
	op       pipeline.Transformer
	est      pipeline.Estimator
	labelEst pipeline.LabelEstimator
}

// buildStage resolves a stage declaration to an operator.
func buildStage(sc StageConfig) (stage, error) {
	switch sc.Op {
	case "scale":
		return stage{label: "scale", op: ops.Scale(sc.Factor)}, nil
	case "offset":
		return stage{label: "offset", op: ops.Offset(sc.Delta)}, nil
	case "clamp":
		return stage{label: "clamp", op: ops.Clamp(sc.Lo, sc.Hi)}, nil
	case "center":
		return stage{label: "center", est: ops.Center{}}, nil
	case "standardize":
		return stage{label: "standardize", est: ops.Standardize{}}, nil
	case "bias":
		return stage{label: "bias", labelEst: ops.Bias{}}, nil
	default:
		return stage{}, fmt.Errorf("config: unknown op %q (known: scale, offset, clamp, center, standardize, bias)", sc.Op)
	}
}

// BuildPipeline assembles the declared stages into an unfit pipeline.
func BuildPipeline(cfg *Config) (*pipeline.Pipeline, error) {
	var p *pipeline.Pipeline
	for i, sc := range cfg.Pipeline.Stages {
		st, err := buildStage(sc)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		switch {
		case p == nil && st.op != nil:
			p = pipeline.FromTransformer(st.label, st.op)
		case p == nil && st.est != nil:
			p = pipeline.FromEstimator(st.label, st.est)
		case p == nil:
			p = pipeline.FromLabelEstimator(st.label, st.labelEst)
		case st.op != nil:
			p = p.AndThenNamed(st.label, st.op)
		case st.est != nil:
			p = p.AndThenEstimator(st.label, st.est)
		default:
			p = p.AndThenLabelEstimator(st.label, st.labelEst)
		}
	}
	return p, nil
}

// NeedsLabels reports whether the declared pipeline contains a
// label-estimator stage.
func NeedsLabels(cfg *Config) bool {
	for _, sc := range cfg.Pipeline.Stages {
		if sc.Op == "bias" {
			return true
		}
	}
	return false
}
