package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gantryml/gantry/pkg/dataset"
)

// Runner executes the full pipeline lifecycle - fit, optimize, bulk
// apply - with structured logging and timing. It is stateless except
// for its collaborators; one Runner can serve concurrent executions.
type Runner struct {
	Optimizer Optimizer
	Logger    *log.Logger
}

// NewRunner creates a runner with the given optimizer and logger.
// A nil optimizer disables the rewrite pass; a nil logger falls back to
// log.Default().
func NewRunner(opt Optimizer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Optimizer: opt, Logger: logger}
}

// Stats contains timing and size information for one execution.
type Stats struct {
	Nodes     int // node count of the executed (fitted) pipeline
	FitTime   time.Duration
	ApplyTime time.Duration
}

// Result contains the outputs of one runner execution.
type Result struct {
	// RunID uniquely identifies this execution in logs.
	RunID string

	// Pipeline is the fitted, executable pipeline.
	Pipeline *Pipeline

	// Output is the bulk result of applying the fitted pipeline to the
	// input collection.
	Output dataset.Collection

	// Stats contains execution timings.
	Stats Stats
}

// Execute fits p on train (when it still contains estimators) and bulk
// applies the fitted pipeline to input, running the runner's optimizer
// on the bulk path.
func (r *Runner) Execute(ctx context.Context, p *Pipeline, train, input dataset.Collection) (*Result, error) {
	return r.execute(ctx, p, train, nil, input)
}

// ExecuteLabeled is Execute for pipelines containing label estimators.
func (r *Runner) ExecuteLabeled(ctx context.Context, p *Pipeline, train, labels, input dataset.Collection) (*Result, error) {
	return r.execute(ctx, p, train, labels, input)
}

func (r *Runner) execute(ctx context.Context, p *Pipeline, train, labels, input dataset.Collection) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}

	result := &Result{RunID: uuid.NewString()}

	fitStart := time.Now()
	fitted := p
	if !p.Fitted() {
		var err error
		if labels != nil {
			fitted, err = p.FitLabeled(ctx, train, labels)
		} else {
			fitted, err = p.Fit(ctx, train)
		}
		if err != nil {
			return nil, err
		}
	}
	result.Pipeline = fitted
	result.Stats.FitTime = time.Since(fitStart)
	result.Stats.Nodes = fitted.NodeCount()

	logger.Info("fitted pipeline",
		"run", result.RunID,
		"nodes", result.Stats.Nodes,
		"duration", result.Stats.FitTime)

	applyStart := time.Now()
	out, err := fitted.ApplyBulkWith(ctx, input, r.Optimizer)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.ApplyTime = time.Since(applyStart)

	logger.Info("applied pipeline",
		"run", result.RunID,
		"optimized", r.Optimizer != nil,
		"duration", result.Stats.ApplyTime)

	return result, nil
}
