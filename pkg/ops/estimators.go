package ops

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gantryml/gantry/pkg/dataset"
	"github.com/gantryml/gantry/pkg/pipeline"
)

// ErrEmptyInput is returned by the estimators in this package when fit
// on a collection with no elements.
var ErrEmptyInput = errors.New("ops: fit on empty input")

// ErrDegenerate is returned by [Standardize] when the training data has
// zero variance, so no scale can be estimated.
var ErrDegenerate = errors.New("ops: zero variance in training data")

// Center is an estimator whose fit computes the training mean and
// produces a transformer computing x - mean.
type Center struct{}

// Fit materializes the training data and estimates its mean.
func (Center) Fit(ctx context.Context, data dataset.Collection) (pipeline.Transformer, error) {
	mean, _, err := meanStd(ctx, data)
	if err != nil {
		return nil, err
	}
	return Offset(-mean), nil
}

// Standardize is an estimator producing a transformer computing
// (x - mean) / std over the training distribution.
type Standardize struct{}

// Fit estimates mean and standard deviation of the training data.
func (Standardize) Fit(ctx context.Context, data dataset.Collection) (pipeline.Transformer, error) {
	mean, std, err := meanStd(ctx, data)
	if err != nil {
		return nil, err
	}
	if std == 0 {
		return nil, ErrDegenerate
	}
	return pipeline.Func(func(x any) (any, error) {
		f, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		return (f - mean) / std, nil
	}), nil
}

// Bias is a label estimator whose fit computes the mean residual
// label - x over aligned training pairs and produces a transformer
// computing x + bias.
type Bias struct{}

// FitLabeled estimates the mean residual between labels and data.
func (Bias) FitLabeled(ctx context.Context, data, labels dataset.Collection) (pipeline.Transformer, error) {
	xs, err := collectFloats(ctx, data)
	if err != nil {
		return nil, err
	}
	ys, err := collectFloats(ctx, labels)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, ErrEmptyInput
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("ops: %d data elements but %d labels", len(xs), len(ys))
	}

	var sum float64
	for i := range xs {
		sum += ys[i] - xs[i]
	}
	return Offset(sum / float64(len(xs))), nil
}

func meanStd(ctx context.Context, data dataset.Collection) (mean, std float64, err error) {
	xs, err := collectFloats(ctx, data)
	if err != nil {
		return 0, 0, err
	}
	if len(xs) == 0 {
		return 0, 0, ErrEmptyInput
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(len(xs)))
	return mean, std, nil
}

func collectFloats(ctx context.Context, data dataset.Collection) ([]float64, error) {
	items, err := data.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, x := range items {
		f, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Ensure the estimators satisfy their contracts.
var (
	_ pipeline.Estimator      = Center{}
	_ pipeline.Estimator      = Standardize{}
	_ pipeline.LabelEstimator = Bias{}
)
