package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/gantryml/gantry/pkg/dataset"
)

// sumAll is a variadic transformer adding all of its inputs.
type sumAll struct{}

func (sumAll) Apply(x any) (any, error) { return x, nil }

func (sumAll) ApplyBulk(ctx context.Context, data dataset.Collection) (dataset.Collection, error) {
	return data, nil
}

func (sumAll) ApplyAll(ins []any) (any, error) {
	var total float64
	for _, in := range ins {
		total += in.(float64)
	}
	return total, nil
}

func (sumAll) ApplyBulkAll(ctx context.Context, ins []dataset.Collection) (dataset.Collection, error) {
	cols := make([][]any, len(ins))
	for i, in := range ins {
		items, err := in.Collect(ctx)
		if err != nil {
			return nil, err
		}
		cols[i] = items
	}
	out := make([]any, len(cols[0]))
	for i := range out {
		var total float64
		for _, col := range cols {
			total += col[i].(float64)
		}
		out[i] = total
	}
	return dataset.FromSlice(out), nil
}

func sum2() Transformer { return sumAll{} }

// recordingHinted records whether its bulk path received an optimizer
// hint.
type recordingHinted struct {
	sawHint *bool
}

func (r recordingHinted) Apply(x any) (any, error) { return x, nil }

func (r recordingHinted) ApplyBulk(ctx context.Context, data dataset.Collection) (dataset.Collection, error) {
	return data, nil
}

func (r recordingHinted) ApplyBulkHinted(ctx context.Context, data dataset.Collection, hint Optimizer) (dataset.Collection, error) {
	*r.sawHint = hint != nil
	return data, nil
}

func collect(t *testing.T, c dataset.Collection) []any {
	t.Helper()
	items, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return items
}

func TestApplyBulk_MatchesSingleApply(t *testing.T) {
	p := FromTransformer("double", double()).AndThenNamed("inc", addN(1))

	inputs := []float64{-3, 0, 1, 2.5, 7}
	out, err := p.ApplyBulk(context.Background(), dataset.FromSlice(dataset.Floats(inputs)))
	if err != nil {
		t.Fatal(err)
	}
	bulk := collect(t, out)

	for i, x := range inputs {
		single, err := p.Apply(x)
		if err != nil {
			t.Fatal(err)
		}
		if bulk[i] != single {
			t.Errorf("element %d: bulk %v, single %v", i, bulk[i], single)
		}
	}
}

func TestApplyBulk_Example(t *testing.T) {
	p := FromTransformer("double", double())

	out, err := p.ApplyBulk(context.Background(), dataset.FromSlice(dataset.Floats([]float64{1, 2, 3})))
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, out)
	want := []any{2.0, 4.0, 6.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestApply_NotFitted(t *testing.T) {
	p := FromEstimator("mean", meanEstimator{})

	if _, err := p.Apply(1.0); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Apply: expected ErrNotFitted, got %v", err)
	}
	if _, err := p.ApplyBulk(context.Background(), dataset.FromSlice(nil)); !errors.Is(err, ErrNotFitted) {
		t.Errorf("ApplyBulk: expected ErrNotFitted, got %v", err)
	}
}

func TestApply_OperatorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	p := FromTransformer("ok", double()).AndThenNamed("fail", Func(func(x any) (any, error) {
		return nil, boom
	}))

	if _, err := p.Apply(1.0); !errors.Is(err, boom) {
		t.Errorf("Apply: expected operator error, got %v", err)
	}
	if _, err := p.ApplyBulk(context.Background(), dataset.FromSlice(dataset.Floats([]float64{1}))); !errors.Is(err, boom) {
		t.Errorf("ApplyBulk: expected operator error, got %v", err)
	}
}

func TestApply_VariadicReceivesAllInputs(t *testing.T) {
	// 0: double, 1: inc, both from source; 2 sums their outputs.
	p, err := New(
		[]Node{
			OperatorNode("double", double()),
			OperatorNode("inc", addN(1)),
			OperatorNode("sum", sum2()),
		},
		[][]int{{Source}, {Source}, {0, 1}},
		[]FitDep{NoFit(), NoFit(), NoFit()},
		2,
	)
	if err != nil {
		t.Fatal(err)
	}

	// 3*2 + (3+1) = 10
	got, err := p.Apply(3.0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 10.0 {
		t.Errorf("expected 10, got %v", got)
	}

	out, err := p.ApplyBulk(context.Background(), dataset.FromSlice(dataset.Floats([]float64{3, 5})))
	if err != nil {
		t.Fatal(err)
	}
	bulk := collect(t, out)
	want := []any{10.0, 16.0}
	if !reflect.DeepEqual(bulk, want) {
		t.Errorf("expected %v, got %v", want, bulk)
	}
}

func TestApplyBulkWith_HintReachesNestedStage(t *testing.T) {
	var saw bool
	p := FromTransformer("rec", recordingHinted{sawHint: &saw})

	identity := optimizerFunc(func(g Graph) (Graph, error) { return g, nil })
	if _, err := p.ApplyBulkWith(context.Background(), dataset.FromSlice(dataset.Floats([]float64{1})), identity); err != nil {
		t.Fatal(err)
	}
	if !saw {
		t.Error("hinted stage did not receive the optimizer hint")
	}
}

type optimizerFunc func(Graph) (Graph, error)

func (f optimizerFunc) Optimize(g Graph) (Graph, error) { return f(g) }

func TestApplyBulkWith_FailingOptimizerFallsBack(t *testing.T) {
	p := FromTransformer("double", double())
	data := dataset.Floats([]float64{1, 2, 3})

	broken := []Optimizer{
		optimizerFunc(func(Graph) (Graph, error) { return Graph{}, fmt.Errorf("no thanks") }),
		optimizerFunc(func(Graph) (Graph, error) { panic("kaboom") }),
		optimizerFunc(func(Graph) (Graph, error) {
			// Structurally invalid result: empty arena.
			return Graph{}, nil
		}),
	}

	want := collect(t, mustBulk(t, p, dataset.FromSlice(data), nil))
	for i, opt := range broken {
		got := collect(t, mustBulk(t, p, dataset.FromSlice(data), opt))
		if !reflect.DeepEqual(got, want) {
			t.Errorf("optimizer %d: expected fallback output %v, got %v", i, want, got)
		}
	}
}

func TestApplyBulkWith_OptimizerCannotMutateReceiver(t *testing.T) {
	p := FromTransformer("double", double()).AndThenNamed("inc", addN(1))

	vandal := optimizerFunc(func(g Graph) (Graph, error) {
		for i := range g.Nodes {
			g.Nodes[i].Label = "vandalized"
		}
		return g, nil
	})
	if _, err := p.ApplyBulkWith(context.Background(), dataset.FromSlice(dataset.Floats([]float64{1})), vandal); err != nil {
		t.Fatal(err)
	}

	for i, n := range p.Graph().Nodes {
		if n.Label == "vandalized" {
			t.Errorf("node %d mutated through optimizer", i)
		}
	}
}

func mustBulk(t *testing.T, p *Pipeline, data dataset.Collection, opt Optimizer) dataset.Collection {
	t.Helper()
	out, err := p.ApplyBulkWith(context.Background(), data, opt)
	if err != nil {
		t.Fatalf("bulk apply: %v", err)
	}
	return out
}
