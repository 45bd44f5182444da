package optimize

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/gantryml/gantry/pkg/dataset"
	"github.com/gantryml/gantry/pkg/pipeline"
)

func scale(f float64) pipeline.Func {
	return func(x any) (any, error) { return x.(float64) * f, nil }
}

func offset(d float64) pipeline.Func {
	return func(x any) (any, error) { return x.(float64) + d, nil }
}

func chain(fns ...pipeline.Func) *pipeline.Pipeline {
	p := pipeline.FromTransformer("f0", fns[0])
	for i, fn := range fns[1:] {
		p = p.AndThenNamed(fmt.Sprintf("f%d", i+1), fn)
	}
	return p
}

func TestFuseMaps_CollapsesLinearChain(t *testing.T) {
	p := chain(scale(2), offset(1), scale(3))

	g, err := FuseMaps(p.Graph())
	if err != nil {
		t.Fatalf("fuse failed: %v", err)
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("expected 1 fused node, got %d", len(g.Nodes))
	}

	fused, err := pipeline.FromGraph(g)
	if err != nil {
		t.Fatalf("fused graph invalid: %v", err)
	}

	for _, x := range []float64{-1, 0, 2, 10} {
		want, err := p.Apply(x)
		if err != nil {
			t.Fatal(err)
		}
		got, err := fused.Apply(x)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("x=%v: fused %v, original %v", x, got, want)
		}
	}
}

func TestFuseMaps_LeavesBranchesAlone(t *testing.T) {
	// Node 0 feeds both 1 and 2; it has two consumers and must not fuse.
	p, err := pipeline.New(
		[]pipeline.Node{
			pipeline.OperatorNode("a", scale(2)),
			pipeline.OperatorNode("b", offset(1)),
			pipeline.OperatorNode("c", joinFunc()),
		},
		[][]int{{pipeline.Source}, {0}, {0, 1}},
		[]pipeline.FitDep{pipeline.NoFit(), pipeline.NoFit(), pipeline.NoFit()},
		2,
	)
	if err != nil {
		t.Fatal(err)
	}

	g, err := FuseMaps(p.Graph())
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("branching graph changed shape: %d nodes", len(g.Nodes))
	}
}

// joinFunc is a plain single-input func; node c above reads its first
// dependency only, which is enough for the shape test.
func joinFunc() pipeline.Func {
	return func(x any) (any, error) { return x, nil }
}

func TestPrune_DropsDeadNodes(t *testing.T) {
	g, err := buildWithDead()
	if err != nil {
		t.Fatal(err)
	}

	pruned, err := Prune(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(pruned.Nodes) != 1 {
		t.Errorf("expected 1 live node, got %d", len(pruned.Nodes))
	}
}

func buildWithDead() (pipeline.Graph, error) {
	p, err := pipeline.New(
		[]pipeline.Node{
			pipeline.OperatorNode("dead", scale(2)),
			pipeline.OperatorNode("live", offset(1)),
		},
		[][]int{{pipeline.Source}, {pipeline.Source}},
		[]pipeline.FitDep{pipeline.NoFit(), pipeline.NoFit()},
		1,
	)
	if err != nil {
		return pipeline.Graph{}, err
	}
	return p.Graph(), nil
}

func TestStandard_PreservesOutputs(t *testing.T) {
	ctx := context.Background()
	p := chain(scale(2), offset(1), offset(-4), scale(0.5))
	data := []float64{-2, 0, 1, 3, 8}

	plain, err := p.ApplyBulk(ctx, dataset.FromSlice(dataset.Floats(data)))
	if err != nil {
		t.Fatal(err)
	}
	optimized, err := p.ApplyBulkWith(ctx, dataset.FromSlice(dataset.Floats(data)), Standard())
	if err != nil {
		t.Fatal(err)
	}

	want, err := plain.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := optimized.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("optimized output %v differs from plain %v", got, want)
	}
}

func TestSequence_StopsAtFirstError(t *testing.T) {
	called := false
	failing := Pass(func(g pipeline.Graph) (pipeline.Graph, error) {
		return pipeline.Graph{}, errTest
	})
	after := Pass(func(g pipeline.Graph) (pipeline.Graph, error) {
		called = true
		return g, nil
	})

	_, err := Sequence(failing, after).Optimize(pipeline.Graph{})
	if err != errTest {
		t.Fatalf("expected errTest, got %v", err)
	}
	if called {
		t.Error("pass after a failure was executed")
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test error" }
