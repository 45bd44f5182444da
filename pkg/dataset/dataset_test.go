package dataset

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
)

func doubleFn(x any) (any, error) { return x.(float64) * 2, nil }

func TestSlice_MapPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c := FromSlice(Floats([]float64{1, 2, 3}))

	out, err := c.Map(ctx, doubleFn)
	if err != nil {
		t.Fatal(err)
	}
	got, err := out.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{2.0, 4.0, 6.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSlice_MapDoesNotMutateSource(t *testing.T) {
	ctx := context.Background()
	c := FromSlice(Floats([]float64{1, 2}))

	if _, err := c.Map(ctx, doubleFn); err != nil {
		t.Fatal(err)
	}
	got, err := c.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{1.0, 2.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("source changed: %v", got)
	}
}

func TestFromSlice_CopiesInput(t *testing.T) {
	items := Floats([]float64{1, 2})
	c := FromSlice(items)
	items[0] = 99.0

	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1.0 {
		t.Errorf("collection shares caller storage: %v", got)
	}
}

func TestSlice_MapStopsAtError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	var calls int

	_, err := FromSlice(Floats([]float64{1, 2, 3})).Map(ctx, func(x any) (any, error) {
		calls++
		if x.(float64) == 2 {
			return nil, boom
		}
		return x, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected map to stop after the error, got %d calls", calls)
	}
}

func TestSlice_MapHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FromSlice(Floats([]float64{1})).Map(ctx, doubleFn)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParallel_MatchesSlice(t *testing.T) {
	ctx := context.Background()
	data := make([]float64, 200)
	for i := range data {
		data[i] = float64(i)
	}

	seq, err := FromSlice(Floats(data)).Map(ctx, doubleFn)
	if err != nil {
		t.Fatal(err)
	}
	par, err := NewParallel(Floats(data), 8).Map(ctx, doubleFn)
	if err != nil {
		t.Fatal(err)
	}

	want, err := seq.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := par.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("parallel map output differs from sequential")
	}
}

func TestParallel_ErrorCancelsRemaining(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	var calls atomic.Int64

	_, err := NewParallel(Floats(make([]float64, 1000)), 2).Map(ctx, func(x any) (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return x, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFloats(t *testing.T) {
	got := Floats([]float64{1.5, -2})
	want := []any{1.5, -2.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(Floats(nil)) != 0 {
		t.Error("expected empty result for nil input")
	}
}
