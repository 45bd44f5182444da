package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gantryml/gantry/pkg/dataset"
	"github.com/gantryml/gantry/pkg/ops"
	"github.com/gantryml/gantry/pkg/pipeline"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := pipeline.FromTransformer("scale", ops.Scale(2)).
		AndThenEstimator("center", ops.Center{})

	fitted, err := p.Fit(context.Background(), dataset.FromSlice(dataset.Floats([]float64{1, 2, 3, 4})))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	srv := httptest.NewServer(New(fitted, nil, log.New(io.Discard)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestApply(t *testing.T) {
	srv := testServer(t)

	body, _ := json.Marshal(map[string]any{"items": []float64{1, 2, 3, 4}})
	resp, err := http.Post(srv.URL+"/v1/apply", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		RunID string `json:"run_id"`
		Items []any  `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.RunID == "" {
		t.Error("missing run_id")
	}
	// Doubled then centered by the doubled mean 5.
	want := []any{-3.0, -1.0, 1.0, 3.0}
	if !reflect.DeepEqual(got.Items, want) {
		t.Errorf("expected %v, got %v", want, got.Items)
	}
}

func TestApply_EmptyBody(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/v1/apply", "application/json", bytes.NewReader([]byte(`{"items":[]}`)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestApply_InvalidJSON(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/v1/apply", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestApply_OperatorError(t *testing.T) {
	srv := testServer(t)

	// Strings fail numeric coercion inside the pipeline.
	body := []byte(`{"items": ["nope"]}`)
	resp, err := http.Post(srv.URL+"/v1/apply", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}
