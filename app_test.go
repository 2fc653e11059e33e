package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/nurbs/pkg/backend"
)

// TestE2EWindowExample exercises the full pipeline: Lisp source → engine →
// scene → tessellate → meshes and polylines.
func TestE2EWindowExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/window.nurbs")
	if err != nil {
		t.Fatalf("failed to read window.nurbs: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	panel := result.Meshes[0]
	if panel.PartName != "panel" {
		t.Errorf("mesh part = %q, want panel", panel.PartName)
	}
	if len(panel.Vertices) == 0 || len(panel.Normals) == 0 || len(panel.Indices) == 0 {
		t.Fatal("panel mesh has empty buffers")
	}
	if panel.Color == "" {
		t.Error("panel has no color assigned")
	}

	// The panel spans x = 3u, y = 3v. No triangle may sit inside the
	// window, which covers u, v in [0.3, 0.7] x [0.3, 0.6] and more.
	v := panel.Vertices
	for i := 0; i+2 < len(panel.Indices); i += 3 {
		var cx, cy float32
		for k := range 3 {
			j := panel.Indices[i+k] * 3
			cx += v[j] / 3
			cy += v[j+1] / 3
		}
		if cx > 0.95 && cx < 2.05 && cy > 0.95 && cy < 1.75 {
			t.Fatalf("triangle %d centred at (%v, %v) lies inside the window", i/3, cx, cy)
		}
	}

	if len(result.Polylines) != 1 {
		t.Fatalf("expected 1 polyline, got %d", len(result.Polylines))
	}
	rail := result.Polylines[0]
	if rail.PartName != "rail" {
		t.Errorf("polyline part = %q, want rail", rail.PartName)
	}
	if rail.Color == panel.Color {
		t.Error("rail and panel share a color")
	}
	first := rail.Points[:3]
	want := []float32{0, 3.5, 0.25}
	for k := range 3 {
		if math.Abs(float64(first[k]-want[k])) > 1e-5 {
			t.Errorf("rail starts at %v, want %v", first, want)
			break
		}
	}

	if result.Stats.Triangles != len(panel.Indices)/3 {
		t.Errorf("stats triangles = %d, want %d", result.Stats.Triangles, len(panel.Indices)/3)
	}
	if result.Stats.Points != len(rail.Points)/3 {
		t.Errorf("stats points = %d, want %d", result.Stats.Points, len(rail.Points)/3)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(nurbs-curve \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleCurve ensures a minimal curve source renders one polyline.
func TestE2ESingleCurve(t *testing.T) {
	app := NewApp()
	source := `(nurbs-curve "edge" :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Polylines) != 1 {
		t.Fatalf("expected 1 polyline, got %d", len(result.Polylines))
	}
	if result.Polylines[0].PartName != "edge" {
		t.Errorf("expected part name 'edge', got %q", result.Polylines[0].PartName)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected no meshes for a curve, got %d", len(result.Meshes))
	}
}

func TestBuildFeedsExtraEvaluators(t *testing.T) {
	app := NewApp()
	rec := backend.NewRecorder()
	eval, result := app.build(planeSource("plane"), rec)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if eval == nil {
		t.Fatal("expected evaluator")
	}
	if rec.Count("bgnmap2f") != 1 || rec.Count("endmap2f") != 1 {
		t.Errorf("recorder saw %d bgnmap2f / %d endmap2f, want 1 / 1",
			rec.Count("bgnmap2f"), rec.Count("endmap2f"))
	}
	if got := len(eval.Triangles()); got != result.Stats.Triangles {
		t.Errorf("evaluator holds %d triangles, result reports %d", got, result.Stats.Triangles)
	}
}

func TestBuildSavesSTL(t *testing.T) {
	app := NewApp()
	eval, result := app.build(planeSource("plane"))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	path := filepath.Join(t.TempDir(), "plane.stl")
	if err := eval.SaveSTL(path); err != nil {
		t.Fatalf("SaveSTL: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Error("empty STL file")
	}
}

func TestPrintSummary(t *testing.T) {
	r := EvalResult{
		Meshes:    []MeshData{{PartName: "panel", Vertices: make([]float32, 12), Indices: make([]uint32, 6)}},
		Polylines: []PolylineData{{PartName: "rail", Points: make([]float32, 9)}},
		Stats:     Stats{Triangles: 2, Points: 3, MaxDepth: 4},
	}

	var plain strings.Builder
	printSummary(&plain, r, false)
	if !strings.Contains(plain.String(), "panel\tmesh\t4\t2\t-") {
		t.Errorf("plain summary missing mesh row:\n%s", plain.String())
	}
	if !strings.Contains(plain.String(), "rail\tpolyline\t-\t-\t3") {
		t.Errorf("plain summary missing polyline row:\n%s", plain.String())
	}

	var aligned strings.Builder
	printSummary(&aligned, r, true)
	if strings.Contains(aligned.String(), "\t") {
		t.Errorf("aligned summary still has tabs:\n%s", aligned.String())
	}
	if !strings.Contains(aligned.String(), "2 triangles, 3 polyline points, max depth 4") {
		t.Errorf("summary missing totals:\n%s", aligned.String())
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		in   EvalErrorData
		want string
	}{
		{EvalErrorData{Message: "boom"}, "boom"},
		{EvalErrorData{Line: 3, Message: "boom"}, "line 3: boom"},
		{EvalErrorData{Object: "panel", Message: "gap"}, "panel: gap"},
	}
	for _, tt := range tests {
		if got := formatMessage(tt.in); got != tt.want {
			t.Errorf("formatMessage(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	rec := backend.NewRecorder()
	rec.Bgnmap1f()
	rec.Endmap1f()
	if err := writeTo(path, rec.WriteTo); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "bgnmap1f") {
		t.Errorf("trace file missing calls:\n%s", got)
	}
}

// planeSource returns a unit square order-2 surface named name.
func planeSource(name string) string {
	return `(nurbs-surface "` + name + `" :uorder 2 :vorder 2
  :uknots (knots 0 0 1 1) :vknots (knots 0 0 1 1)
  :ctrl (ctrl 0 0 0  0 1 0  1 0 0  1 1 0))`
}
