package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors.
//    (TestE2EEmptySource already exists; this verifies additional invariants.)
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Polylines == nil {
		t.Error("Polylines should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(nurbs-surface \"test\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2EUndefinedFunction(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(nurbs-patch "p" :order 2)`)

	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an unknown form")
	}
	if len(result.Meshes) != 0 || len(result.Polylines) != 0 {
		t.Error("expected no output on error")
	}
}

// ---------------------------------------------------------------------------
// 3. Invalid geometry: validation stops the pass before any evaluator call.
// ---------------------------------------------------------------------------

func TestE2ETooFewKnots(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(nurbs-curve "bad" :order 4 :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0))`)

	if len(result.Errors) == 0 {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(result.Errors[0].Message, "bad") {
		t.Errorf("error should name the curve: %q", result.Errors[0].Message)
	}
	if len(result.Polylines) != 0 {
		t.Errorf("expected 0 polylines, got %d", len(result.Polylines))
	}
}

func TestE2EOpenTrimLoop(t *testing.T) {
	app := NewApp()
	source := `
(nurbs-surface "s" :uorder 2 :vorder 2
  :uknots [0 0 1 1] :vknots [0 0 1 1]
  :ctrl [0 0 0 0 1 0 1 0 0 1 1 0]
  :trims (list (trim-loop (pwl-trim 0.2 0.2 0.8 0.2 0.8 0.8))))
`
	result := app.Evaluate(source)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an open trim loop")
	}
	if !strings.Contains(result.Errors[0].Message, "open") {
		t.Errorf("unexpected message: %q", result.Errors[0].Message)
	}
}

func TestE2ENotEnoughControlPoints(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(nurbs-curve "c" :order 2 :knots (knots 0 0 0.5 1 1) :ctrl (ctrl 0 0 0 1 0 0))`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for missing control points")
	}
}

// ---------------------------------------------------------------------------
// 4. Warnings pass through without blocking output.
// ---------------------------------------------------------------------------

func TestE2EDuplicateNamesWarn(t *testing.T) {
	app := NewApp()
	source := `
(nurbs-curve "twin" :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0))
(nurbs-curve "twin" :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 1 0 1 1 0))
`
	result := app.Evaluate(source)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
	}
	if result.Warnings[0].Object != "twin" {
		t.Errorf("warning object = %q, want twin", result.Warnings[0].Object)
	}
	if len(result.Polylines) != 2 {
		t.Errorf("expected 2 polylines, got %d", len(result.Polylines))
	}
}

func TestE2ENegativeSubdivisionsWarn(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(hints :subdivisions -1)` + planeSource("p"))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for negative subdivisions")
	}
	if len(result.Meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation: the engine recovers cleanly between calls.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Sequential calls, since zygomys has internal global state that is
	// not safe for concurrent sandbox creation.
	app := NewApp()

	sources := []string{
		planeSource("a"),
		`(nurbs-curve "b" :order 2 :knots [0 0 1 1] :ctrl [0 0 0 1 1 1])`,
		`(+ 1 2)`,
		``,
		`(nurbs-surface "broken"`,
		`;; just a comment`,
		`(undefined-func 1 2 3)`,
		planeSource("c"),
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result := app.Evaluate(source)
			_ = result
		}()
	}

	// The last evaluation must still succeed.
	result := app.Evaluate(planeSource("last"))
	if len(result.Errors) > 0 || len(result.Meshes) != 1 {
		t.Errorf("engine did not recover: %d errors, %d meshes", len(result.Errors), len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 6. Comments and arithmetic in the DSL.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(";; a comment\n; another comment\n")

	if len(result.Errors) != 0 {
		t.Errorf("expected no errors for comments only, got %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2EArithmeticControlPoints(t *testing.T) {
	app := NewApp()
	source := `
(def h (* 2 0.5))
(def w (/ 3.0 2))
(nurbs-surface "computed" :uorder 2 :vorder 2
  :uknots [0 0 1 1] :vknots [0 0 1 1]
  :ctrl (ctrl 0 0 0  0 h 0  w 0 0  w h 0))
`
	result := app.Evaluate(source)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	var maxX, maxY float32
	v := result.Meshes[0].Vertices
	for i := 0; i+2 < len(v); i += 3 {
		maxX = max(maxX, v[i])
		maxY = max(maxY, v[i+1])
	}
	if maxX < 1.4999 || maxX > 1.5001 || maxY < 0.9999 || maxY > 1.0001 {
		t.Errorf("mesh extent = (%v, %v), want (1.5, 1)", maxX, maxY)
	}
}

// ---------------------------------------------------------------------------
// 7. Display modes and placement.
// ---------------------------------------------------------------------------

func TestE2EOutlineDisplay(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(hints :display :outline-patch)` + planeSource("wire"))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected no filled meshes, got %d", len(result.Meshes))
	}
	if len(result.Polylines) == 0 {
		t.Error("expected outline polylines")
	}
	for _, l := range result.Polylines {
		if l.PartName != "wire" {
			t.Errorf("outline part = %q, want wire", l.PartName)
		}
	}
}

func TestE2EPlacedSurface(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(place ` + planeSource("lifted") + ` :at (vec3 10 0 5))`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	v := result.Meshes[0].Vertices
	for i := 0; i+2 < len(v); i += 3 {
		if v[i] < 9.9999 || v[i] > 11.0001 || v[i+2] < 4.9999 || v[i+2] > 5.0001 {
			t.Fatalf("vertex (%v, %v, %v) outside the placed square", v[i], v[i+1], v[i+2])
		}
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := NewApp()

	// More objects than the palette has colors.
	var b strings.Builder
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"} {
		b.WriteString(planeSource(name))
		b.WriteString("\n")
	}
	result := app.Evaluate(b.String())

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 9 {
		t.Fatalf("expected 9 meshes, got %d", len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if m.Color == "" {
			t.Errorf("mesh %q should have a color assigned (palette wrapping)", m.PartName)
		}
	}
	if result.Meshes[0].Color != result.Meshes[8].Color {
		t.Errorf("ninth mesh color %s, want wrapped %s", result.Meshes[8].Color, result.Meshes[0].Color)
	}
}

func TestHelpBannerUsesSceneExtension(t *testing.T) {
	if !strings.Contains(helpBanner, "scene.nurbs") {
		t.Errorf("help banner does not name a .nurbs scene:\n%s", helpBanner)
	}
}
