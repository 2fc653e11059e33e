package engine

import (
	"strings"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/go-cmp/cmp"

	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/scene"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(nurbs-curve :order 4)`,
			expect: `(nurbs_curve "__kw_order" 4)`,
		},
		{
			name:   "multiple keywords",
			input:  `(hints :subdivisions 3 :display :fill)`,
			expect: `(hints "__kw_subdivisions" 3 "__kw_display" "__kw_fill")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(trim-loop (pwl-trim 0 0 1 1))`,
			expect: `(trim_loop (pwl_trim 0 0 1 1))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(ctrl -1 0 x-1)`,
			expect: `(ctrl -1 0 x-1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:pixel-tolerance`,
			expect: `"__kw_pixel-tolerance"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgsFlags(t *testing.T) {
	kw := func(s string) zygo.Sexp { return &zygo.SexpStr{S: kwPrefix + s} }
	args := []zygo.Sexp{
		kw("vertex3"),
		kw("sampling-method"), kw("path-length"),
		kw("pixel-tolerance"), &zygo.SexpInt{Val: 25},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		t.Fatalf("expected 1 positional flag, got %d", len(pa.positional))
	}
	if name, _ := isKW(pa.positional[0]); name != "vertex3" {
		t.Errorf("positional = %q, want vertex3", name)
	}
	if diff := cmp.Diff([]string{"sampling-method", "pixel-tolerance"}, pa.order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if v, _ := toKeywordString(pa.kw["sampling-method"]); v != "path-length" {
		t.Errorf("sampling-method = %q, want path-length", v)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, source string) *scene.Scene {
	t.Helper()
	sc, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected non-nil scene")
	}
	return sc
}

// ---------------------------------------------------------------------------
// Curves
// ---------------------------------------------------------------------------

func TestNurbsCurve(t *testing.T) {
	sc := mustEvaluate(t, `
; a planar cubic arch
(nurbs-curve "arch" :order 4
  :knots (knots 0 0 0 0 1 1 1 1)
  :ctrl (ctrl 0 0 0  1 2 0  2 2 0  3 0 0))
`)
	if len(sc.Curves) != 1 {
		t.Fatalf("expected 1 curve, got %d", len(sc.Curves))
	}
	c := sc.Curves[0]
	if c.Name != "arch" {
		t.Errorf("name = %q, want arch", c.Name)
	}
	want := scene.Map{
		Type:    nurbs.Map1Vertex3,
		SOrder:  4,
		SKnots:  []float64{0, 0, 0, 0, 1, 1, 1, 1},
		SStride: 3,
		Ctrl:    []float64{0, 0, 0, 1, 2, 0, 2, 2, 0, 3, 0, 0},
	}
	if diff := cmp.Diff([]scene.Map{want}, c.Maps); diff != "" {
		t.Errorf("maps mismatch (-want +got):\n%s", diff)
	}
	if errs := scene.Validate(sc); scene.HasErrors(errs) {
		t.Errorf("scene does not validate: %v", errs)
	}
}

func TestNurbsCurveArrays(t *testing.T) {
	sc := mustEvaluate(t, `
(nurbs-curve "w" :order 2 :type :vertex4
  :knots [0 0 1 1]
  :ctrl [[0 0 0 1] [2 2 0 2]])
`)
	m := sc.Curves[0].Maps[0]
	if m.Type != nurbs.Map1Vertex4 {
		t.Errorf("type = %s, want map1-vertex4", m.Type)
	}
	if m.SStride != 4 {
		t.Errorf("stride = %d, want 4", m.SStride)
	}
	if diff := cmp.Diff([]float64{0, 0, 0, 1, 2, 2, 0, 2}, m.Ctrl); diff != "" {
		t.Errorf("ctrl mismatch (-want +got):\n%s", diff)
	}
}

func TestNurbsCurveAnonymous(t *testing.T) {
	sc := mustEvaluate(t, `
(nurbs-curve :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0))
(nurbs-curve :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 1 0 1 1 0))
`)
	if len(sc.Curves) != 2 {
		t.Fatalf("expected 2 curves, got %d", len(sc.Curves))
	}
	if sc.Curves[0].Name == sc.Curves[1].Name {
		t.Errorf("anonymous curves share name %q", sc.Curves[0].Name)
	}
	if !strings.HasPrefix(sc.Curves[0].Name, "curve_anon_") {
		t.Errorf("name = %q, want curve_anon_ prefix", sc.Curves[0].Name)
	}
}

func TestNurbsCurveExtraMaps(t *testing.T) {
	sc := mustEvaluate(t, `
(nurbs-curve "tinted" :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0)
  :maps (list (nurbs-map :type :color4 :order 2 :knots (knots 0 0 1 1)
                         :ctrl (ctrl 1 0 0 1  0 0 1 1))))
`)
	maps := sc.Curves[0].Maps
	if len(maps) != 2 {
		t.Fatalf("expected 2 maps, got %d", len(maps))
	}
	if maps[1].Type != nurbs.Map1Color4 || maps[1].SStride != 4 {
		t.Errorf("extra map = %s stride %d, want map1-color4 stride 4", maps[1].Type, maps[1].SStride)
	}
}

// ---------------------------------------------------------------------------
// Surfaces and trims
// ---------------------------------------------------------------------------

const planeSource = `
(nurbs-surface "plane" :uorder 2 :vorder 2
  :uknots (knots 0 0 1 1) :vknots (knots 0 0 1 1)
  :ctrl (ctrl 0 0 0  0 1 0
              1 0 0  1 1 0)
  :trims (list
    (trim-loop
      (pwl-trim 0.25 0.25  0.75 0.25  0.75 0.75)
      (nurbs-trim :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0.75 0.75  0.25 0.75))
      (pwl-trim 0.25 0.75  0.25 0.25))))
`

func TestNurbsSurface(t *testing.T) {
	sc := mustEvaluate(t, planeSource)
	if len(sc.Surfaces) != 1 {
		t.Fatalf("expected 1 surface, got %d", len(sc.Surfaces))
	}
	sf := sc.Surfaces[0]
	m := sf.Maps[0]
	if m.Type != nurbs.Map2Vertex3 {
		t.Errorf("type = %s, want map2-vertex3", m.Type)
	}
	if m.SOrder != 2 || m.TOrder != 2 {
		t.Errorf("orders = %d, %d, want 2, 2", m.SOrder, m.TOrder)
	}
	if m.SStride != 6 || m.TStride != 3 {
		t.Errorf("strides = %d, %d, want 6, 3", m.SStride, m.TStride)
	}
	if len(sf.Trims) != 1 {
		t.Fatalf("expected 1 trim loop, got %d", len(sf.Trims))
	}
	pieces := sf.Trims[0].Pieces
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(pieces))
	}
	if pieces[0].Kind != scene.PiecePwl || pieces[1].Kind != scene.PieceNurbs {
		t.Errorf("piece kinds = %s, %s, want pwl, nurbs", pieces[0].Kind, pieces[1].Kind)
	}
	if pieces[1].Order != 2 || pieces[1].Rational {
		t.Errorf("nurbs piece order %d rational %v", pieces[1].Order, pieces[1].Rational)
	}
	if errs := scene.Validate(sc); scene.HasErrors(errs) {
		t.Errorf("scene does not validate: %v", errs)
	}
}

func TestNurbsTrimRational(t *testing.T) {
	sc := mustEvaluate(t, `
(nurbs-surface "s" :uorder 2 :vorder 2
  :uknots [0 0 1 1] :vknots [0 0 1 1]
  :ctrl [0 0 0 0 1 0 1 0 0 1 1 0]
  :trims (list (trim-loop
    (nurbs-trim :order 2 :rational true :knots [0 0 1 1] :ctrl [0 0 1  2 0 2])
    (pwl-trim 1 0 1 1 0 1 0 0))))
`)
	p := sc.Surfaces[0].Trims[0].Pieces[0]
	if !p.Rational {
		t.Error("expected rational trim piece")
	}
	if p.Coords() != 3 {
		t.Errorf("coords = %d, want 3", p.Coords())
	}
}

// ---------------------------------------------------------------------------
// Hints, properties and placement
// ---------------------------------------------------------------------------

func TestHints(t *testing.T) {
	sc := mustEvaluate(t, `(hints :display :outline-patch :subdivisions 3 :errorchecking :nomsg)`)
	h := sc.Hints
	if h.DisplayMethod != nurbs.DisplayOutlinePatch {
		t.Errorf("display = %s, want outline-patch", h.DisplayMethod)
	}
	if h.Subdivisions != 3 || h.MaxSubdivisions != 3 {
		t.Errorf("subdivisions = %v/%d, want 3/3", h.Subdivisions, h.MaxSubdivisions)
	}
	if h.ErrorChecking != nurbs.NoMsg {
		t.Errorf("errorchecking = %s, want nomsg", h.ErrorChecking)
	}
	if !h.WireTris || !h.WireQuads {
		t.Error("outline-patch should set both wire flags")
	}
}

func TestHintsDefaults(t *testing.T) {
	sc := mustEvaluate(t, `(+ 1 2)`)
	if diff := cmp.Diff(nurbs.DefaultRenderhints(), sc.Hints); diff != "" {
		t.Errorf("hints mismatch (-want +got):\n%s", diff)
	}
}

func TestProperty(t *testing.T) {
	sc := mustEvaluate(t, `
(property :vertex3 :sampling-method :domain-distance :pixel-tolerance 25)
(property :culling true)
`)
	both := []nurbs.MapType{nurbs.Map1Vertex3, nurbs.Map2Vertex3}
	want := []scene.Property{
		{Types: both, Prop: nurbs.PropSamplingMethod, Value: float64(nurbs.DomainDistance)},
		{Types: both, Prop: nurbs.PropPixelTolerance, Value: 25},
		{Prop: nurbs.PropCulling, Value: 1},
	}
	if diff := cmp.Diff(want, sc.Properties); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	l, err := sc.Maplist()
	if err != nil {
		t.Fatalf("Maplist: %v", err)
	}
	md := l.Find(nurbs.Map2Vertex3)
	if md.SamplingMethod != nurbs.DomainDistance {
		t.Errorf("sampling = %s, want domain-distance", md.SamplingMethod)
	}
	if !l.Find(nurbs.Map2Color4).Culling {
		t.Error("culling not applied to every map type")
	}
}

func TestPropertyStepAliases(t *testing.T) {
	sc := mustEvaluate(t, `(property :map2-vertex3 :u-steps 4 :v-steps 8)`)
	if len(sc.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(sc.Properties))
	}
	if sc.Properties[0].Prop != nurbs.PropSSteps || sc.Properties[1].Prop != nurbs.PropTSteps {
		t.Errorf("props = %s, %s, want s-steps, t-steps", sc.Properties[0].Prop, sc.Properties[1].Prop)
	}
	if diff := cmp.Diff([]nurbs.MapType{nurbs.Map2Vertex3}, sc.Properties[0].Types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestPlace(t *testing.T) {
	sc := mustEvaluate(t, `
(def c (nurbs-curve "moved" :order 2 :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0)))
(place c :at (vec3 1 2 3) :rotate (vec3 0 90 0))
`)
	want := scene.Transform{
		Translation: scene.Vec3{X: 1, Y: 2, Z: 3},
		Rotation:    scene.Vec3{Y: 90},
	}
	if diff := cmp.Diff(want, sc.Curves[0].Transform); diff != "" {
		t.Errorf("transform mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceSurface(t *testing.T) {
	sc := mustEvaluate(t, planeSource+`(place (nurbs-surface "second" :uorder 2 :vorder 2
  :uknots [0 0 1 1] :vknots [0 0 1 1] :ctrl [0 0 0 0 1 0 1 0 0 1 1 0]) :at (vec3 0 0 5))`)
	if len(sc.Surfaces) != 2 {
		t.Fatalf("expected 2 surfaces, got %d", len(sc.Surfaces))
	}
	if !sc.Surfaces[0].Transform.IsIdentity() {
		t.Error("first surface moved")
	}
	if sc.Surfaces[1].Transform.Translation.Z != 5 {
		t.Errorf("z = %v, want 5", sc.Surfaces[1].Transform.Translation.Z)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{
			name:    "curve without order",
			source:  `(nurbs-curve "c" :knots (knots 0 0 1 1) :ctrl (ctrl 0 0 0 1 0 0))`,
			wantMsg: "requires :order",
		},
		{
			name:    "curve with surface map type",
			source:  `(nurbs-curve "c" :type :map2-vertex3 :order 2 :knots [0 0 1 1] :ctrl [0 0 0 1 0 0])`,
			wantMsg: "not 1-dimensional",
		},
		{
			name:    "surface without vknots",
			source:  `(nurbs-surface "s" :uorder 2 :vorder 2 :uknots [0 0 1 1] :ctrl [0 0 0])`,
			wantMsg: "requires :vknots",
		},
		{
			name:    "non-numeric control point",
			source:  `(ctrl 0 "x" 1)`,
			wantMsg: "expected number",
		},
		{
			name:    "trim loop of numbers",
			source:  `(trim-loop 1 2)`,
			wantMsg: "expected pwl-trim or nurbs-trim",
		},
		{
			name:    "place a vector",
			source:  `(place (vec3 1 2 3) :at (vec3 0 0 0))`,
			wantMsg: "expected curve or surface",
		},
		{
			name:    "unknown property",
			source:  `(property :sharpness 3)`,
			wantMsg: "unknown property",
		},
		{
			name:    "bad display method",
			source:  `(hints :display :wireframe)`,
			wantMsg: "unknown display method",
		},
		{
			name:    "bad sampling method",
			source:  `(property :sampling-method :adaptive)`,
			wantMsg: "unknown sampling method",
		},
		{
			name:    "vec3 arity",
			source:  `(vec3 1 2)`,
			wantMsg: "exactly 3 arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if sc != nil {
				t.Error("expected nil scene on eval error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}
