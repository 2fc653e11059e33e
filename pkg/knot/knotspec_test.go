package knot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// convert runs the single-dimension pipeline over pts and returns the
// output buffer and the spec.
func convert(t *testing.T, order int, knots, pts []float64, ncoords int) ([]float64, *KnotSpec) {
	t.Helper()
	kv := New(order, knots, ncoords)
	if err := kv.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ks := NewKnotSpec(kv)
	ks.Preselect()
	ks.Select()
	out := make([]float64, ks.Layout(ncoords, ncoords))
	ks.Copy(pts, 0, out, 0)
	ks.SetTarget(ks)
	ks.Transform(out, 0)
	return out, ks
}

// deBoor evaluates a one-coordinate B-spline at u.
func deBoor(order int, knots, pts []float64, u float64) float64 {
	n := len(knots) - order
	span := order - 1
	for span < n-1 && u >= knots[span+1] {
		span++
	}
	d := make([]float64, order)
	for j := 0; j < order; j++ {
		d[j] = pts[span-order+1+j]
	}
	for r := 1; r < order; r++ {
		for j := order - 1; j >= r; j-- {
			i := span - order + 1 + j
			a := (u - knots[i]) / (knots[i+order-r] - knots[i])
			d[j] = (1-a)*d[j-1] + a*d[j]
		}
	}
	return d[order-1]
}

// bezier evaluates a one-coordinate Bézier segment at local parameter v.
func bezier(pts []float64, v float64) float64 {
	p := append([]float64(nil), pts...)
	for n := len(p) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			p[i] = (1-v)*p[i] + v*p[i+1]
		}
	}
	return p[0]
}

func TestBreakpoints(t *testing.T) {
	_, ks := convert(t, 4, []float64{0, 0, 0, 0, 1, 2, 2, 2, 2}, make([]float64, 5), 1)
	want := []Breakpoint{
		{Value: 0, Multi: 4, Def: 0},
		{Value: 1, Multi: 1, Def: 3},
		{Value: 2, Multi: 4, Def: 0},
	}
	if diff := cmp.Diff(want, ks.Breakpoints()); diff != "" {
		t.Errorf("breakpoints mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 0.5, 0.5}, ks.Factors(), approx); diff != "" {
		t.Errorf("factors mismatch (-want +got):\n%s", diff)
	}
	if ks.Segments() != 2 {
		t.Errorf("Segments() = %d, want 2", ks.Segments())
	}
}

func TestBreakpointMultiplicity(t *testing.T) {
	_, ks := convert(t, 4, []float64{0, 0, 0, 0, 1, 1, 2, 2, 2, 2}, make([]float64, 6), 1)
	bp := ks.Breakpoints()[1]
	if bp.Multi != 2 || bp.Def != 2 {
		t.Errorf("breakpoint at 1 = %+v, want multi 2 def 2", bp)
	}
}

func TestInsertInteriorKnot(t *testing.T) {
	pts := []float64{
		0, 0,
		1, 2,
		2, 0,
		3, 2,
		4, 0,
	}
	out, _ := convert(t, 4, []float64{0, 0, 0, 0, 1, 2, 2, 2, 2}, pts, 2)
	want := []float64{
		0, 0,
		1, 2,
		1.5, 1,
		2, 1,
		2, 1,
		2.5, 1,
		3, 2,
		4, 0,
	}
	if diff := cmp.Diff(want, out, approx); diff != "" {
		t.Errorf("bezier points mismatch (-want +got):\n%s", diff)
	}
	// The two segments share their boundary point.
	if diff := cmp.Diff(out[6:8], out[8:10], approx); diff != "" {
		t.Errorf("segment boundary differs:\n%s", diff)
	}
}

func TestBezierIsUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		knots []float64
		pts   []float64
	}{
		{"single segment", []float64{0, 0, 0, 0, 1, 1, 1, 1}, []float64{1, 5, -2, 7}},
		{"full interior multiplicity", []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2},
			[]float64{1, 5, -2, 7, 3, 0, 4, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := convert(t, 4, tt.knots, tt.pts, 1)
			if diff := cmp.Diff(tt.pts, out, approx); diff != "" {
				t.Errorf("control points changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUniformCubic(t *testing.T) {
	p := []float64{3, -1, 4, 2}
	out, ks := convert(t, 4, []float64{0, 1, 2, 3, 4, 5, 6, 7}, p, 1)
	if ks.Postoffset != 2 {
		t.Fatalf("Postoffset = %d, want 2", ks.Postoffset)
	}
	want := []float64{
		(p[0] + 4*p[1] + p[2]) / 6,
		(2*p[1] + p[2]) / 3,
		(p[1] + 2*p[2]) / 3,
		(p[1] + 4*p[2] + p[3]) / 6,
	}
	if diff := cmp.Diff(want, out[2:6], approx); diff != "" {
		t.Errorf("bezier points mismatch (-want +got):\n%s", diff)
	}
}

func TestConversionPreservesCurve(t *testing.T) {
	tests := []struct {
		name  string
		order int
		knots []float64
		pts   []float64
	}{
		{"one interior knot", 4, []float64{0, 0, 0, 0, 1, 2, 2, 2, 2}, []float64{0, 2, -1, 3, 1}},
		{"double knot", 4, []float64{0, 0, 0, 0, 1, 1, 3, 3, 3, 3}, []float64{0, 2, -1, 3, 1, 5}},
		{"quadratic", 3, []float64{0, 0, 0, 0.5, 1.5, 2, 2, 2}, []float64{1, 4, 2, 0, 3}},
		{"uniform", 4, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}, []float64{3, -1, 4, 2, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ks := convert(t, tt.order, tt.knots, tt.pts, 1)
			bpts := ks.Breakpoints()
			for seg := 0; seg < ks.Segments(); seg++ {
				lo, hi := bpts[seg].Value, bpts[seg+1].Value
				base := ks.Postoffset + seg*tt.order
				cpts := out[base : base+tt.order]
				for _, v := range []float64{0, 0.25, 0.5, 0.75, 1} {
					u := lo + v*(hi-lo)
					want := deBoor(tt.order, tt.knots, tt.pts, u)
					got := bezier(cpts, v)
					if !cmp.Equal(want, got, cmpopts.EquateApprox(0, 1e-9)) {
						t.Errorf("segment %d at u=%v: bezier %v, spline %v", seg, u, got, want)
					}
				}
			}
		})
	}
}
