package trim

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"honnef.co/go/curve"
)

// square adds the counter-clockwise border of [s0,s1] x [t0,t1].
func square(a *Arena, s0, t0, s1, t1 float64) ArcID {
	return a.Loop(
		a.Edge(ArcBottom, s0, t0, s1, t0),
		a.Edge(ArcRight, s1, t0, s1, t1),
		a.Edge(ArcTop, s1, t1, s0, t1),
		a.Edge(ArcLeft, s0, t1, s0, t0),
	)
}

// hole adds the clockwise border of [s0,s1] x [t0,t1].
func hole(a *Arena, s0, t0, s1, t1 float64) ArcID {
	return a.Loop(
		a.Edge(ArcNone, s0, t0, s0, t1),
		a.Edge(ArcNone, s0, t1, s1, t1),
		a.Edge(ArcNone, s1, t1, s1, t0),
		a.Edge(ArcNone, s1, t0, s0, t0),
	)
}

func totalArea(loops [][]curve.Point) float64 {
	var sum float64
	for _, l := range loops {
		sum += Area(l)
	}
	return sum
}

func triArea(tris [][3]curve.Point) float64 {
	var sum float64
	for _, t := range tris {
		sum += orient(t[0], t[1], t[2]) / 2
	}
	return sum
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBinLIFO(t *testing.T) {
	a := NewArena()
	b := NewBin(a)
	if b.IsNonEmpty() {
		t.Fatal("new bin should be empty")
	}
	x := a.Edge(ArcNone, 0, 0, 1, 0)
	y := a.Edge(ArcNone, 1, 0, 1, 1)
	b.AddArc(x)
	b.AddArc(y)
	if b.NumArcs() != 2 {
		t.Errorf("NumArcs() = %d, want 2", b.NumArcs())
	}
	if got := b.RemoveArc(); got != y {
		t.Errorf("RemoveArc() = %d, want %d", got, y)
	}
	if got := b.RemoveArc(); got != x {
		t.Errorf("RemoveArc() = %d, want %d", got, x)
	}
	if got := b.RemoveArc(); got != NoArc {
		t.Errorf("RemoveArc() on empty bin = %d, want NoArc", got)
	}
}

func TestArcEnds(t *testing.T) {
	a := NewArena()
	id := a.NewPwl([]curve.Point{curve.Pt(0, 0), curve.Pt(0.5, 0.2), curve.Pt(1, 1)}, ArcNone)
	if a.Tail(id) != curve.Pt(0, 0) || a.Head(id) != curve.Pt(1, 1) {
		t.Errorf("tail/head = %v/%v", a.Tail(id), a.Head(id))
	}
	bz := a.NewBezier(2, 3, []float64{2, 0, 2, 1, 1, 1}, ArcNone)
	if a.Tail(bz) != curve.Pt(1, 0) || a.Head(bz) != curve.Pt(1, 1) {
		t.Errorf("rational tail/head = %v/%v", a.Tail(bz), a.Head(bz))
	}
}

func TestAppend(t *testing.T) {
	a := NewArena()
	x := a.Edge(ArcNone, 0, 0, 1, 0)
	y := a.Edge(ArcNone, 1, 0, 0, 0)
	a.Append(x, NoArc)
	a.Append(y, x)
	if a.Arc(x).Next != y || a.Arc(y).Next != x || a.Arc(x).Prev != y || a.Arc(y).Prev != x {
		t.Error("Append should close a two arc loop")
	}
}

func TestFlags(t *testing.T) {
	a := NewArena()
	id := a.Edge(ArcTop, 0, 0, 1, 0)
	a.SetMark(id)
	a.SetITail(id)
	if !a.IsMarked(id) || !a.GetITail(id) || a.Side(id) != ArcTop {
		t.Fatalf("flags = %+v", a.Arc(id).Flags)
	}
	a.ClearMark(id)
	a.ClearITail(id)
	if a.IsMarked(id) || a.GetITail(id) {
		t.Errorf("flags not cleared: %+v", a.Arc(id).Flags)
	}
}

func TestAdopt(t *testing.T) {
	a := NewArena()
	first := square(a, 0, 0, 1, 1)
	ids := []ArcID{first}
	for id := a.Arc(first).Next; id != first; id = a.Arc(id).Next {
		ids = append(ids, id)
	}

	home, orphans := NewBin(a), NewBin(a)
	home.AddArc(ids[0])
	home.AddArc(ids[1])
	orphans.AddArc(ids[2])
	orphans.AddArc(ids[3])
	orphans.Adopt()

	if orphans.IsNonEmpty() {
		t.Error("orphan bin should be empty after Adopt")
	}
	if home.NumArcs() != 4 {
		t.Errorf("home.NumArcs() = %d, want 4", home.NumArcs())
	}
	home.Each(func(id ArcID) {
		if a.IsMarked(id) {
			t.Errorf("arc %d still marked", id)
		}
	})
}

func TestAdoptDropsFullyMarkedLoop(t *testing.T) {
	a := NewArena()
	orphans := NewBin(a)
	orphans.AddLoop(square(a, 0, 0, 1, 1))
	orphans.Adopt()
	if orphans.IsNonEmpty() {
		t.Error("orphan bin should be empty")
	}
}

func TestSplitSquare(t *testing.T) {
	tests := []struct {
		name        string
		param       int
		left, right curve.Rect
	}{
		{"s", 0, curve.Rect{X0: 0, Y0: 0, X1: 0.5, Y1: 1}, curve.Rect{X0: 0.5, Y0: 0, X1: 1, Y1: 1}},
		{"t", 1, curve.Rect{X0: 0, Y0: 0, X1: 1, Y1: 0.5}, curve.Rect{X0: 0, Y0: 0.5, X1: 1, Y1: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArena()
			bin, left, right := NewBin(a), NewBin(a), NewBin(a)
			bin.AddLoop(square(a, 0, 0, 1, 1))
			if err := Split(bin, left, right, tt.param, 0.5); err != nil {
				t.Fatalf("Split: %v", err)
			}
			if bin.IsNonEmpty() {
				t.Error("source bin should be empty")
			}
			if !IsBox(left.Loops(), tt.left) {
				t.Errorf("left loops = %v, want box %v", left.Loops(), tt.left)
			}
			if !IsBox(right.Loops(), tt.right) {
				t.Errorf("right loops = %v, want box %v", right.Loops(), tt.right)
			}
		})
	}
}

func TestSplitThroughHole(t *testing.T) {
	for _, param := range []int{0, 1} {
		a := NewArena()
		bin, left, right := NewBin(a), NewBin(a), NewBin(a)
		bin.AddLoop(square(a, 0, 0, 1, 1))
		bin.AddLoop(hole(a, 0.25, 0.25, 0.75, 0.75))
		if err := Split(bin, left, right, param, 0.5); err != nil {
			t.Fatalf("Split(%d): %v", param, err)
		}
		for name, b := range map[string]*Bin{"left": left, "right": right} {
			loops := b.Loops()
			if len(loops) != 1 {
				t.Errorf("param %d %s: %d loops, want 1", param, name, len(loops))
			}
			if got := totalArea(loops); !near(got, 0.375) {
				t.Errorf("param %d %s: area %v, want 0.375", param, name, got)
			}
		}
	}
}

func TestSplitHoleOnLine(t *testing.T) {
	a := NewArena()
	bin, left, right := NewBin(a), NewBin(a), NewBin(a)
	bin.AddLoop(square(a, 0, 0, 1, 1))
	bin.AddLoop(hole(a, 0.5, 0.25, 0.75, 0.75))
	if err := Split(bin, left, right, 0, 0.5); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !IsBox(left.Loops(), curve.Rect{X0: 0, Y0: 0, X1: 0.5, Y1: 1}) {
		t.Errorf("left loops = %v, want the left half", left.Loops())
	}
	if got := totalArea(right.Loops()); !near(got, 0.375) {
		t.Errorf("right area = %v, want 0.375", got)
	}
}

func TestSplitMissesLoop(t *testing.T) {
	a := NewArena()
	bin, left, right := NewBin(a), NewBin(a), NewBin(a)
	bin.AddLoop(square(a, 0, 0, 0.25, 1))
	if err := Split(bin, left, right, 0, 0.5); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if right.IsNonEmpty() {
		t.Error("right bin should be empty")
	}
	if left.NumArcs() != 4 {
		t.Errorf("left.NumArcs() = %d, want 4", left.NumArcs())
	}
}

func TestSplitOverlappingLoops(t *testing.T) {
	a := NewArena()
	bin, left, right := NewBin(a), NewBin(a), NewBin(a)
	bin.AddLoop(square(a, 0, 0, 1, 1))
	bin.AddLoop(square(a, 0, 0.5, 1, 1.5))
	err := Split(bin, left, right, 0, 0.5)
	if !errors.Is(err, ErrOddIntersections) {
		t.Errorf("Split error = %v, want ErrOddIntersections", err)
	}
}

func TestSplitBinTwice(t *testing.T) {
	a := NewArena()
	bin, left, right := NewBin(a), NewBin(a), NewBin(a)
	bin.AddLoop(square(a, 0, 0, 1, 1))
	bin.AddLoop(hole(a, 0.25, 0.25, 0.75, 0.75))
	if err := Split(bin, left, right, 0, 0.5); err != nil {
		t.Fatalf("Split: %v", err)
	}
	low, high := NewBin(a), NewBin(a)
	if err := Split(left, low, high, 1, 0.5); err != nil {
		t.Fatalf("second Split: %v", err)
	}
	for name, b := range map[string]*Bin{"low": low, "high": high} {
		if got := totalArea(b.Loops()); !near(got, 0.1875) {
			t.Errorf("%s area = %v, want 0.1875", name, got)
		}
	}
}

func TestTriangulate(t *testing.T) {
	sq := []curve.Point{curve.Pt(0, 0), curve.Pt(1, 0), curve.Pt(1, 1), curve.Pt(0, 1)}
	hl := []curve.Point{curve.Pt(0.25, 0.25), curve.Pt(0.25, 0.75), curve.Pt(0.75, 0.75), curve.Pt(0.75, 0.25)}
	ell := []curve.Point{
		curve.Pt(0, 0), curve.Pt(2, 0), curve.Pt(2, 1),
		curve.Pt(1, 1), curve.Pt(1, 2), curve.Pt(0, 2),
	}
	collinearSq := []curve.Point{
		curve.Pt(0, 0), curve.Pt(0.5, 0), curve.Pt(1, 0), curve.Pt(1, 1), curve.Pt(0, 1),
	}
	tests := []struct {
		name  string
		loops [][]curve.Point
		area  float64
		count int
	}{
		{"square", [][]curve.Point{sq}, 1, 2},
		{"collinear vertex", [][]curve.Point{collinearSq}, 1, 2},
		{"concave", [][]curve.Point{ell}, 3, 4},
		{"square with hole", [][]curve.Point{sq, hl}, 0.75, -1},
		{"hole alone", [][]curve.Point{hl}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := Triangulate(tt.loops)
			if tt.count >= 0 && len(tris) != tt.count {
				t.Errorf("got %d triangles, want %d", len(tris), tt.count)
			}
			if got := triArea(tris); !near(got, tt.area) {
				t.Errorf("area = %v, want %v", got, tt.area)
			}
			for _, tri := range tris {
				if orient(tri[0], tri[1], tri[2]) <= 0 {
					t.Errorf("triangle %v is not counter-clockwise", tri)
				}
			}
		})
	}
}

func TestTessellateBezier(t *testing.T) {
	t.Run("line", func(t *testing.T) {
		bz := &Bezier{Order: 2, Coords: 2, Ctrl: []float64{0, 0, 1, 0}}
		pts := TessellateBezier(bz, [2]float64{0.25, 0.25})
		want := []curve.Point{
			curve.Pt(0, 0), curve.Pt(0.2, 0), curve.Pt(0.4, 0),
			curve.Pt(0.6, 0), curve.Pt(0.8, 0), curve.Pt(1, 0),
		}
		if diff := cmp.Diff(want, pts, cmp.Comparer(func(x, y curve.Point) bool {
			return x.Distance(y) < 1e-9
		})); diff != "" {
			t.Errorf("points mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("rational quarter circle", func(t *testing.T) {
		w := math.Sqrt2 / 2
		bz := &Bezier{Order: 3, Coords: 3, Ctrl: []float64{1, 0, 1, w, w, w, 0, 1, 1}}
		pts := TessellateBezier(bz, [2]float64{0.1, 0.1})
		if len(pts) < 9 {
			t.Fatalf("got %d points, want at least one per %v radians", len(pts), MaxArcTurn)
		}
		for _, p := range pts {
			if r := math.Hypot(p.X, p.Y); math.Abs(r-1) > 1e-9 {
				t.Errorf("point %v at radius %v, want 1", p, r)
			}
		}
	})
	t.Run("cubic end points", func(t *testing.T) {
		bz := &Bezier{Order: 4, Coords: 2, Ctrl: []float64{0, 0, 0.3, 1, 0.7, 1, 1, 0}}
		pts := TessellateBezier(bz, [2]float64{0.1, 0})
		if pts[0] != curve.Pt(0, 0) || pts[len(pts)-1] != curve.Pt(1, 0) {
			t.Errorf("end points = %v, %v", pts[0], pts[len(pts)-1])
		}
		if len(pts) <= 12 {
			t.Errorf("got %d points, want more than the rate alone asks for", len(pts))
		}
		eval := bezierEval(bz)
		n := len(pts) - 1
		tol := ArcFlatness * math.Hypot(1, 0.75)
		for i := 0; i < n; i++ {
			mid := pts[i].Midpoint(pts[i+1])
			if d := mid.Distance(eval((float64(i) + 0.5) / float64(n))); d > tol {
				t.Errorf("step %d strays %v from the arc, want at most %v", i, d, tol)
			}
		}
	})
	t.Run("small arc under a coarse rate", func(t *testing.T) {
		bz := &Bezier{Order: 3, Coords: 2, Ctrl: []float64{0, 0, 0.05, 0.1, 0.1, 0}}
		pts := TessellateBezier(bz, [2]float64{0.4, 0.4})
		if len(pts) <= 2 {
			t.Errorf("small quadratic flattened to %d points", len(pts))
		}
	})
	t.Run("straight quadratic", func(t *testing.T) {
		bz := &Bezier{Order: 3, Coords: 2, Ctrl: []float64{0, 0, 0.5, 0, 1, 0}}
		if pts := TessellateBezier(bz, [2]float64{0, 0}); len(pts) != 2 {
			t.Errorf("collinear quadratic gave %d points, want 2", len(pts))
		}
	})
}

func TestTessellateBin(t *testing.T) {
	a := NewArena()
	b := NewBin(a)
	id := a.NewBezier(3, 2, []float64{0, 0, 0.5, 1, 1, 0}, ArcNone)
	back := a.Edge(ArcNone, 1, 0, 0, 0)
	a.Loop(id, back)
	b.AddLoop(id)
	a.TessellateBin(b, [2]float64{0.25, 0.25})
	if a.IsBezier(id) {
		t.Fatal("arc still Bézier after TessellateBin")
	}
	if n := len(a.Points(id)); n < 3 {
		t.Errorf("tessellated arc has %d points", n)
	}
}
