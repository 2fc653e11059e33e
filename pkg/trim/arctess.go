package trim

import (
	"math"

	"honnef.co/go/curve"
)

// MaxArcSteps bounds the number of segments one Bézier arc becomes.
const MaxArcSteps = 1024

const (
	// ArcFlatness is the largest distance a step may stray from its arc,
	// relative to the diagonal of the arc's control box.
	ArcFlatness = 0.0025
	// MaxArcTurn is the largest direction change, in radians, of one step.
	MaxArcTurn = math.Pi / 16
)

// TessellateBezier flattens bez into a polyline whose steps are no longer
// than rate[0] along s and rate[1] along t, measured on the control
// polygon. A zero rate leaves that direction unconstrained. Curved arcs
// take at least enough steps to keep each within ArcFlatness of the arc
// and to turn by no more than MaxArcTurn.
func TessellateBezier(bez *Bezier, rate [2]float64) []curve.Point {
	p0 := bez.point(0)
	box := curve.NewRectFromPoints(p0, p0)
	for i := 1; i < bez.Order; i++ {
		box = box.UnionPoint(bez.point(i))
	}

	n := 1
	for k, ext := range [2]float64{box.Width(), box.Height()} {
		if rate[k] > 0 {
			n = max(n, 1+int(ext/rate[k]))
		}
	}
	if bez.Order > 2 {
		n = max(n, curvedSteps(bez, math.Hypot(box.Width(), box.Height())))
	}
	n = min(n, MaxArcSteps)

	eval := bezierEval(bez)
	pts := make([]curve.Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = eval(float64(i) / float64(n))
	}
	pts[0], pts[n] = p0, bez.point(bez.Order-1)
	return pts
}

// curvedSteps estimates the uniform step count for a curved arc from its
// control polygon: the second differences bound the chord error, and the
// polygon's total turning bounds the arc's. Rational arcs are measured on
// the projected polygon, scaled by the spread of their weights.
func curvedSteps(bez *Bezier, diag float64) int {
	if diag == 0 {
		return 1
	}
	deg := float64(bez.Order - 1)
	var dd, turn float64
	for i := 0; i+2 < bez.Order; i++ {
		a := bez.point(i + 1).Sub(bez.point(i))
		b := bez.point(i + 2).Sub(bez.point(i + 1))
		dd = max(dd, b.Sub(a).Hypot())
		if a.Hypot2() > 0 && b.Hypot2() > 0 {
			turn += math.Abs(math.Atan2(a.Cross(b), a.Dot(b)))
		}
	}
	if bez.Coords == 3 {
		wmin, wmax := math.Inf(1), 0.0
		for i := 0; i < bez.Order; i++ {
			w := math.Abs(bez.Ctrl[i*3+2])
			wmin, wmax = min(wmin, w), max(wmax, w)
		}
		if wmin > 0 {
			dd *= wmax / wmin
		}
	}

	n := math.Sqrt(deg * (deg - 1) * dd / (8 * ArcFlatness * diag))
	n = max(n, turn/MaxArcTurn)
	if math.IsNaN(n) || n > MaxArcSteps {
		return MaxArcSteps
	}
	return max(1, int(math.Ceil(n)))
}

func bezierEval(bez *Bezier) func(float64) curve.Point {
	if bez.Coords == 2 {
		switch bez.Order {
		case 2:
			return curve.Line{P0: bez.point(0), P1: bez.point(1)}.Eval
		case 3:
			return curve.QuadBez{P0: bez.point(0), P1: bez.point(1), P2: bez.point(2)}.Eval
		case 4:
			return curve.CubicBez{P0: bez.point(0), P1: bez.point(1), P2: bez.point(2), P3: bez.point(3)}.Eval
		}
	}
	return func(u float64) curve.Point {
		return deCasteljau(bez, u)
	}
}

// deCasteljau evaluates bez at u in homogeneous space.
func deCasteljau(bez *Bezier, u float64) curve.Point {
	var tmp [3]float64
	buf := make([]float64, len(bez.Ctrl))
	copy(buf, bez.Ctrl)
	c := bez.Coords
	for n := bez.Order - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			for k := 0; k < c; k++ {
				buf[i*c+k] = (1-u)*buf[i*c+k] + u*buf[(i+1)*c+k]
			}
		}
	}
	copy(tmp[:], buf[:c])
	if c == 3 {
		return curve.Pt(tmp[0]/tmp[2], tmp[1]/tmp[2])
	}
	return curve.Pt(tmp[0], tmp[1])
}

// TessellateBin replaces every Bézier arc in b by its polyline.
func (a *Arena) TessellateBin(b *Bin, rate [2]float64) {
	b.Each(func(id ArcID) {
		arc := &a.arcs[id]
		if !arc.Flags.Bezier {
			return
		}
		arc.Pts = TessellateBezier(arc.Bez, rate)
		arc.Bez = nil
		arc.Flags.Bezier = false
	})
}
