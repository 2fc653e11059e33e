package trim

import (
	"cmp"
	"math"
	"slices"

	"honnef.co/go/curve"
)

// Loops returns the closed polylines formed by the arcs of b, one point
// per vertex with the closing point left implicit.
func (b *Bin) Loops() [][]curve.Point {
	a := b.arena
	b.MarkAll()
	var loops [][]curve.Point
	b.Each(func(id ArcID) {
		if !a.IsMarked(id) {
			return
		}
		var loop []curve.Point
		for j := id; a.IsMarked(j); j = a.arcs[j].Next {
			a.ClearMark(j)
			pts := a.arcs[j].Pts
			if a.IsBezier(j) {
				pts = []curve.Point{a.Tail(j), a.Head(j)}
			}
			loop = append(loop, pts[:len(pts)-1]...)
		}
		loops = append(loops, loop)
	})
	return loops
}

// Area is the signed area of a closed polyline, positive when it runs
// counter-clockwise.
func Area(loop []curve.Point) float64 {
	var sum float64
	for i, p := range loop {
		q := loop[(i+1)%len(loop)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// collinear reports whether b lies on the line through a and c, relative
// to the lengths involved.
func collinear(a, b, c curve.Point) bool {
	ab, bc := b.Sub(a), c.Sub(b)
	return math.Abs(ab.Cross(bc)) <= 1e-10*ab.Hypot()*bc.Hypot()
}

// Clean drops repeated and collinear vertices. The result is nil when
// fewer than three vertices remain.
func Clean(loop []curve.Point) []curve.Point {
	out := slices.Clone(loop)
	for changed := true; changed && len(out) >= 3; {
		changed = false
		for i := 0; i < len(out) && len(out) >= 3; i++ {
			a := out[(i+len(out)-1)%len(out)]
			b := out[i]
			c := out[(i+1)%len(out)]
			if a.Distance(b) <= onLine || collinear(a, b, c) {
				out = slices.Delete(out, i, i+1)
				changed = true
				i--
			}
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// IsBox reports whether loops is exactly the counter-clockwise border of r.
func IsBox(loops [][]curve.Point, r curve.Rect) bool {
	if len(loops) != 1 {
		return false
	}
	loop := Clean(loops[0])
	if len(loop) != 4 || Area(loop) <= 0 {
		return false
	}
	corners := []curve.Point{
		curve.Pt(r.X0, r.Y0), curve.Pt(r.X1, r.Y0),
		curve.Pt(r.X1, r.Y1), curve.Pt(r.X0, r.Y1),
	}
	for _, c := range corners {
		if !slices.ContainsFunc(loop, func(p curve.Point) bool { return p.Distance(c) <= onLine }) {
			return false
		}
	}
	return true
}

// contains is the even-odd point in polygon test.
func contains(loop []curve.Point, p curve.Point) bool {
	in := false
	for i, a := range loop {
		b := loop[(i+1)%len(loop)]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// Triangulate turns trim loops into counter-clockwise triangles. Outer
// loops run counter-clockwise, holes clockwise; each hole is bridged into
// the smallest outer loop around it and the result is ear clipped.
func Triangulate(loops [][]curve.Point) [][3]curve.Point {
	type region struct {
		outer []curve.Point
		area  float64
		holes [][]curve.Point
	}
	var regions []*region
	var holes [][]curve.Point
	for _, l := range loops {
		l = Clean(l)
		if l == nil {
			continue
		}
		switch area := Area(l); {
		case area > 0:
			regions = append(regions, &region{outer: l, area: area})
		case area < 0:
			holes = append(holes, l)
		}
	}

	for _, h := range holes {
		var best *region
		for _, r := range regions {
			if insideLoop(r.outer, h) && (best == nil || r.area < best.area) {
				best = r
			}
		}
		if best != nil {
			best.holes = append(best.holes, h)
		}
	}

	var tris [][3]curve.Point
	for _, r := range regions {
		poly := r.outer
		slices.SortFunc(r.holes, func(x, y []curve.Point) int {
			return -cmp.Compare(maxX(x), maxX(y))
		})
		for i, h := range r.holes {
			poly = bridge(poly, h, r.holes[i+1:])
		}
		tris = append(tris, earClip(poly)...)
	}
	return tris
}

func maxX(loop []curve.Point) float64 {
	m := math.Inf(-1)
	for _, p := range loop {
		m = max(m, p.X)
	}
	return m
}

// insideLoop reports whether hole lies inside outer, judged by the
// midpoints of the hole's edges so touching vertices do not decide it.
func insideLoop(outer, hole []curve.Point) bool {
	in, out := 0, 0
	for i, p := range hole {
		if contains(outer, p.Midpoint(hole[(i+1)%len(hole)])) {
			in++
		} else {
			out++
		}
	}
	return in > out
}

// bridge splices hole into poly through the closest poly vertex that can
// see the hole's rightmost vertex. others are holes not yet bridged.
func bridge(poly, hole []curve.Point, others [][]curve.Point) []curve.Point {
	m := 0
	for i, p := range hole {
		if p.X > hole[m].X {
			m = i
		}
	}
	mp := hole[m]

	order := make([]int, len(poly))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		return cmp.Compare(poly[i].DistanceSquared(mp), poly[j].DistanceSquared(mp))
	})

	for _, i := range order {
		p := poly[i]
		prev, next := poly[(i+len(poly)-1)%len(poly)], poly[(i+1)%len(poly)]
		if !inCone(prev, p, next, mp) {
			continue
		}
		if crossesAny(p, mp, poly) || crossesAny(p, mp, hole) || slices.ContainsFunc(others, func(o []curve.Point) bool {
			return crossesAny(p, mp, o)
		}) {
			continue
		}
		out := make([]curve.Point, 0, len(poly)+len(hole)+2)
		out = append(out, poly[:i+1]...)
		out = append(out, hole[m:]...)
		out = append(out, hole[:m+1]...)
		out = append(out, poly[i:]...)
		return out
	}
	return poly
}

// inCone reports whether b lies strictly inside the interior angle at a
// of a counter-clockwise polygon with neighbours a0 and a1.
func inCone(a0, a, a1, b curve.Point) bool {
	if orient(a, a1, a0) >= 0 {
		return orient(a, b, a0) > 0 && orient(b, a, a1) > 0
	}
	return !(orient(a, b, a1) >= 0 && orient(b, a, a0) >= 0)
}

// crossesAny reports whether segment pq properly crosses an edge of loop
// that does not share an end point with it.
func crossesAny(p, q curve.Point, loop []curve.Point) bool {
	for i, a := range loop {
		b := loop[(i+1)%len(loop)]
		if a == p || a == q || b == p || b == q {
			continue
		}
		if properCross(p, q, a, b) {
			return true
		}
	}
	return false
}

func orient(a, b, c curve.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func properCross(p, q, a, b curve.Point) bool {
	d1, d2 := orient(p, q, a), orient(p, q, b)
	d3, d4 := orient(a, b, p), orient(a, b, q)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// inTriangle reports whether p lies inside or on the triangle abc.
func inTriangle(a, b, c, p curve.Point) bool {
	return orient(a, b, p) >= 0 && orient(b, c, p) >= 0 && orient(c, a, p) >= 0
}

// earClip triangulates a simple counter-clockwise polygon, possibly with
// repeated vertices from hole bridges.
func earClip(poly []curve.Point) [][3]curve.Point {
	idx := make([]int, len(poly))
	for i := range idx {
		idx[i] = i
	}
	var tris [][3]curve.Point
	for len(idx) > 3 {
		n := len(idx)
		ear := -1
		for k := 0; k < n && ear < 0; k++ {
			a, b, c := poly[idx[(k+n-1)%n]], poly[idx[k]], poly[idx[(k+1)%n]]
			if !ccwTurn(a, b, c) {
				continue
			}
			ok := true
			for _, j := range idx {
				p := poly[j]
				if p == a || p == b || p == c {
					continue
				}
				if inTriangle(a, b, c, p) {
					ok = false
					break
				}
			}
			if ok {
				ear = k
			}
		}
		if ear < 0 {
			// Nothing clips cleanly; drop the flattest vertex so the
			// loop still shrinks.
			best, flat := 0, math.Inf(1)
			for k := 0; k < n; k++ {
				a, b, c := poly[idx[(k+n-1)%n]], poly[idx[k]], poly[idx[(k+1)%n]]
				if v := math.Abs(orient(a, b, c)); v < flat {
					best, flat = k, v
				}
			}
			idx = slices.Delete(idx, best, best+1)
			continue
		}
		a, b, c := poly[idx[(ear+n-1)%n]], poly[idx[ear]], poly[idx[(ear+1)%n]]
		tris = append(tris, [3]curve.Point{a, b, c})
		idx = slices.Delete(idx, ear, ear+1)
	}
	if len(idx) == 3 {
		a, b, c := poly[idx[0]], poly[idx[1]], poly[idx[2]]
		if ccwTurn(a, b, c) {
			tris = append(tris, [3]curve.Point{a, b, c})
		}
	}
	return tris
}
