// Package trim holds the trimming loops of a surface in parameter space:
// arcs stored in an arena and linked into closed loops, bins of arcs, and
// the operations that cut a bin along a parameter line and turn the
// pieces into triangles.
package trim

import (
	"fmt"

	"honnef.co/go/curve"
)

// ArcID indexes an Arc in its Arena.
type ArcID int32

// NoArc is the nil ArcID.
const NoArc ArcID = -1

// Side records which edge of the patch border an arc runs along.
type Side uint8

const (
	ArcNone Side = iota
	ArcRight
	ArcTop
	ArcLeft
	ArcBottom
)

func (s Side) String() string {
	switch s {
	case ArcNone:
		return "none"
	case ArcRight:
		return "right"
	case ArcTop:
		return "top"
	case ArcLeft:
		return "left"
	case ArcBottom:
		return "bottom"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Flags are the per-arc state bits.
type Flags struct {
	Side   Side
	Marked bool
	Bezier bool
	// ITail marks an arc whose tail lies on the line being split.
	ITail bool
}

// Bezier is the control polygon of an untessellated trim arc. Rational
// arcs carry three coordinates per point, the last being the weight.
type Bezier struct {
	Order  int
	Coords int
	Ctrl   []float64
}

func (b *Bezier) point(i int) curve.Point {
	p := b.Ctrl[i*b.Coords:]
	if b.Coords == 3 {
		return curve.Pt(p[0]/p[2], p[1]/p[2])
	}
	return curve.Pt(p[0], p[1])
}

// Arc is one directed piece of a trim loop, running from its tail (first
// point) to its head (last point).
type Arc struct {
	Pts   []curve.Point
	Bez   *Bezier
	Flags Flags

	Next, Prev ArcID
	// Link chains the arcs of one Bin.
	Link ArcID
}

// Arena owns every arc of one draw pass.
type Arena struct {
	arcs []Arc
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Reset drops every arc. IDs handed out before are invalid afterwards.
func (a *Arena) Reset() { a.arcs = a.arcs[:0] }

// Len is the number of arcs allocated since the last Reset.
func (a *Arena) Len() int { return len(a.arcs) }

// Arc returns the arc with the given id.
func (a *Arena) Arc(id ArcID) *Arc { return &a.arcs[id] }

func (a *Arena) alloc(arc Arc) ArcID {
	arc.Next, arc.Prev, arc.Link = NoArc, NoArc, NoArc
	a.arcs = append(a.arcs, arc)
	return ArcID(len(a.arcs) - 1)
}

// NewPwl allocates a piecewise linear arc through pts.
func (a *Arena) NewPwl(pts []curve.Point, side Side) ArcID {
	return a.alloc(Arc{Pts: pts, Flags: Flags{Side: side}})
}

// NewBezier allocates a Bézier arc of the given order. ctrl holds coords
// values per control point.
func (a *Arena) NewBezier(order, coords int, ctrl []float64, side Side) ArcID {
	b := &Bezier{Order: order, Coords: coords, Ctrl: ctrl}
	return a.alloc(Arc{Bez: b, Flags: Flags{Side: side, Bezier: true}})
}

// Edge allocates the straight arc from (s1, t1) to (s2, t2).
func (a *Arena) Edge(side Side, s1, t1, s2, t2 float64) ArcID {
	return a.NewPwl([]curve.Point{curve.Pt(s1, t1), curve.Pt(s2, t2)}, side)
}

// Tail is the first point of the arc.
func (a *Arena) Tail(id ArcID) curve.Point {
	arc := &a.arcs[id]
	if arc.Flags.Bezier {
		return arc.Bez.point(0)
	}
	return arc.Pts[0]
}

// Head is the last point of the arc.
func (a *Arena) Head(id ArcID) curve.Point {
	arc := &a.arcs[id]
	if arc.Flags.Bezier {
		return arc.Bez.point(arc.Bez.Order - 1)
	}
	return arc.Pts[len(arc.Pts)-1]
}

// Append splices id into a circular list after prev. With prev == NoArc
// the arc becomes a list of its own.
func (a *Arena) Append(id, prev ArcID) {
	arc := &a.arcs[id]
	if prev == NoArc {
		arc.Next, arc.Prev = id, id
		return
	}
	p := &a.arcs[prev]
	arc.Next = p.Next
	arc.Prev = prev
	a.arcs[p.Next].Prev = id
	p.Next = id
}

// connect makes to follow from in their loop.
func (a *Arena) connect(from, to ArcID) {
	a.arcs[from].Next = to
	a.arcs[to].Prev = from
}

// Loop links ids, in order, into one closed loop and returns its first arc.
func (a *Arena) Loop(ids ...ArcID) ArcID {
	if len(ids) == 0 {
		return NoArc
	}
	for i, id := range ids {
		a.connect(id, ids[(i+1)%len(ids)])
	}
	return ids[0]
}

func (a *Arena) SetMark(id ArcID) { a.arcs[id].Flags.Marked = true }
func (a *Arena) ClearMark(id ArcID) { a.arcs[id].Flags.Marked = false }
func (a *Arena) IsMarked(id ArcID) bool { return a.arcs[id].Flags.Marked }
func (a *Arena) SetITail(id ArcID) { a.arcs[id].Flags.ITail = true }
func (a *Arena) ClearITail(id ArcID) { a.arcs[id].Flags.ITail = false }
func (a *Arena) GetITail(id ArcID) bool { return a.arcs[id].Flags.ITail }
func (a *Arena) IsBezier(id ArcID) bool { return a.arcs[id].Flags.Bezier }
func (a *Arena) Side(id ArcID) Side { return a.arcs[id].Flags.Side }
func (a *Arena) Points(id ArcID) []curve.Point { return a.arcs[id].Pts }
