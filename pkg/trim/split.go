package trim

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"honnef.co/go/curve"
)

// ErrOddIntersections is returned when the crossings of the trim loops
// with a split line cannot be paired, which happens when loops intersect
// each other or are not closed.
var ErrOddIntersections = errors.New("trim: unpaired crossings of split line")

// onLine is the distance below which a point is moved onto the split line.
const onLine = 1e-10

type class int8

const (
	classUnknown class = iota
	classLeft
	classRight
)

func coord(p curve.Point, param int) float64 {
	if param == 0 {
		return p.X
	}
	return p.Y
}

func setCoord(p *curve.Point, param int, v float64) {
	if param == 0 {
		p.X = v
	} else {
		p.Y = v
	}
}

// ccwTurn reports whether a, b, c make a strict counter-clockwise turn.
func ccwTurn(a, b, c curve.Point) bool {
	return b.Sub(a).Cross(c.Sub(a)) > 0
}

// Split moves the arcs of bin into left, where coordinate param is below
// value, and right. Arcs crossing the line are cut at the crossing and
// the pieces on each side are closed again with arcs along the line. bin
// is empty afterwards. Bézier arcs are reduced to their chords; tessellate
// them first.
func Split(bin, left, right *Bin, param int, value float64) error {
	a := bin.arena
	cls := make(map[ArcID]class)
	var pieces []ArcID
	for id := bin.RemoveArc(); id != NoArc; id = bin.RemoveArc() {
		pieces = a.partition(id, param, value, cls, pieces)
	}

	events := a.events(pieces, cls, param)
	for i, e := range events {
		if e.exit != (i%2 == 0) {
			for _, id := range pieces {
				a.ClearITail(id)
			}
			return fmt.Errorf("%w: %d crossings at %s = %g", ErrOddIntersections, len(events), paramName(param), value)
		}
	}
	pieces = a.join(events, cls, pieces)

	unknown := NewBin(a)
	for _, id := range pieces {
		a.ClearITail(id)
		switch cls[id] {
		case classLeft:
			left.AddArc(id)
		case classRight:
			right.AddArc(id)
		default:
			unknown.AddArc(id)
		}
	}
	unknown.Adopt()
	return nil
}

func paramName(param int) string {
	if param == 0 {
		return "s"
	}
	return "t"
}

// partition replaces arc id in its loop by pieces that each lie on one
// side of the line, appending them to out.
func (a *Arena) partition(id ArcID, param int, value float64, cls map[ArcID]class, out []ArcID) []ArcID {
	arc := a.arcs[id]
	pts := arc.Pts
	if arc.Flags.Bezier {
		pts = []curve.Point{a.Tail(id), a.Head(id)}
	}
	pts = arcSplit(pts, param, value)

	var ids []ArcID
	last := classUnknown
	start := 0
	for i := 1; i < len(pts); i++ {
		if i < len(pts)-1 && coord(pts[i], param) != value {
			continue
		}
		run := pts[start : i+1]
		start = i
		c := classify(run, param, value)
		if len(ids) > 0 && c == last && c != classUnknown {
			prev := ids[len(ids)-1]
			a.arcs[prev].Pts = append(a.arcs[prev].Pts, run[1:]...)
			continue
		}
		nid := a.NewPwl(slices.Clone(run), arc.Flags.Side)
		if coord(run[0], param) == value {
			a.SetITail(nid)
		}
		cls[nid] = c
		ids = append(ids, nid)
		last = c
	}

	for i := 1; i < len(ids); i++ {
		a.connect(ids[i-1], ids[i])
	}
	if arc.Next == id {
		a.connect(ids[len(ids)-1], ids[0])
	} else {
		a.connect(arc.Prev, ids[0])
		a.connect(ids[len(ids)-1], arc.Next)
	}
	return append(out, ids...)
}

// arcSplit snaps points near the line onto it and inserts a vertex at
// every crossing.
func arcSplit(pts []curve.Point, param int, value float64) []curve.Point {
	snap := func(p curve.Point) curve.Point {
		if math.Abs(coord(p, param)-value) <= onLine {
			setCoord(&p, param, value)
		}
		return p
	}
	out := make([]curve.Point, 0, len(pts)+2)
	prev := snap(pts[0])
	out = append(out, prev)
	for _, p := range pts[1:] {
		p = snap(p)
		d0, d1 := coord(prev, param)-value, coord(p, param)-value
		if d0*d1 < 0 {
			x := prev.Lerp(p, d0/(d0-d1))
			setCoord(&x, param, value)
			out = append(out, x)
		}
		out = append(out, p)
		prev = p
	}
	return out
}

// classify places a run whose interior points lie on one side of the
// line. Runs along the line go to the side their interior faces.
func classify(run []curve.Point, param int, value float64) class {
	for _, p := range run {
		switch d := coord(p, param) - value; {
		case d < 0:
			return classLeft
		case d > 0:
			return classRight
		}
	}
	tail, head := run[0], run[len(run)-1]
	lprobe, rprobe := tail, tail
	setCoord(&lprobe, param, value-1)
	setCoord(&rprobe, param, value+1)
	switch {
	case ccwTurn(tail, head, lprobe):
		return classLeft
	case ccwTurn(tail, head, rprobe):
		return classRight
	}
	return classUnknown
}

// event is a point where a loop passes from one side of the line to the
// other.
type event struct {
	key  float64 // position along the line, increasing in link direction
	exit bool    // the loop leaves the left side here
	from ArcID   // arc ending at the line
	to   ArcID   // arc starting at the line
	at   curve.Point
}

func (a *Arena) effective(id ArcID, cls map[ArcID]class) class {
	for j := id; ; {
		if c := cls[j]; c != classUnknown {
			return c
		}
		j = a.arcs[j].Prev
		if j == id {
			return classUnknown
		}
	}
}

// events lists the side changes of every loop, sorted in the order the
// left side's closing arcs run along the line.
func (a *Arena) events(pieces []ArcID, cls map[ArcID]class, param int) []event {
	var events []event
	for _, n := range pieces {
		if !a.GetITail(n) {
			continue
		}
		p := a.arcs[n].Prev
		cp, cn := a.effective(p, cls), a.effective(n, cls)
		if cp == cn || cp == classUnknown || cn == classUnknown {
			continue
		}
		at := a.Tail(n)
		key := coord(at, 1-param)
		if param == 1 {
			key = -key
		}
		events = append(events, event{key: key, exit: cp == classLeft, from: p, to: n, at: at})
	}
	slices.SortStableFunc(events, func(x, y event) int {
		if c := cmp.Compare(x.key, y.key); c != 0 {
			return c
		}
		switch {
		case x.exit == y.exit:
			return 0
		case x.exit:
			return -1
		}
		return 1
	})
	return events
}

// join pairs each exit with the entry after it, closing the left piece
// with an arc from exit to entry and the right piece with its reverse.
func (a *Arena) join(events []event, cls map[ArcID]class, pieces []ArcID) []ArcID {
	for i := 0; i+1 < len(events); i += 2 {
		e, n := events[i], events[i+1]
		if e.at.Distance(n.at) <= onLine {
			a.simplelink(e, n)
			continue
		}
		l, r := a.link(e.at, n.at)
		cls[l], cls[r] = classLeft, classRight
		a.connect(e.from, l)
		a.connect(l, n.to)
		a.connect(n.from, r)
		a.connect(r, e.to)
		pieces = append(pieces, l, r)
	}
	return pieces
}

// link allocates the pair of arcs joining p and q along the split line.
func (a *Arena) link(p, q curve.Point) (ArcID, ArcID) {
	l := a.NewPwl([]curve.Point{p, q}, ArcNone)
	r := a.NewPwl([]curve.Point{q, p}, ArcNone)
	return l, r
}

// simplelink joins two events at the same point without new arcs.
func (a *Arena) simplelink(e, n event) {
	a.connect(e.from, n.to)
	a.connect(n.from, e.to)
}
