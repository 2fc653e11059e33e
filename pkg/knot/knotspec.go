package knot

import "github.com/chazu/nurbs/pkg/nurbs"

// Breakpoint is a distinct knot value with its multiplicity and deficiency
// (order - multiplicity, the number of insertions needed to reach full
// multiplicity).
type Breakpoint struct {
	Value float64
	Multi int
	Def   int
}

// KnotSpec holds the conversion state for one parametric dimension. All
// strides, offsets and widths are measured in float64s once Layout has run.
// Surfaces chain two specs through Next.
type KnotSpec struct {
	Order int

	in               []float64
	inkbegin, inkend int
	kfirst, klast    int
	kleft, kright    int

	bpts     []Breakpoint
	outknots []float64
	factors  []float64

	NCoords    int
	Prestride  int
	Poststride int
	Preoffset  int
	Postoffset int
	Prewidth   int
	Postwidth  int

	istransformed bool
	Next          *KnotSpec
	kspectotrans  *KnotSpec
}

// NewKnotSpec wires a validated knot vector into a spec.
func NewKnotSpec(kv KnotVector) *KnotSpec {
	return &KnotSpec{
		Order:     kv.Order,
		in:        kv.Knots,
		inkbegin:  0,
		inkend:    len(kv.Knots),
		Prestride: kv.Stride,
	}
}

// Breakpoints returns the breakpoints found by Select.
func (ks *KnotSpec) Breakpoints() []Breakpoint { return ks.bpts }

// OutKnots returns the knot vector after insertion.
func (ks *KnotSpec) OutKnots() []float64 { return ks.outknots }

// Factors returns the Boehm blending factors in the order insert uses them.
func (ks *KnotSpec) Factors() []float64 { return ks.factors }

// Segments is the number of Bézier segments along this dimension.
func (ks *KnotSpec) Segments() int { return len(ks.bpts) - 1 }

// Preselect finds the knots just past the first and the last breakpoint and
// records the first breakpoint.
func (ks *KnotSpec) Preselect() {
	in := ks.in

	ks.klast = ks.inkend - ks.Order
	kval := in[ks.klast]
	for ; ks.klast != ks.inkend; ks.klast++ {
		if !Identical(in[ks.klast], kval) {
			break
		}
	}

	ks.kfirst = ks.inkbegin + ks.Order - 1
	kval = in[ks.kfirst]
	for ; ks.kfirst != ks.inkend; ks.kfirst++ {
		if !Identical(in[ks.kfirst], kval) {
			break
		}
	}

	k := ks.kfirst - 1
	for ; k >= ks.inkbegin; k-- {
		if !Identical(kval, in[k]) {
			break
		}
	}
	k++

	ks.bpts = make([]Breakpoint, 1, ks.klast-ks.kfirst+1)
	ks.bpts[0] = Breakpoint{Value: kval, Multi: ks.kfirst - k}
	ks.kleft = ks.kfirst
	ks.kright = ks.kfirst
}

// Select computes breakpoints, the output knot vector and the blending
// factors, then the pre-layout widths and offsets in points.
func (ks *KnotSpec) Select() {
	ks.breakpoints()
	ks.knots()
	ks.computeFactors()

	ks.Preoffset = ks.kleft - (ks.inkbegin + ks.Order)
	ks.Postwidth = ks.Segments() * ks.Order
	ks.Prewidth = len(ks.outknots) - ks.Order
	ks.Postoffset = 0
	if d := ks.bpts[0].Def; d > 1 {
		ks.Postoffset = d - 1
	}
}

func (ks *KnotSpec) breakpoints() {
	nfactors := 0
	ub := len(ks.bpts) - 1
	ks.kleft = ks.kright

	for ; ks.kright != ks.klast; ks.kright++ {
		if Identical(ks.in[ks.kright], ks.bpts[ub].Value) {
			ks.bpts[ub].Multi++
			continue
		}
		def := ks.Order - ks.bpts[ub].Multi
		ks.bpts[ub].Def = def
		nfactors += def * (def - 1) / 2
		ks.bpts = append(ks.bpts, Breakpoint{Value: ks.in[ks.kright], Multi: 1})
		ub++
	}
	def := ks.Order - ks.bpts[ub].Multi
	ks.bpts[ub].Def = def
	nfactors += def * (def - 1) / 2

	ks.factors = make([]float64, 0, nfactors)
}

func (ks *KnotSpec) knots() {
	last := ks.bpts[len(ks.bpts)-1]
	lo := ks.kleft - ks.Order
	hi := ks.kright + last.Def
	ks.outknots = make([]float64, hi-lo)
	copy(ks.outknots, ks.in[lo:hi])
}

// computeFactors walks the breakpoints from the last to the first and
// raises each to full multiplicity in the output knots, recording every
// ratio used on the way.
func (ks *KnotSpec) computeFactors() {
	out := ks.outknots
	last := ks.bpts[len(ks.bpts)-1]
	mid := (len(out) - 1) - ks.Order + last.Multi

	for b := len(ks.bpts) - 1; b >= 0; b-- {
		bp := ks.bpts[b]
		mid -= bp.Multi
		def := bp.Def - 1
		if def <= 0 {
			continue
		}
		kv := bp.Value
		kf := (mid - def) + (ks.Order - 1)
		for kl := kf + def; kl != kf; kl-- {
			for kt, kh := kl, mid; kt != kf; kt, kh = kt-1, kh-1 {
				ks.factors = append(ks.factors, (kv-out[kh])/(out[kt]-out[kh]))
			}
			out[kl] = kv
		}
	}
}

// Layout converts widths and offsets from points to float64s. stride is
// the distance between consecutive points of this dimension in the output
// buffer; it returns the stride of the next dimension.
func (ks *KnotSpec) Layout(stride, ncoords int) int {
	ks.Poststride = stride
	next := stride * (ks.Segments()*ks.Order + ks.Postoffset)
	ks.Preoffset *= ks.Prestride
	ks.Prewidth *= ks.Poststride
	ks.Postwidth *= ks.Poststride
	ks.Postoffset *= ks.Poststride
	ks.NCoords = ncoords
	return next
}

// Copy moves the input control points that take part in the conversion
// into the output layout.
func (ks *KnotSpec) Copy(in []float64, inOff int, out []float64, outOff int) {
	inOff += ks.Preoffset
	for o := 0; o != ks.Prewidth; o += ks.Poststride {
		if ks.Next != nil {
			ks.Next.Copy(in, inOff, out, outOff+o)
		} else {
			copy(out[outOff+o:outOff+o+ks.NCoords], in[inOff:inOff+ks.NCoords])
		}
		inOff += ks.Prestride
	}
}

// SetTarget makes target the dimension the next Transform inserts along.
func (ks *KnotSpec) SetTarget(target *KnotSpec) {
	for k := ks; k != nil; k = k.Next {
		k.kspectotrans = target
	}
}

// MarkTransformed records that insertion along this dimension is done, so
// later passes walk the post-insertion layout.
func (ks *KnotSpec) MarkTransformed(done bool) { ks.istransformed = done }

// Transform runs insertion along the target dimension for every line of
// control points in the other dimensions.
func (ks *KnotSpec) Transform(p []float64, off int) {
	if ks.Next != nil {
		if ks == ks.kspectotrans {
			ks.Next.Transform(p, off)
			return
		}
		if ks.istransformed {
			off += ks.Postoffset
			for end := off + ks.Postwidth; off != end; off += ks.Poststride {
				ks.Next.Transform(p, off)
			}
			return
		}
		for end := off + ks.Prewidth; off != end; off += ks.Poststride {
			ks.Next.Transform(p, off)
		}
		return
	}

	if ks == ks.kspectotrans {
		ks.insert(p, off)
		return
	}
	if ks.istransformed {
		off += ks.Postoffset
		for end := off + ks.Postwidth; off != end; off += ks.Poststride {
			ks.kspectotrans.insert(p, off)
		}
		return
	}
	for end := off + ks.Prewidth; off != end; off += ks.Poststride {
		ks.kspectotrans.insert(p, off)
	}
}

// insert applies the Boehm recurrence to one line of control points
// starting at off, right to left, spreading the input points into the
// post-insertion layout.
func (ks *KnotSpec) insert(p []float64, off int) {
	if ks.NCoords < 1 || ks.NCoords > nurbs.MaxCoords {
		panic("knot: insert called with unsupported coordinate count")
	}
	ps := ks.Poststride
	f := 0
	src := off + ks.Prewidth - ps
	dst := off + ks.Postwidth + ks.Postoffset - ps

	b := len(ks.bpts) - 1
	for pend := src - ps*ks.bpts[b].Def; src != pend; pend += ps {
		p1 := src
		for p2 := src - ps; p2 != pend; p1, p2 = p2, p2-ps {
			ks.sum(p, p1, p2, ks.factors[f])
			f++
		}
	}

	for b--; b >= 0; b-- {
		bp := ks.bpts[b]
		for m := bp.Multi; m > 0; m-- {
			ks.move(p, dst, src)
			dst -= ps
			src -= ps
		}
		for pend := src - ps*bp.Def; src != pend; pend, dst = pend+ps, dst-ps {
			ks.move(p, dst, src)
			p1 := src
			for p2 := src - ps; p2 != pend; p1, p2 = p2, p2-ps {
				ks.sum(p, p1, p2, ks.factors[f])
				f++
			}
		}
	}
}

// sum sets point x to a*x + (1-a)*y.
func (ks *KnotSpec) sum(p []float64, x, y int, a float64) {
	b := 1 - a
	for k := 0; k < ks.NCoords; k++ {
		p[x+k] = a*p[x+k] + b*p[y+k]
	}
}

func (ks *KnotSpec) move(p []float64, to, from int) {
	if to == from {
		return
	}
	copy(p[to:to+ks.NCoords], p[from:from+ks.NCoords])
}
