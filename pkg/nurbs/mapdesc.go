package nurbs

import (
	"fmt"
	"math"
)

// Property names a per-map tessellation property.
type Property int

const (
	PropSamplingMethod Property = iota
	PropPixelTolerance
	PropErrorTolerance
	PropCulling
	PropBBoxSubdividing
	PropSSteps
	PropTSteps
	PropClampFactor
)

var propertyNames = []string{
	"sampling-method", "pixel-tolerance", "error-tolerance", "culling",
	"bbox-subdividing", "s-steps", "t-steps", "clamp-factor",
}

func (p Property) String() string {
	if int(p) >= 0 && int(p) < len(propertyNames) {
		return propertyNames[p]
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

// ParseProperty maps a property name to its value. "u-steps" and
// "v-steps" are accepted as aliases of the s/t step counts.
func ParseProperty(name string) (Property, error) {
	switch name {
	case "u-steps":
		return PropSSteps, nil
	case "v-steps":
		return PropTSteps, nil
	}
	for i, s := range propertyNames {
		if s == name {
			return Property(i), nil
		}
	}
	return 0, fmt.Errorf("nurbs: unknown property %q", name)
}

// Mapdesc describes one map type: its coordinate layout and the sampling,
// culling and bounding properties that drive subdivision.
type Mapdesc struct {
	Type       MapType
	IsRational bool
	NCoords    int // coordinates per control point
	HCoords    int // coordinates after homogenisation
	InhCoords  int // coordinates without the weight
	Mask       uint

	PixelTolerance  float64
	ErrorTolerance  float64
	SamplingMethod  SamplingMethod
	Culling         bool
	BBoxSubdividing bool
	ClampFactor     float64
	SSteps          float64
	TSteps          float64
	BBoxSize        [MaxCoords]float64

	SamplingMatrix Matrix
	CullingMatrix  Matrix
	BoundingMatrix Matrix
}

// NewMapdesc returns a descriptor with the default properties: path length
// sampling at a tolerance of 50, 100 steps per unit, no culling, no
// clamping and no bounding box subdivision.
func NewMapdesc(t MapType) *Mapdesc {
	rat := t.IsRational()
	n := t.Coords()
	d := &Mapdesc{
		Type:           t,
		IsRational:     rat,
		NCoords:        n,
		PixelTolerance: 50,
		ErrorTolerance: 1,
		SamplingMethod: PathLength,
		ClampFactor:    NoClamping,
		SSteps:         100,
		TSteps:         100,
		SamplingMatrix: Identity(),
		CullingMatrix:  Identity(),
		BoundingMatrix: Identity(),
	}
	if rat {
		d.HCoords = n
		d.InhCoords = n - 1
	} else {
		d.HCoords = n + 1
		d.InhCoords = n
	}
	d.Mask = (1 << uint(d.InhCoords*2)) - 1
	for i := range d.BBoxSize {
		d.BBoxSize[i] = 1
	}
	return d
}

// Clone returns an independent copy.
func (d *Mapdesc) Clone() *Mapdesc {
	c := *d
	return &c
}

// SetProperty sets one property by name.
func (d *Mapdesc) SetProperty(p Property, v float64) error {
	switch p {
	case PropSamplingMethod:
		m := SamplingMethod(v)
		if m < NoSampling || m > PathLength {
			return fmt.Errorf("nurbs: sampling method %v out of range", v)
		}
		d.SamplingMethod = m
	case PropPixelTolerance:
		if v <= 0 {
			return fmt.Errorf("nurbs: pixel tolerance must be positive, got %v", v)
		}
		d.PixelTolerance = v
	case PropErrorTolerance:
		if v <= 0 {
			return fmt.Errorf("nurbs: error tolerance must be positive, got %v", v)
		}
		d.ErrorTolerance = v
	case PropCulling:
		d.Culling = v != 0
	case PropBBoxSubdividing:
		d.BBoxSubdividing = v != 0
	case PropSSteps:
		if v < 0 {
			return fmt.Errorf("nurbs: s steps must not be negative, got %v", v)
		}
		d.SSteps = v
	case PropTSteps:
		if v < 0 {
			return fmt.Errorf("nurbs: t steps must not be negative, got %v", v)
		}
		d.TSteps = v
	case PropClampFactor:
		if v < 0 {
			return fmt.Errorf("nurbs: clamp factor must not be negative, got %v", v)
		}
		d.ClampFactor = v
	default:
		return fmt.Errorf("nurbs: unknown property %d", int(p))
	}
	return nil
}

// Property returns the current value of p.
func (d *Mapdesc) Property(p Property) float64 {
	switch p {
	case PropSamplingMethod:
		return float64(d.SamplingMethod)
	case PropPixelTolerance:
		return d.PixelTolerance
	case PropErrorTolerance:
		return d.ErrorTolerance
	case PropCulling:
		return boolToFloat(d.Culling)
	case PropBBoxSubdividing:
		return boolToFloat(d.BBoxSubdividing)
	case PropSSteps:
		return d.SSteps
	case PropTSteps:
		return d.TSteps
	case PropClampFactor:
		return d.ClampFactor
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// MaxRate is the curve sampling rate.
func (d *Mapdesc) MaxRate() float64 { return math.Max(d.SSteps, 0) }

// MaxSRate is the surface sampling rate along s.
func (d *Mapdesc) MaxSRate() float64 { return math.Max(d.SSteps, 0) }

// MaxTRate is the surface sampling rate along t.
func (d *Mapdesc) MaxTRate() float64 { return math.Max(d.TSteps, 0) }

func (d *Mapdesc) IsConstantSampling() bool { return d.SamplingMethod == FixedRate }
func (d *Mapdesc) IsDomainSampling() bool   { return d.SamplingMethod == DomainDistance }
func (d *Mapdesc) IsParametricDistanceSampling() bool {
	return d.SamplingMethod == ParametricDistance
}
func (d *Mapdesc) IsPathLengthSampling() bool { return d.SamplingMethod == PathLength }

// IsRangeSampling reports whether step sizes depend on the projected
// control points.
func (d *Mapdesc) IsRangeSampling() bool {
	return d.IsParametricDistanceSampling() || d.IsPathLengthSampling()
}

// IsCulling reports whether the culling test is enabled.
func (d *Mapdesc) IsCulling() bool { return d.Culling }

// IsBBoxSubdividing reports whether bounding box subdivision is enabled.
func (d *Mapdesc) IsBBoxSubdividing() bool { return d.BBoxSubdividing }

// xform maps one control point through m into hcoords output coordinates.
func (d *Mapdesc) xform(m *Matrix, dst, src []float64) {
	if d.IsRational {
		for i := 0; i < d.HCoords; i++ {
			var sum float64
			for j := 0; j < d.HCoords; j++ {
				sum += src[j] * m[j][i]
			}
			dst[i] = sum
		}
		return
	}
	for i := 0; i < d.HCoords; i++ {
		sum := m[d.InhCoords][i]
		for j := 0; j < d.InhCoords; j++ {
			sum += src[j] * m[j][i]
		}
		dst[i] = sum
	}
}

// Xform1 transforms order points of stride in src into dst, dstStride apart.
func (d *Mapdesc) Xform1(m *Matrix, src []float64, order, stride int, dst []float64, dstStride int) {
	for i := 0; i < order; i++ {
		d.xform(m, dst[i*dstStride:], src[i*stride:])
	}
}

// Xform2 transforms a uorder x vorder grid of points.
func (d *Mapdesc) Xform2(m *Matrix, src []float64, uorder, ustride, vorder, vstride int,
	dst []float64, dstUStride, dstVStride int) {
	for i := 0; i < uorder; i++ {
		for j := 0; j < vorder; j++ {
			d.xform(m, dst[i*dstUStride+j*dstVStride:], src[i*ustride+j*vstride:])
		}
	}
}

// Subdivide splits the Bézier polygon of order points at v. The lower half
// is written to dst; src is left holding the upper half.
func (d *Mapdesc) Subdivide(src, dst []float64, v float64, stride, order int) {
	mv := 1 - v
	for send := order; send > 0; send-- {
		copy(dst[(order-send)*stride:(order-send)*stride+d.HCoords], src[:d.HCoords])
		for q := 0; q+1 < send; q++ {
			a := src[q*stride:]
			b := src[(q+1)*stride:]
			for k := 0; k < d.HCoords; k++ {
				a[k] = mv*a[k] + v*b[k]
			}
		}
	}
}

// Subdivide2 splits every row of a point grid along the direction with
// stride ts and order to. There are so rows, ss apart.
func (d *Mapdesc) Subdivide2(src, dst []float64, v float64, so, ss, to, ts int) {
	for r := 0; r < so; r++ {
		d.Subdivide(src[r*ss:], dst[r*ss:], v, ts, to)
	}
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Project divides ncols homogeneous points by their weight. It returns
// false when the weights change sign, i.e. the points cross infinity.
func (d *Mapdesc) Project(src []float64, stride int, dst []float64, dstStride, ncols int) bool {
	s := sign(src[d.InhCoords])
	for c := 0; c < ncols; c++ {
		p := src[c*stride:]
		w := p[d.InhCoords]
		if sign(w) != s {
			return false
		}
		out := dst[c*dstStride:]
		for k := 0; k < d.InhCoords; k++ {
			out[k] = p[k] / w
		}
	}
	return true
}

// Project2 projects a grid of homogeneous points.
func (d *Mapdesc) Project2(src []float64, rstride, cstride int, dst []float64, trstride, tcstride, nrows, ncols int) bool {
	s := sign(src[d.InhCoords])
	for i := 0; i < nrows; i++ {
		for j := 0; j < ncols; j++ {
			p := src[i*rstride+j*cstride:]
			w := p[d.InhCoords]
			if sign(w) != s {
				return false
			}
			out := dst[i*trstride+j*tcstride:]
			for k := 0; k < d.InhCoords; k++ {
				out[k] = p[k] / w
			}
		}
	}
	return true
}

// CalcPartialVelocity bounds the magnitude of the partial-th derivative of
// a projected Bézier curve with ncols control points over a domain of
// length rng.
func (d *Mapdesc) CalcPartialVelocity(p []float64, stride, ncols, partial int, rng float64) float64 {
	if partial >= ncols || rng == 0 {
		return 0
	}
	var tmp [MaxOrder][MaxCoords]float64
	for j := 0; j < ncols; j++ {
		for k := 0; k < d.InhCoords; k++ {
			tmp[j][k] = p[j*stride+k]
		}
	}
	for t := 0; t < partial; t++ {
		for j := 0; j < ncols-t-1; j++ {
			for k := 0; k < d.InhCoords; k++ {
				tmp[j][k] = tmp[j+1][k] - tmp[j][k]
			}
		}
	}
	var maxMag float64
	for j := 0; j < ncols-partial; j++ {
		var mag float64
		for k := 0; k < d.InhCoords; k++ {
			mag += tmp[j][k] * tmp[j][k]
		}
		maxMag = math.Max(maxMag, mag)
	}
	fac := 1.0
	invt := 1 / rng
	for t := ncols - 1; t != ncols-1-partial; t-- {
		fac *= float64(t) * invt
	}
	return fac * math.Sqrt(maxMag)
}

// Side selects which boundary magnitudes CalcPartialVelocity2 reports.
const (
	SideNone = -1
	SideS    = 0 // first and last column
	SideT    = 1 // first and last row
)

// CalcPartialVelocity2 is the surface analogue of CalcPartialVelocity for
// the (spartial, tpartial) mixed derivative. When dist is non-nil and side
// is SideS or SideT, dist receives the bounds along the two boundary
// columns or rows.
func (d *Mapdesc) CalcPartialVelocity2(dist []float64, p []float64, rstride, cstride, nrows, ncols,
	spartial, tpartial int, srange, trange float64, side int) float64 {
	if spartial >= nrows || tpartial >= ncols || srange == 0 || trange == 0 {
		if dist != nil {
			dist[0], dist[1] = 0, 0
		}
		return 0
	}
	var tmp [MaxOrder][MaxOrder][MaxCoords]float64
	for i := 0; i < nrows; i++ {
		for j := 0; j < ncols; j++ {
			for k := 0; k < d.InhCoords; k++ {
				tmp[i][j][k] = p[i*rstride+j*cstride+k]
			}
		}
	}
	for t := 0; t < spartial; t++ {
		for i := 0; i < nrows-t-1; i++ {
			for j := 0; j < ncols; j++ {
				for k := 0; k < d.InhCoords; k++ {
					tmp[i][j][k] = tmp[i+1][j][k] - tmp[i][j][k]
				}
			}
		}
	}
	for t := 0; t < tpartial; t++ {
		for i := 0; i < nrows-spartial; i++ {
			for j := 0; j < ncols-t-1; j++ {
				for k := 0; k < d.InhCoords; k++ {
					tmp[i][j][k] = tmp[i][j+1][k] - tmp[i][j][k]
				}
			}
		}
	}
	var mag [MaxOrder][MaxOrder]float64
	for i := 0; i < nrows-spartial; i++ {
		for j := 0; j < ncols-tpartial; j++ {
			for k := 0; k < d.InhCoords; k++ {
				mag[i][j] += tmp[i][j][k] * tmp[i][j][k]
			}
		}
	}
	fac := 1.0
	for t := nrows - 1; t != nrows-1-spartial; t-- {
		fac *= float64(t) / srange
	}
	for t := ncols - 1; t != ncols-1-tpartial; t-- {
		fac *= float64(t) / trange
	}

	if dist != nil {
		switch side {
		case SideS:
			dist[0], dist[1] = 0, 0
			for i := 0; i < nrows-spartial; i++ {
				dist[0] = math.Max(dist[0], mag[i][0])
				dist[1] = math.Max(dist[1], mag[i][ncols-tpartial-1])
			}
			dist[0] = fac * math.Sqrt(dist[0])
			dist[1] = fac * math.Sqrt(dist[1])
		case SideT:
			dist[0], dist[1] = 0, 0
			for j := 0; j < ncols-tpartial; j++ {
				dist[0] = math.Max(dist[0], mag[0][j])
				dist[1] = math.Max(dist[1], mag[nrows-spartial-1][j])
			}
			dist[0] = fac * math.Sqrt(dist[0])
			dist[1] = fac * math.Sqrt(dist[1])
		}
	}

	var maxMag float64
	for i := 0; i < nrows-spartial; i++ {
		for j := 0; j < ncols-tpartial; j++ {
			maxMag = math.Max(maxMag, mag[i][j])
		}
	}
	return fac * math.Sqrt(maxMag)
}

// clipbits returns one bit per clip plane the homogeneous point lies
// inside of.
func (d *Mapdesc) clipbits(p []float64) uint {
	nc := d.InhCoords
	pw := p[nc]
	nw := -pw
	if pw == 0 {
		return d.Mask
	}
	var bits uint
	bit := uint(1)
	for i := 0; i < nc; i++ {
		if pw > 0 {
			if p[i] >= nw {
				bits |= bit
			}
			bit <<= 1
			if p[i] <= pw {
				bits |= bit
			}
		} else {
			if p[i] <= nw {
				bits |= bit
			}
			bit <<= 1
			if p[i] >= pw {
				bits |= bit
			}
		}
		bit <<= 1
	}
	return bits
}

// CullCheck classifies npts homogeneous culling-space points stride apart
// against the unit clip volume.
func (d *Mapdesc) CullCheck(p []float64, npts, stride int) CullResult {
	inbits := d.Mask
	var outbits uint
	for i := 0; i < npts; i++ {
		bits := d.clipbits(p[i*stride:])
		outbits |= bits
		inbits &= bits
		if outbits == d.Mask && inbits != d.Mask {
			return CullAccept
		}
	}
	switch {
	case outbits != d.Mask:
		return CullTrivialReject
	case inbits == d.Mask:
		return CullTrivialAccept
	}
	return CullAccept
}

// BBoxTooBig projects a grid of bounding-space points and reports 1 if
// their box exceeds BBoxSize in some coordinate, 0 if it fits and -1 if the
// points cross infinity.
func (d *Mapdesc) BBoxTooBig(p []float64, rstride, cstride, nrows, ncols int) int {
	var bb [MaxOrder * MaxOrder * MaxCoords]float64
	trs := ncols * MaxCoords
	if !d.Project2(p, rstride, cstride, bb[:], trs, MaxCoords, nrows, ncols) {
		return -1
	}
	for k := 0; k < d.InhCoords; k++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < nrows; i++ {
			for j := 0; j < ncols; j++ {
				v := bb[i*trs+j*MaxCoords+k]
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		if hi-lo > d.BBoxSize[k] {
			return 1
		}
	}
	return 0
}
