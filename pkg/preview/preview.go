// Package preview rasterises tessellated meshes and polylines into a
// flat-shaded image, for quick looks at a pass without a 3D viewer.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"

	"github.com/chazu/nurbs/pkg/backend"
)

// View selects the projection direction.
type View int

const (
	ViewTop   View = iota // looking down -z
	ViewFront             // looking along +y
	ViewSide              // looking along -x
	ViewIso               // isometric
)

var viewNames = []string{"top", "front", "side", "iso"}

func (v View) String() string {
	if int(v) >= 0 && int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// ParseView maps a view name to its value.
func ParseView(name string) (View, error) {
	for i, s := range viewNames {
		if s == name {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("preview: unknown view %q", name)
}

// ErrNothingToDraw is returned when there is no geometry.
var ErrNothingToDraw = errors.New("preview: nothing to draw")

// Options controls rendering.
type Options struct {
	Width, Height int
	View          View
	// Supersample renders at this multiple of the output size before
	// downsampling. Values below 1 are treated as 1.
	Supersample int
	// Margin is the fraction of the image left empty on each side.
	Margin     float64
	Background color.Color
	Fill       color.Color
	Line       color.Color
	// LineWidth is the polyline width in output pixels.
	LineWidth float64
}

// DefaultOptions returns a 512x512 isometric preview.
func DefaultOptions() Options {
	return Options{
		Width:       512,
		Height:      512,
		View:        ViewIso,
		Supersample: 3,
		Margin:      0.05,
		Background:  color.White,
		Fill:        color.NRGBA{R: 0x6a, G: 0x8c, B: 0xb8, A: 0xff},
		Line:        color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff},
		LineWidth:   1.5,
	}
}

// projector maps model points to view space: x right, y up, z towards
// the viewer.
type projector [3][3]float64

func newProjector(v View) projector {
	switch v {
	case ViewFront:
		return projector{{1, 0, 0}, {0, 0, 1}, {0, -1, 0}}
	case ViewSide:
		return projector{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}}
	case ViewIso:
		// Rotate 45 degrees about z, then tilt by atan(1/sqrt 2) about x.
		c, s := math.Sqrt2/2, math.Sqrt2/2
		ct, st := math.Sqrt(2.0/3.0), math.Sqrt(1.0/3.0)
		return projector{
			{c, -s, 0},
			{st * s, st * c, ct},
			{-ct * s, -ct * c, st},
		}
	}
	return projector{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func (p projector) apply(x, y, z float32) [3]float64 {
	v := [3]float64{float64(x), float64(y), float64(z)}
	var out [3]float64
	for i := range 3 {
		out[i] = p[i][0]*v[0] + p[i][1]*v[1] + p[i][2]*v[2]
	}
	return out
}

type tri struct {
	pts   [3][3]float64
	depth float64
	shade float64
}

type frame struct {
	minX, minY, scale float64
	offX, offY        float64
}

func (f frame) px(p [3]float64) (float32, float32) {
	return float32(f.offX + (p[0]-f.minX)*f.scale), float32(f.offY + (p[1]-f.minY)*f.scale)
}

// Render draws meshes and polylines. Triangles are painted back to front
// with Lambert shading from a light at the viewer; polylines go on top.
func Render(meshes []*backend.Mesh, lines []*backend.Polyline, opts Options) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview: invalid size %dx%d", opts.Width, opts.Height)
	}
	ss := max(opts.Supersample, 1)
	w, h := opts.Width*ss, opts.Height*ss
	proj := newProjector(opts.View)

	var tris []tri
	var polys [][][3]float64
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p [3]float64) {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	for _, m := range meshes {
		v := m.Vertices
		for i := 0; i+2 < len(m.Indices); i += 3 {
			var t tri
			for k := range 3 {
				j := int(m.Indices[i+k]) * 3
				t.pts[k] = proj.apply(v[j], v[j+1], v[j+2])
				grow(t.pts[k])
				t.depth += t.pts[k][2] / 3
			}
			t.shade = lambert(t.pts)
			tris = append(tris, t)
		}
	}
	for _, l := range lines {
		var pts [][3]float64
		for i := 0; i+2 < len(l.Points); i += 3 {
			p := proj.apply(l.Points[i], l.Points[i+1], l.Points[i+2])
			grow(p)
			pts = append(pts, p)
		}
		if len(pts) > 0 {
			polys = append(polys, pts)
		}
	}
	if len(tris) == 0 && len(polys) == 0 {
		return nil, ErrNothingToDraw
	}

	margin := math.Max(opts.Margin, 0)
	usableW := float64(w) * (1 - 2*margin)
	usableH := float64(h) * (1 - 2*margin)
	spanX, spanY := maxX-minX, maxY-minY
	scale := math.Inf(1)
	if spanX > 0 {
		scale = usableW / spanX
	}
	if spanY > 0 {
		scale = math.Min(scale, usableH/spanY)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	f := frame{
		minX:  minX,
		minY:  minY,
		scale: scale,
		offX:  (float64(w) - spanX*scale) / 2,
		offY:  (float64(h) - spanY*scale) / 2,
	}

	img := imaging.New(w, h, orDefault(opts.Background, color.White))
	fill := color.NRGBAModel.Convert(orDefault(opts.Fill, DefaultOptions().Fill)).(color.NRGBA)

	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth < tris[j].depth })
	r := vector.NewRasterizer(1, 1)
	for _, t := range tris {
		var xs, ys [3]float32
		for k := range 3 {
			xs[k], ys[k] = f.px(t.pts[k])
		}
		fillPolygon(r, img, xs[:], ys[:], image.NewUniform(shaded(fill, t.shade)))
	}

	lw := math.Max(opts.LineWidth, 0.5) * float64(ss)
	line := image.NewUniform(orDefault(opts.Line, color.Black))
	for _, pts := range polys {
		if len(pts) == 1 {
			x, y := f.px(pts[0])
			dot(r, img, x, y, float32(lw), line)
			continue
		}
		for i := 0; i+1 < len(pts); i++ {
			x0, y0 := f.px(pts[i])
			x1, y1 := f.px(pts[i+1])
			segment(r, img, x0, y0, x1, y1, float32(lw), line)
		}
	}

	// Model y points up; image rows grow downwards.
	out := imaging.FlipV(img)
	if ss > 1 {
		return imaging.Resize(out, opts.Width, opts.Height, imaging.Lanczos), nil
	}
	return out, nil
}

// WritePNG renders and encodes the result as PNG.
func WritePNG(w io.Writer, meshes []*backend.Mesh, lines []*backend.Polyline, opts Options) error {
	img, err := Render(meshes, lines, opts)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.PNG)
}

// SavePNG renders to a file.
func SavePNG(path string, meshes []*backend.Mesh, lines []*backend.Polyline, opts Options) error {
	img, err := Render(meshes, lines, opts)
	if err != nil {
		return err
	}
	return imaging.Save(img, path)
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// lambert returns the cosine between the triangle normal and the view
// direction. Both faces are lit.
func lambert(p [3][3]float64) float64 {
	ux, uy, uz := p[1][0]-p[0][0], p[1][1]-p[0][1], p[1][2]-p[0][2]
	vx, vy, vz := p[2][0]-p[0][0], p[2][1]-p[0][1], p[2][2]-p[0][2]
	nx, ny, nz := uy*vz-uz*vy, uz*vx-ux*vz, ux*vy-uy*vx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return 1
	}
	return math.Abs(nz) / l
}

func shaded(c color.NRGBA, k float64) color.NRGBA {
	k = 0.35 + 0.65*k
	return color.NRGBA{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: c.A,
	}
}

// fillPolygon rasterises a closed polygon into dst, restricting the
// rasteriser to the polygon's bounding box.
func fillPolygon(r *vector.Rasterizer, dst *image.NRGBA, xs, ys []float32, src image.Image) {
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		x0, x1 = math.Min(x0, float64(xs[i])), math.Max(x1, float64(xs[i]))
		y0, y1 = math.Min(y0, float64(ys[i])), math.Max(y1, float64(ys[i]))
	}
	rect := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1))+1, int(math.Ceil(y1))+1)
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	ox, oy := float32(rect.Min.X), float32(rect.Min.Y)
	r.Reset(rect.Dx(), rect.Dy())
	r.MoveTo(xs[0]-ox, ys[0]-oy)
	for i := 1; i < len(xs); i++ {
		r.LineTo(xs[i]-ox, ys[i]-oy)
	}
	r.ClosePath()
	r.Draw(dst, rect, src, image.Point{})
}

// segment strokes a line as a quad of width lw.
func segment(r *vector.Rasterizer, dst *image.NRGBA, x0, y0, x1, y1, lw float32, src image.Image) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		dot(r, dst, x0, y0, lw, src)
		return
	}
	nx, ny := -dy/l*lw/2, dx/l*lw/2
	fillPolygon(r, dst,
		[]float32{x0 + nx, x1 + nx, x1 - nx, x0 - nx},
		[]float32{y0 + ny, y1 + ny, y1 - ny, y0 - ny},
		src)
}

func dot(r *vector.Rasterizer, dst *image.NRGBA, x, y, lw float32, src image.Image) {
	h := lw / 2
	fillPolygon(r, dst,
		[]float32{x - h, x + h, x + h, x - h},
		[]float32{y - h, y - h, y + h, y + h},
		src)
}
