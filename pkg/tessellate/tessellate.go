// Package tessellate turns NURBS curves and trimmed NURBS surfaces into
// polylines and triangles. The Subdivider does the work for one object;
// Tessellate runs it over a whole scene.
package tessellate

import (
	"errors"
	"fmt"
	"strings"

	"honnef.co/go/curve"

	"github.com/chazu/nurbs/pkg/backend"
	"github.com/chazu/nurbs/pkg/backend/sdfx"
	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/scene"
	"github.com/chazu/nurbs/pkg/trim"
)

// DefaultViewScale maps one model unit to this many pixels when sampling
// tolerances are measured.
const DefaultViewScale = 100

// ErrInvalidScene is returned, wrapped in a *SceneError, when validation
// finds errors. Nothing is drawn in that case.
var ErrInvalidScene = errors.New("tessellate: invalid scene")

// SceneError carries the error findings that stopped a pass.
type SceneError struct {
	Findings []scene.ValidationError
}

func (e *SceneError) Error() string {
	msgs := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidScene, strings.Join(msgs, "; "))
}

func (e *SceneError) Unwrap() error { return ErrInvalidScene }

// Placer is implemented by evaluators that name and position the output
// of each object.
type Placer interface {
	Place(name string, t scene.Transform)
}

// Result is the output of one pass.
type Result struct {
	Meshes    []*backend.Mesh
	Polylines []*backend.Polyline
	// Warnings are the non-blocking validation findings.
	Warnings []scene.ValidationError
	// MaxDepth is the deepest subdivision reached by any object.
	MaxDepth int
}

type config struct {
	hints     *nurbs.Renderhints
	curves    backend.CurveEvaluator
	surfaces  backend.SurfaceEvaluator
	maplist   *nurbs.Maplist
	viewScale float64
}

// Option configures Tessellate.
type Option func(*config)

// WithRenderhints overrides the scene's render hints.
func WithRenderhints(h nurbs.Renderhints) Option {
	return func(c *config) { c.hints = &h }
}

// WithCurveEvaluator sends curves to e instead of the built-in evaluator.
func WithCurveEvaluator(e backend.CurveEvaluator) Option {
	return func(c *config) { c.curves = e }
}

// WithSurfaceEvaluator sends surfaces to e instead of the built-in
// evaluator.
func WithSurfaceEvaluator(e backend.SurfaceEvaluator) Option {
	return func(c *config) { c.surfaces = e }
}

// WithEvaluator sends curves and surfaces to e.
func WithEvaluator(e backend.Evaluator) Option {
	return func(c *config) { c.curves, c.surfaces = e, e }
}

// WithMaplist replaces the scene's map descriptors. The scene's
// properties are not applied on top.
func WithMaplist(l *nurbs.Maplist) Option {
	return func(c *config) { c.maplist = l }
}

// WithViewScale sets the pixels per model unit used by the sampling
// tolerances.
func WithViewScale(s float64) Option {
	return func(c *config) { c.viewScale = s }
}

// Tessellate validates sc and draws every curve and surface in it. An
// invalid scene returns a *SceneError before any evaluator call. Output
// is collected in the Result only when the built-in evaluator is used for
// that kind of object.
func Tessellate(sc *scene.Scene, opts ...Option) (*Result, error) {
	if sc == nil {
		return &Result{}, nil
	}
	cfg := config{viewScale: DefaultViewScale}
	for _, opt := range opts {
		opt(&cfg)
	}

	res := &Result{}
	var errs []scene.ValidationError
	for _, f := range scene.Validate(sc) {
		if f.Severity == scene.SeverityError {
			errs = append(errs, f)
		} else {
			res.Warnings = append(res.Warnings, f)
		}
	}
	if len(errs) > 0 {
		return nil, &SceneError{Findings: errs}
	}

	hints := sc.Hints
	if cfg.hints != nil {
		hints = *cfg.hints
	}
	maps := cfg.maplist
	if maps == nil {
		var err error
		if maps, err = sc.Maplist(); err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
	} else {
		maps = maps.Clone()
	}
	if cfg.viewScale > 0 {
		for _, t := range maps.Types() {
			md := maps.Find(t)
			md.SamplingMatrix = nurbs.Scale(cfg.viewScale, md.InhCoords)
		}
	}

	eval := sdfx.New()
	if cfg.curves == nil {
		cfg.curves = eval
	}
	if cfg.surfaces == nil {
		cfg.surfaces = eval
	}
	b := backend.New(cfg.curves, cfg.surfaces)

	for _, c := range sc.Curves {
		place(cfg.curves, c.Name, c.Transform)
		sub := NewSubdivider(b, hints)
		if err := loadQuilts(sub, c.Maps, maps); err != nil {
			return nil, fmt.Errorf("tessellate: curve %q: %w", c.Name, err)
		}
		if err := sub.DrawCurves(); err != nil {
			return nil, fmt.Errorf("tessellate: curve %q: %w", c.Name, err)
		}
		res.MaxDepth = max(res.MaxDepth, sub.MaxDepth())
	}
	for _, sf := range sc.Surfaces {
		place(cfg.surfaces, sf.Name, sf.Transform)
		sub := NewSubdivider(b, hints)
		if err := loadQuilts(sub, sf.Maps, maps); err != nil {
			return nil, fmt.Errorf("tessellate: surface %q: %w", sf.Name, err)
		}
		if err := loadTrims(sub, sf.Trims); err != nil {
			return nil, fmt.Errorf("tessellate: surface %q: %w", sf.Name, err)
		}
		if err := sub.DrawSurfaces(); err != nil {
			return nil, fmt.Errorf("tessellate: surface %q: %w", sf.Name, err)
		}
		res.MaxDepth = max(res.MaxDepth, sub.MaxDepth())
	}

	res.Meshes = eval.Meshes()
	res.Polylines = eval.Polylines()
	return res, nil
}

// place positions the output of e, looking through tees.
func place(e any, name string, t scene.Transform) {
	switch e := e.(type) {
	case Placer:
		e.Place(name, t)
	case backend.Tee:
		for _, inner := range e {
			place(inner, name, t)
		}
	}
}

func loadQuilts(sub *Subdivider, maps []scene.Map, l *nurbs.Maplist) error {
	if err := sub.BeginQuilts(); err != nil {
		return err
	}
	for _, m := range maps {
		md := l.Find(m.Type)
		if md == nil {
			return fmt.Errorf("no descriptor for map %s", m.Type)
		}
		q, err := m.Quilt(md.Clone())
		if err != nil {
			return err
		}
		if err := sub.AddQuilt(q); err != nil {
			return err
		}
	}
	return sub.EndQuilts()
}

// loadTrims adds every loop to the subdivider's arena. Small gaps between
// consecutive pieces are closed by moving the tail of the later piece.
func loadTrims(sub *Subdivider, loops []scene.Loop) error {
	a := sub.Arena()
	for i, l := range loops {
		var ids []trim.ArcID
		for j, p := range l.Pieces {
			arcs, err := trimArcs(a, p)
			if err != nil {
				return fmt.Errorf("trim loop %d piece %d: %w", i, j, err)
			}
			ids = append(ids, arcs...)
		}
		if len(ids) == 0 {
			continue
		}
		for k, id := range ids {
			prev := ids[(k+len(ids)-1)%len(ids)]
			moveTail(a, id, a.Head(prev))
		}
		if err := sub.AddLoop(a.Loop(ids...)); err != nil {
			return err
		}
	}
	return nil
}

// trimArcs allocates the arcs of one piece: a pwl arc, or one Bézier arc
// per segment of a NURBS piece.
func trimArcs(a *trim.Arena, p scene.TrimPiece) ([]trim.ArcID, error) {
	switch p.Kind {
	case scene.PiecePwl:
		pts := make([]curve.Point, len(p.Points)/2)
		for i := range pts {
			pts[i] = curve.Pt(p.Points[2*i], p.Points[2*i+1])
		}
		return []trim.ArcID{a.NewPwl(pts, trim.ArcNone)}, nil
	case scene.PieceNurbs:
		q, err := p.Quilt()
		if err != nil {
			return nil, err
		}
		qs := q.Qspec[0]
		n := p.Coords()
		ids := make([]trim.ArcID, 0, qs.Width)
		for seg := 0; seg < qs.Width; seg++ {
			base := qs.Offset + seg*qs.Order*qs.Stride
			ctrl := make([]float64, 0, qs.Order*n)
			for k := 0; k < qs.Order; k++ {
				off := base + k*qs.Stride
				ctrl = append(ctrl, q.Cpts[off:off+n]...)
			}
			ids = append(ids, a.NewBezier(qs.Order, n, ctrl, trim.ArcNone))
		}
		return ids, nil
	}
	return nil, fmt.Errorf("unknown trim piece kind %d", int(p.Kind))
}

func moveTail(a *trim.Arena, id trim.ArcID, p curve.Point) {
	arc := a.Arc(id)
	if arc.Bez != nil {
		c := arc.Bez.Ctrl
		if arc.Bez.Coords == 3 {
			c[0], c[1] = p.X*c[2], p.Y*c[2]
		} else {
			c[0], c[1] = p.X, p.Y
		}
		return
	}
	arc.Pts[0] = p
}
