package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/nurbs/pkg/nurbs"
	"github.com/chazu/nurbs/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms DSL source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: nurbs-curve -> nurbs_curve
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters, so the
		// minus operator and negative numbers survive.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpFloats is a list of numbers built by (knots ...) or (ctrl ...).
type sexpFloats struct {
	vals []float64
}

func (f *sexpFloats) SexpString(ps *zygo.PrintState) string {
	parts := make([]string, len(f.vals))
	for i, v := range f.vals {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (f *sexpFloats) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a scene.Vec3.
type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpMap wraps an extra map built by (nurbs-map ...).
type sexpMap struct {
	m scene.Map
}

func (m *sexpMap) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(nurbs-map :type %s)", m.m.Type)
}
func (m *sexpMap) Type() *zygo.RegisteredType { return nil }

// sexpPiece wraps one trim curve.
type sexpPiece struct {
	piece scene.TrimPiece
}

func (p *sexpPiece) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s-trim)", p.piece.Kind)
}
func (p *sexpPiece) Type() *zygo.RegisteredType { return nil }

// sexpLoop wraps a closed trim loop.
type sexpLoop struct {
	loop scene.Loop
}

func (l *sexpLoop) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(trim-loop %d pieces)", len(l.loop.Pieces))
}
func (l *sexpLoop) Type() *zygo.RegisteredType { return nil }

type objectKind int

const (
	objCurve objectKind = iota
	objSurface
)

// sexpObjectRef refers to a curve or surface already added to the scene.
type sexpObjectRef struct {
	kind  objectKind
	index int
	name  string
}

func (r *sexpObjectRef) SexpString(ps *zygo.PrintState) string {
	if r.kind == objCurve {
		return fmt.Sprintf("(curve %q)", r.name)
	}
	return fmt.Sprintf("(surface %q)", r.name)
}
func (r *sexpObjectRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// keyword followed by another keyword is a positional flag, as in
// (property :vertex3 :pixel-tolerance 25).
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			if _, next := isKW(args[i+1]); !next || valueKeyword[name] {
				if _, seen := result.kw[name]; !seen {
					result.order = append(result.order, name)
				}
				result.kw[name] = args[i+1]
				i += 2
				continue
			}
		}
		result.positional = append(result.positional, args[i])
		i++
	}
	return result
}

// valueKeyword lists the keywords whose value is itself a keyword.
var valueKeyword = map[string]bool{
	"type":            true,
	"display":         true,
	"errorchecking":   true,
	"sampling-method": true,
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

// toBool accepts true/false or a number.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
	}
	return f != 0, nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toFloats accepts (knots ...) / (ctrl ...) values, arrays and lists of
// numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	if f, ok := s.(*sexpFloats); ok {
		return f.vals, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	return floatsOf(items)
}

func floatsOf(items []zygo.Sexp) ([]float64, error) {
	out := make([]float64, 0, len(items))
	for i, item := range items {
		// Nested (ctrl ...) groups flatten into one list.
		if f, ok := item.(*sexpFloats); ok {
			out = append(out, f.vals...)
			continue
		}
		if arr, ok := item.(*zygo.SexpArray); ok {
			inner, err := floatsOf(arr.Val)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		}
		v, err := toFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toObjectRef extracts a curve or surface reference.
func toObjectRef(s zygo.Sexp) (*sexpObjectRef, error) {
	if ref, ok := s.(*sexpObjectRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected curve or surface, got %T (%s)", s, s.SexpString(nil))
}

// toMapType resolves :vertex3 style keywords for the given dimension.
func toMapType(s zygo.Sexp, dim int) (nurbs.MapType, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	t, err := nurbs.ParseMapType(name, dim)
	if err != nil {
		return 0, err
	}
	if t.Dimension() != dim {
		return 0, fmt.Errorf("map type %s is not %d-dimensional", t, dim)
	}
	return t, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Scene construction
// ---------------------------------------------------------------------------

// builder accumulates the scene while user code runs.
type builder struct {
	sc   *scene.Scene
	anon int
}

func (b *builder) name(args kwArgs, kind string) (string, error) {
	if len(args.positional) > 0 {
		if s, err := toString(args.positional[0]); err == nil {
			if _, isKeyword := isKW(args.positional[0]); !isKeyword {
				return s, nil
			}
		}
	}
	if v, ok := args.kw["name"]; ok {
		return toString(v)
	}
	b.anon++
	return fmt.Sprintf("%s_anon_%d", kind, b.anon), nil
}

// curveMap reads :order :knots :ctrl :type [:stride] into a curve map.
func curveMap(pa kwArgs, form string) (scene.Map, error) {
	m := scene.Map{Type: nurbs.Map1Vertex3}
	if v, ok := pa.kw["type"]; ok {
		t, err := toMapType(v, 1)
		if err != nil {
			return m, fmt.Errorf("%s: type: %w", form, err)
		}
		m.Type = t
	}
	order, ok := pa.kw["order"]
	if !ok {
		return m, fmt.Errorf("%s requires :order", form)
	}
	var err error
	if m.SOrder, err = toInt(order); err != nil {
		return m, fmt.Errorf("%s: order: %w", form, err)
	}
	if m.SKnots, err = floatsKW(pa, "knots", form); err != nil {
		return m, err
	}
	if m.Ctrl, err = floatsKW(pa, "ctrl", form); err != nil {
		return m, err
	}
	m.SStride = m.Type.Coords()
	if v, ok := pa.kw["stride"]; ok {
		if m.SStride, err = toInt(v); err != nil {
			return m, fmt.Errorf("%s: stride: %w", form, err)
		}
	}
	return m, nil
}

// surfaceMap reads :uorder :vorder :uknots :vknots :ctrl :type into a
// surface map. Control points are listed u-major: each run of v points
// shares one u index.
func surfaceMap(pa kwArgs, form string) (scene.Map, error) {
	m := scene.Map{Type: nurbs.Map2Vertex3}
	if v, ok := pa.kw["type"]; ok {
		t, err := toMapType(v, 2)
		if err != nil {
			return m, fmt.Errorf("%s: type: %w", form, err)
		}
		m.Type = t
	}
	var err error
	for _, f := range []struct {
		kw  string
		dst *int
	}{{"uorder", &m.SOrder}, {"vorder", &m.TOrder}} {
		v, ok := pa.kw[f.kw]
		if !ok {
			return m, fmt.Errorf("%s requires :%s", form, f.kw)
		}
		if *f.dst, err = toInt(v); err != nil {
			return m, fmt.Errorf("%s: %s: %w", form, f.kw, err)
		}
	}
	if m.SKnots, err = floatsKW(pa, "uknots", form); err != nil {
		return m, err
	}
	if m.TKnots, err = floatsKW(pa, "vknots", form); err != nil {
		return m, err
	}
	if m.Ctrl, err = floatsKW(pa, "ctrl", form); err != nil {
		return m, err
	}
	n := m.Type.Coords()
	nv := len(m.TKnots) - m.TOrder
	if v, ok := pa.kw["vcount"]; ok {
		if nv, err = toInt(v); err != nil {
			return m, fmt.Errorf("%s: vcount: %w", form, err)
		}
	}
	if v, ok := pa.kw["ucount"]; ok {
		nu, err := toInt(v)
		if err != nil {
			return m, fmt.Errorf("%s: ucount: %w", form, err)
		}
		if nu > 0 && nv <= 0 {
			nv = len(m.Ctrl) / n / nu
		}
	}
	m.TStride = n
	m.SStride = max(nv, 1) * n
	return m, nil
}

func floatsKW(pa kwArgs, kw, form string) ([]float64, error) {
	v, ok := pa.kw[kw]
	if !ok {
		return nil, fmt.Errorf("%s requires :%s", form, kw)
	}
	f, err := toFloats(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", form, kw, err)
	}
	return f, nil
}

func extraMaps(pa kwArgs, form string) ([]scene.Map, error) {
	v, ok := pa.kw["maps"]
	if !ok {
		return nil, nil
	}
	items, err := sexpListToSlice(v)
	if err != nil {
		return nil, fmt.Errorf("%s: maps: %w", form, err)
	}
	var maps []scene.Map
	for i, item := range items {
		m, ok := item.(*sexpMap)
		if !ok {
			return nil, fmt.Errorf("%s: maps: entry %d: expected nurbs-map, got %T", form, i, item)
		}
		maps = append(maps, m.m)
	}
	return maps, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all DSL builtins into a zygomys environment.
// The builtins populate the provided scene during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene) {
	b := &builder{sc: sc}

	// -----------------------------------------------------------------------
	// (knots 0 0 0 0 1 1 1 1) and (ctrl 0 0 0 1 2 0 ...)
	// -----------------------------------------------------------------------
	numbers := func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		vals, err := floatsOf(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		return &sexpFloats{vals: vals}, nil
	}
	env.AddFunction("knots", numbers)
	env.AddFunction("ctrl", numbers)

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: scene.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (nurbs-map :type :color4 :order 2 :knots [...] :ctrl [...])
	// (nurbs-map :type :normal :uorder 2 :vorder 2 :uknots [...] ...)
	// -----------------------------------------------------------------------
	env.AddFunction("nurbs_map", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var m scene.Map
		var err error
		if _, ok := pa.kw["uorder"]; ok {
			m, err = surfaceMap(pa, "nurbs-map")
		} else {
			m, err = curveMap(pa, "nurbs-map")
		}
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpMap{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (nurbs-curve "name" :order 4 :knots [...] :ctrl [...] :type :vertex3)
	// -----------------------------------------------------------------------
	env.AddFunction("nurbs_curve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		objName, err := b.name(pa, "curve")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("nurbs-curve: name: %w", err)
		}
		m, err := curveMap(pa, "nurbs-curve")
		if err != nil {
			return zygo.SexpNull, err
		}
		extra, err := extraMaps(pa, "nurbs-curve")
		if err != nil {
			return zygo.SexpNull, err
		}
		b.sc.Curves = append(b.sc.Curves, scene.Curve{Name: objName, Maps: append([]scene.Map{m}, extra...)})
		return &sexpObjectRef{kind: objCurve, index: len(b.sc.Curves) - 1, name: objName}, nil
	})

	// -----------------------------------------------------------------------
	// (nurbs-surface "name" :uorder 4 :vorder 4 :uknots [...] :vknots [...]
	//                :ctrl [...] :type :vertex3 :trims (list (trim-loop ...)))
	// -----------------------------------------------------------------------
	env.AddFunction("nurbs_surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		objName, err := b.name(pa, "surface")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("nurbs-surface: name: %w", err)
		}
		m, err := surfaceMap(pa, "nurbs-surface")
		if err != nil {
			return zygo.SexpNull, err
		}
		extra, err := extraMaps(pa, "nurbs-surface")
		if err != nil {
			return zygo.SexpNull, err
		}
		sf := scene.Surface{Name: objName, Maps: append([]scene.Map{m}, extra...)}
		if v, ok := pa.kw["trims"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("nurbs-surface: trims: %w", err)
			}
			for i, item := range items {
				l, ok := item.(*sexpLoop)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("nurbs-surface: trims: entry %d: expected trim-loop, got %T (%s)",
						i, item, item.SexpString(nil))
				}
				sf.Trims = append(sf.Trims, l.loop)
			}
		}
		b.sc.Surfaces = append(b.sc.Surfaces, sf)
		return &sexpObjectRef{kind: objSurface, index: len(b.sc.Surfaces) - 1, name: objName}, nil
	})

	// -----------------------------------------------------------------------
	// (pwl-trim [0.2 0.2 0.8 0.2 0.8 0.8])
	// -----------------------------------------------------------------------
	env.AddFunction("pwl_trim", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pts, err := floatsOf(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pwl-trim: %w", err)
		}
		return &sexpPiece{piece: scene.TrimPiece{Kind: scene.PiecePwl, Points: pts}}, nil
	})

	// -----------------------------------------------------------------------
	// (nurbs-trim :order 3 :knots [...] :ctrl [...] :rational true)
	// -----------------------------------------------------------------------
	env.AddFunction("nurbs_trim", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := scene.TrimPiece{Kind: scene.PieceNurbs}
		v, ok := pa.kw["order"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("nurbs-trim requires :order")
		}
		var err error
		if p.Order, err = toInt(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("nurbs-trim: order: %w", err)
		}
		if p.Knots, err = floatsKW(pa, "knots", "nurbs-trim"); err != nil {
			return zygo.SexpNull, err
		}
		if p.Ctrl, err = floatsKW(pa, "ctrl", "nurbs-trim"); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["rational"]; ok {
			if p.Rational, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("nurbs-trim: rational: %w", err)
			}
		}
		return &sexpPiece{piece: p}, nil
	})

	// -----------------------------------------------------------------------
	// (trim-loop (pwl-trim ...) (nurbs-trim ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("trim_loop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var l scene.Loop
		for i, arg := range args {
			p, ok := arg.(*sexpPiece)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("trim-loop: piece %d: expected pwl-trim or nurbs-trim, got %T (%s)",
					i, arg, arg.SexpString(nil))
			}
			l.Pieces = append(l.Pieces, p.piece)
		}
		return &sexpLoop{loop: l}, nil
	})

	// -----------------------------------------------------------------------
	// (hints :display :fill :subdivisions 6 :errorchecking :msg)
	// -----------------------------------------------------------------------
	env.AddFunction("hints", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h := b.sc.Hints
		if v, ok := pa.kw["display"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("hints: display: %w", err)
			}
			if h.DisplayMethod, err = nurbs.ParseDisplayMethod(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("hints: display: %w", err)
			}
		}
		if v, ok := pa.kw["subdivisions"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("hints: subdivisions: %w", err)
			}
			h.Subdivisions = f
		}
		if v, ok := pa.kw["errorchecking"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("hints: errorchecking: %w", err)
			}
			switch s {
			case "msg":
				h.ErrorChecking = nurbs.Msg
			case "nomsg", "none":
				h.ErrorChecking = nurbs.NoMsg
			default:
				return zygo.SexpNull, fmt.Errorf("hints: errorchecking: invalid value %q, expected msg or nomsg", s)
			}
		}
		h.Init()
		b.sc.Hints = h
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (property :vertex3 :sampling-method :path-length :pixel-tolerance 25)
	// -----------------------------------------------------------------------
	env.AddFunction("property", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var types []nurbs.MapType
		for _, p := range pa.positional {
			s, err := toKeywordString(p)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("property: map type: %w", err)
			}
			found := false
			for dim := 1; dim <= 2; dim++ {
				if t, err := nurbs.ParseMapType(s, dim); err == nil && t.Dimension() == dim {
					types = append(types, t)
					found = true
				}
			}
			if !found {
				return zygo.SexpNull, fmt.Errorf("property: unknown map type %q", s)
			}
		}
		if len(pa.order) == 0 {
			return zygo.SexpNull, fmt.Errorf("property requires at least one :name value pair")
		}
		for _, kw := range pa.order {
			prop, err := nurbs.ParseProperty(kw)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("property: %w", err)
			}
			val, err := propertyValue(prop, pa.kw[kw])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("property: %s: %w", kw, err)
			}
			b.sc.Properties = append(b.sc.Properties, scene.Property{Types: types, Prop: prop, Value: val})
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (place obj :at (vec3 0 0 19) :rotate (vec3 0 90 0))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a curve or surface as first argument")
		}
		ref, err := toObjectRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		var tr *scene.Transform
		if ref.kind == objCurve {
			tr = &b.sc.Curves[ref.index].Transform
		} else {
			tr = &b.sc.Surfaces[ref.index].Transform
		}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			tr.Translation = vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			tr.Rotation = vec
		}

		return ref, nil
	})
}

// propertyValue converts the DSL value of a property: a sampling method
// keyword, a boolean for culling and bbox subdivision, otherwise a number.
func propertyValue(p nurbs.Property, v zygo.Sexp) (float64, error) {
	switch p {
	case nurbs.PropSamplingMethod:
		s, err := toKeywordString(v)
		if err != nil {
			return 0, err
		}
		m, err := nurbs.ParseSamplingMethod(s)
		return float64(m), err
	case nurbs.PropCulling, nurbs.PropBBoxSubdividing:
		on, err := toBool(v)
		if on {
			return 1, err
		}
		return 0, err
	}
	return toFloat64(v)
}
