package scene

import (
	"fmt"
	"math"
)

// CloseTolerance is the largest gap between consecutive trim pieces that
// is closed silently. Gaps up to GapTolerance are closed with a warning.
const (
	CloseTolerance = 1e-9
	GapTolerance   = 1e-3
)

// ValidationSeverity indicates whether a finding blocks tessellation or
// is informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Object   string             // name of the curve or surface, empty if scene-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Object, e.Message)
}

// Validate checks every object of the scene and returns the findings.
// A scene with no error-severity finding can be tessellated.
func Validate(s *Scene) []ValidationError {
	if s == nil {
		return nil
	}
	var errs []ValidationError
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateHints(s)...)
	for _, c := range s.Curves {
		errs = append(errs, validateMaps(c.Name, 1, c.Maps)...)
	}
	for _, sf := range s.Surfaces {
		errs = append(errs, validateMaps(sf.Name, 2, sf.Maps)...)
		for i, l := range sf.Trims {
			errs = append(errs, validateLoop(sf.Name, i, l)...)
		}
	}
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	check := func(name string) {
		if name == "" {
			return
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Object:   name,
				Message:  "duplicate object name",
				Severity: SeverityWarning,
			})
		}
		seen[name] = true
	}
	for _, c := range s.Curves {
		check(c.Name)
	}
	for _, sf := range s.Surfaces {
		check(sf.Name)
	}
	return errs
}

func validateHints(s *Scene) []ValidationError {
	if s.Hints.Subdivisions < 0 {
		return []ValidationError{{
			Message:  fmt.Sprintf("subdivisions %v is negative, no subdivision will be done", s.Hints.Subdivisions),
			Severity: SeverityWarning,
		}}
	}
	return nil
}

func validateMaps(name string, dim int, maps []Map) []ValidationError {
	var errs []ValidationError
	fail := func(sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{Object: name, Message: fmt.Sprintf(format, args...), Severity: sev})
	}

	hasVertex := false
	seen := make(map[string]bool)
	for _, m := range maps {
		if !m.Type.Valid() {
			fail(SeverityError, "unsupported map type %d", int(m.Type))
			continue
		}
		if m.Type.Dimension() != dim {
			fail(SeverityError, "map %s has dimension %d, object needs %d", m.Type, m.Type.Dimension(), dim)
			continue
		}
		if seen[m.Type.String()] {
			fail(SeverityWarning, "map %s given more than once", m.Type)
		}
		seen[m.Type.String()] = true
		hasVertex = hasVertex || m.Type.IsVertex()

		if err := m.SKnotVector().Validate(); err != nil {
			fail(SeverityError, "map %s: s knots: %v", m.Type, err)
			continue
		}
		if dim == 2 {
			if err := m.TKnotVector().Validate(); err != nil {
				fail(SeverityError, "map %s: t knots: %v", m.Type, err)
				continue
			}
		}
		errs = append(errs, validateControlPoints(name, dim, m)...)
	}
	if !hasVertex {
		fail(SeverityError, "no vertex map")
	}
	return errs
}

func validateControlPoints(name string, dim int, m Map) []ValidationError {
	var errs []ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{Object: name, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	n := m.Type.Coords()
	if m.SStride < n {
		fail("map %s: s stride %d is smaller than %d coordinates", m.Type, m.SStride, n)
	}
	need := n + (m.SKnotVector().NumControlPoints()-1)*m.SStride
	if dim == 2 {
		if m.TStride < n {
			fail("map %s: t stride %d is smaller than %d coordinates", m.Type, m.TStride, n)
		}
		need += (m.TKnotVector().NumControlPoints() - 1) * m.TStride
	}
	if len(errs) == 0 && len(m.Ctrl) < need {
		fail("map %s: %d control values, knots and strides need %d", m.Type, len(m.Ctrl), need)
	}
	if m.Type.IsRational() {
		for i := n - 1; i < len(m.Ctrl); i += n {
			if m.Ctrl[i] <= 0 {
				errs = append(errs, ValidationError{
					Object:   name,
					Message:  fmt.Sprintf("map %s: non-positive weight %v", m.Type, m.Ctrl[i]),
					Severity: SeverityWarning,
				})
				break
			}
		}
	}
	return errs
}

func validateLoop(name string, index int, l Loop) []ValidationError {
	var errs []ValidationError
	fail := func(sev ValidationSeverity, format string, args ...any) {
		msg := fmt.Sprintf("trim loop %d: ", index) + fmt.Sprintf(format, args...)
		errs = append(errs, ValidationError{Object: name, Message: msg, Severity: sev})
	}
	if len(l.Pieces) == 0 {
		fail(SeverityError, "empty loop")
		return errs
	}

	starts := make([][2]float64, len(l.Pieces))
	ends := make([][2]float64, len(l.Pieces))
	for i, p := range l.Pieces {
		if p.Kind == PieceNurbs {
			if err := p.KnotVector().Validate(); err != nil {
				fail(SeverityError, "piece %d: %v", i, err)
				return errs
			}
		}
		s, e, err := p.Ends()
		if err != nil {
			fail(SeverityError, "piece %d: %v", i, err)
			return errs
		}
		starts[i], ends[i] = s, e
	}

	for i := range l.Pieces {
		next := (i + 1) % len(l.Pieces)
		gap := math.Hypot(ends[i][0]-starts[next][0], ends[i][1]-starts[next][1])
		switch {
		case gap <= CloseTolerance:
		case gap <= GapTolerance:
			fail(SeverityWarning, "gap of %.3g after piece %d closed", gap, i)
		default:
			fail(SeverityError, "open after piece %d: gap of %.3g", i, gap)
		}
	}
	return errs
}
