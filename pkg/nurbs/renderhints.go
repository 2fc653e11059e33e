package nurbs

import "fmt"

// DefaultSubdivisions is the default subdivision budget.
const DefaultSubdivisions = 6

// HintProperty names a Renderhints option.
type HintProperty int

const (
	HintDisplay HintProperty = iota
	HintErrorChecking
	HintSubdivisions
)

// Renderhints configures one draw pass.
type Renderhints struct {
	DisplayMethod DisplayMethod `json:"displayMethod"`
	ErrorChecking ErrorChecking `json:"errorChecking"`
	Subdivisions  float64       `json:"subdivisions"`

	// Derived by Init.
	MaxSubdivisions int  `json:"-"`
	WireTris        bool `json:"-"`
	WireQuads       bool `json:"-"`
}

// DefaultRenderhints returns fill display, messages on, six subdivisions.
func DefaultRenderhints() Renderhints {
	h := Renderhints{
		DisplayMethod: DisplayFill,
		ErrorChecking: Msg,
		Subdivisions:  DefaultSubdivisions,
	}
	h.Init()
	return h
}

// Init derives the per-pass fields from the configured ones.
func (h *Renderhints) Init() {
	h.MaxSubdivisions = int(h.Subdivisions)
	if h.MaxSubdivisions < 0 {
		h.MaxSubdivisions = 0
	}

	switch h.DisplayMethod {
	case DisplayFill:
		h.WireTris, h.WireQuads = false, false
	case DisplayOutlineTri:
		h.WireTris, h.WireQuads = true, false
	case DisplayOutlineQuad:
		h.WireTris, h.WireQuads = false, true
	default:
		h.WireTris, h.WireQuads = true, true
	}
}

// SetProperty sets one option by name.
func (h *Renderhints) SetProperty(prop HintProperty, value float64) error {
	switch prop {
	case HintDisplay:
		d := DisplayMethod(value)
		if d < DisplayFill || d > DisplayOutlineSubdiv {
			return fmt.Errorf("nurbs: display method %v out of range", value)
		}
		h.DisplayMethod = d
	case HintErrorChecking:
		e := ErrorChecking(value)
		if e != NoMsg && e != Msg {
			return fmt.Errorf("nurbs: error checking %v out of range", value)
		}
		h.ErrorChecking = e
	case HintSubdivisions:
		h.Subdivisions = value
	default:
		return fmt.Errorf("nurbs: unknown render hint %d", int(prop))
	}
	return nil
}

// Wireframe reports whether surfaces should be drawn as lines.
func (h *Renderhints) Wireframe() bool {
	return h.WireTris || h.WireQuads
}
