// Package nurbs holds the typed constants, map descriptors and rendering
// hints shared by every stage of the tessellator. Nothing in this package is
// written at runtime except through the descriptor setters.
package nurbs

import "fmt"

const (
	// MaxOrder is the largest supported spline order.
	MaxOrder = 24
	// MaxCoords is the largest number of coordinates per control point.
	MaxCoords = 4
	// MaxHCoords is the largest homogeneous coordinate count (MaxCoords+1).
	MaxHCoords = MaxCoords + 1
)

// MapType identifies what a NURBS map evaluates to.
type MapType int

const (
	Map1Vertex3 MapType = iota + 1
	Map1Vertex4
	Map1Color4
	Map1Normal
	Map1Texture1
	Map1Texture2
	Map1Texture3
	Map1Texture4
	Map2Vertex3
	Map2Vertex4
	Map2Color4
	Map2Normal
	Map2Texture1
	Map2Texture2
	Map2Texture3
	Map2Texture4
)

var mapTypeNames = map[MapType]string{
	Map1Vertex3:  "map1-vertex3",
	Map1Vertex4:  "map1-vertex4",
	Map1Color4:   "map1-color4",
	Map1Normal:   "map1-normal",
	Map1Texture1: "map1-texture1",
	Map1Texture2: "map1-texture2",
	Map1Texture3: "map1-texture3",
	Map1Texture4: "map1-texture4",
	Map2Vertex3:  "map2-vertex3",
	Map2Vertex4:  "map2-vertex4",
	Map2Color4:   "map2-color4",
	Map2Normal:   "map2-normal",
	Map2Texture1: "map2-texture1",
	Map2Texture2: "map2-texture2",
	Map2Texture3: "map2-texture3",
	Map2Texture4: "map2-texture4",
}

func (t MapType) String() string {
	if s, ok := mapTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MapType(%d)", int(t))
}

// Valid reports whether t is a known map type.
func (t MapType) Valid() bool {
	_, ok := mapTypeNames[t]
	return ok
}

// Dimension is 1 for curve maps and 2 for surface maps.
func (t MapType) Dimension() int {
	if t >= Map2Vertex3 {
		return 2
	}
	return 1
}

// IsRational reports whether the last coordinate of each control point is a
// homogeneous weight.
func (t MapType) IsRational() bool {
	return t == Map1Vertex4 || t == Map2Vertex4
}

// Coords is the number of coordinates per control point.
func (t MapType) Coords() int {
	switch t {
	case Map1Vertex3, Map2Vertex3, Map1Normal, Map2Normal, Map1Texture3, Map2Texture3:
		return 3
	case Map1Vertex4, Map2Vertex4, Map1Color4, Map2Color4, Map1Texture4, Map2Texture4:
		return 4
	case Map1Texture2, Map2Texture2:
		return 2
	case Map1Texture1, Map2Texture1:
		return 1
	}
	return 0
}

// IsVertex reports whether the map produces positions.
func (t MapType) IsVertex() bool {
	return t == Map1Vertex3 || t == Map1Vertex4 || t == Map2Vertex3 || t == Map2Vertex4
}

// IsNormal reports whether the map produces normals.
func (t MapType) IsNormal() bool {
	return t == Map1Normal || t == Map2Normal
}

// ParseMapType resolves a short name such as "vertex3" for the given
// dimension, or a full name such as "map2-normal".
func ParseMapType(name string, dim int) (MapType, error) {
	for t, s := range mapTypeNames {
		if s == name {
			return t, nil
		}
	}
	full := fmt.Sprintf("map%d-%s", dim, name)
	for t, s := range mapTypeNames {
		if s == full {
			return t, nil
		}
	}
	return 0, fmt.Errorf("nurbs: unknown map type %q", name)
}

// DisplayMethod selects what the subdivider hands to the backend.
type DisplayMethod int

const (
	DisplayFill DisplayMethod = iota
	DisplayOutlinePoly
	DisplayOutlineTri
	DisplayOutlineQuad
	DisplayOutlinePatch
	DisplayOutlineParam
	DisplayOutlineParamS
	DisplayOutlineParamST
	DisplayOutlineSubdiv
)

var displayNames = []string{
	"fill", "outline-poly", "outline-tri", "outline-quad", "outline-patch",
	"outline-param", "outline-param-s", "outline-param-st", "outline-subdiv",
}

func (d DisplayMethod) String() string {
	if int(d) >= 0 && int(d) < len(displayNames) {
		return displayNames[d]
	}
	return fmt.Sprintf("DisplayMethod(%d)", int(d))
}

// ParseDisplayMethod maps a display method name to its value.
func ParseDisplayMethod(name string) (DisplayMethod, error) {
	for i, s := range displayNames {
		if s == name {
			return DisplayMethod(i), nil
		}
	}
	return 0, fmt.Errorf("nurbs: unknown display method %q", name)
}

// ErrorChecking controls whether recoverable problems are reported.
type ErrorChecking int

const (
	NoMsg ErrorChecking = iota
	Msg
)

func (e ErrorChecking) String() string {
	switch e {
	case NoMsg:
		return "nomsg"
	case Msg:
		return "msg"
	}
	return fmt.Sprintf("ErrorChecking(%d)", int(e))
}

// SamplingMethod selects how step sizes are chosen.
type SamplingMethod int

const (
	NoSampling SamplingMethod = iota
	FixedRate
	DomainDistance
	ParametricDistance
	PathLength
)

var samplingNames = []string{
	"none", "fixed-rate", "domain-distance", "parametric-distance", "path-length",
}

func (s SamplingMethod) String() string {
	if int(s) >= 0 && int(s) < len(samplingNames) {
		return samplingNames[s]
	}
	return fmt.Sprintf("SamplingMethod(%d)", int(s))
}

// ParseSamplingMethod maps a sampling method name to its value.
func ParseSamplingMethod(name string) (SamplingMethod, error) {
	for i, s := range samplingNames {
		if s == name {
			return SamplingMethod(i), nil
		}
	}
	return 0, fmt.Errorf("nurbs: unknown sampling method %q", name)
}

// CullResult is the verdict of a clip-space culling test.
type CullResult int

const (
	CullTrivialReject CullResult = iota
	CullTrivialAccept
	CullAccept
)

func (c CullResult) String() string {
	switch c {
	case CullTrivialReject:
		return "reject"
	case CullTrivialAccept:
		return "trivial-accept"
	case CullAccept:
		return "accept"
	}
	return fmt.Sprintf("CullResult(%d)", int(c))
}

// MeshStyle is the primitive style requested from an evaluator.
type MeshStyle int

const (
	MeshFill MeshStyle = iota
	MeshLine
	MeshPoint
)

func (m MeshStyle) String() string {
	switch m {
	case MeshFill:
		return "fill"
	case MeshLine:
		return "line"
	case MeshPoint:
		return "point"
	}
	return fmt.Sprintf("MeshStyle(%d)", int(m))
}

// NoClamping disables step size clamping.
const NoClamping = 0.0
