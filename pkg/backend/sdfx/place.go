package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/nurbs/pkg/scene"
)

// Placement returns the matrix of t: Euler rotation (degrees) around X, Y
// and Z, then translation.
func Placement(t scene.Transform) sdf.M44 {
	if t.IsIdentity() {
		return sdf.Identity3d()
	}
	xRad := t.Rotation.X * math.Pi / 180.0
	yRad := t.Rotation.Y * math.Pi / 180.0
	zRad := t.Rotation.Z * math.Pi / 180.0

	r := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	m := sdf.Translate3d(v3.Vec{X: t.Translation.X, Y: t.Translation.Y, Z: t.Translation.Z})
	return m.Mul(r)
}

// Place names and positions the output of the next object.
func (e *Evaluator) Place(name string, t scene.Transform) {
	e.SetPart(name)
	e.SetTransform(Placement(t))
}
