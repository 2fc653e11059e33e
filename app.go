package main

import (
	"log"

	"github.com/chazu/nurbs/pkg/backend"
	"github.com/chazu/nurbs/pkg/backend/sdfx"
	"github.com/chazu/nurbs/pkg/engine"
	"github.com/chazu/nurbs/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to objects.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs scene source through the engine and the tessellator.
type App struct {
	engine    *engine.Engine
	viewScale float64
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Colors   []float32 `json:"colors,omitempty"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// PolylineData is the JSON-serializable polyline format.
type PolylineData struct {
	Points   []float32 `json:"points"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Object  string `json:"object,omitempty"`
}

// Stats summarises one pass.
type Stats struct {
	Triangles int `json:"triangles"`
	Points    int `json:"points"`
	MaxDepth  int `json:"maxDepth"`
}

// EvalResult is the full result of evaluating one source.
type EvalResult struct {
	Meshes    []MeshData      `json:"meshes"`
	Polylines []PolylineData  `json:"polylines"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []EvalErrorData `json:"warnings"`
	Stats     Stats           `json:"stats"`
}

// NewApp creates a new App with the default view scale.
func NewApp() *App {
	return &App{
		engine:    engine.NewEngine(),
		viewScale: tessellate.DefaultViewScale,
	}
}

// SetViewScale sets the pixels per model unit used by sampling tolerances.
func (a *App) SetViewScale(s float64) {
	a.viewScale = s
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	_, result := a.build(source)
	return result
}

// build evaluates and tessellates source into a fresh sdfx evaluator,
// also feeding every extra evaluator. The evaluator is nil whenever
// result carries errors.
func (a *App) build(source string, extra ...backend.Evaluator) (*sdfx.Evaluator, EvalResult) {
	result := EvalResult{
		Meshes:    []MeshData{},
		Polylines: []PolylineData{},
		Errors:    []EvalErrorData{},
		Warnings:  []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a validated scene.
	res, err := a.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return nil, result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
			Object:  w.Object,
		})
	}

	// Step 2: Convert eval errors to the output format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return nil, result
	}

	// Step 3: Tessellate the scene into meshes and polylines.
	eval := sdfx.New()
	var ev backend.Evaluator = eval
	if len(extra) > 0 {
		ev = append(backend.Tee{eval}, extra...)
	}
	tr, err := tessellate.Tessellate(res.Scene,
		tessellate.WithViewScale(a.viewScale),
		tessellate.WithEvaluator(ev))
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return nil, result
	}

	// Step 4: Convert to the output format.
	result.Meshes, result.Polylines = convert(eval.Meshes(), eval.Polylines())
	result.Stats = stats(eval.Meshes(), eval.Polylines())
	result.Stats.MaxDepth = tr.MaxDepth
	return eval, result
}

// convert assigns palette colors by object, in order of first appearance.
func convert(meshes []*backend.Mesh, lines []*backend.Polyline) ([]MeshData, []PolylineData) {
	colors := map[string]string{}
	colorOf := func(part string) string {
		c, ok := colors[part]
		if !ok {
			c = colorPalette[len(colors)%len(colorPalette)]
			colors[part] = c
		}
		return c
	}

	outMeshes := []MeshData{}
	for _, m := range meshes {
		outMeshes = append(outMeshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Colors:   m.Colors,
			PartName: m.PartName,
			Color:    colorOf(m.PartName),
		})
	}
	outLines := []PolylineData{}
	for _, l := range lines {
		outLines = append(outLines, PolylineData{
			Points:   l.Points,
			PartName: l.PartName,
			Color:    colorOf(l.PartName),
		})
	}
	return outMeshes, outLines
}

func stats(meshes []*backend.Mesh, lines []*backend.Polyline) Stats {
	var s Stats
	for _, m := range meshes {
		s.Triangles += m.TriangleCount()
	}
	for _, l := range lines {
		s.Points += l.PointCount()
	}
	return s
}
