package backend

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// Colors is empty unless the surface carried a color map, in which case
// it holds 4 floats (r,g,b,a) per vertex.
type Mesh struct {
	Vertices []float32 `json:"vertices"`         // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`          // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`          // [i0,i1,i2, ...] triangles
	Colors   []float32 `json:"colors,omitempty"` // [r0,g0,b0,a0, ...]
	PartName string    `json:"partName"`         // which scene object this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddVertex appends a vertex with its normal and returns its index.
func (m *Mesh) AddVertex(x, y, z, nx, ny, nz float32) uint32 {
	i := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, x, y, z)
	m.Normals = append(m.Normals, nx, ny, nz)
	return i
}

// AddTriangle appends one triangle by vertex index.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// Polyline is an open chain of points, 3 floats per point. Curves and
// trim outlines come out as polylines.
type Polyline struct {
	Points   []float32 `json:"points"`
	PartName string    `json:"partName"`
}

// PointCount returns the number of points.
func (p *Polyline) PointCount() int {
	return len(p.Points) / 3
}

// Add appends a point unless it repeats the last one.
func (p *Polyline) Add(x, y, z float32) {
	if n := len(p.Points); n >= 3 && p.Points[n-3] == x && p.Points[n-2] == y && p.Points[n-1] == z {
		return
	}
	p.Points = append(p.Points, x, y, z)
}
