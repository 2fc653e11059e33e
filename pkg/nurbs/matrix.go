package nurbs

// Matrix transforms homogeneous control points. Row i holds the
// contribution of input coordinate i to every output coordinate.
type Matrix [MaxHCoords][MaxHCoords]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	var m Matrix
	for i := range m {
		m[i][i] = 1
	}
	return m
}

// Scale returns a matrix scaling the first n coordinates by s and leaving
// the homogeneous coordinates untouched.
func Scale(s float64, n int) Matrix {
	m := Identity()
	for i := 0; i < n && i < MaxHCoords; i++ {
		m[i][i] = s
	}
	return m
}

// Mul returns m*o.
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := range r {
		for j := range r[i] {
			var sum float64
			for k := range m[i] {
				sum += m[i][k] * o[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}
