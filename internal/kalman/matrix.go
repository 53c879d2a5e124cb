package kalman

import "math"

// Fixed-size row-major matrices for the constant-velocity model. All shapes
// are known at compile time, so every product below is a value type with no
// heap allocation.

// Vec2 is a measurement-space vector [x, y].
type Vec2 [2]float64

// Vec4 is a state vector [px, py, vx, vy].
type Vec4 [4]float64

// Mat2 is a 2x2 matrix, element (i,j) at i*2+j.
type Mat2 [4]float64

// Mat4 is a 4x4 matrix, element (i,j) at i*4+j.
type Mat4 [16]float64

// Mat4x2 is a 4x2 matrix, element (i,j) at i*2+j.
type Mat4x2 [8]float64

// Mat2x4 is a 2x4 matrix, element (i,j) at i*4+j.
type Mat2x4 [8]float64

// Identity4 returns the 4x4 identity.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns element (i, j).
func (m Mat4) At(i, j int) float64 { return m[i*4+j] }

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * o[k*4+j]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// MulVec returns m * v.
func (m Mat4) MulVec(v Vec4) Vec4 {
	var out Vec4
	for i := 0; i < 4; i++ {
		out[i] = m[i*4+0]*v[0] + m[i*4+1]*v[1] + m[i*4+2]*v[2] + m[i*4+3]*v[3]
	}
	return out
}

// MulMat4x2 returns m * o as a 4x2 matrix.
func (m Mat4) MulMat4x2(o Mat4x2) Mat4x2 {
	var out Mat4x2
	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * o[k*2+j]
			}
			out[i*2+j] = sum
		}
	}
	return out
}

// T returns the transpose of m.
func (m Mat4) T() Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[j*4+i] = m[i*4+j]
		}
	}
	return out
}

// Add returns m + o.
func (m Mat4) Add(o Mat4) Mat4 {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

// Sub returns m - o.
func (m Mat4) Sub(o Mat4) Mat4 {
	for i := range m {
		m[i] -= o[i]
	}
	return m
}

// Scale returns m * s.
func (m Mat4) Scale(s float64) Mat4 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// Trace returns the sum of the diagonal.
func (m Mat4) Trace() float64 {
	return m[0] + m[5] + m[10] + m[15]
}

// Symmetrize returns (m + mᵀ) / 2.
func (m Mat4) Symmetrize() Mat4 {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			avg := 0.5 * (m[i*4+j] + m[j*4+i])
			m[i*4+j] = avg
			m[j*4+i] = avg
		}
	}
	return m
}

// IsFinite reports whether every element is neither NaN nor infinite.
func (m Mat4) IsFinite() bool {
	return finite(m[:]...)
}

// IsFinite reports whether every element is neither NaN nor infinite.
func (v Vec4) IsFinite() bool {
	return finite(v[:]...)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MulVec returns m * v.
func (m Mat4x2) MulVec(v Vec2) Vec4 {
	var out Vec4
	for i := 0; i < 4; i++ {
		out[i] = m[i*2+0]*v[0] + m[i*2+1]*v[1]
	}
	return out
}

// MulMat2 returns m * o.
func (m Mat4x2) MulMat2(o Mat2) Mat4x2 {
	var out Mat4x2
	for i := 0; i < 4; i++ {
		out[i*2+0] = m[i*2+0]*o[0] + m[i*2+1]*o[2]
		out[i*2+1] = m[i*2+0]*o[1] + m[i*2+1]*o[3]
	}
	return out
}

// MulMat2x4 returns m * o as a 4x4 matrix.
func (m Mat4x2) MulMat2x4(o Mat2x4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = m[i*2+0]*o[0*4+j] + m[i*2+1]*o[1*4+j]
		}
	}
	return out
}

// T returns the transpose of m.
func (m Mat4x2) T() Mat2x4 {
	var out Mat2x4
	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			out[j*4+i] = m[i*2+j]
		}
	}
	return out
}

// MulVec returns m * v.
func (m Mat2x4) MulVec(v Vec4) Vec2 {
	var out Vec2
	for i := 0; i < 2; i++ {
		out[i] = m[i*4+0]*v[0] + m[i*4+1]*v[1] + m[i*4+2]*v[2] + m[i*4+3]*v[3]
	}
	return out
}

// MulMat4 returns m * o as a 2x4 matrix.
func (m Mat2x4) MulMat4(o Mat4) Mat2x4 {
	var out Mat2x4
	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * o[k*4+j]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// MulMat4x2 returns m * o as a 2x2 matrix.
func (m Mat2x4) MulMat4x2(o Mat4x2) Mat2 {
	var out Mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * o[k*2+j]
			}
			out[i*2+j] = sum
		}
	}
	return out
}

// T returns the transpose of m.
func (m Mat2x4) T() Mat4x2 {
	var out Mat4x2
	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			out[j*2+i] = m[i*4+j]
		}
	}
	return out
}

// Add returns m + o.
func (m Mat2) Add(o Mat2) Mat2 {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

// Det returns the determinant.
func (m Mat2) Det() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Inverse returns the closed-form inverse of m. The boolean is false when the
// determinant is zero or non-finite, or when it is lost to cancellation: its
// magnitude is within SingularTolerance of the larger diagonal or
// off-diagonal product. The test is scale free, so a well-conditioned matrix
// of tiny entries still inverts.
func (m Mat2) Inverse() (Mat2, bool) {
	det := m.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Mat2{}, false
	}
	scale := math.Max(math.Abs(m[0]*m[3]), math.Abs(m[1]*m[2]))
	if math.Abs(det) <= SingularTolerance*scale {
		return Mat2{}, false
	}
	return Mat2{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
	}, true
}
