// Package transform provides the 4x4 rigid transform type used throughout
// the tracking core. Matrices are row-major (m00..m03, m10..m13, m20..m23,
// m30..m33) and have value semantics: assigning or passing a Matrix copies
// it, so callers never share storage by accident.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a 4x4 homogeneous transform in row-major order.
type Matrix [16]float64

// rigidTolerance is the tolerance used when checking the rotation submatrix
// of a rigid transform.
const rigidTolerance = 0.01

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns a*b.
func Mul(a, b Matrix) Matrix {
	am := mat.NewDense(4, 4, a[:])
	bm := mat.NewDense(4, 4, b[:])
	var out mat.Dense
	out.Mul(am, bm)

	var result Matrix
	copy(result[:], out.RawMatrix().Data)
	return result
}

// Inverse returns the inverse of m, or an error if m is singular.
func Inverse(m Matrix) (Matrix, error) {
	var out mat.Dense
	if err := out.Inverse(mat.NewDense(4, 4, m[:])); err != nil {
		return Matrix{}, fmt.Errorf("inverting transform: %w", err)
	}
	var result Matrix
	copy(result[:], out.RawMatrix().Data)
	return result, nil
}

// IsRigid reports whether m is a proper rigid transform: an orthonormal
// rotation submatrix (det ≈ 1) and a [0 0 0 1] bottom row.
func IsRigid(m Matrix) bool {
	r00, r01, r02 := m[0], m[1], m[2]
	r10, r11, r12 := m[4], m[5], m[6]
	r20, r21, r22 := m[8], m[9], m[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > rigidTolerance {
		return false
	}
	if m[12] != 0 || m[13] != 0 || m[14] != 0 || math.Abs(m[15]-1.0) > 0.001 {
		return false
	}
	return true
}

// Equal reports whether a and b match element-wise within tol.
func Equal(a, b Matrix, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// String serializes m as 16 space-separated numbers in row-major order.
// This is the canonical wire/report form for transforms.
func (m Matrix) String() string {
	parts := make([]string, 16)
	for i, v := range m {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Parse parses the 16-number form produced by String.
func Parse(s string) (Matrix, error) {
	fields := strings.Fields(s)
	if len(fields) != 16 {
		return Matrix{}, fmt.Errorf("parsing transform: expected 16 elements, got %d", len(fields))
	}
	var m Matrix
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Matrix{}, fmt.Errorf("parsing transform element %d: %w", i, err)
		}
		m[i] = v
	}
	return m, nil
}

// FromSlice builds a Matrix from a 16-element row-major slice.
func FromSlice(vals []float64) (Matrix, error) {
	if len(vals) != 16 {
		return Matrix{}, fmt.Errorf("building transform: expected 16 elements, got %d", len(vals))
	}
	var m Matrix
	copy(m[:], vals)
	return m, nil
}

// Translation returns a pure translation transform.
func Translation(x, y, z float64) Matrix {
	m := Identity()
	m[3] = x
	m[7] = y
	m[11] = z
	return m
}

// RotationZ returns a rotation about the Z axis by the given angle in
// radians.
func RotationZ(rad float64) Matrix {
	c, s := math.Cos(rad), math.Sin(rad)
	m := Identity()
	m[0], m[1] = c, -s
	m[4], m[5] = s, c
	return m
}
