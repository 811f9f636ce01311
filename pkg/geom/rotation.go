// Package geom provides the rotation algebra used to place detector
// surfaces. Vectors are sdfx v3.Vec values; matrices are small row-major
// 3x3 rotations backed by gonum for products and determinants.
package geom

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

// ProperTolerance is the allowed deviation of det(R) from 1 for a rotation
// to be accepted as proper.
const ProperTolerance = 0.01

// handednessTolerance bounds the component-wise mismatch between Z and X×Y
// before a frame is considered left-handed.
const handednessTolerance = 0.001

// Rotation is a row-major 3x3 matrix. Row i holds the i-th axis of one frame
// expressed in the coordinates of the other. The zero value is not a valid
// rotation; use Identity.
type Rotation [9]float64

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// NewRotation builds a rotation from its nine entries in row-major order.
func NewRotation(xx, xy, xz, yx, yy, yz, zx, zy, zz float64) Rotation {
	return Rotation{xx, xy, xz, yx, yy, yz, zx, zy, zz}
}

// FromAxes builds a rotation whose rows are the given axes.
func FromAxes(x, y, z v3.Vec) Rotation {
	return Rotation{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}
}

// RotationZ returns the rotation by angle (radians) about the Z axis.
func RotationZ(angle float64) Rotation {
	c, s := math.Cos(angle), math.Sin(angle)
	return Rotation{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// RotationX returns the rotation by angle (radians) about the X axis.
func RotationX(angle float64) Rotation {
	c, s := math.Cos(angle), math.Sin(angle)
	return Rotation{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// At returns the entry at row i, column j.
func (r Rotation) At(i, j int) float64 {
	return r[3*i+j]
}

// X returns the first row.
func (r Rotation) X() v3.Vec { return v3.Vec{X: r[0], Y: r[1], Z: r[2]} }

// Y returns the second row.
func (r Rotation) Y() v3.Vec { return v3.Vec{X: r[3], Y: r[4], Z: r[5]} }

// Z returns the third row.
func (r Rotation) Z() v3.Vec { return v3.Vec{X: r[6], Y: r[7], Z: r[8]} }

func (r Rotation) dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, r[:])
	return mat.NewDense(3, 3, data)
}

func fromDense(m mat.Matrix) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = m.At(i, j)
		}
	}
	return out
}

// Mul returns the matrix product r·o.
func (r Rotation) Mul(o Rotation) Rotation {
	var p mat.Dense
	p.Mul(r.dense(), o.dense())
	return fromDense(&p)
}

// Transpose returns the transpose, which is the inverse of a proper rotation.
func (r Rotation) Transpose() Rotation {
	return fromDense(r.dense().T())
}

// Det returns the determinant.
func (r Rotation) Det() float64 {
	return mat.Det(r.dense())
}

// IsProper reports whether r is orthonormal with determinant +1 within tol.
func (r Rotation) IsProper(tol float64) bool {
	for _, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if math.Abs(r.Det()-1) > tol {
		return false
	}
	var rrt mat.Dense
	rrt.Mul(r.dense(), r.dense().T())
	return mat.EqualApprox(&rrt, mat.NewDiagDense(3, []float64{1, 1, 1}), tol)
}

// Apply returns r·v.
func (r Rotation) Apply(v v3.Vec) v3.Vec {
	return v3.Vec{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// RotateAxes redefines the frame whose axes are the rows of r. The new axes
// are given in the coordinates of the current frame, so the result is N·r
// where N has rows newX, newY, newZ. The second return value is false when
// newX×newY does not match newZ, i.e. the requested frame is left-handed.
// The product is returned in both cases.
func (r Rotation) RotateAxes(newX, newY, newZ v3.Vec) (Rotation, bool) {
	n := FromAxes(newX, newY, newZ)
	return n.Mul(r), RightHanded(newX, newY, newZ)
}

// RightHanded reports whether z equals x×y within a small tolerance.
func RightHanded(x, y, z v3.Vec) bool {
	c := x.Cross(y)
	return math.Abs(z.X-c.X) <= handednessTolerance &&
		math.Abs(z.Y-c.Y) <= handednessTolerance &&
		math.Abs(z.Z-c.Z) <= handednessTolerance
}

func (r Rotation) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]",
		r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8])
}
