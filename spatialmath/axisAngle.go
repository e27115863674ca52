package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// An orientation can be expressed by first specifying an axis, i.e. a line from the origin to a point on
// the unit sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an R4AA with no rotation about the z axis.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToQuat converts an R4 axis angle to a unit quaternion. An axis of zero length is treated as
// no rotation.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 *R4AA) ToQuat() quat.Number {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 || r4.Theta == 0 {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta/2) / norm
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX * sinA,
		Jmag: r4.RY * sinA,
		Kmag: r4.RZ * sinA,
	}
}

// slerp spherically interpolates between two unit quaternions, taking the shorter arc.
func slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	dot := qN1.Real*qN2.Real + qN1.Imag*qN2.Imag + qN1.Jmag*qN2.Jmag + qN1.Kmag*qN2.Kmag
	if dot < 0 {
		qN2 = quat.Scale(-1, qN2)
		dot = -dot
	}
	// nearly parallel: fall back to a normalized lerp
	if dot > 0.9995 {
		r := quat.Add(qN1, quat.Scale(by, quat.Sub(qN2, qN1)))
		return quat.Scale(1/quat.Abs(r), r)
	}
	theta0 := math.Acos(dot)
	theta := theta0 * by
	s1 := math.Sin(theta) / math.Sin(theta0)
	s0 := math.Cos(theta) - dot*s1
	return quat.Add(quat.Scale(s0, qN1), quat.Scale(s1, qN2))
}

// Slerp interpolates between two orientations given as axis angles.
func Slerp(from, to *R4AA, by float64) quat.Number {
	return slerp(from.ToQuat(), to.ToQuat(), by)
}
