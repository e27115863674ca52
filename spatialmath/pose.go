package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a placement in 3D space stored as a homogeneous 4x4 matrix, in the same column-major
// layout the scene evaluator hands out. Unlike a purely rigid transform it may carry scale, since
// evaluated world matrices routinely do.
type Pose struct {
	m mgl64.Mat4
}

// NewZeroPose returns a pose at (0,0,0) with no rotation or scale.
func NewZeroPose() Pose {
	return Pose{mgl64.Ident4()}
}

// NewPoseFromPoint returns a pose that only translates.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{mgl64.Translate3D(pt.X, pt.Y, pt.Z)}
}

// NewPose returns a pose that rotates by the given quaternion and then translates to pt.
// A zero quaternion is treated as no rotation.
func NewPose(pt r3.Vector, q quat.Number) Pose {
	m := quatToMat4(q)
	m[12], m[13], m[14] = pt.X, pt.Y, pt.Z
	return Pose{m}
}

// NewPoseFromMatrix wraps an evaluated 4x4 world matrix.
func NewPoseFromMatrix(m mgl64.Mat4) Pose {
	return Pose{m}
}

// Compose returns the pose a*b, i.e. b expressed in the frame a is expressed in.
func Compose(a, b Pose) Pose {
	return Pose{a.m.Mul4(b.m)}
}

// Scaled returns the pose with a local, per-axis scale applied before it.
func (p Pose) Scaled(s r3.Vector) Pose {
	return Pose{p.m.Mul4(mgl64.Scale3D(s.X, s.Y, s.Z))}
}

// Point returns the translation component of the pose.
func (p Pose) Point() r3.Vector {
	c := p.m.Col(3)
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

// Matrix returns the underlying homogeneous matrix.
func (p Pose) Matrix() mgl64.Mat4 {
	return p.m
}

// TransformPoint maps a point from the pose's local frame into its parent frame.
func (p Pose) TransformPoint(v r3.Vector) r3.Vector {
	out := mgl64.TransformCoordinate(mgl64.Vec3{v.X, v.Y, v.Z}, p.m)
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

func (p Pose) String() string {
	pt := p.Point()
	return fmt.Sprintf("X:%.4f, Y:%.4f, Z:%.4f", pt.X, pt.Y, pt.Z)
}

// PoseAlmostEqual returns whether every matrix element of the two poses agrees within 1e-8.
func PoseAlmostEqual(a, b Pose) bool {
	return a.m.ApproxEqualThreshold(b.m, 1e-8)
}

func quatToMat4(q quat.Number) mgl64.Mat4 {
	norm := quat.Abs(q)
	if norm == 0 {
		return mgl64.Ident4()
	}
	q = quat.Scale(1/norm, q)
	return mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
}
