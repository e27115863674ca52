package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// floatEpsilon is the tolerance used when deciding whether a signed distance is zero.
const floatEpsilon = 1e-6

// segmentEpsilon is the squared length below which a segment is treated as a point.
const segmentEpsilon = 1e-12

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// PlaneNormal returns the unit normal of the plane through the three given points, or the zero
// vector if the points are collinear.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	norm := n.Norm()
	if norm == 0 {
		return r3.Vector{}
	}
	return n.Mul(1 / norm)
}

// ClosestPointSegmentPoint takes a line segment defined by two points and a third point, and
// returns the point on the segment closest to the third point.
func ClosestPointSegmentPoint(segA, segB, pt r3.Vector) r3.Vector {
	ab := segB.Sub(segA)
	denom := ab.Norm2()
	if denom < segmentEpsilon {
		return segA
	}
	return segA.Add(ab.Mul(clamp01(pt.Sub(segA).Dot(ab) / denom)))
}

// closestPointsSegmentSegment returns the pair of closest points between segments [p1, q1] and [p2, q2].
// Reference: Ericson, "Real-Time Collision Detection", 5.1.9.
func closestPointsSegmentSegment(p1, q1, p2, q2 r3.Vector) (r3.Vector, r3.Vector) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Norm2()
	e := d2.Norm2()
	f := d2.Dot(r)

	if a < segmentEpsilon && e < segmentEpsilon {
		return p1, p2
	}
	var s, t float64
	if a < segmentEpsilon {
		t = clamp01(f / e)
	} else {
		c := d1.Dot(r)
		if e < segmentEpsilon {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			if denom := a*e - b*b; denom != 0 {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// SegmentDistanceToSegment returns the minimum distance between two line segments.
func SegmentDistanceToSegment(p1, q1, p2, q2 r3.Vector) float64 {
	c1, c2 := closestPointsSegmentSegment(p1, q1, p2, q2)
	return c1.Sub(c2).Norm()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
