package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Triangle is three points and a normal vector.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a Triangle from three points. The normal follows the right-hand rule over p0, p1, p2.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three points of the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the centroid of the triangle.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3.)
}

// Transform returns a copy of the triangle with every point moved by the given pose.
func (t *Triangle) Transform(p Pose) *Triangle {
	return NewTriangle(p.TransformPoint(t.p0), p.TransformPoint(t.p1), p.TransformPoint(t.p2))
}

// closestTriangleInsidePoint returns the closest point on a triangle IF AND ONLY IF the query point's projection overlaps the triangle.
// Otherwise it will return the query point.
// To visualize this- if one draws a tetrahedron using the triangle and the query point, all angles from the triangle to the query point
// must be <= 90 degrees.
func closestTriangleInsidePoint(t *Triangle, point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Parametrize the triangle s.t. a point inside the triangle is
	// Q = p0 + u * e0 + v * e1, when 0 <= u <= 1, 0 <= v <= 1, and
	// 0 <= u + v <= 1. Let e0 = (p1 - p0) and e1 = (p2 - p0).
	// We analytically minimize the distance between the point pt and Q.
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	// The determinant is 0 only if the angle between e1 and e0 is 0
	// (i.e. the triangle has overlapping lines).
	det := (a*c - b*b)
	if det == 0 {
		return point, false
	}
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	if !inside {
		return point, false
	}
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), true
}

// closestPointTrianglePoint takes a point, and returns the closest point on the triangle to the given point.
func closestPointTrianglePoint(t *Triangle, point r3.Vector) r3.Vector {
	closestPtInside, inside := closestTriangleInsidePoint(t, point)
	if inside {
		return closestPtInside
	}

	// If the closest point is outside the triangle, it must be on an edge, so we
	// check each triangle edge for a closest point to the point pt.
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	newPt := ClosestPointSegmentPoint(t.p1, t.p2, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		closestPt = newPt
		bestDist = newDist
	}

	newPt = ClosestPointSegmentPoint(t.p2, t.p0, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		return newPt
	}
	return closestPt
}

// ClosestPointToPoint returns the point on the triangle closest to the given point.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	return closestPointTrianglePoint(t, point)
}

// segmentIntersectsTriangle reports whether the segment [a, b] crosses the triangle, using the
// Moller-Trumbore ray parametrization restricted to the segment. Segments lying in the
// triangle's plane are reported as not crossing; triangleDistance covers them with its edge tests.
func segmentIntersectsTriangle(a, b r3.Vector, t *Triangle) bool {
	dir := b.Sub(a)
	e1 := t.p1.Sub(t.p0)
	e2 := t.p2.Sub(t.p0)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < segmentEpsilon {
		return false
	}
	inv := 1 / det
	s := a.Sub(t.p0)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := inv * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return false
	}
	along := inv * e2.Dot(q)
	return along >= 0 && along <= 1
}

// trianglesIntersect reports whether two triangles share at least one point in a transversal
// crossing, which happens iff an edge of one crosses the other.
func trianglesIntersect(a, b *Triangle) bool {
	aPts := [3]r3.Vector{a.p0, a.p1, a.p2}
	bPts := [3]r3.Vector{b.p0, b.p1, b.p2}
	for i := 0; i < 3; i++ {
		if segmentIntersectsTriangle(aPts[i], aPts[(i+1)%3], b) {
			return true
		}
		if segmentIntersectsTriangle(bPts[i], bPts[(i+1)%3], a) {
			return true
		}
	}
	return false
}

// triangleDistance returns the minimum distance between two triangles, zero if they intersect.
// For disjoint triangles the minimum is realized either between a vertex and a face or between
// two edges, so those fifteen candidates are exhaustive.
func triangleDistance(a, b *Triangle) float64 {
	if trianglesIntersect(a, b) {
		return 0
	}
	aPts := [3]r3.Vector{a.p0, a.p1, a.p2}
	bPts := [3]r3.Vector{b.p0, b.p1, b.p2}
	best := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := aPts[i].Sub(closestPointTrianglePoint(b, aPts[i])).Norm(); d < best {
			best = d
		}
		if d := bPts[i].Sub(closestPointTrianglePoint(a, bPts[i])).Norm(); d < best {
			best = d
		}
		for j := 0; j < 3; j++ {
			if d := SegmentDistanceToSegment(aPts[i], aPts[(i+1)%3], bPts[j], bPts[(j+1)%3]); d < best {
				best = d
			}
		}
	}
	return best
}
