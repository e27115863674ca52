package spatialmath

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// maxTrianglesPerLeaf bounds the size of BVH leaves.
const maxTrianglesPerLeaf = 4

// bvhNode is a node of an axis-aligned bounding volume hierarchy over triangles. Internal nodes
// have both children set and no triangles; leaves have triangles and the matching indices into the
// list the hierarchy was built from.
type bvhNode struct {
	min, max    r3.Vector
	left, right *bvhNode
	triangles   []*Triangle
	indices     []int
}

// TrianglePair identifies a triangle in each of two hierarchies by its index in the list the
// hierarchy was built from.
type TrianglePair struct {
	A, B int
}

// NearestHit is the result of a nearest-point query against a surface.
type NearestHit struct {
	Point    r3.Vector
	Normal   r3.Vector
	Triangle int
	Distance float64
}

// BVH is an immutable bounding volume hierarchy over a triangle soup whose node bounds are
// inflated by epsilon, so that surfaces that are merely near each other still meet in the broad phase.
type BVH struct {
	root      *bvhNode
	triangles []*Triangle
	epsilon   float64
}

// NewBVH builds a hierarchy over the given triangles. An empty list yields an empty hierarchy
// that overlaps nothing and has no nearest point.
func NewBVH(triangles []*Triangle, epsilon float64) *BVH {
	return &BVH{
		root:      buildPaddedBVH(triangles, epsilon),
		triangles: triangles,
		epsilon:   epsilon,
	}
}

// Len returns the number of triangles in the hierarchy.
func (b *BVH) Len() int {
	return len(b.triangles)
}

// Epsilon returns the inflation the hierarchy was built with.
func (b *BVH) Epsilon() float64 {
	return b.epsilon
}

// Triangle returns the triangle at index i of the list the hierarchy was built from.
func (b *BVH) Triangle(i int) *Triangle {
	return b.triangles[i]
}

// Bounds returns the inflated bounding box of the whole hierarchy. ok is false when empty.
func (b *BVH) Bounds() (min, max r3.Vector, ok bool) {
	if b.root == nil {
		return r3.Vector{}, r3.Vector{}, false
	}
	return b.root.min, b.root.max, true
}

// Overlap returns every pair of triangles, one from each hierarchy, whose surfaces come within
// the sum of both hierarchies' epsilons of each other. Truly interpenetrating triangles are at
// distance zero and always reported.
func (b *BVH) Overlap(other *BVH) []TrianglePair {
	var pairs []TrianglePair
	bvhOverlap(b.root, other.root, b.epsilon+other.epsilon, func(i, j int) bool {
		pairs = append(pairs, TrianglePair{A: i, B: j})
		return true
	})
	return pairs
}

// Overlaps is equivalent to len(b.Overlap(other)) > 0 but stops at the first pair found.
func (b *BVH) Overlaps(other *BVH) bool {
	found := false
	bvhOverlap(b.root, other.root, b.epsilon+other.epsilon, func(int, int) bool {
		found = true
		return false
	})
	return found
}

// Intersects reports whether the two surfaces literally touch, ignoring epsilon.
func (b *BVH) Intersects(other *BVH) bool {
	collides, _ := bvhCollidesWithBVH(b.root, other.root, 0)
	return collides
}

// DistanceFrom returns the minimum distance between the two surfaces, or +Inf if either is empty.
func (b *BVH) DistanceFrom(other *BVH) float64 {
	return bvhDistanceFromBVH(b.root, other.root)
}

// NearestPoint returns the point on the surface closest to the query. ok is false only when the
// hierarchy is empty.
func (b *BVH) NearestPoint(query r3.Vector) (NearestHit, bool) {
	if b.root == nil {
		return NearestHit{}, false
	}
	best := NearestHit{Triangle: -1, Distance: math.Inf(1)}
	bvhNearest(b.root, query, &best)
	return best, best.Triangle >= 0
}

// buildBVH constructs an unpadded hierarchy over the given triangles.
func buildBVH(triangles []*Triangle) *bvhNode {
	return buildPaddedBVH(triangles, 0)
}

func buildPaddedBVH(triangles []*Triangle, padding float64) *bvhNode {
	if len(triangles) == 0 {
		return nil
	}
	indices := make([]int, len(triangles))
	for i := range indices {
		indices[i] = i
	}
	return buildBVHNode(triangles, indices, padding)
}

func buildBVHNode(triangles []*Triangle, indices []int, padding float64) *bvhNode {
	min, max := computeTrianglesAABB(triangles)
	pad := r3.Vector{X: padding, Y: padding, Z: padding}
	node := &bvhNode{min: min.Sub(pad), max: max.Add(pad)}

	if len(triangles) <= maxTrianglesPerLeaf {
		node.triangles = triangles
		node.indices = indices
		return node
	}

	// Split along the axis where triangle centroids are most spread out.
	centroids := make([]r3.Vector, len(triangles))
	cMin := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	cMax := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i, tri := range triangles {
		c := tri.Centroid()
		centroids[i] = c
		cMin = r3.Vector{X: math.Min(cMin.X, c.X), Y: math.Min(cMin.Y, c.Y), Z: math.Min(cMin.Z, c.Z)}
		cMax = r3.Vector{X: math.Max(cMax.X, c.X), Y: math.Max(cMax.Y, c.Y), Z: math.Max(cMax.Z, c.Z)}
	}
	extent := cMax.Sub(cMin)
	axis := func(v r3.Vector) float64 { return v.X }
	if extent.Y > extent.X && extent.Y >= extent.Z {
		axis = func(v r3.Vector) float64 { return v.Y }
	} else if extent.Z > extent.X && extent.Z > extent.Y {
		axis = func(v r3.Vector) float64 { return v.Z }
	}

	order := make([]int, len(triangles))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return axis(centroids[order[i]]) < axis(centroids[order[j]])
	})
	sortedTris := make([]*Triangle, len(triangles))
	sortedIdx := make([]int, len(triangles))
	for i, o := range order {
		sortedTris[i] = triangles[o]
		sortedIdx[i] = indices[o]
	}

	mid := len(triangles) / 2
	node.left = buildBVHNode(sortedTris[:mid], sortedIdx[:mid], padding)
	node.right = buildBVHNode(sortedTris[mid:], sortedIdx[mid:], padding)
	return node
}

// computeTrianglesAABB returns the tight axis-aligned bounds of the given triangles.
func computeTrianglesAABB(triangles []*Triangle) (r3.Vector, r3.Vector) {
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, tri := range triangles {
		for _, pt := range tri.Points() {
			min = r3.Vector{X: math.Min(min.X, pt.X), Y: math.Min(min.Y, pt.Y), Z: math.Min(min.Z, pt.Z)}
			max = r3.Vector{X: math.Max(max.X, pt.X), Y: math.Max(max.Y, pt.Y), Z: math.Max(max.Z, pt.Z)}
		}
	}
	return min, max
}

// aabbOverlap returns whether two boxes overlap. Touching faces count as overlapping.
func aabbOverlap(min1, max1, min2, max2 r3.Vector) bool {
	return min1.X <= max2.X && max1.X >= min2.X &&
		min1.Y <= max2.Y && max1.Y >= min2.Y &&
		min1.Z <= max2.Z && max1.Z >= min2.Z
}

// aabbDistance returns the euclidean gap between two boxes, zero if they overlap.
func aabbDistance(min1, max1, min2, max2 r3.Vector) float64 {
	gap := func(lo1, hi1, lo2, hi2 float64) float64 {
		if hi1 < lo2 {
			return lo2 - hi1
		}
		if hi2 < lo1 {
			return lo1 - hi2
		}
		return 0
	}
	dx := gap(min1.X, max1.X, min2.X, max2.X)
	dy := gap(min1.Y, max1.Y, min2.Y, max2.Y)
	dz := gap(min1.Z, max1.Z, min2.Z, max2.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// aabbPointDistance returns the distance from a point to a box, zero if the point is inside.
func aabbPointDistance(min, max, pt r3.Vector) float64 {
	return aabbDistance(min, max, pt, pt)
}

// bvhOverlap visits every triangle pair within buffer of each other. The node bounds are
// already inflated, so the broad phase is a plain box test. visit returns false to stop early;
// bvhOverlap returns false if it was stopped.
func bvhOverlap(a, b *bvhNode, buffer float64, visit func(i, j int) bool) bool {
	if a == nil || b == nil {
		return true
	}
	if !aabbOverlap(a.min, a.max, b.min, b.max) {
		return true
	}
	aLeaf := a.left == nil
	bLeaf := b.left == nil
	switch {
	case aLeaf && bLeaf:
		for i, ta := range a.triangles {
			for j, tb := range b.triangles {
				if triangleDistance(ta, tb) <= buffer {
					if !visit(a.indices[i], b.indices[j]) {
						return false
					}
				}
			}
		}
		return true
	case aLeaf:
		return bvhOverlap(a, b.left, buffer, visit) && bvhOverlap(a, b.right, buffer, visit)
	default:
		return bvhOverlap(a.left, b, buffer, visit) && bvhOverlap(a.right, b, buffer, visit)
	}
}

// bvhCollidesWithBVH returns whether any triangles of the two hierarchies are within
// collisionBuffer of each other. When they are not, the second return value is the smallest
// triangle distance seen during the search, or +Inf if nothing was examined.
func bvhCollidesWithBVH(a, b *bvhNode, collisionBuffer float64) (bool, float64) {
	if a == nil || b == nil {
		return false, math.Inf(1)
	}
	if d := aabbDistance(a.min, a.max, b.min, b.max); d > collisionBuffer {
		return false, d
	}
	if a.left == nil && b.left == nil {
		return leafCollidesWithLeaf(a.triangles, b.triangles, collisionBuffer)
	}
	if a.left == nil {
		c, d1 := bvhCollidesWithBVH(a, b.left, collisionBuffer)
		if c {
			return true, -1
		}
		c, d2 := bvhCollidesWithBVH(a, b.right, collisionBuffer)
		if c {
			return true, -1
		}
		return false, math.Min(d1, d2)
	}
	c, d1 := bvhCollidesWithBVH(a.left, b, collisionBuffer)
	if c {
		return true, -1
	}
	c, d2 := bvhCollidesWithBVH(a.right, b, collisionBuffer)
	if c {
		return true, -1
	}
	return false, math.Min(d1, d2)
}

// leafCollidesWithLeaf checks every triangle pair of two leaves.
func leafCollidesWithLeaf(trisA, trisB []*Triangle, collisionBuffer float64) (bool, float64) {
	minDist := math.Inf(1)
	for _, ta := range trisA {
		for _, tb := range trisB {
			d := triangleDistance(ta, tb)
			if d <= collisionBuffer {
				return true, -1
			}
			if d < minDist {
				minDist = d
			}
		}
	}
	return false, minDist
}

// bvhDistanceFromBVH returns the minimum distance between the triangles of two hierarchies.
func bvhDistanceFromBVH(a, b *bvhNode) float64 {
	best := math.Inf(1)
	bvhDistanceSearch(a, b, &best)
	return best
}

func bvhDistanceSearch(a, b *bvhNode, best *float64) {
	if a == nil || b == nil {
		return
	}
	if aabbDistance(a.min, a.max, b.min, b.max) >= *best {
		return
	}
	if a.left == nil && b.left == nil {
		if d := leafDistanceFromLeaf(a.triangles, b.triangles); d < *best {
			*best = d
		}
		return
	}
	if a.left == nil {
		bvhDistanceSearch(a, b.left, best)
		bvhDistanceSearch(a, b.right, best)
		return
	}
	bvhDistanceSearch(a.left, b, best)
	bvhDistanceSearch(a.right, b, best)
}

// leafDistanceFromLeaf returns the minimum distance over every triangle pair of two leaves.
func leafDistanceFromLeaf(trisA, trisB []*Triangle) float64 {
	minDist := math.Inf(1)
	for _, ta := range trisA {
		for _, tb := range trisB {
			if d := triangleDistance(ta, tb); d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

// bvhNearest descends the hierarchy nearest child first, pruning any node whose box is no
// closer than the best hit so far.
func bvhNearest(node *bvhNode, query r3.Vector, best *NearestHit) {
	if node == nil || aabbPointDistance(node.min, node.max, query) > best.Distance {
		return
	}
	if node.left == nil {
		for i, tri := range node.triangles {
			pt := closestPointTrianglePoint(tri, query)
			if d := pt.Sub(query).Norm(); d < best.Distance {
				*best = NearestHit{Point: pt, Normal: tri.Normal(), Triangle: node.indices[i], Distance: d}
			}
		}
		return
	}
	first, second := node.left, node.right
	if aabbPointDistance(second.min, second.max, query) < aabbPointDistance(first.min, first.max, query) {
		first, second = second, first
	}
	bvhNearest(first, query, best)
	bvhNearest(second, query, best)
}
