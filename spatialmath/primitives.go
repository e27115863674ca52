package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// The sets of indices of the box vertices that tile the box exterior.
var boxTriangles = [12][3]int{
	{0, 1, 3},
	{0, 2, 3},
	{0, 1, 5},
	{0, 4, 5},
	{0, 2, 6},
	{0, 4, 6},
	{7, 1, 3},
	{7, 2, 3},
	{7, 1, 5},
	{7, 4, 5},
	{7, 2, 6},
	{7, 4, 6},
}

// NewBoxMesh returns a 12-triangle mesh of an axis-aligned box centered on the origin, 2 right
// triangles for each face.
func NewBoxMesh(dims r3.Vector, label string) (*Mesh, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for flat boxes.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, errors.Errorf("box dimensions must be non-negative, got %v", dims)
	}
	half := dims.Mul(0.5)
	verts := make([]r3.Vector, 0, len(boxVertices))
	for _, v := range boxVertices {
		verts = append(verts, r3.Vector{X: v.X * half.X, Y: v.Y * half.Y, Z: v.Z * half.Z})
	}
	triangles := make([]*Triangle, 0, len(boxTriangles))
	for _, tri := range boxTriangles {
		triangles = append(triangles, NewTriangle(verts[tri[0]], verts[tri[1]], verts[tri[2]]))
	}
	return NewMesh(triangles, label), nil
}

// NewSphereMesh returns a UV sphere of the given radius centered on the origin, with segments
// slices around the z axis and rings stacks from pole to pole.
func NewSphereMesh(radius float64, segments, rings int, label string) (*Mesh, error) {
	if radius <= 0 {
		return nil, errors.Errorf("sphere radius must be positive, got %f", radius)
	}
	if segments < 3 || rings < 2 {
		return nil, errors.Errorf("sphere needs at least 3 segments and 2 rings, got %d and %d", segments, rings)
	}
	vertices := []r3.Vector{{Z: radius}}
	for r := 1; r < rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			vertices = append(vertices, r3.Vector{
				X: radius * math.Sin(phi) * math.Cos(theta),
				Y: radius * math.Sin(phi) * math.Sin(theta),
				Z: radius * math.Cos(phi),
			})
		}
	}
	south := len(vertices)
	vertices = append(vertices, r3.Vector{Z: -radius})

	ringStart := func(r int) int { return 1 + (r-1)*segments }
	polygons := make([][]int, 0, segments*rings)
	for s := 0; s < segments; s++ {
		next := (s + 1) % segments
		polygons = append(polygons, []int{0, ringStart(1) + s, ringStart(1) + next})
	}
	for r := 1; r < rings-1; r++ {
		for s := 0; s < segments; s++ {
			next := (s + 1) % segments
			polygons = append(polygons, []int{
				ringStart(r) + s, ringStart(r+1) + s, ringStart(r+1) + next, ringStart(r) + next,
			})
		}
	}
	last := ringStart(rings - 1)
	for s := 0; s < segments; s++ {
		next := (s + 1) % segments
		polygons = append(polygons, []int{south, last + next, last + s})
	}
	return NewMeshFromPolygons(vertices, polygons, label)
}
