package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Mesh is a triangulated surface. Its triangles are stored in whatever frame they were built
// in; Transform bakes a pose into a new set of triangles rather than carrying it alongside.
type Mesh struct {
	triangles []*Triangle
	label     string
}

// NewMesh creates a mesh from a list of triangles.
func NewMesh(triangles []*Triangle, label string) *Mesh {
	return &Mesh{
		triangles: triangles,
		label:     label,
	}
}

// NewMeshFromPolygons builds a mesh from an indexed vertex list. Polygons with more than three
// vertices are fan-triangulated around their first vertex.
func NewMeshFromPolygons(vertices []r3.Vector, polygons [][]int, label string) (*Mesh, error) {
	triangles := make([]*Triangle, 0, len(polygons))
	for i, poly := range polygons {
		if len(poly) < 3 {
			return nil, errors.Errorf("polygon %d has %d vertices, need at least 3", i, len(poly))
		}
		for _, idx := range poly {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Errorf("polygon %d references vertex %d, mesh has %d vertices", i, idx, len(vertices))
			}
		}
		for k := 1; k+1 < len(poly); k++ {
			triangles = append(triangles, NewTriangle(vertices[poly[0]], vertices[poly[k]], vertices[poly[k+1]]))
		}
	}
	return NewMesh(triangles, label), nil
}

// Label returns the label of the mesh.
func (m *Mesh) Label() string {
	return m.label
}

// Triangles returns the triangles making up the mesh.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Len returns the number of triangles in the mesh.
func (m *Mesh) Len() int {
	return len(m.triangles)
}

// Transform returns a new mesh with every triangle moved by the given pose. The receiver is unchanged.
func (m *Mesh) Transform(pose Pose) *Mesh {
	triangles := make([]*Triangle, 0, len(m.triangles))
	for _, tri := range m.triangles {
		triangles = append(triangles, tri.Transform(pose))
	}
	return NewMesh(triangles, m.label)
}

// BVH builds a bounding volume hierarchy over the mesh with node bounds inflated by epsilon.
func (m *Mesh) BVH(epsilon float64) *BVH {
	return NewBVH(m.triangles, epsilon)
}
