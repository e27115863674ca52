package scene

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/contactscan/spatialmath"
)

// Snapshot is an object's surface at one instant, already in world space.
type Snapshot struct {
	Object string
	Time   Time
	// Origin is the world position of the object's local origin.
	Origin r3.Vector
	Mesh   *spatialmath.Mesh
}

// Observation is everything sampled for one object at one instant. Snapshot is nil when the
// object has no polygons at that instant.
type Observation struct {
	Origin   r3.Vector
	Snapshot *Snapshot
}

// Sampler turns evaluator output into world-space snapshots. It keeps no cache.
type Sampler struct {
	evaluator Evaluator
}

// NewSampler returns a sampler over the given evaluator.
func NewSampler(evaluator Evaluator) *Sampler {
	return &Sampler{evaluator: evaluator}
}

// Sample returns the object's world-space surface at t, or nil if it has no polygons then.
func (s *Sampler) Sample(ctx context.Context, obj ObjectConfig, t Time) (*Snapshot, error) {
	obs, err := s.Observe(ctx, obj, t)
	if err != nil {
		return nil, err
	}
	return obs.Snapshot, nil
}

// Origin returns the world position of the object's origin at t.
func (s *Sampler) Origin(ctx context.Context, obj ObjectConfig, t Time) (r3.Vector, error) {
	m, err := s.evaluator.Transform(ctx, obj.Name, t)
	if err != nil {
		return r3.Vector{}, errors.Wrapf(err, "evaluating transform of %q at %v", obj.Name, float64(t))
	}
	return spatialmath.NewPoseFromMatrix(m).Point(), nil
}

// Observe evaluates the object's transform and surface at t.
func (s *Sampler) Observe(ctx context.Context, obj ObjectConfig, t Time) (Observation, error) {
	m, err := s.evaluator.Transform(ctx, obj.Name, t)
	if err != nil {
		return Observation{}, errors.Wrapf(err, "evaluating transform of %q at %v", obj.Name, float64(t))
	}
	pose := spatialmath.NewPoseFromMatrix(m)
	obs := Observation{Origin: pose.Point()}

	data, err := s.evaluator.Mesh(ctx, obj.Name, t)
	if err != nil {
		return Observation{}, errors.Wrapf(err, "evaluating mesh of %q at %v", obj.Name, float64(t))
	}
	if data.Empty() {
		return obs, nil
	}
	mesh, err := worldMesh(data, m, obj.Name)
	if err != nil {
		return Observation{}, errors.Wrapf(err, "mesh of %q at %v", obj.Name, float64(t))
	}
	obs.Snapshot = &Snapshot{Object: obj.Name, Time: t, Origin: obs.Origin, Mesh: mesh}
	return obs, nil
}

// worldMesh transforms each shared vertex once, then triangulates.
func worldMesh(data *MeshData, m mgl64.Mat4, label string) (*spatialmath.Mesh, error) {
	pose := spatialmath.NewPoseFromMatrix(m)
	world := make([]r3.Vector, len(data.Vertices))
	for i, v := range data.Vertices {
		world[i] = pose.TransformPoint(v)
	}
	return spatialmath.NewMeshFromPolygons(world, data.Polygons, label)
}

// MeshDataFromMesh flattens a triangle mesh into indexed form, three vertices per triangle.
func MeshDataFromMesh(m *spatialmath.Mesh) *MeshData {
	data := &MeshData{
		Vertices: make([]r3.Vector, 0, 3*m.Len()),
		Polygons: make([][]int, 0, m.Len()),
	}
	for _, tri := range m.Triangles() {
		base := len(data.Vertices)
		data.Vertices = append(data.Vertices, tri.Points()...)
		data.Polygons = append(data.Polygons, []int{base, base + 1, base + 2})
	}
	return data
}
