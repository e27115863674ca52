package scene

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

type failingEvaluator struct {
	*AnimatedScene
	failTransform, failMesh bool
}

func (f *failingEvaluator) Transform(ctx context.Context, name string, t Time) (mgl64.Mat4, error) {
	if f.failTransform {
		return mgl64.Mat4{}, errors.New("solver cache invalid")
	}
	return f.AnimatedScene.Transform(ctx, name, t)
}

func (f *failingEvaluator) Mesh(ctx context.Context, name string, t Time) (*MeshData, error) {
	if f.failMesh {
		return nil, errors.New("depsgraph exploded")
	}
	return f.AnimatedScene.Mesh(ctx, name, t)
}

func TestSampler(t *testing.T) {
	ctx := context.Background()
	s := NewAnimatedScene(FrameRate{Num: 24}, 0, 10)
	test.That(t, s.AddObject(AnimatedObject{
		Config:    ObjectConfig{Name: "cube"},
		Geometry:  unitCube(t),
		Keyframes: []Keyframe{{Frame: 0, Position: &r3.Vector{Z: 10}}},
		Hidden:    []FrameSpan{{Start: 5, End: 5}},
	}), test.ShouldBeNil)
	test.That(t, s.AddObject(AnimatedObject{Config: ObjectConfig{Name: "empty", Kind: KindEmpty}}), test.ShouldBeNil)
	cube := ObjectConfig{Name: "cube"}
	sampler := NewSampler(s)

	t.Run("snapshot is in world space", func(t *testing.T) {
		snap, err := sampler.Sample(ctx, cube, 2.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, snap, test.ShouldNotBeNil)
		test.That(t, snap.Object, test.ShouldEqual, "cube")
		test.That(t, snap.Time, test.ShouldEqual, Time(2.5))
		test.That(t, snap.Origin, test.ShouldResemble, r3.Vector{Z: 10})
		test.That(t, snap.Mesh.Len(), test.ShouldEqual, 12)
		min, max, ok := snap.Mesh.BVH(0).Bounds()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, min.Z, test.ShouldEqual, 9.5)
		test.That(t, max.Z, test.ShouldEqual, 10.5)
	})

	t.Run("no polygons is not an error", func(t *testing.T) {
		snap, err := sampler.Sample(ctx, cube, 5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, snap, test.ShouldBeNil)

		obs, err := sampler.Observe(ctx, ObjectConfig{Name: "empty"}, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, obs.Snapshot, test.ShouldBeNil)
		test.That(t, obs.Origin, test.ShouldResemble, r3.Vector{})

		origin, err := sampler.Origin(ctx, cube, 5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, origin, test.ShouldResemble, r3.Vector{Z: 10})
	})

	t.Run("evaluator errors are wrapped", func(t *testing.T) {
		_, err := NewSampler(&failingEvaluator{AnimatedScene: s, failTransform: true}).Sample(ctx, cube, 1)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "solver cache invalid")
		test.That(t, err.Error(), test.ShouldContainSubstring, `"cube"`)

		_, err = NewSampler(&failingEvaluator{AnimatedScene: s, failMesh: true}).Observe(ctx, cube, 1)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "depsgraph exploded")
	})

	t.Run("bad polygon indices", func(t *testing.T) {
		test.That(t, s.AddObject(AnimatedObject{
			Config:   ObjectConfig{Name: "broken"},
			Geometry: &MeshData{Vertices: []r3.Vector{{}, {X: 1}}, Polygons: [][]int{{0, 1, 2}}},
		}), test.ShouldBeNil)
		_, err := sampler.Sample(ctx, ObjectConfig{Name: "broken"}, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
