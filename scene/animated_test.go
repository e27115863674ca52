package scene

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/contactscan/spatialmath"
)

func unitCube(t *testing.T) *MeshData {
	t.Helper()
	box, err := spatialmath.NewBoxMesh(r3.Vector{X: 1, Y: 1, Z: 1}, "cube")
	test.That(t, err, test.ShouldBeNil)
	return MeshDataFromMesh(box)
}

func TestTimeSplit(t *testing.T) {
	frame, sub := Time(5.25).Split()
	test.That(t, frame, test.ShouldEqual, 5)
	test.That(t, sub, test.ShouldEqual, 0.25)

	frame, sub = Time(-0.5).Split()
	test.That(t, frame, test.ShouldEqual, -1)
	test.That(t, sub, test.ShouldEqual, 0.5)

	test.That(t, FrameRate{Num: 24}.FPS(), test.ShouldEqual, 24)
	test.That(t, FrameRate{Num: 30000, Den: 1001}.FPS(), test.ShouldAlmostEqual, 29.97, 0.001)
}

func TestAnimatedScene(t *testing.T) {
	ctx := context.Background()
	s := NewAnimatedScene(FrameRate{Num: 24, Den: 1}, 1, 10)
	margin := 0.1
	err := s.AddObject(AnimatedObject{
		Config:   ObjectConfig{Name: "mover", ContactMargin: &margin},
		Geometry: unitCube(t),
		Keyframes: []Keyframe{
			{Frame: 9, Position: &r3.Vector{X: 8}},
			{Frame: 1, Position: &r3.Vector{}, Rotation: spatialmath.NewR4AA()},
			{Frame: 5, Rotation: &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1}, Scale: &r3.Vector{X: 2, Y: 2, Z: 2}},
		},
		Hidden: []FrameSpan{{Start: 3, End: 4}},
	}, "colliders")
	test.That(t, err, test.ShouldBeNil)

	t.Run("duplicate names are rejected", func(t *testing.T) {
		err := s.AddObject(AnimatedObject{Config: ObjectConfig{Name: "mover"}})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, s.AddObject(AnimatedObject{}), test.ShouldNotBeNil)
	})

	t.Run("collections", func(t *testing.T) {
		objs, err := s.Collection(ctx, "colliders")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(objs), test.ShouldEqual, 1)
		test.That(t, objs[0].Kind, test.ShouldEqual, KindMesh)
		m, ok := objs[0].Margin()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, m, test.ShouldEqual, 0.1)

		_, err = s.Collection(ctx, "targets")
		test.That(t, IsCollectionNotFoundError(err), test.ShouldBeTrue)

		s.DefineCollection("targets")
		objs, err = s.Collection(ctx, "targets")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, objs, test.ShouldBeEmpty)
	})

	t.Run("position is linear between keys", func(t *testing.T) {
		m, err := s.Transform(ctx, "mover", 3)
		test.That(t, err, test.ShouldBeNil)
		pose := spatialmath.NewPoseFromMatrix(m)
		test.That(t, rounded(pose.Point()), test.ShouldResemble, rounded(r3.Vector{X: 2}))

		m, err = s.Transform(ctx, "mover", 20)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.NewPoseFromMatrix(m).Point(), test.ShouldResemble, r3.Vector{X: 8})
	})

	t.Run("rotation and scale", func(t *testing.T) {
		m, err := s.Transform(ctx, "mover", 5)
		test.That(t, err, test.ShouldBeNil)
		pose := spatialmath.NewPoseFromMatrix(m)
		// a quarter turn about z maps +x to +y, then the scale of 2 doubles it
		moved := pose.TransformPoint(r3.Vector{X: 1}).Sub(pose.Point())
		test.That(t, spatialmath.R3VectorAlmostEqual(moved, r3.Vector{Y: 2}, 1e-9), test.ShouldBeTrue)

		// halfway through the rotation keys
		m, err = s.Transform(ctx, "mover", 3)
		test.That(t, err, test.ShouldBeNil)
		pose = spatialmath.NewPoseFromMatrix(m)
		moved = pose.TransformPoint(r3.Vector{X: 1}).Sub(pose.Point())
		// scale has a single key, so it holds at 2 before it
		test.That(t, moved.Norm(), test.ShouldAlmostEqual, 2)
		test.That(t, math.Atan2(moved.Y, moved.X), test.ShouldAlmostEqual, math.Pi/4)
	})

	t.Run("hidden spans have no mesh", func(t *testing.T) {
		mesh, err := s.Mesh(ctx, "mover", 3.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mesh, test.ShouldBeNil)

		mesh, err = s.Mesh(ctx, "mover", 4.01)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mesh.Empty(), test.ShouldBeFalse)
	})

	t.Run("unknown objects are errors", func(t *testing.T) {
		_, err := s.Transform(ctx, "ghost", 1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = s.Mesh(ctx, "ghost", 1)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("path overrides position keys", func(t *testing.T) {
		err := s.AddObject(AnimatedObject{
			Config:    ObjectConfig{Name: "faller"},
			Keyframes: []Keyframe{{Frame: 1, Position: &r3.Vector{Z: 100}}},
			Path:      func(t Time) r3.Vector { return r3.Vector{Z: -float64(t) * float64(t)} },
		})
		test.That(t, err, test.ShouldBeNil)
		m, err := s.Transform(ctx, "faller", 1.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.NewPoseFromMatrix(m).Point(), test.ShouldResemble, r3.Vector{Z: -2.25})

		mesh, err := s.Mesh(ctx, "faller", 1.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mesh, test.ShouldBeNil)
		test.That(t, s.Objects(), test.ShouldResemble, []string{"mover", "faller"})
	})
}

// rounded rounds away float noise so positions can be compared with ShouldResemble.
func rounded(v r3.Vector) r3.Vector {
	return r3.Vector{X: math.Round(v.X*1e9) / 1e9, Y: math.Round(v.Y*1e9) / 1e9, Z: math.Round(v.Z*1e9) / 1e9}
}
