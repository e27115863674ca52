package scene

import (
	"context"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/contactscan/spatialmath"
)

// Keyframe sets any subset of an object's transform channels at a frame. Channels are
// interpolated independently between the keyframes that set them: position and scale linearly,
// rotation by slerp. Before the first and after the last key a channel holds its value.
type Keyframe struct {
	Frame    float64
	Position *r3.Vector
	Rotation *spatialmath.R4AA
	Scale    *r3.Vector
}

// FrameSpan is an inclusive range of frames.
type FrameSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether t lies in the span.
func (s FrameSpan) Contains(t Time) bool {
	return float64(t) >= s.Start && float64(t) <= s.End
}

// AnimatedObject is an object of an AnimatedScene.
type AnimatedObject struct {
	Config ObjectConfig
	// Geometry is the surface in the object's local frame. Nil means no polygons.
	Geometry  *MeshData
	Keyframes []Keyframe
	// Path, if set, overrides the position channel with an analytic trajectory.
	Path func(t Time) r3.Vector
	// Hidden spans are frames during which the object has no polygons.
	Hidden []FrameSpan
}

// AnimatedScene is an in-memory Evaluator over keyframed objects. Evaluation is a pure function
// of time, so it tolerates any evaluation order.
type AnimatedScene struct {
	rate       FrameRate
	start, end int

	mu          sync.RWMutex
	objects     map[string]*AnimatedObject
	order       []string
	collections map[string][]string
}

// NewAnimatedScene returns an empty scene.
func NewAnimatedScene(rate FrameRate, start, end int) *AnimatedScene {
	return &AnimatedScene{
		rate:        rate,
		start:       start,
		end:         end,
		objects:     map[string]*AnimatedObject{},
		collections: map[string][]string{},
	}
}

// AddObject adds an object and puts it in each of the named collections. Keyframes are sorted by
// frame; the caller's slice is not modified.
func (s *AnimatedScene) AddObject(obj AnimatedObject, collections ...string) error {
	if obj.Config.Name == "" {
		return errors.New("object must have a name")
	}
	if obj.Config.Kind == "" {
		obj.Config.Kind = KindMesh
	}
	keys := append([]Keyframe(nil), obj.Keyframes...)
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame })
	obj.Keyframes = keys

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[obj.Config.Name]; ok {
		return errors.Errorf("duplicate object name %q", obj.Config.Name)
	}
	s.objects[obj.Config.Name] = &obj
	s.order = append(s.order, obj.Config.Name)
	for _, c := range collections {
		s.collections[c] = append(s.collections[c], obj.Config.Name)
	}
	return nil
}

// DefineCollection makes sure a collection exists, even if empty.
func (s *AnimatedScene) DefineCollection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = []string{}
	}
}

// Objects returns the names of all objects in insertion order.
func (s *AnimatedScene) Objects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// FrameRate implements Evaluator.
func (s *AnimatedScene) FrameRate() FrameRate {
	return s.rate
}

// FrameRange implements Evaluator.
func (s *AnimatedScene) FrameRange() (int, int) {
	return s.start, s.end
}

// Collection implements Evaluator.
func (s *AnimatedScene) Collection(ctx context.Context, name string) ([]ObjectConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names, ok := s.collections[name]
	if !ok {
		return nil, NewCollectionNotFoundError(name)
	}
	configs := make([]ObjectConfig, 0, len(names))
	for _, n := range names {
		configs = append(configs, s.objects[n].Config)
	}
	return configs, nil
}

// Transform implements Evaluator.
func (s *AnimatedScene) Transform(ctx context.Context, name string, t Time) (mgl64.Mat4, error) {
	obj, err := s.object(name)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return obj.pose(t).Matrix(), nil
}

// Mesh implements Evaluator. The returned data is shared and must not be modified.
func (s *AnimatedScene) Mesh(ctx context.Context, name string, t Time) (*MeshData, error) {
	obj, err := s.object(name)
	if err != nil {
		return nil, err
	}
	for _, span := range obj.Hidden {
		if span.Contains(t) {
			return nil, nil
		}
	}
	if obj.Geometry.Empty() {
		return nil, nil
	}
	return obj.Geometry, nil
}

func (s *AnimatedScene) object(name string) (*AnimatedObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, NewObjectNotFoundError(name)
	}
	return obj, nil
}

func (obj *AnimatedObject) pose(t Time) spatialmath.Pose {
	var pos r3.Vector
	if obj.Path != nil {
		pos = obj.Path(t)
	} else {
		pos = interpolateVector(obj.Keyframes, t, func(k Keyframe) *r3.Vector { return k.Position }, r3.Vector{})
	}
	scale := interpolateVector(obj.Keyframes, t, func(k Keyframe) *r3.Vector { return k.Scale }, r3.Vector{X: 1, Y: 1, Z: 1})
	return spatialmath.NewPose(pos, obj.rotation(t)).Scaled(scale)
}

func (obj *AnimatedObject) rotation(t Time) quat.Number {
	var prev, next *Keyframe
	for i := range obj.Keyframes {
		k := &obj.Keyframes[i]
		if k.Rotation == nil {
			continue
		}
		if k.Frame <= float64(t) {
			prev = k
		} else if next == nil {
			next = k
		}
	}
	switch {
	case prev == nil && next == nil:
		return quat.Number{Real: 1}
	case prev == nil:
		return next.Rotation.ToQuat()
	case next == nil:
		return prev.Rotation.ToQuat()
	}
	by := (float64(t) - prev.Frame) / (next.Frame - prev.Frame)
	return spatialmath.Slerp(prev.Rotation, next.Rotation, by)
}

// interpolateVector linearly interpolates the channel picked by get across the keyframes that
// set it, holding the end values outside them.
func interpolateVector(keys []Keyframe, t Time, get func(Keyframe) *r3.Vector, fallback r3.Vector) r3.Vector {
	var prev, next *Keyframe
	for i := range keys {
		if get(keys[i]) == nil {
			continue
		}
		if keys[i].Frame <= float64(t) {
			prev = &keys[i]
		} else if next == nil {
			next = &keys[i]
		}
	}
	switch {
	case prev == nil && next == nil:
		return fallback
	case prev == nil:
		return *get(*next)
	case next == nil:
		return *get(*prev)
	}
	by := (float64(t) - prev.Frame) / (next.Frame - prev.Frame)
	a, b := *get(*prev), *get(*next)
	return a.Add(b.Sub(a).Mul(by))
}
