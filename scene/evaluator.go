// Package scene describes the animated scene that collisions are detected in: the evaluator
// that produces object state at any (possibly fractional) frame, typed object records, the
// geometry sampler, and an in-memory keyframed evaluator that can be loaded from a file.
package scene

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Time is a possibly fractional frame index. It is passed explicitly to every evaluation; there
// is no ambient "current frame".
type Time float64

// Split returns the integer frame and the fractional subframe in [0, 1) for hosts that set
// their time cursor as a (frame, subframe) pair.
func (t Time) Split() (int, float64) {
	frame := math.Floor(float64(t))
	return int(frame), float64(t) - frame
}

// FrameRate is a rational frames-per-second value.
type FrameRate struct {
	Num int `json:"num"`
	Den int `json:"den,omitempty"`
}

// FPS returns the frame rate as a float. A zero denominator is read as 1.
func (r FrameRate) FPS() float64 {
	if r.Den == 0 {
		return float64(r.Num)
	}
	return float64(r.Num) / float64(r.Den)
}

// Kind is the kind of a scene object. Only mesh objects take part in collision detection.
type Kind string

// Known object kinds.
const (
	KindMesh  Kind = "mesh"
	KindEmpty Kind = "empty"
)

// ObjectConfig is the typed record of a scene object.
type ObjectConfig struct {
	Name          string   `json:"name"`
	Kind          Kind     `json:"kind"`
	ContactMargin *float64 `json:"contact_margin,omitempty"`
}

// Margin implements Margined.
func (c ObjectConfig) Margin() (float64, bool) {
	if c.ContactMargin == nil {
		return 0, false
	}
	return *c.ContactMargin, true
}

// MeshData is an object's surface in its local frame as an indexed polygon list.
type MeshData struct {
	Vertices []r3.Vector
	Polygons [][]int
}

// Empty reports whether the mesh has no polygons.
func (m *MeshData) Empty() bool {
	return m == nil || len(m.Polygons) == 0
}

// Posable is anything that can evaluate an object's world transform at a time.
type Posable interface {
	Transform(ctx context.Context, name string, t Time) (mgl64.Mat4, error)
}

// Surfaced is anything that can evaluate an object's local surface at a time. A nil mesh
// means the object has no polygons at that time.
type Surfaced interface {
	Mesh(ctx context.Context, name string, t Time) (*MeshData, error)
}

// Margined is anything that carries an explicit contact margin.
type Margined interface {
	Margin() (float64, bool)
}

// Evaluator is the scene collaborator collisions are detected against. Implementations may keep
// an order dependent cache, so callers that need it valid must only advance time forward.
type Evaluator interface {
	Posable
	Surfaced
	FrameRate() FrameRate
	FrameRange() (start, end int)
	// Collection returns the objects grouped under name.
	Collection(ctx context.Context, name string) ([]ObjectConfig, error)
}

type collectionNotFoundError struct {
	name string
}

func (e *collectionNotFoundError) Error() string {
	return "collection \"" + e.name + "\" not found"
}

// NewCollectionNotFoundError is returned by evaluators asked for a collection they do not have.
func NewCollectionNotFoundError(name string) error {
	return &collectionNotFoundError{name}
}

// IsCollectionNotFoundError returns whether err, or any error it wraps, is a missing collection.
func IsCollectionNotFoundError(err error) bool {
	var target *collectionNotFoundError
	return errors.As(err, &target)
}

// NewObjectNotFoundError is returned by evaluators asked about an object they do not have.
func NewObjectNotFoundError(name string) error {
	return errors.Errorf("object %q not found", name)
}
