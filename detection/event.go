package detection

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/scene"
)

// CollisionEvent is the first instant of one contact episode between a target and a collider.
// Velocities are in scene units per second.
type CollisionEvent struct {
	// Time is the fractional frame of the onset.
	Time scene.Time
	// WallClockTime is Time in seconds from frame zero.
	WallClockTime float64
	TargetID      string
	ColliderID    string
	// ContactPosition is the point on the target's surface nearest the collider's origin.
	ContactPosition  r3.Vector
	TargetVelocity   r3.Vector
	ColliderVelocity r3.Vector
	// RelativeVelocity is TargetVelocity - ColliderVelocity and Speed its magnitude.
	RelativeVelocity r3.Vector
	Speed            float64
}

// Report is the result of a scan.
type Report struct {
	ScanID   uuid.UUID
	Events   []CollisionEvent
	Metadata Metadata
}

// Metadata records the settings a scan ran with and what it did.
type Metadata struct {
	Epsilon       float64
	FrameRate     scene.FrameRate
	FrameStart    int
	FrameEnd      int
	Targets       string
	Colliders     string
	ContactPolicy collision.Policy
	PrecisionMode bool
	Substeps      int

	StartedAt      time.Time
	CoarseDuration time.Duration
	RefineDuration time.Duration
	FramesScanned  int
	Pairs          int
	CoarseOnsets   int
}

// Elapsed returns how long the scan took in total.
func (m Metadata) Elapsed() time.Duration {
	return m.CoarseDuration + m.RefineDuration
}
