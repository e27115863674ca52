package detection

import (
	"context"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/scene"
)

// estimator measures both objects' velocities at a refined onset with a backward difference of
// half a substep.
type estimator struct {
	sampler  *scene.Sampler
	epsilon  float64
	fps      float64
	substeps int
	start    int
}

func (e *estimator) halfStep() float64 {
	return 0.5 / float64(e.substeps)
}

// estimate builds the event for o at the refined time t. The coarse velocities recorded with o
// are used when the difference has no width, which happens at the first frame.
func (e *estimator) estimate(ctx context.Context, o onset, t scene.Time) (CollisionEvent, error) {
	prevT := scene.Time(math.Max(float64(t)-e.halfStep(), float64(e.start)))
	dt := (float64(t) - float64(prevT)) / e.fps

	collider, err := e.sampler.Observe(ctx, o.pair.collider, t)
	if err != nil {
		return CollisionEvent{}, newEvaluatorFailure(o.pair.collider.Name, t, err)
	}
	target, err := e.sampler.Observe(ctx, o.pair.target, t)
	if err != nil {
		return CollisionEvent{}, newEvaluatorFailure(o.pair.target.Name, t, err)
	}

	targetVel, colliderVel := o.targetVelocity, o.colliderVelocity
	if dt > 0 {
		prevCollider, err := e.sampler.Origin(ctx, o.pair.collider, prevT)
		if err != nil {
			return CollisionEvent{}, newEvaluatorFailure(o.pair.collider.Name, prevT, err)
		}
		prevTarget, err := e.sampler.Origin(ctx, o.pair.target, prevT)
		if err != nil {
			return CollisionEvent{}, newEvaluatorFailure(o.pair.target.Name, prevT, err)
		}
		colliderVel = collider.Origin.Sub(prevCollider).Mul(1 / dt)
		targetVel = target.Origin.Sub(prevTarget).Mul(1 / dt)
	}

	contact := contactPoint(collision.NewProxy(target.Snapshot, e.epsilon), collider.Origin)
	return newEvent(o.pair, t, e.fps, contact, targetVel, colliderVel), nil
}

// contactPoint is the point of the target's surface nearest the collider's origin, or the
// collider's origin when the target has no surface.
func contactPoint(target *collision.Proxy, colliderOrigin r3.Vector) r3.Vector {
	if target == nil {
		return colliderOrigin
	}
	hit, ok := target.NearestPoint(colliderOrigin)
	if !ok {
		return colliderOrigin
	}
	return hit.Point
}

// coarseEvent finalizes an onset from what the coarse pass recorded at its frame.
func coarseEvent(o onset, fps float64) CollisionEvent {
	return newEvent(o.pair, scene.Time(o.frame), fps, o.contact, o.targetVelocity, o.colliderVelocity)
}

func newEvent(p pair, t scene.Time, fps float64, contact, targetVel, colliderVel r3.Vector) CollisionEvent {
	relative := targetVel.Sub(colliderVel)
	return CollisionEvent{
		Time:             t,
		WallClockTime:    float64(t) / fps,
		TargetID:         p.target.Name,
		ColliderID:       p.collider.Name,
		ContactPosition:  contact,
		TargetVelocity:   targetVel,
		ColliderVelocity: colliderVel,
		RelativeVelocity: relative,
		Speed:            relative.Norm(),
	}
}
