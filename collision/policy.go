package collision

import (
	"github.com/pkg/errors"
)

// Policy names a contact test.
type Policy string

// Known policies.
const (
	PolicyOverlap         Policy = "overlap"
	PolicySurfaceDistance Policy = "surface_distance"
)

// DefaultBounces is the number of nearest-point queries the surface distance test makes.
const DefaultBounces = 2

// ContactTest decides whether two proxies are in contact. collider and target may be nil when an
// object has no geometry; a test never reports contact with a missing surface.
type ContactTest interface {
	InContact(collider, target *Proxy, threshold float64) bool
}

// NewContactTest returns the test for the policy. bounces only applies to the surface distance
// policy and defaults to DefaultBounces when zero.
func NewContactTest(policy Policy, bounces int) (ContactTest, error) {
	switch policy {
	case PolicyOverlap:
		return OverlapTest{}, nil
	case PolicySurfaceDistance:
		if bounces == 0 {
			bounces = DefaultBounces
		}
		if bounces < DefaultBounces {
			return nil, errors.Errorf("surface distance test needs at least %d bounces, got %d", DefaultBounces, bounces)
		}
		return SurfaceDistanceTest{Bounces: bounces}, nil
	default:
		return nil, errors.Errorf("unknown contact policy %q", policy)
	}
}

// OverlapTest reports contact when any pair of triangles is within the proxies' epsilons. The
// threshold is ignored.
type OverlapTest struct{}

// InContact implements ContactTest.
func (OverlapTest) InContact(collider, target *Proxy, threshold float64) bool {
	if collider == nil || target == nil {
		return false
	}
	return collider.Overlaps(target)
}

// SurfaceDistanceTest approximates the gap between the two surfaces by bouncing nearest-point
// queries between them, starting from the collider's origin, and reports contact when the gap is
// within the threshold. The result is exact for convex surfaces; on concave ones the bounce can
// settle in a local minimum.
type SurfaceDistanceTest struct {
	Bounces int
}

// InContact implements ContactTest.
func (s SurfaceDistanceTest) InContact(collider, target *Proxy, threshold float64) bool {
	gap, ok := s.Gap(collider, target)
	return ok && gap <= threshold
}

// Gap returns the approximate surface gap. Interpenetrating surfaces have a gap of zero. ok is
// false when either proxy is missing or empty.
func (s SurfaceDistanceTest) Gap(collider, target *Proxy) (float64, bool) {
	if collider == nil || target == nil {
		return 0, false
	}
	if collider.Intersects(target) {
		return 0, true
	}
	bounces := s.Bounces
	if bounces < DefaultBounces {
		bounces = DefaultBounces
	}

	onTarget, ok := target.NearestPoint(collider.Origin())
	if !ok {
		return 0, false
	}
	onCollider, ok := collider.NearestPoint(onTarget.Point)
	if !ok {
		return 0, false
	}
	gap := onCollider.Point.Sub(onTarget.Point).Norm()
	for i := DefaultBounces; i < bounces; i++ {
		// the third bounce lands on the target, the fourth on the collider, and so on
		if i%2 == 0 {
			onTarget, _ = target.NearestPoint(onCollider.Point)
		} else {
			onCollider, _ = collider.NearestPoint(onTarget.Point)
		}
		if d := onCollider.Point.Sub(onTarget.Point).Norm(); d < gap {
			gap = d
		}
	}
	return gap, true
}
