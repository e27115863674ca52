// Package collision implements the per-instant contact tests between two sampled objects: the
// bounding volume proxy built over a snapshot, the interchangeable contact policies, and the
// per-pair contact thresholds.
package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/contactscan/scene"
	"go.viam.com/contactscan/spatialmath"
)

// Proxy is a spatial index over one object's world-space surface at one instant. It is
// immutable and only meaningful for the instant it was built for.
type Proxy struct {
	object string
	origin r3.Vector
	bvh    *spatialmath.BVH
}

// NewProxy builds a proxy over the snapshot with node bounds inflated by epsilon. A nil snapshot
// yields a nil proxy.
func NewProxy(snap *scene.Snapshot, epsilon float64) *Proxy {
	if snap == nil || snap.Mesh == nil {
		return nil
	}
	return &Proxy{
		object: snap.Object,
		origin: snap.Origin,
		bvh:    snap.Mesh.BVH(epsilon),
	}
}

// Object returns the name of the object the proxy was built for.
func (p *Proxy) Object() string {
	return p.object
}

// Origin returns the world position of the object's origin, its reference position.
func (p *Proxy) Origin() r3.Vector {
	return p.origin
}

// Len returns the number of triangles indexed.
func (p *Proxy) Len() int {
	return p.bvh.Len()
}

// Overlap returns the triangle pairs whose surfaces are within both proxies' epsilons.
func (p *Proxy) Overlap(other *Proxy) []spatialmath.TrianglePair {
	return p.bvh.Overlap(other.bvh)
}

// Overlaps reports whether Overlap would be non-empty.
func (p *Proxy) Overlaps(other *Proxy) bool {
	return p.bvh.Overlaps(other.bvh)
}

// Intersects reports whether the two surfaces literally touch, with no epsilon.
func (p *Proxy) Intersects(other *Proxy) bool {
	return p.bvh.Intersects(other.bvh)
}

// NearestPoint returns the closest surface point to q. ok is false only for an empty proxy.
func (p *Proxy) NearestPoint(q r3.Vector) (spatialmath.NearestHit, bool) {
	return p.bvh.NearestPoint(q)
}
