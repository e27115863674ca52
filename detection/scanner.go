package detection

import (
	"context"

	"github.com/golang/geo/r3"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/logging"
	"go.viam.com/contactscan/scene"
)

// contactState is the per-pair state of the coarse pass.
type contactState int

const (
	notTouching contactState = iota
	touching
)

// advance applies one sampled contact result to a pair's state. It reports an onset only on the
// transition from not touching to touching.
func advance(state contactState, inContact bool) (contactState, bool) {
	if !inContact {
		return notTouching, false
	}
	return touching, state == notTouching
}

// onset is a rising edge found by the coarse pass, with what was known at that frame.
type onset struct {
	pair  pair
	frame int

	contact          r3.Vector
	targetVelocity   r3.Vector
	colliderVelocity r3.Vector
}

// scanner is the coarse pass. It samples whole frames strictly in ascending order.
type scanner struct {
	sampler    *scene.Sampler
	test       collision.ContactTest
	epsilon    float64
	fps        float64
	start, end int
	logger     logging.Logger

	// checkpoint is called before every frame; a non-nil error aborts the scan.
	checkpoint func(ctx context.Context) error
}

// scan returns the onsets in the order they were found and the number of frames it completed.
// On error the onsets found so far are still returned.
func (s *scanner) scan(ctx context.Context, pairs []pair, objects []scene.ObjectConfig) ([]onset, int, error) {
	var onsets []onset
	states := make([]contactState, len(pairs))
	var prevOrigins map[string]r3.Vector
	frames := 0

	for frame := s.start; frame <= s.end; frame++ {
		if err := s.checkpoint(ctx); err != nil {
			return onsets, frames, err
		}
		t := scene.Time(frame)

		// every object is sampled before any pair is tested
		origins := make(map[string]r3.Vector, len(objects))
		proxies := make(map[string]*collision.Proxy, len(objects))
		for _, obj := range objects {
			obs, err := s.sampler.Observe(ctx, obj, t)
			if err != nil {
				return onsets, frames, newEvaluatorFailure(obj.Name, t, err)
			}
			origins[obj.Name] = obs.Origin
			proxies[obj.Name] = collision.NewProxy(obs.Snapshot, s.epsilon)
		}

		for i, p := range pairs {
			target, collider := proxies[p.target.Name], proxies[p.collider.Name]
			if target == nil || collider == nil {
				s.logger.CDebugw(ctx, "skipping pair with missing geometry", "pair", p.String(), "frame", frame)
				continue
			}
			var rising bool
			states[i], rising = advance(states[i], s.test.InContact(collider, target, p.threshold))
			if !rising {
				continue
			}
			colliderOrigin := origins[p.collider.Name]
			onsets = append(onsets, onset{
				pair:             p,
				frame:            frame,
				contact:          contactPoint(target, colliderOrigin),
				targetVelocity:   s.coarseVelocity(prevOrigins, origins, p.target.Name),
				colliderVelocity: s.coarseVelocity(prevOrigins, origins, p.collider.Name),
			})
			s.logger.CDebugw(ctx, "contact onset", "target", p.target.Name, "collider", p.collider.Name, "frame", frame)
		}
		prevOrigins = origins
		frames++
	}
	return onsets, frames, nil
}

// coarseVelocity is the whole-frame backward difference. It is zero on the first frame.
func (s *scanner) coarseVelocity(prev, cur map[string]r3.Vector, name string) r3.Vector {
	if prev == nil {
		return r3.Vector{}
	}
	return cur[name].Sub(prev[name]).Mul(s.fps)
}
