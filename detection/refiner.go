package detection

import (
	"context"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/scene"
	"go.viam.com/contactscan/utils"
)

// refinedPlaces is the number of decimal places a refined onset time is rounded to.
const refinedPlaces = 4

// refiner narrows a coarse onset at frame F down to a sub-frame time in (F-1, F] by bisection.
type refiner struct {
	sampler  *scene.Sampler
	test     collision.ContactTest
	epsilon  float64
	substeps int
	start    int
}

// iterations is the number of halvings needed to get the bracket below 1/substeps of a frame.
func (r *refiner) iterations() int {
	n := utils.CeilLog2(r.substeps)
	if n < 1 {
		return 1
	}
	return n
}

// refine returns the earliest sampled time at which the pair was found in contact. Onsets on the
// first frame have no earlier frame to search and are returned as is.
func (r *refiner) refine(ctx context.Context, o onset) (scene.Time, error) {
	if o.frame <= r.start {
		return scene.Time(o.frame), nil
	}
	lo, hi := float64(o.frame-1), float64(o.frame)
	for i := 0; i < r.iterations(); i++ {
		mid := (lo + hi) / 2
		inContact, err := r.contactAt(ctx, o.pair, scene.Time(mid))
		if err != nil {
			return 0, err
		}
		if inContact {
			hi = mid
		} else {
			lo = mid
		}
	}
	refined := utils.RoundTo(hi, refinedPlaces)
	if floor := float64(o.frame - 1); refined <= floor {
		refined = floor + 1e-4
	}
	return scene.Time(refined), nil
}

// contactAt samples both objects at t. Missing geometry counts as not in contact.
func (r *refiner) contactAt(ctx context.Context, p pair, t scene.Time) (bool, error) {
	collider, err := r.sampler.Sample(ctx, p.collider, t)
	if err != nil {
		return false, newEvaluatorFailure(p.collider.Name, t, err)
	}
	target, err := r.sampler.Sample(ctx, p.target, t)
	if err != nil {
		return false, newEvaluatorFailure(p.target.Name, t, err)
	}
	return r.test.InContact(collision.NewProxy(collider, r.epsilon), collision.NewProxy(target, r.epsilon), p.threshold), nil
}
