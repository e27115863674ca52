package detection

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/contactscan/collision"
	"go.viam.com/contactscan/scene"
)

// pair is an ordered (target, collider) pair with its contact threshold.
type pair struct {
	target    scene.ObjectConfig
	collider  scene.ObjectConfig
	threshold float64
}

func (p pair) String() string {
	return p.target.Name + "/" + p.collider.Name
}

// resolveGroup returns the mesh objects of the named collection.
func resolveGroup(ctx context.Context, ev scene.Evaluator, name string) ([]scene.ObjectConfig, error) {
	objs, err := ev.Collection(ctx, name)
	if err != nil {
		if scene.IsCollectionNotFoundError(err) {
			return nil, NewConfigurationError(err)
		}
		return nil, newEvaluatorFailure(name, 0, err)
	}
	meshes := lo.Filter(objs, func(obj scene.ObjectConfig, _ int) bool {
		return obj.Kind == scene.KindMesh
	})
	if len(meshes) == 0 {
		return nil, NewConfigurationError(errors.Errorf("collection %q has no mesh objects", name))
	}
	return meshes, nil
}

// buildPairs crosses targets with colliders, skipping an object paired with itself, and computes
// each pair's threshold once.
func buildPairs(targets, colliders []scene.ObjectConfig, defaultMargin, epsilon float64) []pair {
	pairs := make([]pair, 0, len(targets)*len(colliders))
	for _, t := range targets {
		for _, c := range colliders {
			if t.Name == c.Name {
				continue
			}
			pairs = append(pairs, pair{
				target:    t,
				collider:  c,
				threshold: collision.Threshold(t, c, defaultMargin, epsilon),
			})
		}
	}
	return pairs
}

// distinctObjects returns every object that appears in a pair, once, in first-seen order.
func distinctObjects(pairs []pair) []scene.ObjectConfig {
	all := make([]scene.ObjectConfig, 0, 2*len(pairs))
	for _, p := range pairs {
		all = append(all, p.target, p.collider)
	}
	return lo.UniqBy(all, func(obj scene.ObjectConfig) string { return obj.Name })
}
