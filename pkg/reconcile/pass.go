package reconcile

import (
	"context"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/diff"
	"github.com/fluxcd/converge/pkg/document"
	"github.com/fluxcd/converge/pkg/resource"
)

// Pass holds everything learnt about one resource during one
// reconciliation pass. The observed state is fetched, and the patch
// computed, exactly once; both the converged check and the action
// read from here. A Pass is never reused for a later pass.
type Pass struct {
	Spec        resource.Spec
	Manifest    document.Value
	Observation cluster.Observation
	Patch       diff.Patch
}

// NewPass fetches the observed state of the resource and diffs the
// desired manifest against it. A resource that is not found has an
// empty patch.
func NewPass(ctx context.Context, fetcher cluster.Fetcher, spec resource.Spec) (*Pass, error) {
	manifest, err := spec.Manifest()
	if err != nil {
		return nil, err
	}
	obs, err := fetcher.Fetch(ctx, spec)
	if err != nil {
		return nil, err
	}
	pass := &Pass{
		Spec:        spec,
		Manifest:    manifest,
		Observation: obs,
	}
	if obs.Exists {
		pass.Patch = diff.Diff(manifest, obs.Object)
	}
	return pass, nil
}

// Exists reports whether the resource was found, whatever its
// content and whatever is declared for it.
func (p *Pass) Exists() bool {
	return p.Observation.Exists
}

func (p *Pass) Action() Action {
	return Decide(p.Spec.Ensure, p.Spec.Update, p.Spec.Recreate, p.Observation, p.Patch)
}

func (p *Pass) Converged() bool {
	return Converged(p.Spec.Ensure, p.Spec.Update, p.Observation, p.Patch)
}
