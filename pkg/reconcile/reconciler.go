// Package reconcile brings one resource at a time into agreement with
// its declaration: fetch what is there, diff it against what is
// wanted, decide on an action, and carry it out.
package reconcile

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/metrics"
	"github.com/fluxcd/converge/pkg/resource"
)

// Result reports one pass over one resource.
type Result struct {
	Change
	// Exists is true if the resource was found at the start of the
	// pass, regardless of its content.
	Exists bool `json:"exists"`
	// Converged is true if nothing needed doing.
	Converged bool `json:"converged"`
	// DryRun is true if the change was described but not carried out.
	DryRun bool `json:"dryRun,omitempty"`
}

// Reconciler runs passes against a boundary. Passes are synchronous
// and share nothing; a Reconciler may be used for any number of them.
type Reconciler struct {
	Boundary cluster.Boundary
	Logger   log.Logger
	DryRun   bool
}

// Reconcile runs a single pass for the spec. The spec is validated
// before anything is asked of the boundary. The first error ends the
// pass.
func (r *Reconciler) Reconcile(ctx context.Context, spec resource.Spec) (result Result, err error) {
	action := Noop
	started := time.Now()
	defer func() {
		passDuration.With(
			metrics.LabelAction, action.String(),
			metrics.LabelSuccess, metrics.SuccessLabelValue(err),
		).Observe(time.Since(started).Seconds())
		r.Logger.Log("resource", spec.ID(), "action", action, "dry-run", r.DryRun, "took", time.Since(started), "err", err)
	}()

	if err = spec.Validate(); err != nil {
		return Result{}, err
	}
	pass, err := NewPass(ctx, r.Boundary, spec)
	if err != nil {
		return Result{}, err
	}
	action = pass.Action()
	result = Result{Exists: pass.Exists(), Converged: pass.Converged(), DryRun: r.DryRun}
	if r.DryRun {
		result.Change = Change{ID: spec.ID(), Action: action.String(), Description: Describe(pass, action)}
		return result, nil
	}
	result.Change, err = Execute(ctx, r.Boundary, pass, action)
	return result, err
}
