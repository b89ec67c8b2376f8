package reconcile

import (
	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/diff"
	"github.com/fluxcd/converge/pkg/resource"
)

// Action is the corrective step a pass takes.
type Action int

const (
	Noop Action = iota
	Create
	Patch
	Recreate
	Delete
)

func (a Action) String() string {
	switch a {
	case Noop:
		return "noop"
	case Create:
		return "create"
	case Patch:
		return "patch"
	case Recreate:
		return "recreate"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Decide maps the lifecycle intent and what was found to an action.
// The patch is only consulted when the resource exists.
//
//	ensure   found  update  patch      recreate  action
//	absent   yes    -       -          -         delete
//	absent   no     -       -          -         noop
//	present  no     -       -          -         create
//	present  yes    no      -          -         noop
//	present  yes    yes     empty      -         noop
//	present  yes    yes     non-empty  no        patch
//	present  yes    yes     non-empty  yes       recreate
func Decide(ensure resource.Ensure, update, recreate bool, obs cluster.Observation, patch diff.Patch) Action {
	if ensure == resource.Absent {
		if obs.Exists {
			return Delete
		}
		return Noop
	}
	switch {
	case !obs.Exists:
		return Create
	case !update, patch.Empty():
		return Noop
	case recreate:
		return Recreate
	}
	return Patch
}

// Converged says whether there is nothing to do: for a resource to be
// absent, that it was not found; for one to be present, that it was
// found and either is not to be updated or has no drift.
func Converged(ensure resource.Ensure, update bool, obs cluster.Observation, patch diff.Patch) bool {
	return Decide(ensure, update, false, obs, patch) == Noop
}
