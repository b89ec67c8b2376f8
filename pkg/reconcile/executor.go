package reconcile

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/resource"
)

// Change is what a pass did, or would have done, to a resource.
type Change struct {
	ID          resource.ID `json:"id"`
	Action      string      `json:"action"`
	Description string      `json:"description,omitempty"`
}

// Describe says what carrying out the action does to the resource,
// e.g., "updated Secret kube-system/token". With ShowDiff set on the
// spec, the payload sent is included. A noop has no description.
func Describe(pass *Pass, action Action) string {
	spec := pass.Spec
	var verb, payload string
	switch action {
	case Create:
		verb, payload = "created", pass.Manifest.String()
	case Patch, Recreate:
		verb, payload = "updated", pass.Patch.String()
	case Delete:
		return fmt.Sprintf("removed %s %s", spec.Kind, spec.NiceName())
	default:
		return ""
	}
	if spec.ShowDiff {
		return fmt.Sprintf("%s %s %s with %s", verb, spec.Kind, spec.NiceName(), payload)
	}
	return fmt.Sprintf("%s %s %s", verb, spec.Kind, spec.NiceName())
}

// Execute carries out the action through the applier. Errors from the
// applier are returned as they are; nothing is retried or rolled back.
func Execute(ctx context.Context, applier cluster.Applier, pass *Pass, action Action) (Change, error) {
	spec := pass.Spec
	change := Change{ID: spec.ID(), Action: action.String(), Description: Describe(pass, action)}

	var err error
	switch action {
	case Noop:
	case Create:
		err = applier.Create(ctx, spec, pass.Manifest)
	case Patch:
		var patch []byte
		patch, err = pass.Patch.JSON()
		if err == nil {
			err = applier.Patch(ctx, spec, pass.Manifest, patch)
		}
	case Recreate:
		err = applier.Recreate(ctx, spec, pass.Manifest)
	case Delete:
		err = applier.Delete(ctx, spec)
	default:
		err = errors.Errorf("unknown action %d", action)
	}
	return change, err
}
