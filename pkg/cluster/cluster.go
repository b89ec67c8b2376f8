package cluster

import (
	"context"

	"github.com/fluxcd/converge/pkg/document"
	"github.com/fluxcd/converge/pkg/resource"
)

// Observation is what was found when the state of a resource was
// fetched. A resource that does not exist is a legitimate
// observation, not an error.
type Observation struct {
	Exists bool
	Object document.Value
}

// NotFound is the observation of an absent resource.
var NotFound = Observation{}

// Found is the observation of an existing resource.
func Found(obj document.Value) Observation {
	return Observation{Exists: true, Object: obj}
}

// Fetcher retrieves the observed state of a resource. Any failure
// other than the resource not existing is returned as an error; it is
// never reported as NotFound.
type Fetcher interface {
	Fetch(ctx context.Context, spec resource.Spec) (Observation, error)
}

// Applier carries out corrective actions against the external system.
type Applier interface {
	// Create submits the full manifest of a resource that does not exist.
	Create(ctx context.Context, spec resource.Spec, manifest document.Value) error
	// Patch submits a merge patch against an existing resource. The
	// manifest identifies the resource.
	Patch(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error
	// Delete removes a resource by its identity. Deleting a resource
	// that is already gone is not an error.
	Delete(ctx context.Context, spec resource.Spec) error
	// Recreate removes the resource without waiting, orphaning any
	// dependents, then creates it from the full manifest.
	Recreate(ctx context.Context, spec resource.Spec, manifest document.Value) error
}

// Boundary is everything a reconciliation pass needs from the
// external system.
type Boundary interface {
	Fetcher
	Applier
}
