package mock

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/resource"
)

// Mock is a cluster.Boundary built from funcs; leave unused funcs nil.
type Mock struct {
	FetchFunc    func(ctx context.Context, spec resource.Spec) (cluster.Observation, error)
	CreateFunc   func(ctx context.Context, spec resource.Spec, manifest document.Value) error
	PatchFunc    func(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error
	DeleteFunc   func(ctx context.Context, spec resource.Spec) error
	RecreateFunc func(ctx context.Context, spec resource.Spec, manifest document.Value) error
}

var _ cluster.Boundary = &Mock{}

func (m *Mock) Fetch(ctx context.Context, spec resource.Spec) (cluster.Observation, error) {
	return m.FetchFunc(ctx, spec)
}

func (m *Mock) Create(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	return m.CreateFunc(ctx, spec, manifest)
}

func (m *Mock) Patch(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error {
	return m.PatchFunc(ctx, spec, manifest, patch)
}

func (m *Mock) Delete(ctx context.Context, spec resource.Spec) error {
	return m.DeleteFunc(ctx, spec)
}

func (m *Mock) Recreate(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	return m.RecreateFunc(ctx, spec, manifest)
}

// Call is one invocation recorded by a Cluster.
type Call struct {
	Verb  string
	ID    resource.ID
	Patch string
}

// Cluster is an in-memory cluster.Boundary which records each call
// made of it. Patches are applied as merge patches. An error put in
// Fail under a verb ("fetch", "create", ...) is returned from every
// call of that verb instead.
type Cluster struct {
	Fail map[string]error

	mu      sync.Mutex
	objects map[resource.ID]document.Value
	calls   []Call
}

var _ cluster.Boundary = &Cluster{}

func NewCluster() *Cluster {
	return &Cluster{
		Fail:    map[string]error{},
		objects: map[resource.ID]document.Value{},
	}
}

// Put stores an object as if it were already in the cluster, without
// recording a call.
func (c *Cluster) Put(spec resource.Spec, obj document.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[spec.ID()] = obj
}

// Get returns the stored object, if any, without recording a call.
func (c *Cluster) Get(spec resource.Spec) (document.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[spec.ID()]
	return obj, ok
}

// Calls returns the calls recorded so far, in order.
func (c *Cluster) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Verbs returns just the verbs of the calls recorded so far.
func (c *Cluster) Verbs() []string {
	var verbs []string
	for _, call := range c.Calls() {
		verbs = append(verbs, call.Verb)
	}
	return verbs
}

func (c *Cluster) record(verb string, spec resource.Spec, patch []byte) error {
	c.calls = append(c.calls, Call{Verb: verb, ID: spec.ID(), Patch: string(patch)})
	return c.Fail[verb]
}

func (c *Cluster) Fetch(ctx context.Context, spec resource.Spec) (cluster.Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("fetch", spec, nil); err != nil {
		return cluster.Observation{}, err
	}
	obj, ok := c.objects[spec.ID()]
	if !ok {
		return cluster.NotFound, nil
	}
	return cluster.Found(obj), nil
}

func (c *Cluster) Create(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("create", spec, nil); err != nil {
		return err
	}
	if _, ok := c.objects[spec.ID()]; ok {
		return fluxerr.ExecutionError("create "+spec.ID().String(), errors.New("already exists"))
	}
	c.objects[spec.ID()] = manifest
	return nil
}

func (c *Cluster) Patch(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("patch", spec, patch); err != nil {
		return err
	}
	obj, ok := c.objects[spec.ID()]
	if !ok {
		return fluxerr.MissingError(spec.ID().String(), errors.New("not found"))
	}
	p, err := document.ParseJSON(patch)
	if err != nil {
		return err
	}
	patched, err := document.MergePatch(obj, p)
	if err != nil {
		return err
	}
	c.objects[spec.ID()] = patched
	return nil
}

func (c *Cluster) Delete(ctx context.Context, spec resource.Spec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("delete", spec, nil); err != nil {
		return err
	}
	delete(c.objects, spec.ID())
	return nil
}

func (c *Cluster) Recreate(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("recreate", spec, nil); err != nil {
		return err
	}
	c.objects[spec.ID()] = manifest
	return nil
}
