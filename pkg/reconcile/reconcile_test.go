package reconcile

import (
	"context"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/cluster/mock"
	"github.com/fluxcd/converge/pkg/diff"
	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/resource"
)

func TestDecide(t *testing.T) {
	found := cluster.Found(document.MustFromInterface(map[string]interface{}{"a": 1}))
	drift := diff.Diff(
		document.MustFromInterface(map[string]interface{}{"a": 2}),
		found.Object)
	require.False(t, drift.Empty())

	for _, entry := range []struct {
		ensure    resource.Ensure
		update    bool
		recreate  bool
		obs       cluster.Observation
		patch     diff.Patch
		action    Action
		converged bool
	}{
		{resource.Absent, true, false, found, diff.Patch{}, Delete, false},
		{resource.Absent, true, false, cluster.NotFound, diff.Patch{}, Noop, true},
		{resource.Present, true, false, cluster.NotFound, diff.Patch{}, Create, false},
		{resource.Present, true, true, cluster.NotFound, diff.Patch{}, Create, false},
		{resource.Present, false, false, found, drift, Noop, true},
		{resource.Present, true, false, found, diff.Patch{}, Noop, true},
		{resource.Present, true, false, found, drift, Patch, false},
		{resource.Present, true, true, found, drift, Recreate, false},
	} {
		name := string(entry.ensure) + "/" + entry.action.String()
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, entry.action, Decide(entry.ensure, entry.update, entry.recreate, entry.obs, entry.patch))
			assert.Equal(t, entry.converged, Converged(entry.ensure, entry.update, entry.obs, entry.patch))
		})
	}
}

func tokenSpec() resource.Spec {
	return resource.NewSpec("v1", "Secret", "bootstrap-token-example", "kube-system",
		document.MustFromInterface(map[string]interface{}{
			"metadata": map[string]interface{}{"finalizers": []interface{}{"puppet-example"}},
			"data":     map[string]interface{}{"token-id": "tokenid"},
		}))
}

func observedToken() document.Value {
	return document.MustFromInterface(map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata": map[string]interface{}{
			"name":            "bootstrap-token-example",
			"namespace":       "kube-system",
			"resourceVersion": "281179626",
		},
		"data": map[string]interface{}{"token-id": "oldid", "token-secret": "s"},
	})
}

func setup(dryRun bool) (*Reconciler, *mock.Cluster) {
	c := mock.NewCluster()
	return &Reconciler{Boundary: c, Logger: log.NewNopLogger(), DryRun: dryRun}, c
}

func TestReconcileCreates(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	spec.ShowDiff = true

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.False(t, result.Converged)
	assert.Equal(t, "create", result.Action)
	assert.Equal(t, `created Secret kube-system/bootstrap-token-example with {"apiVersion":"v1","data":{"token-id":"tokenid"},"kind":"Secret","metadata":{"finalizers":["puppet-example"],"name":"bootstrap-token-example","namespace":"kube-system"}}`, result.Description)
	assert.Equal(t, []string{"fetch", "create"}, c.Verbs())

	obj, ok := c.Get(spec)
	require.True(t, ok)
	name, _ := obj.Lookup("metadata", "name")
	assert.Equal(t, "bootstrap-token-example", name.Scalar())

	// and then there's nothing to do
	result, err = r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, "noop", result.Action)
	assert.Empty(t, result.Description)
	assert.Equal(t, []string{"fetch", "create", "fetch"}, c.Verbs())
}

func TestReconcilePatches(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	c.Put(spec, observedToken())

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "patch", result.Action)
	assert.Equal(t, "updated Secret kube-system/bootstrap-token-example", result.Description)

	calls := c.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, `{"data":{"token-id":"tokenid"},"metadata":{"finalizers":["puppet-example"]}}`, calls[1].Patch)

	// the observed-only secret survives the patch
	obj, _ := c.Get(spec)
	secret, ok := obj.Lookup("data", "token-secret")
	require.True(t, ok)
	assert.Equal(t, "s", secret.Scalar())

	result, err = r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, result.Converged)
}

func TestReconcilePatchDescriptionWithDiff(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	spec.ShowDiff = true
	c.Put(spec, observedToken())

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, `updated Secret kube-system/bootstrap-token-example with {"data":{"token-id":"tokenid"},"metadata":{"finalizers":["puppet-example"]}}`, result.Description)
}

func TestReconcileRecreates(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	spec.Recreate = true
	c.Put(spec, observedToken())

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "recreate", result.Action)
	assert.Equal(t, "updated Secret kube-system/bootstrap-token-example", result.Description)
	assert.Equal(t, []string{"fetch", "recreate"}, c.Verbs())

	// recreated from the full manifest, so the observed-only secret is gone
	obj, _ := c.Get(spec)
	_, ok := obj.Lookup("data", "token-secret")
	assert.False(t, ok)
}

func TestReconcileNoUpdate(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	spec.Update = false
	c.Put(spec, observedToken())

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, []string{"fetch"}, c.Verbs())
}

func TestReconcileRemoves(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	spec.Ensure = resource.Absent
	c.Put(spec, observedToken())

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "delete", result.Action)
	assert.Equal(t, "removed Secret kube-system/bootstrap-token-example", result.Description)
	assert.True(t, result.Exists)
	assert.False(t, result.Converged)

	result, err = r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.True(t, result.Converged)
	assert.Equal(t, []string{"fetch", "delete", "fetch"}, c.Verbs())
}

func TestReconcileDryRun(t *testing.T) {
	r, c := setup(true)
	spec := tokenSpec()
	c.Put(spec, observedToken())

	result, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, "patch", result.Action)
	assert.Equal(t, "updated Secret kube-system/bootstrap-token-example", result.Description)
	assert.Equal(t, []string{"fetch"}, c.Verbs())
}

func TestReconcileValidatesFirst(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	spec.Content = document.MustFromInterface(map[string]interface{}{"kind": "ConfigMap"})

	_, err := r.Reconcile(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, fluxerr.IsUser(err))
	assert.Empty(t, c.Calls())
}

func TestReconcileFetchFailure(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	c.Fail["fetch"] = fluxerr.ExecutionError("kubectl get", errors.New("Unauthorized"))

	_, err := r.Reconcile(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, fluxerr.IsServer(err))
	// never treated as not found
	assert.Equal(t, []string{"fetch"}, c.Verbs())
}

func TestReconcileActionFailure(t *testing.T) {
	r, c := setup(false)
	spec := tokenSpec()
	c.Fail["create"] = fluxerr.ExecutionError("kubectl create", errors.New("Forbidden"))

	result, err := r.Reconcile(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, "create", result.Action)
	_, ok := c.Get(spec)
	assert.False(t, ok)
}

func TestPassFetchesOnce(t *testing.T) {
	fetches := 0
	m := &mock.Mock{
		FetchFunc: func(ctx context.Context, spec resource.Spec) (cluster.Observation, error) {
			fetches++
			return cluster.Found(observedToken()), nil
		},
	}
	pass, err := NewPass(context.Background(), m, tokenSpec())
	require.NoError(t, err)
	assert.False(t, pass.Converged())
	assert.Equal(t, Patch, pass.Action())
	assert.False(t, pass.Patch.Empty())
	assert.Equal(t, 1, fetches)
}
