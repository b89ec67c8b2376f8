package kubernetes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/metrics"
	"github.com/fluxcd/converge/pkg/resource"
)

type connection struct {
	client dynamic.Interface
	mapper meta.RESTMapper
	// for namespaced resources declared without a namespace
	fallbackNamespace string
}

// Dynamic reaches the cluster through the API server directly, using
// the dynamic client. A connection is made, and kept, per kubeconfig
// path named by the resources reconciled.
type Dynamic struct {
	logger  log.Logger
	connect func(kubeconfig string) (connection, error)

	mu    sync.Mutex
	conns map[string]connection
}

var _ cluster.Boundary = &Dynamic{}

// NewDynamic returns a boundary that uses the given client and mapper
// for every resource, whatever kubeconfig it names.
func NewDynamic(client dynamic.Interface, mapper meta.RESTMapper, logger log.Logger) *Dynamic {
	conn := connection{client: client, mapper: mapper, fallbackNamespace: defaultFallbackNamespace}
	return &Dynamic{
		logger:  logger,
		connect: func(string) (connection, error) { return conn, nil },
		conns:   map[string]connection{},
	}
}

// NewDynamicFromKubeconfig returns a boundary that loads client
// configuration from the kubeconfig named by each resource, falling
// back to defaultKubeconfig and then to the usual client-go loading
// rules ($KUBECONFIG, ~/.kube/config).
func NewDynamicFromKubeconfig(defaultKubeconfig string, logger log.Logger) *Dynamic {
	return &Dynamic{
		logger: logger,
		connect: func(path string) (connection, error) {
			if path == "" {
				path = defaultKubeconfig
			}
			rules := clientcmd.NewDefaultClientConfigLoadingRules()
			rules.ExplicitPath = path
			restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
			if err != nil {
				return connection{}, errors.Wrap(err, "loading client configuration")
			}
			client, err := dynamic.NewForConfig(restConfig)
			if err != nil {
				return connection{}, errors.Wrap(err, "creating dynamic client")
			}
			disco, err := discovery.NewDiscoveryClientForConfig(restConfig)
			if err != nil {
				return connection{}, errors.Wrap(err, "creating discovery client")
			}
			mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disco))
			namespace, err := fallbackNamespace(path)
			if err != nil {
				return connection{}, errors.Wrap(err, "finding default namespace")
			}
			return connection{client: client, mapper: mapper, fallbackNamespace: namespace}, nil
		},
		conns: map[string]connection{},
	}
}

func (d *Dynamic) connection(kubeconfig string) (connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if conn, ok := d.conns[kubeconfig]; ok {
		return conn, nil
	}
	conn, err := d.connect(kubeconfig)
	if err != nil {
		return connection{}, err
	}
	d.conns[kubeconfig] = conn
	return conn, nil
}

// resourceClient resolves the kind of the spec to an API resource,
// scoped to the namespace if the resource is namespaced.
func (d *Dynamic) resourceClient(spec resource.Spec) (dynamic.ResourceInterface, error) {
	conn, err := d.connection(spec.Kubeconfig)
	if err != nil {
		return nil, err
	}
	gv, err := schema.ParseGroupVersion(spec.APIVersion)
	if err != nil {
		return nil, err
	}
	mapping, err := conn.mapper.RESTMapping(schema.GroupKind{Group: gv.Group, Kind: spec.Kind}, gv.Version)
	if err != nil {
		return nil, err
	}
	client := conn.client.Resource(mapping.Resource)
	if mapping.Scope.Name() != meta.RESTScopeNameNamespace {
		return client, nil
	}
	namespace := spec.Namespace
	if namespace == "" {
		namespace = conn.fallbackNamespace
	}
	return client.Namespace(namespace), nil
}

func (d *Dynamic) Fetch(ctx context.Context, spec resource.Spec) (cluster.Observation, error) {
	var obj *unstructured.Unstructured
	err := d.request(spec, "get", func(client dynamic.ResourceInterface) (err error) {
		obj, err = client.Get(ctx, spec.Name, metav1.GetOptions{})
		return err
	})
	switch {
	case fluxerr.IsMissing(err):
		return cluster.NotFound, nil
	case err != nil:
		return cluster.Observation{}, err
	}
	value, err := document.FromInterface(obj.Object)
	if err != nil {
		return cluster.Observation{}, fluxerr.ExecutionError("reading "+spec.ID().String(), err)
	}
	return cluster.Found(value), nil
}

func (d *Dynamic) Create(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	obj, err := toUnstructured(manifest)
	if err != nil {
		return fluxerr.ExecutionError("encoding manifest for "+spec.ID().String(), err)
	}
	return d.request(spec, "create", func(client dynamic.ResourceInterface) error {
		_, err := client.Create(ctx, obj, metav1.CreateOptions{})
		return err
	})
}

func (d *Dynamic) Patch(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error {
	return d.request(spec, "patch", func(client dynamic.ResourceInterface) error {
		_, err := client.Patch(ctx, spec.Name, types.MergePatchType, patch, metav1.PatchOptions{})
		return err
	})
}

func (d *Dynamic) Delete(ctx context.Context, spec resource.Spec) error {
	err := d.request(spec, "delete", func(client dynamic.ResourceInterface) error {
		return client.Delete(ctx, spec.Name, metav1.DeleteOptions{})
	})
	if fluxerr.IsMissing(err) {
		return nil
	}
	return err
}

func (d *Dynamic) Recreate(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	orphan := metav1.DeletePropagationOrphan
	err := d.request(spec, "delete", func(client dynamic.ResourceInterface) error {
		return client.Delete(ctx, spec.Name, metav1.DeleteOptions{PropagationPolicy: &orphan})
	})
	if err != nil && !fluxerr.IsMissing(err) {
		return err
	}
	return d.Create(ctx, spec, manifest)
}

// request runs one API call, translating not-found into a Missing
// error and everything else into an execution failure.
func (d *Dynamic) request(spec resource.Spec, verb string, f func(dynamic.ResourceInterface) error) error {
	begin := time.Now()
	client, err := d.resourceClient(spec)
	if err == nil {
		err = f(client)
	}
	took := time.Since(begin)

	switch {
	case err == nil:
	case apierrors.IsNotFound(err):
		err = ObjectMissingError(spec.ID().String(), err)
	default:
		err = fluxerr.ExecutionError(fmt.Sprintf("%s %s", verb, spec.ID()), err)
	}
	apiRequestDuration.With(
		metrics.LabelVerb, verb,
		metrics.LabelSuccess, metrics.SuccessLabelValue(err),
	).Observe(took.Seconds())
	d.logger.Log("verb", verb, "resource", spec.ID(), "took", took, "err", err)
	return err
}

// toUnstructured goes by way of JSON so that numbers end up as the
// int64 and float64 values the API machinery expects.
func toUnstructured(manifest document.Value) (*unstructured.Unstructured, error) {
	payload, err := manifest.MarshalJSON()
	if err != nil {
		return nil, err
	}
	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(payload); err != nil {
		return nil, err
	}
	return obj, nil
}
