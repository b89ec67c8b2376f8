package kubernetes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/fluxcd/converge/pkg/document"
	"github.com/fluxcd/converge/pkg/resource"
)

const contextNamespaceKubeconfig = `apiVersion: v1
clusters: []
contexts:
- context:
    cluster: cluster
    namespace: ops
    user: user
  name: context
current-context: context
kind: Config
preferences: {}
users: []
`

const noNamespaceKubeconfig = `apiVersion: v1
clusters: []
contexts:
- context:
    cluster: cluster
    user: user
  name: context
current-context: context
kind: Config
preferences: {}
users: []
`

func TestFallbackNamespace(t *testing.T) {
	for name, entry := range map[string]struct {
		kubeconfig string
		expected   string
	}{
		"context namespace": {contextNamespaceKubeconfig, "ops"},
		"no namespace":      {noNamespaceKubeconfig, defaultFallbackNamespace},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "kubeconfig")
			require.NoError(t, os.WriteFile(path, []byte(entry.kubeconfig), 0600))

			ns, err := fallbackNamespace(path)
			require.NoError(t, err)
			assert.Equal(t, entry.expected, ns)
		})
	}
}

func TestFallbackNamespaceMissingFile(t *testing.T) {
	_, err := fallbackNamespace(filepath.Join(t.TempDir(), "nonexistent"))
	assert.Error(t, err)
}

func TestDynamicUsesFallbackNamespace(t *testing.T) {
	secret := existingSecret()
	secret.SetNamespace("ops")
	client := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{secretsGVR: "SecretList"}, secret)
	conn := connection{client: client, mapper: testMapper(), fallbackNamespace: "ops"}
	d := &Dynamic{
		logger:  log.NewNopLogger(),
		connect: func(string) (connection, error) { return conn, nil },
		conns:   map[string]connection{},
	}

	spec := resource.NewSpec("v1", "Secret", "bootstrap-token-example", "", document.NullValue())
	obs, err := d.Fetch(context.Background(), spec)
	require.NoError(t, err)
	require.True(t, obs.Exists)
	ns, ok := obs.Object.Lookup("metadata", "namespace")
	require.True(t, ok)
	assert.Equal(t, "ops", ns.Scalar())
}
