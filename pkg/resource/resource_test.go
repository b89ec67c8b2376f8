package resource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
)

func tokenContent() document.Value {
	return document.MustFromInterface(map[string]interface{}{
		"type": "bootstrap.kubernetes.io/token",
		"data": map[string]interface{}{
			"token-id":     "tokenid",
			"token-secret": "tokensecret",
		},
	})
}

func TestManifestInjectsIdentity(t *testing.T) {
	spec := NewSpec("v1", "Secret", "bootstrap-token-example", "kube-system", tokenContent())
	manifest, err := spec.Manifest()
	require.NoError(t, err)

	want := document.MustFromInterface(map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata": map[string]interface{}{
			"name":      "bootstrap-token-example",
			"namespace": "kube-system",
		},
		"type": "bootstrap.kubernetes.io/token",
		"data": map[string]interface{}{
			"token-id":     "tokenid",
			"token-secret": "tokensecret",
		},
	})
	assert.True(t, want.Equal(manifest), "got %s", manifest)
}

func TestManifestKeepsDeclaredMetadata(t *testing.T) {
	content := document.MustFromInterface(map[string]interface{}{
		"metadata": map[string]interface{}{
			"name":        "someone-else",
			"labels":      map[string]interface{}{"k8s-app": "kube-dns"},
			"annotations": map[string]interface{}{"prometheus.io/port": "9153"},
		},
	})
	spec := NewSpec("v1", "Service", "kube-dns", "", content)
	manifest, err := spec.Manifest()
	require.NoError(t, err)

	name, _ := manifest.Lookup("metadata", "name")
	assert.Equal(t, "kube-dns", name.Scalar())
	_, hasNamespace := manifest.Lookup("metadata", "namespace")
	assert.False(t, hasNamespace)
	label, ok := manifest.Lookup("metadata", "labels", "k8s-app")
	require.True(t, ok)
	assert.Equal(t, "kube-dns", label.Scalar())

	// the declared content is left alone
	declared, _ := spec.Content.Lookup("metadata", "name")
	assert.Equal(t, "someone-else", declared.Scalar())
}

func TestManifestWithoutContent(t *testing.T) {
	spec := NewSpec("v1", "Namespace", "monitoring", "", document.NullValue())
	manifest, err := spec.Manifest()
	require.NoError(t, err)
	assert.Equal(t, `{"apiVersion":"v1","kind":"Namespace","metadata":{"name":"monitoring"}}`, manifest.String())
}

func TestValidate(t *testing.T) {
	valid := NewSpec("v1", "Secret", "bootstrap-token-example", "kube-system", tokenContent())
	require.NoError(t, valid.Validate())

	for _, entry := range []struct {
		name   string
		modify func(*Spec)
	}{
		{"missing apiVersion", func(s *Spec) { s.APIVersion = "" }},
		{"missing kind", func(s *Spec) { s.Kind = "" }},
		{"uppercase name", func(s *Spec) { s.Name = "Token" }},
		{"name ends in dash", func(s *Spec) { s.Name = "token-" }},
		{"long name", func(s *Spec) { s.Name = strings.Repeat("a", 254) }},
		{"bad namespace", func(s *Spec) { s.Namespace = "kube_system" }},
		{"relative kubeconfig", func(s *Spec) { s.Kubeconfig = "kube/config" }},
		{"relative file", func(s *Spec) { s.File = "secret.json" }},
		{"unknown ensure", func(s *Spec) { s.Ensure = "latest" }},
		{"apiVersion in content", func(s *Spec) {
			s.Content = document.MustFromInterface(map[string]interface{}{"apiVersion": "v1"})
		}},
		{"kind in content", func(s *Spec) {
			s.Content = document.MustFromInterface(map[string]interface{}{"kind": "Secret"})
		}},
		{"scalar content", func(s *Spec) { s.Content = document.String("data") }},
	} {
		t.Run(entry.name, func(t *testing.T) {
			spec := valid
			entry.modify(&spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.True(t, fluxerr.IsUser(err))
		})
	}

	single := valid
	single.Name = "a"
	assert.NoError(t, single.Validate())
	colons := valid
	colons.Name = "system:node:worker-1.example"
	assert.NoError(t, colons.Validate())
}

func TestNames(t *testing.T) {
	spec := NewSpec("v1", "Secret", "token", "kube-system", document.NullValue())
	assert.Equal(t, "kube-system/token", spec.NiceName())
	assert.Equal(t, "kube-system:secret/token", spec.ID().String())

	spec.Namespace = ""
	assert.Equal(t, "token", spec.NiceName())
	assert.Equal(t, "<cluster>:secret/token", spec.ID().String())
}
