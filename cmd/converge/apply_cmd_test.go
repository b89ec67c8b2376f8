package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluxerr "github.com/fluxcd/converge/pkg/errors"
)

func declarationsFile(t *testing.T, dir string) string {
	return writeFile(t, dir, "converge.yaml", fmt.Sprintf(`
version: 1
resources:
  - apiVersion: v1
    kind: Secret
    name: bootstrap-token-example
    namespace: kube-system
    content:
      data:
        token-id: tokenid
  - apiVersion: v1
    kind: Namespace
    name: monitoring
kubeconfigs:
  - path: %s
    server: https://kubernetes.home.lan:6443
    token: utility-token
`, filepath.Join(dir, "utility.conf")))
}

func TestApplyFileBackend(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state")
	decl := declarationsFile(t, dir)

	out, err := execute(t, "apply", "-f", decl, "--backend", "file", "--state-dir", state)
	require.NoError(t, err)
	assert.Equal(t, `created kubeconfig `+filepath.Join(dir, "utility.conf")+`
created Secret kube-system/bootstrap-token-example
created Namespace monitoring
`, out)
	assert.FileExists(t, filepath.Join(state, "kube-system", "secret", "bootstrap-token-example.yaml"))
	assert.FileExists(t, filepath.Join(state, "_cluster", "namespace", "monitoring.yaml"))
	assert.FileExists(t, filepath.Join(dir, "utility.conf"))

	// nothing left to do
	out, err = execute(t, "apply", "-f", decl, "--backend", "file", "--state-dir", state)
	require.NoError(t, err)
	assert.Empty(t, out)
}

// kubectlNeedingKubeconfig fails like kubectl does when --kubeconfig
// names a file that isn't there, and otherwise finds nothing and
// creates whatever it is given.
const kubectlNeedingKubeconfig = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --kubeconfig)
      if [ ! -f "$2" ]; then
        echo "error: stat $2: no such file or directory" >&2
        exit 1
      fi
      shift ;;
    get)
      echo 'Error from server (NotFound): secrets "admin-token" not found' >&2
      exit 1 ;;
  esac
  shift
done
exit 0
`

func TestApplyKubeconfigBeforeResources(t *testing.T) {
	dir := t.TempDir()
	kubectl := filepath.Join(dir, "kubectl")
	require.NoError(t, os.WriteFile(kubectl, []byte(kubectlNeedingKubeconfig), 0700))
	admin := filepath.Join(dir, "admin.conf")
	decl := writeFile(t, dir, "converge.yaml", fmt.Sprintf(`
version: 1
resources:
  - apiVersion: v1
    kind: Secret
    name: admin-token
    namespace: kube-system
    kubeconfig: %s
kubeconfigs:
  - path: %s
    server: https://kubernetes.home.lan:6443
    token: admin-token
`, admin, admin))

	out, err := execute(t, "apply", "-f", decl, "--kubectl", kubectl)
	require.NoError(t, err)
	assert.Equal(t, "created kubeconfig "+admin+"\ncreated Secret kube-system/admin-token\n", out)
}

func TestApplyDryRun(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state")

	out, err := execute(t, "apply", "-f", declarationsFile(t, dir), "--backend", "file", "--state-dir", state, "--dry-run", "--show-diff")
	require.NoError(t, err)
	assert.Contains(t, out, `(dry run) created Secret kube-system/bootstrap-token-example with {"apiVersion":"v1"`)
	assert.NoDirExists(t, state)
	assert.NoFileExists(t, filepath.Join(dir, "utility.conf"))
}

func TestApplySelector(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state")

	out, err := execute(t, "apply", "-f", declarationsFile(t, dir), "--backend", "file", "--state-dir", state, "--exclude", "<cluster>:*")
	require.NoError(t, err)
	assert.NotContains(t, out, "Namespace monitoring")
	assert.Contains(t, out, "created Secret kube-system/bootstrap-token-example\n")
	assert.NoDirExists(t, filepath.Join(state, "_cluster"))

	out, err = execute(t, "apply", "-f", declarationsFile(t, dir), "--backend", "file", "--state-dir", state, "--include", "*:namespace/*")
	require.NoError(t, err)
	assert.Contains(t, out, "created Namespace monitoring\n")
	assert.NotContains(t, out, "Secret")
}

func TestApplyJSON(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "apply", "-f", declarationsFile(t, dir), "--backend", "file", "--state-dir", filepath.Join(dir, "state"), "-o", "json")
	require.NoError(t, err)

	var rep struct {
		Resources []struct {
			ID, Action string
			Converged  bool
		}
		Kubeconfigs []struct {
			Path, Action string
			Written      bool
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Resources, 2)
	assert.Equal(t, "kube-system:secret/bootstrap-token-example", rep.Resources[0].ID)
	assert.Equal(t, "create", rep.Resources[0].Action)
	assert.False(t, rep.Resources[0].Converged)
	require.Len(t, rep.Kubeconfigs, 1)
	assert.Equal(t, "created", rep.Kubeconfigs[0].Action)
	assert.True(t, rep.Kubeconfigs[0].Written)
}

func TestApplyMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	textfile := filepath.Join(dir, "converge.prom")
	_, err := execute(t, "apply", "-f", declarationsFile(t, dir), "--backend", "file", "--state-dir", filepath.Join(dir, "state"), "--metrics-textfile", textfile)
	require.NoError(t, err)

	content, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "converge_reconcile_pass_duration_seconds")
	assert.Contains(t, string(content), "converge_kubeconfig_writes_total")
}

func TestApplyInvalidDeclarations(t *testing.T) {
	dir := t.TempDir()
	decl := writeFile(t, dir, "converge.yaml", "version: 1\nresources:\n- apiVersion: v1\n  kind: Secret\n  name: Bad_Name\n")
	_, err := execute(t, "apply", "-f", decl, "--backend", "file", "--state-dir", dir)
	require.Error(t, err)
	assert.True(t, fluxerr.IsUser(err))
}

func TestApplyUsage(t *testing.T) {
	for _, args := range [][]string{
		{"apply"},
		{"apply", "-f", "x.yaml", "--backend", "carrier-pigeon"},
		{"apply", "-f", "x.yaml", "-o", "xml"},
		{"apply", "-f", "x.yaml", "extra"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, "%v", args)
		assert.IsType(t, usageError{}, err, "%v", args)
	}
}
