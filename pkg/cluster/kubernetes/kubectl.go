package kubernetes

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/metrics"
	"github.com/fluxcd/converge/pkg/resource"
)

const tempfilePattern = "kubectl_apply"

// Kubectl reaches the cluster by running kubectl. Each method is a
// blocking invocation; the context is the only way of bounding it.
type Kubectl struct {
	exe    string
	logger log.Logger
}

var _ cluster.Boundary = &Kubectl{}

func NewKubectl(exe string, logger log.Logger) *Kubectl {
	if exe == "" {
		exe = "kubectl"
	}
	return &Kubectl{
		exe:    exe,
		logger: logger,
	}
}

func (c *Kubectl) connectArgs(spec resource.Spec) []string {
	var args []string
	if spec.Namespace != "" {
		args = append(args, "--namespace", spec.Namespace)
	}
	if spec.Kubeconfig != "" {
		args = append(args, "--kubeconfig", spec.Kubeconfig)
	}
	return args
}

func (c *Kubectl) Fetch(ctx context.Context, spec resource.Spec) (cluster.Observation, error) {
	out, err := c.doCommand(ctx, spec, "get", spec.Kind, spec.Name, "--output", "json")
	if err != nil {
		if fluxerr.IsMissing(err) {
			return cluster.NotFound, nil
		}
		return cluster.Observation{}, err
	}
	obj, err := document.ParseJSON(out)
	if err == nil && obj.Kind() != document.MappingKind {
		err = errors.Errorf("expected an object, got %s", obj.Kind())
	}
	if err != nil {
		return cluster.Observation{}, fluxerr.ExecutionError("parsing kubectl output for "+spec.ID().String(), err)
	}
	return cluster.Found(obj), nil
}

func (c *Kubectl) Create(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	return c.withManifest(spec, manifest, func(path string) error {
		_, err := c.doCommand(ctx, spec, "create", "-f", path)
		return err
	})
}

func (c *Kubectl) Patch(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error {
	return c.withManifest(spec, manifest, func(path string) error {
		_, err := c.doCommand(ctx, spec, "patch", "-f", path, "-p", string(patch), "--type", "merge")
		return err
	})
}

func (c *Kubectl) Delete(ctx context.Context, spec resource.Spec) error {
	_, err := c.doCommand(ctx, spec, "delete", spec.Kind, spec.Name)
	if fluxerr.IsMissing(err) {
		return nil
	}
	return err
}

func (c *Kubectl) Recreate(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	return c.withManifest(spec, manifest, func(path string) error {
		_, err := c.doCommand(ctx, spec, "delete", "-f", path, "--cascade=orphan", "--wait=false")
		if err != nil && !fluxerr.IsMissing(err) {
			return err
		}
		_, err = c.doCommand(ctx, spec, "create", "-f", path)
		return err
	})
}

// withManifest writes the manifest to a temporary file for the
// duration of f.
func (c *Kubectl) withManifest(spec resource.Spec, manifest document.Value, f func(path string) error) error {
	payload, err := manifest.MarshalJSON()
	if err != nil {
		return fluxerr.ExecutionError("encoding manifest for "+spec.ID().String(), err)
	}
	tmp, err := os.CreateTemp("", tempfilePattern)
	if err != nil {
		return fluxerr.ExecutionError("creating manifest file", err)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(payload)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fluxerr.ExecutionError("writing manifest file", err)
	}
	return f(tmp.Name())
}

func (c *Kubectl) doCommand(ctx context.Context, spec resource.Spec, args ...string) ([]byte, error) {
	command := "kubectl " + args[0]
	args = append(c.connectArgs(spec), args...)
	cmd := c.kubectlCommand(ctx, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout := &bytes.Buffer{}
	cmd.Stdout = stdout

	begin := time.Now()
	err := cmd.Run()
	took := time.Since(begin)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		switch {
		case isNotFoundOutput(msg):
			err = ObjectMissingError(spec.ID().String(), errors.New(msg))
		default:
			err = CommandError(command, errors.Wrap(errors.New(msg), "running kubectl"))
		}
	}

	commandDuration.With(
		metrics.LabelVerb, strings.TrimPrefix(command, "kubectl "),
		metrics.LabelSuccess, metrics.SuccessLabelValue(err),
	).Observe(took.Seconds())
	output := strings.TrimSpace(stdout.String())
	if command == "kubectl get" {
		// objects fetched may well be secrets
		output = fmt.Sprintf("<%d bytes>", stdout.Len())
	}
	c.logger.Log("cmd", "kubectl "+strings.Join(redact(args), " "), "took", took, "err", err, "output", output)
	return stdout.Bytes(), err
}

func (c *Kubectl) kubectlCommand(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, c.exe, args...)
}

// redact keeps merge patches, which may carry secret data, out of
// the logs.
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		if out[i-1] == "-p" {
			out[i] = "<patch>"
		}
	}
	return out
}
