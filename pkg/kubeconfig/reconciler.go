// Package kubeconfig keeps a cluster, a context and a user in a
// kubeconfig file as declared, leaving every other entry alone. The
// file is only written when its content would change.
package kubeconfig

import (
	"bytes"
	"context"
	"os"
	"os/user"
	"strconv"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"

	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/metrics"
	"github.com/fluxcd/converge/pkg/resource"
)

const (
	Created = "created"
	Updated = "updated"
	Removed = "removed"
)

// Result reports one pass over one kubeconfig file.
type Result struct {
	Path string `json:"path"`
	// Action is one of Created, Updated or Removed; empty if there
	// was nothing to do.
	Action    string `json:"action,omitempty"`
	Converged bool   `json:"converged"`
	// Written is true if the file content was written.
	Written bool `json:"written"`
	DryRun  bool `json:"dryRun,omitempty"`
}

type Reconciler struct {
	Logger log.Logger
	DryRun bool
}

// Reconcile runs a single pass: find or create the cluster, context
// and user entries; if they are not as desired, update them, set the
// current context if asked to, write the file if it changed, and set
// its ownership and mode.
func (r *Reconciler) Reconcile(ctx context.Context, s Settings) (result Result, err error) {
	started := time.Now()
	result.Path = s.Path
	defer func() {
		r.Logger.Log("kubeconfig", s.Path, "action", result.Action, "written", result.Written, "dry-run", r.DryRun, "took", time.Since(started), "err", err)
	}()

	if err := s.Validate(); err != nil {
		return result, err
	}
	result.DryRun = r.DryRun
	if s.Ensure == resource.Absent {
		return r.remove(s.Path, result)
	}

	want, err := s.Resolve()
	if err != nil {
		return result, err
	}
	doc, err := Load(s.Path)
	if err != nil {
		return result, fluxerr.ExecutionError("loading "+s.Path, err)
	}
	valid := doc.Valid(want)
	if doc.Exists() && valid && !doc.Changed() {
		result.Converged = true
		return result, nil
	}

	result.Action = Created
	if doc.Exists() {
		result.Action = Updated
	}
	if r.DryRun {
		return result, nil
	}

	doc.Update(want)
	if doc.Changed() || !doc.Exists() {
		if err := save(s.Path, doc); err != nil {
			return result, err
		}
		result.Written = true
	}
	return result, applyOwnership(s)
}

func (r *Reconciler) remove(path string, result Result) (Result, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		result.Converged = true
		return result, nil
	}
	result.Action = Removed
	if r.DryRun {
		return result, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return result, fluxerr.ExecutionError("removing "+path, err)
	}
	return result, nil
}

func save(path string, doc *Document) (err error) {
	defer func() {
		writesTotal.With(metrics.LabelSuccess, metrics.SuccessLabelValue(err)).Add(1)
	}()
	content, err := doc.Marshal()
	if err != nil {
		return fluxerr.ExecutionError("encoding "+path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return fluxerr.ExecutionError("writing "+path, err)
	}
	doc.saved(content)
	return nil
}

func applyOwnership(s Settings) error {
	if s.Mode != 0 {
		if err := os.Chmod(s.Path, s.Mode); err != nil {
			return fluxerr.ExecutionError("setting mode of "+s.Path, err)
		}
	}
	if s.Owner == "" && s.Group == "" {
		return nil
	}
	uid, gid := -1, -1
	var err error
	if s.Owner != "" {
		if uid, err = lookupID(s.Owner, func(name string) (string, error) {
			u, err := user.Lookup(name)
			if err != nil {
				return "", err
			}
			return u.Uid, nil
		}); err != nil {
			return fluxerr.ExecutionError("looking up owner "+s.Owner, err)
		}
	}
	if s.Group != "" {
		if gid, err = lookupID(s.Group, func(name string) (string, error) {
			g, err := user.LookupGroup(name)
			if err != nil {
				return "", err
			}
			return g.Gid, nil
		}); err != nil {
			return fluxerr.ExecutionError("looking up group "+s.Group, err)
		}
	}
	if err := os.Chown(s.Path, uid, gid); err != nil {
		return fluxerr.ExecutionError("changing ownership of "+s.Path, err)
	}
	return nil
}

// lookupID accepts either a numeric ID or a name to be looked up.
func lookupID(nameOrID string, lookup func(string) (string, error)) (int, error) {
	if id, err := strconv.Atoi(nameOrID); err == nil {
		return id, nil
	}
	id, err := lookup(nameOrID)
	if err != nil {
		return -1, err
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return -1, errors.Wrapf(err, "non-numeric ID %q", id)
	}
	return n, nil
}
