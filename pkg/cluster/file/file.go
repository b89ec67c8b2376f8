// Package file keeps resources as YAML documents on the local
// filesystem, one resource per file. It lets declarations be
// reconciled, and the reconciliation logic exercised, with no cluster
// at all.
package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"

	"github.com/fluxcd/converge/pkg/cluster"
	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
	"github.com/fluxcd/converge/pkg/resource"
)

// Store is a cluster.Boundary over files. A resource lives at its
// spec's File path if given, otherwise at
// <dir>/<namespace>/<kind>/<name>.yaml, with cluster-scoped resources
// under <dir>/_cluster.
type Store struct {
	dir    string
	logger log.Logger
}

var _ cluster.Boundary = &Store{}

func NewStore(dir string, logger log.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(spec resource.Spec) string {
	if spec.File != "" {
		return spec.File
	}
	namespace := spec.Namespace
	if namespace == "" {
		namespace = "_cluster"
	}
	return filepath.Join(s.dir, namespace, spec.ID().Kind, spec.Name+".yaml")
}

func (s *Store) Fetch(ctx context.Context, spec resource.Spec) (cluster.Observation, error) {
	path := s.path(spec)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cluster.NotFound, nil
	}
	if err != nil {
		return cluster.Observation{}, fluxerr.ExecutionError("reading "+path, err)
	}
	obj, err := document.ParseYAML(data)
	if err == nil && obj.Kind() != document.MappingKind {
		err = errors.Errorf("expected a mapping, got %s", obj.Kind())
	}
	if err != nil {
		return cluster.Observation{}, fluxerr.ExecutionError("parsing "+path, err)
	}
	return cluster.Found(obj), nil
}

func (s *Store) Create(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	return s.write(spec, manifest)
}

func (s *Store) Patch(ctx context.Context, spec resource.Spec, manifest document.Value, patch []byte) error {
	obs, err := s.Fetch(ctx, spec)
	if err != nil {
		return err
	}
	if !obs.Exists {
		return fluxerr.MissingError(spec.ID().String(), errors.New("patching a resource that does not exist"))
	}
	p, err := document.ParseJSON(patch)
	if err != nil {
		return fluxerr.ExecutionError("decoding patch for "+spec.ID().String(), err)
	}
	patched, err := document.MergePatch(obs.Object, p)
	if err != nil {
		return fluxerr.ExecutionError("patching "+spec.ID().String(), err)
	}
	return s.write(spec, patched)
}

func (s *Store) Delete(ctx context.Context, spec resource.Spec) error {
	path := s.path(spec)
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fluxerr.ExecutionError("removing "+path, err)
	}
	s.logger.Log("removed", path)
	return nil
}

// Recreate replaces the file outright; there is nothing to orphan.
func (s *Store) Recreate(ctx context.Context, spec resource.Spec, manifest document.Value) error {
	return s.write(spec, manifest)
}

func (s *Store) write(spec resource.Spec, obj document.Value) error {
	path := s.path(spec)
	out, err := obj.YAML()
	if err != nil {
		return fluxerr.ExecutionError("encoding "+spec.ID().String(), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fluxerr.ExecutionError("creating directory for "+path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(out)); err != nil {
		return fluxerr.ExecutionError("writing "+path, err)
	}
	s.logger.Log("wrote", path)
	return nil
}
