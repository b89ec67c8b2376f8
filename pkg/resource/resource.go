package resource

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"

	"github.com/fluxcd/converge/pkg/document"
	fluxerr "github.com/fluxcd/converge/pkg/errors"
)

// Ensure is the lifecycle target of a resource.
type Ensure string

const (
	Present Ensure = "present"
	Absent  Ensure = "absent"
)

var (
	NameRegexp      = regexp.MustCompile(`^([a-z0-9][a-z0-9.:-]{0,251}[a-z0-9]|[a-z0-9])$`)
	NamespaceRegexp = regexp.MustCompile(`^[a-z0-9.-]{0,253}$`)

	// These are supplied by the identity of a resource, and may not be
	// given again in its content.
	reservedContentKeys = []string{"apiVersion", "kind"}
)

// Spec is the desired state of one resource in the external system.
// It is built afresh for every reconciliation pass.
type Spec struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string

	// Kubeconfig is the path of the kubeconfig file used to reach the
	// resource, if not the default.
	Kubeconfig string
	// File is the path of the local file holding the resource, for
	// file-backed resources.
	File string

	// Content is the base of the resulting object; identity fields
	// are added to it.
	Content document.Value

	Ensure Ensure
	// Update says whether content drift is corrected. When false, a
	// resource that exists is left as it is.
	Update bool
	// Recreate says whether content drift is corrected by removing the
	// resource and creating it again, rather than by patching it.
	Recreate bool
	// ShowDiff includes the patch in change descriptions.
	ShowDiff bool
}

// NewSpec returns a spec with the default lifecycle: present, and
// updated in place when its content drifts.
func NewSpec(apiVersion, kind, name, namespace string, content document.Value) Spec {
	return Spec{
		APIVersion: apiVersion,
		Kind:       kind,
		Name:       name,
		Namespace:  namespace,
		Content:    content,
		Ensure:     Present,
		Update:     true,
	}
}

func (s Spec) ID() ID {
	return MakeID(s.Namespace, s.Kind, s.Name)
}

// NiceName is the name used in change descriptions: namespace/name,
// or just the name for cluster-scoped resources.
func (s Spec) NiceName() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "/" + s.Name
}

// Validate checks the desired state, before anything is asked of the
// external system.
func (s Spec) Validate() error {
	var err error
	switch {
	case s.APIVersion == "":
		err = errors.New("API version is required")
	case s.Kind == "":
		err = errors.New("kind is required")
	case !NameRegexp.MatchString(s.Name):
		err = fmt.Errorf("resource name %q must be valid", s.Name)
	case !NamespaceRegexp.MatchString(s.Namespace):
		err = fmt.Errorf("namespace %q must be valid", s.Namespace)
	case s.Kubeconfig != "" && !filepath.IsAbs(s.Kubeconfig):
		err = fmt.Errorf("kubeconfig path %q must be fully qualified", s.Kubeconfig)
	case s.File != "" && !filepath.IsAbs(s.File):
		err = fmt.Errorf("file path %q must be fully qualified", s.File)
	case s.Ensure != Present && s.Ensure != Absent:
		err = fmt.Errorf("ensure must be %q or %q, not %q", Present, Absent, s.Ensure)
	}
	if err == nil {
		err = validateContent(s.Content)
	}
	if err != nil {
		return fluxerr.ValidationError(err)
	}
	return nil
}

func validateContent(content document.Value) error {
	switch content.Kind() {
	case document.NullKind:
		return nil
	case document.MappingKind:
		for _, key := range reservedContentKeys {
			if _, ok := content.Get(key); ok {
				return fmt.Errorf("can't specify %s in content", key)
			}
		}
		return nil
	}
	return errors.New("content must be a valid content mapping")
}

// Manifest is the full object submitted on creation: the content,
// with apiVersion, kind, metadata.name and (if given)
// metadata.namespace forced to the identity of the spec.
func (s Spec) Manifest() (document.Value, error) {
	hash, _ := s.Content.Interface().(map[string]interface{})
	if hash == nil {
		hash = map[string]interface{}{}
	}
	if _, ok := hash["metadata"].(map[string]interface{}); !ok {
		hash["metadata"] = map[string]interface{}{}
	}

	metadata := map[string]interface{}{
		"name": s.Name,
	}
	if s.Namespace != "" {
		metadata["namespace"] = s.Namespace
	}
	identity := map[string]interface{}{
		"apiVersion": s.APIVersion,
		"kind":       s.Kind,
		"metadata":   metadata,
	}
	if err := mergo.Merge(&hash, identity, mergo.WithOverride); err != nil {
		return document.Value{}, errors.Wrapf(err, "adding identity to %s", s.ID())
	}
	return document.FromInterface(hash)
}
